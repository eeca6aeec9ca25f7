package analyzebusinessenvironment

import (
	"encoding/json"
	"fmt"
	"strings"

	"city-insights/internal/insights"
)

const promptSampleSize = 3

// AnalysisPrompt asks for a business environment analysis of the summarized
// city.
func AnalysisPrompt(s *insights.Summary) string {
	where := location(s.City, s.Country)

	var b strings.Builder
	fmt.Fprintf(&b, "Please analyze the business environment of %s based on the following data:\n\n", where)

	b.WriteString("Business Data Summary:\n")
	fmt.Fprintf(&b, "- Total brands analyzed: %d\n", s.BrandsCount)
	fmt.Fprintf(&b, "- Total places analyzed: %d\n\n", s.PlacesCount)

	b.WriteString("Top Business Categories:\n")
	fmt.Fprintf(&b, "- Brand categories: %s\n", formatCounts(s.BrandCategories))
	fmt.Fprintf(&b, "- Place categories: %s\n\n", formatCounts(s.PlaceCategories))

	b.WriteString("Top Rated Places:\n")
	b.WriteString(indentJSON(headPlaces(s.TopRatedPlaces)))
	b.WriteString("\n\nMost Popular Brands:\n")
	b.WriteString(indentJSON(headBrands(s.PopularBrands)))

	b.WriteString("\n\nAnalysis Request:\n")
	b.WriteString("Please provide a comprehensive business environment analysis covering:\n\n")
	fmt.Fprintf(&b, "1. Market Overview: What type of business environment exists in %s?\n", s.City)
	b.WriteString("2. Business Diversity: How diverse is the business landscape?\n")
	b.WriteString("3. Quality Assessment: What's the overall quality of businesses?\n")
	b.WriteString("4. Market Opportunities: What business opportunities exist?\n")
	b.WriteString("5. Competitive Landscape: How competitive is the market?\n")
	b.WriteString("6. Consumer Preferences: What do the popular brands and top-rated places reveal about local preferences?\n\n")
	b.WriteString("Please provide a clear, professional analysis that would be useful for business decision-makers ")
	b.WriteString("considering this market. Keep the analysis concise but comprehensive (around 300-400 words).\n")
	return b.String()
}

// ChatPrompt answers message using a previous analysis as context.
func ChatPrompt(city, country, analysis, message string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a business analyst assistant for %s.\n\n", location(city, country))
	b.WriteString("Business Environment Context:\n")
	b.WriteString(analysis)
	fmt.Fprintf(&b, "\n\nUser Question: %s\n\n", message)
	b.WriteString("Please provide a helpful response based on the business environment analysis above. ")
	fmt.Fprintf(&b, "If the user is asking about something not covered in the analysis, provide general business insights about %s. ", city)
	b.WriteString("Keep your response conversational and informative (100-200 words).\n")
	return b.String()
}

func location(city, country string) string {
	if country == "" {
		return city
	}
	return city + ", " + country
}

func formatCounts(counts []insights.CategoryCount) string {
	if len(counts) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%s: %d", c.Category, c.Count))
	}
	return strings.Join(parts, ", ")
}

func headPlaces(p []insights.PlaceSummary) []insights.PlaceSummary {
	if len(p) > promptSampleSize {
		return p[:promptSampleSize]
	}
	if p == nil {
		return []insights.PlaceSummary{}
	}
	return p
}

func headBrands(p []insights.BrandSummary) []insights.BrandSummary {
	if len(p) > promptSampleSize {
		return p[:promptSampleSize]
	}
	if p == nil {
		return []insights.BrandSummary{}
	}
	return p
}

func indentJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}
