package render

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"city-insights/internal/insights"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() insights.Result {
	return insights.Result{
		insights.KindBrandPopularity: &insights.PopularityDataset{
			Label: "Brand Popularity in Austin",
			Entries: []insights.PopularityEntry{
				{Brand: "Alpha", PopularityPct: 42},
				{Brand: "Beta", PopularityPct: 87.5},
			},
		},
		insights.KindBrandCategories: &insights.CategoryDataset{
			DatasetKind: insights.KindBrandCategories,
			Label:       "Top Brand Categories in Austin",
			Categories:  []insights.CategoryCount{{Category: "Food", Count: 3}, {Category: "Retail", Count: 1}},
		},
		insights.KindPlaceRatings: &insights.RatingsDataset{
			Label:   "Place Ratings in Austin",
			Ratings: []float64{4.5, 3.2, 5, 0.4},
		},
		insights.KindBusinessDensity: &insights.DensityDataset{
			Label:  "Business Density in Austin",
			Points: []insights.DensityPoint{{Name: "Cafe Uno", TagCount: 3, Rating: 4.1}},
		},
		insights.KindBusinessHours: &insights.HoursDataset{
			Label: "Business Hours in Austin",
			Hours: []insights.HourlyCount{{Hour: 0, ActiveBusinesses: 0}, {Hour: 9, ActiveBusinesses: 4}},
		},
		insights.KindPriceRange: &insights.PriceDataset{
			Label:   "Price Range Distribution in Austin",
			Buckets: []insights.PriceBucketCount{{Bucket: "Budget ($)", Count: 2}, {Bucket: "Moderate ($$)", Count: 1}},
		},
	}
}

func TestFromDataset(t *testing.T) {
	result := sampleResult()

	tests := []struct {
		kind       insights.Kind
		wantType   string
		wantLabels []string
		wantValues []float64
	}{
		{insights.KindBrandPopularity, TypeBar, []string{"Alpha", "Beta"}, []float64{42, 87.5}},
		{insights.KindBrandCategories, TypePie, []string{"Food", "Retail"}, []float64{3, 1}},
		{insights.KindPlaceRatings, TypeBar, ratingBins, []float64{1, 0, 0, 0, 0, 0, 1, 0, 0, 2}},
		{insights.KindBusinessDensity, TypeTable, []string{"Cafe Uno (3 tags)"}, []float64{4.1}},
		{insights.KindBusinessHours, TypeBar, []string{"00", "09"}, []float64{0, 4}},
		{insights.KindPriceRange, TypePie, []string{"Budget ($)", "Moderate ($$)"}, []float64{2, 1}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			c, ok := FromDataset(result[tt.kind])
			require.True(t, ok)
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, tt.wantType, c.Type)
			assert.Equal(t, tt.wantLabels, c.Labels)
			assert.Equal(t, tt.wantValues, c.Values)
		})
	}
}

func TestCharts_BuildOrder(t *testing.T) {
	var kinds []insights.Kind
	for _, c := range Charts(sampleResult()) {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []insights.Kind{
		insights.KindBrandPopularity,
		insights.KindBrandCategories,
		insights.KindPlaceRatings,
		insights.KindBusinessDensity,
		insights.KindBusinessHours,
		insights.KindPriceRange,
	}, kinds)
}

func TestRenderPNG(t *testing.T) {
	for _, c := range Charts(sampleResult()) {
		if c.Type == TypeTable {
			continue
		}
		t.Run(string(c.Kind), func(t *testing.T) {
			png, err := RenderPNG(c, 600, 400)
			require.NoError(t, err)
			require.Greater(t, len(png), 8)
			assert.Equal(t, "PNG", string(png[1:4]))
		})
	}
}

func TestRenderPNG_Errors(t *testing.T) {
	_, err := RenderPNG(Chart{Type: TypeTable, Labels: []string{"a"}, Values: []float64{1}}, 600, 400)
	assert.Error(t, err)

	_, err = RenderPNG(Chart{Type: TypeBar}, 600, 400)
	assert.Error(t, err)
}

func TestWritePNGs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	paths, err := WritePNGs(dir, sampleResult())
	require.NoError(t, err)
	assert.Len(t, paths, 5)

	_, err = os.Stat(filepath.Join(dir, "business_hours.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "business_density.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestRenderTextTable(t *testing.T) {
	c := Chart{Title: "Prices", Labels: []string{"Budget ($)", "Luxury ($$$$)"}, Values: []float64{3, 0.5}}
	out := RenderTextTable(c)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Prices", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "┌"))
	assert.Contains(t, lines[2], "Budget ($)")
	assert.True(t, strings.HasSuffix(lines[2], " 3 │"))
	assert.True(t, strings.HasSuffix(lines[3], " 0.5 │"))
	assert.True(t, strings.HasPrefix(lines[4], "└"))
	assertAligned(t, lines[1:])

	assert.Empty(t, RenderTextTable(Chart{Title: "empty"}))
}

func TestRenderTextTable_WideCharacters(t *testing.T) {
	out := RenderTextTable(Chart{Labels: []string{"東京ラーメン", "Cafe"}, Values: []float64{3, 1}})

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "東京ラーメン")
	assertAligned(t, lines)
}

func assertAligned(t *testing.T, lines []string) {
	t.Helper()
	want := lipgloss.Width(lines[0])
	for _, l := range lines {
		assert.Equal(t, want, lipgloss.Width(l), "line %q", l)
	}
}

func TestRatingBin(t *testing.T) {
	tests := []struct {
		rating float64
		want   int
	}{
		{rating: 0, want: 0},
		{rating: 3.2, want: 6},
		{rating: 4.99, want: 9},
		{rating: 5, want: 9},
		{rating: -2, want: 0},
		{rating: 1e300, want: 9},
		{rating: math.Inf(1), want: 9},
		{rating: math.NaN(), want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ratingBin(tt.rating), "rating %v", tt.rating)
	}
}

func TestRenderText(t *testing.T) {
	out := RenderText(sampleResult())
	assert.Contains(t, out, "Brand Popularity in Austin")
	assert.Contains(t, out, "Cafe Uno (3 tags)")
	assert.Equal(t, 5, strings.Count(out, "\n\n"))
}

func TestRenderPNG_Line(t *testing.T) {
	png, err := RenderPNG(Chart{Type: TypeLine, Title: "Trend", Labels: []string{"a", "b", "c"}, Values: []float64{1, 3, 2}}, 600, 400)
	require.NoError(t, err)
	assert.Equal(t, "PNG", string(png[1:4]))
}

func TestNonZeroSlices(t *testing.T) {
	labels, values := nonZeroSlices([]string{"a", "b", "c"}, []float64{2, 0, 1})
	assert.Equal(t, []string{"a", "c"}, labels)
	assert.Equal(t, []float64{2, 1}, values)

	_, err := RenderPNG(Chart{Type: TypePie, Labels: []string{"a"}, Values: []float64{0}}, 600, 400)
	assert.Error(t, err)
}
