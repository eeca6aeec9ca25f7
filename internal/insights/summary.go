package insights

import (
	"sort"

	"city-insights/internal/models"
)

const (
	summarySampleSize = 20
	summaryTopN       = 5
)

type BrandSummary struct {
	Name       string   `json:"name"`
	Popularity float64  `json:"popularity"`
	Categories []string `json:"categories"`
}

type PlaceSummary struct {
	Name       string   `json:"name"`
	Rating     string   `json:"rating"`
	Categories []string `json:"categories"`
	PriceRange string   `json:"priceRange"`
}

// Summary condenses both collections into the facts an analyst (or a
// language model) needs about a city.
type Summary struct {
	City            string          `json:"city"`
	Country         string          `json:"country"`
	BrandsCount     int             `json:"brandsCount"`
	PlacesCount     int             `json:"placesCount"`
	Brands          []BrandSummary  `json:"brands"`
	Places          []PlaceSummary  `json:"places"`
	BrandCategories []CategoryCount `json:"brandCategories"`
	PlaceCategories []CategoryCount `json:"placeCategories"`
	TopRatedPlaces  []PlaceSummary  `json:"topRatedPlaces"`
	PopularBrands   []BrandSummary  `json:"popularBrands"`
}

// Summarize samples the first 20 brands and places, tallies their categories
// and picks the five best rated places and five most popular brands out of
// the full collections. Missing documents count as empty.
func Summarize(brands, places models.Document, ctx Context) *Summary {
	brandRecs, _ := NormalizeAll(brands)
	placeRecs, _ := NormalizeAll(places)

	s := &Summary{
		City:        ctx.City,
		Country:     ctx.Country,
		BrandsCount: len(brandRecs),
		PlacesCount: len(placeRecs),
	}

	brandSample := head(brandRecs, summarySampleSize)
	placeSample := head(placeRecs, summarySampleSize)

	for _, rec := range brandSample {
		s.Brands = append(s.Brands, brandSummary(rec))
	}
	for _, rec := range placeSample {
		s.Places = append(s.Places, placeSummary(rec))
	}
	s.BrandCategories = Tally(brandSample, summaryTopN)
	s.PlaceCategories = Tally(placeSample, summaryTopN)

	var rated []Record
	for _, rec := range placeRecs {
		if rec.HasRating {
			rated = append(rated, rec)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool { return rated[i].Rating > rated[j].Rating })
	for _, rec := range head(rated, summaryTopN) {
		s.TopRatedPlaces = append(s.TopRatedPlaces, placeSummary(rec))
	}

	popular := append([]Record(nil), brandRecs...)
	sort.SliceStable(popular, func(i, j int) bool { return popular[i].Popularity > popular[j].Popularity })
	for _, rec := range head(popular, summaryTopN) {
		s.PopularBrands = append(s.PopularBrands, brandSummary(rec))
	}

	return s
}

func head(records []Record, n int) []Record {
	if len(records) > n {
		return records[:n]
	}
	return records
}

func brandSummary(rec Record) BrandSummary {
	return BrandSummary{Name: rec.Name, Popularity: rec.Popularity, Categories: nonNil(rec.Categories)}
}

func placeSummary(rec Record) PlaceSummary {
	rating := rec.RatingText
	if rating == "" {
		rating = notAvailable
	}
	price := rec.PriceRange
	if price == "" {
		price = notAvailable
	}
	return PlaceSummary{Name: rec.Name, Rating: rating, Categories: nonNil(rec.Categories), PriceRange: price}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
