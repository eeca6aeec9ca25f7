package insights

import "city-insights/internal/models"

type CityPopularity struct {
	City              string  `json:"city"`
	Country           string  `json:"country"`
	AveragePopularity float64 `json:"averagePopularityPct"`
	Brands            int     `json:"brands"`
}

// ComparisonDataset compares average brand popularity between cities.
type ComparisonDataset struct {
	Label  string           `json:"title"`
	Cities []CityPopularity `json:"cities"`
}

// CityBrands is one city's brand document for a comparison.
type CityBrands struct {
	Context Context
	Brands  models.Document
}

// AveragePopularity is the mean popularity percentage over all brands in doc.
// ok is false when there is no brand to average.
func AveragePopularity(doc models.Document) (avg float64, n int, ok bool) {
	records, found := NormalizeAll(doc)
	if !found || len(records) == 0 {
		return 0, 0, false
	}
	var sum float64
	for _, rec := range records {
		sum += rec.PopularityPct
	}
	return sum / float64(len(records)), len(records), true
}

// Compare averages brand popularity per city in input order. Cities without
// brands are skipped; ErrNoData is returned when none remain.
func Compare(cities []CityBrands) (*ComparisonDataset, error) {
	ds := &ComparisonDataset{Label: "Average Brand Popularity Comparison Across Cities"}
	for _, c := range cities {
		avg, n, ok := AveragePopularity(c.Brands)
		if !ok {
			continue
		}
		ds.Cities = append(ds.Cities, CityPopularity{
			City:              c.Context.City,
			Country:           c.Context.Country,
			AveragePopularity: avg,
			Brands:            n,
		})
	}
	if len(ds.Cities) == 0 {
		return nil, ErrNoData
	}
	return ds, nil
}
