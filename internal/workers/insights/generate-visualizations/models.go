package generatevisualizations

import (
	"context"

	"city-insights/internal/insights"
	"city-insights/internal/models"
)

// EntitySource fetches the brand and place documents for a city.
type EntitySource interface {
	GetBrands(ctx context.Context, city, country string, limit int) (models.Document, error)
	GetPlaces(ctx context.Context, city, country string, limit int) (models.Document, error)
}

type CityRef struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Limit   int    `json:"limit,omitempty"`
}

type Input struct {
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Limit         int       `json:"limit"`
	CompareCities []CityRef `json:"compareCities,omitempty"`
}

type Output struct {
	RequestID      string                      `json:"requestId"`
	City           string                      `json:"city"`
	Country        string                      `json:"country"`
	Visualizations insights.Result             `json:"visualizations"`
	DatasetNames   []string                    `json:"datasetNames"`
	Comparison     *insights.ComparisonDataset `json:"comparison,omitempty"`
}
