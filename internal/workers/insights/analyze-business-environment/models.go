package analyzebusinessenvironment

import (
	"context"

	"city-insights/internal/insights"
	"city-insights/internal/models"
)

type EntitySource interface {
	GetBrands(ctx context.Context, city, country string, limit int) (models.Document, error)
	GetPlaces(ctx context.Context, city, country string, limit int) (models.Document, error)
}

// LLM turns a prompt into generated text.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

type Input struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Limit   int    `json:"limit"`
	// Message, when set, is answered in the context of the analysis.
	Message string `json:"message,omitempty"`
}

type DataPoints struct {
	BrandsCount int `json:"brandsCount"`
	PlacesCount int `json:"placesCount"`
}

type Output struct {
	RequestID  string            `json:"requestId"`
	Success    bool              `json:"success"`
	Analysis   string            `json:"analysis"`
	Response   string            `json:"response,omitempty"`
	City       string            `json:"city"`
	Country    string            `json:"country"`
	Model      string            `json:"model,omitempty"`
	DataPoints DataPoints        `json:"dataPoints"`
	Summary    *insights.Summary `json:"summary,omitempty"`
}
