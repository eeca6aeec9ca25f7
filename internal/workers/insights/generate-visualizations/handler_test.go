package generatevisualizations

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "city-insights/internal/common/errors"
	"city-insights/internal/common/logger"
	"city-insights/internal/common/validation"
	"city-insights/internal/insights"
	"city-insights/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubSource struct {
	brands   map[string]models.Document
	places   map[string]models.Document
	brandErr error
	placeErr error
	limits   []int
}

func (s *stubSource) GetBrands(_ context.Context, city, _ string, limit int) (models.Document, error) {
	s.limits = append(s.limits, limit)
	if s.brandErr != nil {
		return nil, s.brandErr
	}
	return s.brands[city], nil
}

func (s *stubSource) GetPlaces(_ context.Context, city, _ string, limit int) (models.Document, error) {
	s.limits = append(s.limits, limit)
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return s.places[city], nil
}

func createTestConfig() *Config {
	return &Config{DefaultLimit: 20, Timeout: 3 * time.Second, RunSource: "worker"}
}

func brandDoc(pops ...float64) models.Document {
	var ents []models.Entity
	for i, p := range pops {
		ents = append(ents, models.Entity{
			"name":       string(rune('A' + i)),
			"popularity": p,
			"tags":       []interface{}{map[string]interface{}{"name": "Fashion"}},
		})
	}
	return models.NewDocument(ents...)
}

func placeDoc(n int) models.Document {
	var ents []models.Entity
	for i := 0; i < n; i++ {
		ents = append(ents, models.Entity{
			"name":       string(rune('P' + i)),
			"properties": map[string]interface{}{"business_rating": 4.0},
			"tags":       []interface{}{map[string]interface{}{"name": "Restaurant"}},
		})
	}
	return models.NewDocument(ents...)
}

func codeOf(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr), "expected StandardError, got %v", err)
	return stdErr.Code
}

// ==========================
// Execute
// ==========================

func TestExecute(t *testing.T) {
	allNames := make([]string, 0, len(insights.Kinds))
	for _, k := range insights.Kinds {
		allNames = append(allNames, string(k))
	}

	tests := []struct {
		name      string
		source    *stubSource
		wantNames []string
	}{
		{
			name: "all datasets",
			source: &stubSource{
				brands: map[string]models.Document{"Austin": brandDoc(0.5, 0.9)},
				places: map[string]models.Document{"Austin": placeDoc(5)},
			},
			wantNames: allNames,
		},
		{
			name: "places fetch fails",
			source: &stubSource{
				brands:   map[string]models.Document{"Austin": brandDoc(0.5)},
				placeErr: errors.New("connection refused"),
			},
			wantNames: []string{"brand_popularity", "brand_categories"},
		},
		{
			name: "too few places for density",
			source: &stubSource{
				places: map[string]models.Document{"Austin": placeDoc(3)},
			},
			wantNames: []string{"place_ratings", "place_categories", "business_hours", "price_range"},
		},
		{
			name:      "both fetches fail",
			source:    &stubSource{brandErr: errors.New("boom"), placeErr: errors.New("boom")},
			wantNames: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(createTestConfig(), tt.source, logger.NewTestLogger(t))
			out, err := h.Execute(context.Background(), &Input{City: "Austin", Country: "US", Limit: 15})
			require.NoError(t, err)

			assert.Equal(t, tt.wantNames, out.DatasetNames)
			assert.Len(t, out.Visualizations, len(tt.wantNames))
			assert.Len(t, out.RequestID, 8)
			assert.Equal(t, "Austin", out.City)
			assert.Nil(t, out.Comparison)
			assert.Equal(t, []int{15, 15}, tt.source.limits)
		})
	}
}

func TestExecute_DefaultLimit(t *testing.T) {
	src := &stubSource{}
	h := NewHandler(createTestConfig(), src, logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), &Input{City: "Oslo"})
	require.NoError(t, err)
	assert.Equal(t, []int{20, 20}, src.limits)
}

func TestExecute_InvalidInput(t *testing.T) {
	h := NewHandler(createTestConfig(), &stubSource{}, logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), nil)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, codeOf(t, err))

	_, err = h.Execute(context.Background(), &Input{City: "   "})
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, codeOf(t, err))
}

func TestExecute_WithComparison(t *testing.T) {
	src := &stubSource{
		brands: map[string]models.Document{
			"Austin": brandDoc(0.5, 0.7),
			"Denver": brandDoc(0.2),
		},
	}
	h := NewHandler(createTestConfig(), src, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{
		City:          "Austin",
		Country:       "US",
		CompareCities: []CityRef{{City: "Denver", Country: "US"}, {City: "Nowhere"}},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Comparison)
	require.Len(t, out.Comparison.Cities, 2)
	assert.Equal(t, "Austin", out.Comparison.Cities[0].City)
	assert.InDelta(t, 60.0, out.Comparison.Cities[0].AveragePopularity, 1e-9)
	assert.Equal(t, "Denver", out.Comparison.Cities[1].City)
	assert.InDelta(t, 20.0, out.Comparison.Cities[1].AveragePopularity, 1e-9)
}

// ==========================
// Compare
// ==========================

func TestCompare(t *testing.T) {
	src := &stubSource{brands: map[string]models.Document{"Lima": brandDoc(0.4)}}
	h := NewHandler(createTestConfig(), src, logger.NewNoOpLogger())

	tests := []struct {
		name     string
		cities   []CityRef
		wantCode apperrors.ErrorCode
		wantLen  int
	}{
		{name: "one city with data", cities: []CityRef{{City: "Lima"}, {City: "Quito"}}, wantLen: 1},
		{name: "no city has data", cities: []CityRef{{City: "Quito"}}, wantCode: apperrors.ErrCodeAnalysisDataUnavailable},
		{name: "no cities", cities: nil, wantCode: apperrors.ErrCodeInvalidRequest},
		{name: "blank city", cities: []CityRef{{City: ""}}, wantCode: apperrors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := h.Compare(context.Background(), tt.cities)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, codeOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, ds.Cities, tt.wantLen)
		})
	}
}

// ==========================
// Job variables
// ==========================

func TestParseInput(t *testing.T) {
	v := validation.NewValidator()
	require.NoError(t, v.Register(TaskType, map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"city"},
		"properties": map[string]interface{}{
			"city":  map[string]interface{}{"type": "string", "minLength": 1},
			"limit": map[string]interface{}{"type": "integer", "minimum": 1},
		},
	}))
	h := NewHandler(createTestConfig(), &stubSource{}, logger.NewNoOpLogger(), WithValidator(v))

	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{name: "valid", variables: `{"city":"Paris","country":"FR","limit":10}`},
		{name: "missing city", variables: `{"country":"FR"}`, wantErr: true},
		{name: "bad limit", variables: `{"city":"Paris","limit":0}`, wantErr: true},
		{name: "malformed", variables: `{"city":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(tt.variables)
			if tt.wantErr {
				assert.Equal(t, apperrors.ErrCodeInvalidRequest, codeOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Paris", input.City)
			assert.Equal(t, 10, input.Limit)
		})
	}
}
