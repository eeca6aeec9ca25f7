package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "city-insights/internal/common/errors"
	"city-insights/internal/common/logger"
	"city-insights/internal/insights"
	analysis "city-insights/internal/workers/insights/analyze-business-environment"
	visualizations "city-insights/internal/workers/insights/generate-visualizations"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubVisualizations struct {
	lastInput  *visualizations.Input
	lastCities []visualizations.CityRef
	err        error
}

func (s *stubVisualizations) Execute(_ context.Context, input *visualizations.Input) (*visualizations.Output, error) {
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &visualizations.Output{
		RequestID: "abcd1234",
		City:      input.City,
		Visualizations: insights.Result{
			insights.KindPlaceRatings: &insights.RatingsDataset{Label: "Place Ratings in " + input.City, Ratings: []float64{4.5}},
		},
	}, nil
}

func (s *stubVisualizations) Compare(_ context.Context, cities []visualizations.CityRef) (*insights.ComparisonDataset, error) {
	s.lastCities = cities
	if s.err != nil {
		return nil, s.err
	}
	return &insights.ComparisonDataset{
		Label:  "Average Brand Popularity Comparison Across Cities",
		Cities: []insights.CityPopularity{{City: cities[0].City, AveragePopularity: 55, Brands: 3}},
	}, nil
}

type stubAnalysis struct {
	lastInput *analysis.Input
	err       error
}

func (s *stubAnalysis) Execute(_ context.Context, input *analysis.Input) (*analysis.Output, error) {
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	out := &analysis.Output{Success: true, Analysis: "Solid market.", City: input.City, Country: input.Country}
	if input.Message != "" {
		out.Response = "Try the old town."
	}
	return out, nil
}

func newTestRouter(t *testing.T, viz *stubVisualizations, an *stubAnalysis) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewController(viz, an), logger.NewTestLogger(t))
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ==========================
// Routes
// ==========================

func TestHealth(t *testing.T) {
	r := newTestRouter(t, &stubVisualizations{}, &stubAnalysis{})
	w := do(r, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	assert.Len(t, w.Header().Get("X-Request-Id"), 8)
}

func TestVisualizations(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantLimit  int
	}{
		{name: "default limit", body: `{"city":"Lisbon","country":"PT"}`, wantStatus: http.StatusOK, wantLimit: 20},
		{name: "explicit limit", body: `{"city":"Lisbon","limit":50}`, wantStatus: http.StatusOK, wantLimit: 50},
		{name: "missing city", body: `{"country":"PT"}`, wantStatus: http.StatusBadRequest},
		{name: "limit too large", body: `{"city":"Lisbon","limit":500}`, wantStatus: http.StatusBadRequest},
		{name: "malformed", body: `{"city":`, wantStatus: http.StatusBadRequest},
		{
			name:       "service failure",
			body:       `{"city":"Lisbon"}`,
			err:        apperrors.NewUpstreamTimeoutError("brand"),
			wantStatus: http.StatusGatewayTimeout,
			wantLimit:  20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viz := &stubVisualizations{err: tt.err}
			w := do(newTestRouter(t, viz, &stubAnalysis{}), http.MethodPost, "/api/visualizations", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantLimit > 0 {
				require.NotNil(t, viz.lastInput)
				assert.Equal(t, tt.wantLimit, viz.lastInput.Limit)
			}
			if tt.wantStatus != http.StatusOK {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.NotEmpty(t, body["error"])
				return
			}
			assert.JSONEq(t, `{"place_ratings":{"title":"Place Ratings in Lisbon","ratings":[4.5]}}`, w.Body.String())
		})
	}
}

func TestComparison(t *testing.T) {
	viz := &stubVisualizations{}
	r := newTestRouter(t, viz, &stubAnalysis{})

	w := do(r, http.MethodPost, "/api/comparison", `{"cities":[{"city":"Paris","country":"FR"},{"city":"Berlin","limit":5}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []visualizations.CityRef{
		{City: "Paris", Country: "FR", Limit: 20},
		{City: "Berlin", Limit: 5},
	}, viz.lastCities)
	assert.Contains(t, w.Body.String(), `"averagePopularityPct":55`)

	w = do(r, http.MethodPost, "/api/comparison", `{"cities":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	viz.err = apperrors.NewAnalysisDataUnavailableError("Paris")
	w = do(r, http.MethodPost, "/api/comparison", `{"cities":[{"city":"Paris"}]}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAnalysis(t *testing.T) {
	an := &stubAnalysis{}
	r := newTestRouter(t, &stubVisualizations{}, an)

	w := do(r, http.MethodPost, "/api/chatgpt-analysis", `{"city":"London","country":"GB"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30, an.lastInput.Limit)

	var out analysis.Output
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.Equal(t, "Solid market.", out.Analysis)

	an.err = apperrors.NewLLMSynthesisFailedError(assert.AnError)
	w = do(r, http.MethodPost, "/api/chatgpt-analysis", `{"city":"London"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"LLM analysis API error","code":"LLM_SYNTHESIS_FAILED"}`, w.Body.String())
}

func TestChatResponse(t *testing.T) {
	an := &stubAnalysis{}
	r := newTestRouter(t, &stubVisualizations{}, an)

	w := do(r, http.MethodPost, "/api/chat-response", `{"city":"London","country":"GB"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Message is required"}`, w.Body.String())
	assert.Nil(t, an.lastInput)

	w = do(r, http.MethodPost, "/api/chat-response", `{"city":"London","country":"GB","message":"Is retail growing?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, an.lastInput.Limit)
	assert.JSONEq(t, `{"success":true,"response":"Try the old town.","analysis":"Solid market."}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, &stubVisualizations{}, &stubAnalysis{})
	w := do(r, http.MethodOptions, "/api/visualizations", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, &stubVisualizations{}, &stubAnalysis{})
	do(r, http.MethodGet, "/api/health", "")

	w := do(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "insights_http_requests_total")
}
