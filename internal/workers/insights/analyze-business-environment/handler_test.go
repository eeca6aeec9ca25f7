package analyzebusinessenvironment

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "city-insights/internal/common/errors"
	"city-insights/internal/common/logger"
	"city-insights/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubSource struct {
	brands   models.Document
	places   models.Document
	brandErr error
	placeErr error
	limits   []int
}

func (s *stubSource) GetBrands(_ context.Context, _, _ string, limit int) (models.Document, error) {
	s.limits = append(s.limits, limit)
	return s.brands, s.brandErr
}

func (s *stubSource) GetPlaces(_ context.Context, _, _ string, limit int) (models.Document, error) {
	s.limits = append(s.limits, limit)
	return s.places, s.placeErr
}

type stubLLM struct {
	replies []string
	err     error
	prompts []string
}

func (l *stubLLM) Generate(_ context.Context, prompt string) (string, error) {
	l.prompts = append(l.prompts, prompt)
	if l.err != nil {
		return "", l.err
	}
	reply := l.replies[0]
	l.replies = l.replies[1:]
	return reply, nil
}

func (l *stubLLM) Model() string { return "test-model" }

func createTestConfig() *Config {
	return &Config{DefaultLimit: 50, Timeout: 3 * time.Second, RunSource: "worker"}
}

func cityDocs() (models.Document, models.Document) {
	brands := models.NewDocument(
		models.Entity{"name": "Alpha", "popularity": 0.9, "tags": []interface{}{map[string]interface{}{"name": "Fashion"}}},
		models.Entity{"name": "Beta", "popularity": 0.4, "tags": []interface{}{map[string]interface{}{"name": "Fashion"}}},
	)
	places := models.NewDocument(
		models.Entity{
			"name":       "Cafe Uno",
			"properties": map[string]interface{}{"business_rating": "4.6"},
			"tags":       []interface{}{map[string]interface{}{"name": "Cafe"}},
		},
	)
	return brands, places
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

func TestExecute_Analysis(t *testing.T) {
	brands, places := cityDocs()
	src := &stubSource{brands: brands, places: places}
	llm := &stubLLM{replies: []string{"A vibrant fashion market."}}
	h := NewHandler(createTestConfig(), src, llm, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{City: "Austin", Country: "US"})
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, "A vibrant fashion market.", out.Analysis)
	assert.Empty(t, out.Response)
	assert.Equal(t, "test-model", out.Model)
	assert.Equal(t, DataPoints{BrandsCount: 2, PlacesCount: 1}, out.DataPoints)
	assert.Len(t, out.RequestID, 8)
	assert.Equal(t, []int{50, 50}, src.limits)

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "business environment of Austin, US")
	assert.Contains(t, prompt, "Total brands analyzed: 2")
	assert.Contains(t, prompt, "Brand categories: Fashion: 2")
	assert.Contains(t, prompt, `"name": "Cafe Uno"`)
	assert.Contains(t, prompt, "300-400 words")
}

func TestExecute_ChatMessage(t *testing.T) {
	brands, places := cityDocs()
	llm := &stubLLM{replies: []string{"Analysis body.", "Open near downtown."}}
	h := NewHandler(createTestConfig(), &stubSource{brands: brands, places: places}, llm, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{City: "Austin", Country: "US", Limit: 30, Message: "Where should I open a cafe?"})
	require.NoError(t, err)

	assert.Equal(t, "Analysis body.", out.Analysis)
	assert.Equal(t, "Open near downtown.", out.Response)
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[1], "Analysis body.")
	assert.Contains(t, llm.prompts[1], "User Question: Where should I open a cafe?")
	assert.Contains(t, llm.prompts[1], "100-200 words")
}

func TestExecute_Errors(t *testing.T) {
	brands, places := cityDocs()

	tests := []struct {
		name      string
		input     *Input
		source    *stubSource
		llmErr    error
		wantCode  apperrors.ErrorCode
		wantCalls int
	}{
		{
			name:     "missing city",
			input:    &Input{Country: "US"},
			source:   &stubSource{},
			wantCode: apperrors.ErrCodeInvalidRequest,
		},
		{
			name:     "brands fetch fails",
			input:    &Input{City: "Austin"},
			source:   &stubSource{brandErr: errors.New("boom"), places: places},
			wantCode: apperrors.ErrCodeAnalysisDataUnavailable,
		},
		{
			name:     "places missing",
			input:    &Input{City: "Austin"},
			source:   &stubSource{brands: brands},
			wantCode: apperrors.ErrCodeAnalysisDataUnavailable,
		},
		{
			name:      "model timeout",
			input:     &Input{City: "Austin"},
			source:    &stubSource{brands: brands, places: places},
			llmErr:    apperrors.NewLLMTimeoutError(),
			wantCode:  apperrors.ErrCodeLLMTimeout,
			wantCalls: 1,
		},
		{
			name:      "bare deadline",
			input:     &Input{City: "Austin"},
			source:    &stubSource{brands: brands, places: places},
			llmErr:    context.DeadlineExceeded,
			wantCode:  apperrors.ErrCodeLLMTimeout,
			wantCalls: 1,
		},
		{
			name:      "model failure",
			input:     &Input{City: "Austin"},
			source:    &stubSource{brands: brands, places: places},
			llmErr:    errors.New("rate limited"),
			wantCode:  apperrors.ErrCodeLLMSynthesisFailed,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &stubLLM{err: tt.llmErr}
			h := NewHandler(createTestConfig(), tt.source, llm, logger.NewNoOpLogger())

			out, err := h.Execute(context.Background(), tt.input)
			assert.Nil(t, out)
			assert.Equal(t, tt.wantCode, codeOf(t, err))
			assert.Len(t, llm.prompts, tt.wantCalls)
		})
	}
}

func TestExecute_CallerDeadline(t *testing.T) {
	brands, places := cityDocs()
	llm := &stubLLM{err: errors.New("connection reset")}
	h := NewHandler(createTestConfig(), &stubSource{brands: brands, places: places}, llm, logger.NewNoOpLogger())

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	out, err := h.Execute(ctx, &Input{City: "Austin"})
	assert.Nil(t, out)
	assert.Equal(t, apperrors.ErrCodeLLMTimeout, codeOf(t, err))
}

func TestParseInput(t *testing.T) {
	h := NewHandler(createTestConfig(), &stubSource{}, &stubLLM{}, logger.NewNoOpLogger())

	input, err := h.parseInput(`{"city":"Rome","country":"IT","message":"hi"}`)
	require.NoError(t, err)
	assert.Equal(t, &Input{City: "Rome", Country: "IT", Message: "hi"}, input)

	_, err = h.parseInput(`not json`)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, codeOf(t, err))
}
