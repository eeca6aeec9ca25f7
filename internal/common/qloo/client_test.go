package qloo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"city-insights/internal/common/config"
	apperrors "city-insights/internal/common/errors"
	"city-insights/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brandsBody = `{
  "success": true,
  "results": {
    "entities": [
      {"name": "Nike", "popularity": 0.93, "tags": [{"name": "Sportswear"}]},
      {"name": "Zara", "popularity": 0.71}
    ]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.QlooConfig{
		BaseURL:    srv.URL + "/",
		APIKey:     "test-key",
		Timeout:    2000,
		MaxRetries: 0,
	}, logger.NewTestLogger(t))
}

func TestGetBrands(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/insights", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "urn:entity:brand", q.Get("filter.type"))
		assert.Equal(t, "London", q.Get("signal.location.query"))
		assert.Equal(t, "GB", q.Get("signal.location.country_code"))
		assert.Equal(t, "20", q.Get("take"))
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		_, _ = w.Write([]byte(brandsBody))
	})

	doc, err := c.GetBrands(context.Background(), "London", "GB", 20)
	require.NoError(t, err)

	entities, ok := doc.Entities()
	require.True(t, ok)
	require.Len(t, entities, 2)
	name, _ := entities[0].String("name")
	assert.Equal(t, "Nike", name)
}

func TestGetPlaces_OmitsEmptyParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "urn:entity:place", q.Get("filter.type"))
		assert.False(t, q.Has("signal.location.country_code"))
		assert.False(t, q.Has("take"))
		_, _ = w.Write([]byte(`{"results": {"entities": []}}`))
	})

	doc, err := c.GetPlaces(context.Background(), "Tokyo", "", 0)
	require.NoError(t, err)
	entities, ok := doc.Entities()
	assert.True(t, ok)
	assert.Empty(t, entities)
}

func TestFetch_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	})

	_, err := c.GetBrands(context.Background(), "Paris", "FR", 10)
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeUpstreamFetchFailed, stdErr.Code)
	assert.Contains(t, stdErr.Details, "brand")
	assert.Equal(t, "Paris", stdErr.Metadata["city"])
	assert.Equal(t, "FR", stdErr.Metadata["country"])
}

func TestFetch_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		_, _ = w.Write([]byte(brandsBody))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.GetPlaces(ctx, "Paris", "FR", 10)
	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeUpstreamTimeout, stdErr.Code)
}
