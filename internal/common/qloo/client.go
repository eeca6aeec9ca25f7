package qloo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"city-insights/internal/common/config"
	apperrors "city-insights/internal/common/errors"
	httpclient "city-insights/internal/common/http"
	"city-insights/internal/common/logger"
	"city-insights/internal/common/metrics"
	"city-insights/internal/models"
)

const insightsPath = "/v2/insights"

// Entity type URNs understood by the Insights API.
const (
	EntityBrand = "urn:entity:brand"
	EntityPlace = "urn:entity:place"
)

// Client fetches location-scoped entity recommendations.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	logger  logger.Logger
}

func NewClient(cfg config.QlooConfig, log logger.Logger, opts ...httpclient.Option) *Client {
	opts = append([]httpclient.Option{
		httpclient.WithRetries(cfg.MaxRetries, 200*time.Millisecond),
	}, opts...)

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpclient.NewClient(config.GetDuration(cfg.Timeout), opts...),
		logger:  log.WithFields(map[string]interface{}{"component": "qloo"}),
	}
}

func (c *Client) GetBrands(ctx context.Context, city, country string, limit int) (models.Document, error) {
	return c.fetch(ctx, EntityBrand, city, country, limit)
}

func (c *Client) GetPlaces(ctx context.Context, city, country string, limit int) (models.Document, error) {
	return c.fetch(ctx, EntityPlace, city, country, limit)
}

func (c *Client) fetch(ctx context.Context, entityType, city, country string, limit int) (models.Document, error) {
	params := url.Values{}
	params.Set("filter.type", entityType)
	params.Set("signal.location.query", city)
	if country != "" {
		params.Set("signal.location.country_code", country)
	}
	if limit > 0 {
		params.Set("take", strconv.Itoa(limit))
	}

	start := time.Now()
	var doc models.Document
	err := c.http.GetJSON(ctx, c.baseURL+insightsPath, params, map[string]string{"X-Api-Key": c.apiKey}, &doc)
	elapsed := time.Since(start)

	label := strings.TrimPrefix(entityType, "urn:entity:")
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(label, "error").Inc()
		c.logger.Warn("insights request failed", map[string]interface{}{
			"entityType": label,
			"city":       city,
			"durationMs": elapsed.Milliseconds(),
			"error":      err.Error(),
		})
		where := map[string]interface{}{"city": city, "country": country}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewUpstreamTimeoutError(label).WithMetadata(where)
		}
		return nil, apperrors.NewUpstreamFetchFailedError(label, err).WithMetadata(where)
	}

	metrics.UpstreamRequests.WithLabelValues(label, "ok").Inc()
	metrics.UpstreamDuration.WithLabelValues(label).Observe(elapsed.Seconds())

	entities, ok := doc.Entities()
	c.logger.Debug("insights request completed", map[string]interface{}{
		"entityType": label,
		"city":       city,
		"entities":   len(entities),
		"wellFormed": ok,
		"durationMs": elapsed.Milliseconds(),
	})
	return doc, nil
}

// String identifies the endpoint in logs.
func (c *Client) String() string {
	return fmt.Sprintf("qloo(%s)", c.baseURL)
}
