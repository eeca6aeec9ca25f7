package generatevisualizations

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	apperrors "city-insights/internal/common/errors"
	"city-insights/internal/common/logger"
	"city-insights/internal/common/metrics"
	"city-insights/internal/common/observability"
	"city-insights/internal/common/validation"
	"city-insights/internal/insights"
	"city-insights/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "generate-city-visualizations"
)

type Handler struct {
	config       *Config
	source       EntitySource
	validator    *validation.Validator
	obs          *observability.Observability
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

type Option func(*Handler)

// WithValidator validates job variables against the schema registered
// under TaskType before executing.
func WithValidator(v *validation.Validator) Option {
	return func(h *Handler) { h.validator = v }
}

func WithObservability(o *observability.Observability) Option {
	return func(h *Handler) { h.obs = o }
}

func NewHandler(config *Config, source EntitySource, log logger.Logger, opts ...Option) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	h := &Handler{
		config:       config,
		source:       source,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job.Variables)
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			h.completeJob(client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
			return
		}
	}

	stdErr := apperrors.AsStandardError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	if h.validator != nil && h.validator.Has(TaskType) {
		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(variables), &raw); err != nil {
			return nil, apperrors.NewInvalidRequestError(fmt.Sprintf("parse variables: %v", err))
		}
		res, err := h.validator.Validate(TaskType, raw)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if !res.Valid {
			return nil, apperrors.NewInvalidRequestError(res.Summary())
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidRequestError(fmt.Sprintf("parse variables: %v", err))
	}
	return &input, nil
}

// Execute fetches both collections for the city and runs a fresh pipeline
// over them. A failed fetch is logged and treated as a missing document, so
// only the datasets depending on it are left out.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.City) == "" {
		return nil, apperrors.NewInvalidRequestError("city is required")
	}
	start := time.Now()
	limit := h.limit(input.Limit)
	requestID := uuid.New().String()[:8]
	log := h.logger.WithFields(map[string]interface{}{
		"requestId": requestID,
		"city":      input.City,
		"country":   input.Country,
		"limit":     limit,
	})

	brands := h.fetch(log, "brands", func() (models.Document, error) {
		return h.source.GetBrands(ctx, input.City, input.Country, limit)
	})
	places := h.fetch(log, "places", func() (models.Document, error) {
		return h.source.GetPlaces(ctx, input.City, input.Country, limit)
	})

	result := insights.Run(brands, places,
		insights.Context{City: input.City, Country: input.Country, Limit: limit},
		log, insights.WithObserver(metrics.PipelineObserver{}))

	output := &Output{
		RequestID:      requestID,
		City:           input.City,
		Country:        input.Country,
		Visualizations: result,
		DatasetNames:   result.Names(),
	}

	if len(input.CompareCities) > 0 {
		cities := append([]CityRef{{City: input.City, Country: input.Country, Limit: limit}}, input.CompareCities...)
		cmp, err := h.Compare(ctx, cities)
		if err != nil {
			log.Warn("comparison skipped", map[string]interface{}{"error": err.Error()})
		} else {
			output.Comparison = cmp
		}
	}

	h.obs.RecordRun(ctx, h.config.RunSource, "success", time.Since(start), len(result))
	return output, nil
}

// Compare averages brand popularity per city. Cities whose fetch fails or
// returns no brands are left out.
func (h *Handler) Compare(ctx context.Context, cities []CityRef) (*insights.ComparisonDataset, error) {
	if len(cities) == 0 {
		return nil, apperrors.NewInvalidRequestError("at least one city is required")
	}

	entries := make([]insights.CityBrands, 0, len(cities))
	names := make([]string, 0, len(cities))
	for _, c := range cities {
		if strings.TrimSpace(c.City) == "" {
			return nil, apperrors.NewInvalidRequestError("every compared city needs a name")
		}
		limit := h.limit(c.Limit)
		log := h.logger.WithFields(map[string]interface{}{"city": c.City, "country": c.Country})
		brands := h.fetch(log, "brands", func() (models.Document, error) {
			return h.source.GetBrands(ctx, c.City, c.Country, limit)
		})
		entries = append(entries, insights.CityBrands{
			Context: insights.Context{City: c.City, Country: c.Country, Limit: limit},
			Brands:  brands,
		})
		names = append(names, c.City)
	}

	ds, err := insights.Compare(entries)
	if stderrors.Is(err, insights.ErrNoData) {
		return nil, apperrors.NewAnalysisDataUnavailableError(strings.Join(names, ", "))
	}
	return ds, err
}

func (h *Handler) fetch(log logger.Logger, what string, get func() (models.Document, error)) models.Document {
	doc, err := get()
	if err != nil {
		log.Warn("fetch failed, continuing without "+what, map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	if ents, ok := doc.Entities(); ok {
		log.Debug(what+" received", map[string]interface{}{"count": len(ents)})
	}
	return doc
}

func (h *Handler) limit(requested int) int {
	if requested > 0 {
		return requested
	}
	if h.config.DefaultLimit > 0 {
		return h.config.DefaultLimit
	}
	return 20
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}
