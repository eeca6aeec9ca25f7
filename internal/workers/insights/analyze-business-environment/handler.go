package analyzebusinessenvironment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "city-insights/internal/common/errors"
	"city-insights/internal/common/logger"
	"city-insights/internal/common/metrics"
	"city-insights/internal/common/observability"
	"city-insights/internal/common/validation"
	"city-insights/internal/insights"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "analyze-business-environment"
)

type Handler struct {
	config       *Config
	source       EntitySource
	llm          LLM
	validator    *validation.Validator
	obs          *observability.Observability
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

type Option func(*Handler)

func WithValidator(v *validation.Validator) Option {
	return func(h *Handler) { h.validator = v }
}

func WithObservability(o *observability.Observability) Option {
	return func(h *Handler) { h.obs = o }
}

func NewHandler(config *Config, source EntitySource, llm LLM, log logger.Logger, opts ...Option) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	h := &Handler{
		config:       config,
		source:       source,
		llm:          llm,
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

// Execute summarizes the city's brands and places and asks the model for an
// analysis. Both collections are required. When input.Message is set a
// second call answers it with the analysis as context.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.City) == "" {
		return nil, apperrors.NewInvalidRequestError("city is required")
	}
	start := time.Now()
	output, err := h.execute(ctx, input)
	status := "success"
	if err != nil {
		status = "error"
	}
	h.obs.RecordRun(ctx, h.config.RunSource, status, time.Since(start), 0)
	return output, err
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = h.config.DefaultLimit
	}
	requestID := uuid.New().String()[:8]
	log := h.logger.WithFields(map[string]interface{}{
		"requestId": requestID,
		"city":      input.City,
		"country":   input.Country,
	})

	brands, err := h.source.GetBrands(ctx, input.City, input.Country, limit)
	if err != nil || brands == nil {
		log.Warn("brands unavailable for analysis", errField(err))
		return nil, apperrors.NewAnalysisDataUnavailableError(input.City)
	}
	places, err := h.source.GetPlaces(ctx, input.City, input.Country, limit)
	if err != nil || places == nil {
		log.Warn("places unavailable for analysis", errField(err))
		return nil, apperrors.NewAnalysisDataUnavailableError(input.City)
	}

	summary := insights.Summarize(brands, places, insights.Context{
		City:    input.City,
		Country: input.Country,
		Limit:   limit,
	})
	log.Info("requesting analysis", map[string]interface{}{
		"brands": summary.BrandsCount,
		"places": summary.PlacesCount,
		"model":  h.llm.Model(),
	})

	analysis, err := h.llm.Generate(ctx, AnalysisPrompt(summary))
	if err != nil {
		return nil, llmError(ctx, err)
	}

	output := &Output{
		RequestID: requestID,
		Success:   true,
		Analysis:  analysis,
		City:      input.City,
		Country:   input.Country,
		Model:     h.llm.Model(),
		DataPoints: DataPoints{
			BrandsCount: summary.BrandsCount,
			PlacesCount: summary.PlacesCount,
		},
		Summary: summary,
	}

	if strings.TrimSpace(input.Message) != "" {
		resp, err := h.llm.Generate(ctx, ChatPrompt(input.City, input.Country, analysis, input.Message))
		if err != nil {
			return nil, llmError(ctx, err)
		}
		output.Response = resp
	}

	log.Info("analysis completed", map[string]interface{}{
		"analysisLength": len(output.Analysis),
		"answered":       output.Response != "",
	})
	return output, nil
}

// llmError keeps coded errors and maps anything else by context state.
func llmError(ctx context.Context, err error) error {
	if stdErr := apperrors.AsStandardError(err); stdErr.Code != apperrors.ErrCodeInternal {
		return stdErr
	}
	if isTimeout(ctx, err) {
		return apperrors.NewLLMTimeoutError()
	}
	return apperrors.NewLLMSynthesisFailedError(err)
}

func errField(err error) map[string]interface{} {
	if err == nil {
		return map[string]interface{}{"error": "empty response"}
	}
	return map[string]interface{}{"error": err.Error()}
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
