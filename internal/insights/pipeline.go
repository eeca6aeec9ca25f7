package insights

import (
	"errors"
	"fmt"
	"time"

	"city-insights/internal/common/logger"
	"city-insights/internal/models"
)

// Context labels one run. It only feeds dataset titles.
type Context struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Limit   int    `json:"limit"`
}

// Input is the read-only material for one pipeline run. Every accessor
// returns freshly normalized records, so builders never share slices.
type Input struct {
	brands models.Document
	places models.Document
	ctx    Context
}

func NewInput(brands, places models.Document, ctx Context) *Input {
	return &Input{brands: brands, places: places, ctx: ctx}
}

func (in *Input) Brands() ([]Record, bool) { return NormalizeAll(in.brands) }
func (in *Input) Places() ([]Record, bool) { return NormalizeAll(in.places) }
func (in *Input) Context() Context         { return in.ctx }

func (in *Input) title(format string) string {
	city := in.ctx.City
	if city == "" {
		city = "the selected city"
	}
	return fmt.Sprintf(format, city)
}

// Builder outcomes reported to an Observer.
const (
	OutcomeBuilt  = "built"
	OutcomeNoData = "no_data"
	OutcomeFailed = "failed"
)

// Observer receives one callback per builder.
type Observer interface {
	BuilderFinished(kind Kind, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) BuilderFinished(Kind, string, time.Duration) {}

type Option func(*Orchestrator)

// WithObserver reports builder outcomes to o.
func WithObserver(o Observer) Option {
	return func(orch *Orchestrator) {
		if o != nil {
			orch.observer = o
		}
	}
}

// WithBuilders replaces the default builder set.
func WithBuilders(builders ...Builder) Option {
	return func(orch *Orchestrator) {
		orch.builders = builders
	}
}

// Orchestrator runs every builder over one Input. Create one per request.
type Orchestrator struct {
	input    *Input
	builders []Builder
	observer Observer
	logger   logger.Logger
}

func NewOrchestrator(input *Input, log logger.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if input == nil {
		input = NewInput(nil, nil, Context{})
	}
	o := &Orchestrator{
		input:    input,
		builders: DefaultBuilders(),
		observer: nopObserver{},
		logger:   log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run invokes every builder in order. Builders that report no data, return
// an error or panic are left out of the result; the rest still run.
func (o *Orchestrator) Run() Result {
	result := make(Result, len(o.builders))
	start := time.Now()

	for _, b := range o.builders {
		kind := b.Kind()
		began := time.Now()
		ds, err := o.safeBuild(b)
		elapsed := time.Since(began)

		switch {
		case err == nil && ds != nil:
			result[kind] = ds
			o.observer.BuilderFinished(kind, OutcomeBuilt, elapsed)
		case err == nil || errors.Is(err, ErrNoData):
			fields := map[string]interface{}{"dataset": string(kind)}
			var nd *NoDataError
			if errors.As(err, &nd) {
				fields["reason"] = string(nd.Reason)
			}
			o.logger.Debug("dataset omitted", fields)
			o.observer.BuilderFinished(kind, OutcomeNoData, elapsed)
		default:
			o.logger.Error("dataset builder failed", map[string]interface{}{
				"dataset": string(kind),
				"error":   err.Error(),
			})
			o.observer.BuilderFinished(kind, OutcomeFailed, elapsed)
		}
	}

	o.logger.Info("pipeline completed", map[string]interface{}{
		"city":       o.input.ctx.City,
		"datasets":   result.Names(),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return result
}

func (o *Orchestrator) safeBuild(b Builder) (ds Dataset, err error) {
	defer func() {
		if r := recover(); r != nil {
			ds = nil
			err = fmt.Errorf("builder %s panicked: %v", b.Kind(), r)
		}
	}()
	return b.Build(o.input)
}

// Run builds all datasets for one pair of documents.
func Run(brands, places models.Document, ctx Context, log logger.Logger, opts ...Option) Result {
	return NewOrchestrator(NewInput(brands, places, ctx), log, opts...).Run()
}
