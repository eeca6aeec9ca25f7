package metrics

import (
	"time"

	"city-insights/internal/insights"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DatasetBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_dataset_builds_total",
			Help: "Dataset builder runs by dataset and outcome (built, no_data, failed)",
		},
		[]string{"dataset", "outcome"},
	)

	DatasetBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insights_dataset_build_duration_seconds",
			Help:    "Duration of a single dataset builder run in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"dataset"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_upstream_requests_total",
			Help: "Requests to the recommendation API by entity type and status",
		},
		[]string{"entity_type", "status"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "insights_upstream_request_duration_seconds",
			Help: "Latency of successful recommendation API requests",
		},
		[]string{"entity_type"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_http_requests_total",
			Help: "API requests by route and status code",
		},
		[]string{"route", "status"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)

// PipelineObserver feeds builder outcomes into the dataset metrics.
type PipelineObserver struct{}

func (PipelineObserver) BuilderFinished(kind insights.Kind, outcome string, elapsed time.Duration) {
	DatasetBuilds.WithLabelValues(string(kind), outcome).Inc()
	DatasetBuildDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}
