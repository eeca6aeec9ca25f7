package camunda

import (
	"sort"
	"sync"

	"city-insights/internal/common/config"
	"city-insights/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Registration binds a job handler to its task type and worker settings.
type Registration struct {
	TaskType string
	Handler  worker.JobHandler
	Config   config.WorkerConfig
}

// Workers opens and tracks job workers on one Zeebe client.
type Workers struct {
	client  zbc.Client
	logger  logger.Logger
	mu      sync.Mutex
	running map[string]worker.JobWorker
}

func NewWorkers(client zbc.Client, log logger.Logger) *Workers {
	return &Workers{
		client:  client,
		logger:  log,
		running: make(map[string]worker.JobWorker),
	}
}

// Start opens a worker for reg unless it is disabled. It reports whether a
// worker was opened.
func (w *Workers) Start(reg Registration) bool {
	if !reg.Config.Enabled {
		w.logger.Info("worker disabled", map[string]interface{}{"taskType": reg.TaskType})
		return false
	}

	jw := w.client.NewJobWorker().
		JobType(reg.TaskType).
		Handler(reg.Handler).
		MaxJobsActive(reg.Config.MaxJobsActive).
		Timeout(config.GetDuration(reg.Config.Timeout)).
		Name(reg.TaskType).
		Open()

	w.mu.Lock()
	w.running[reg.TaskType] = jw
	w.mu.Unlock()

	w.logger.Info("worker started", map[string]interface{}{
		"taskType":      reg.TaskType,
		"maxJobsActive": reg.Config.MaxJobsActive,
		"timeoutMs":     reg.Config.Timeout,
	})
	return true
}

// Running lists the task types with an open worker.
func (w *Workers) Running() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.running))
	for taskType := range w.running {
		out = append(out, taskType)
	}
	sort.Strings(out)
	return out
}

// Close stops every worker and waits for in-flight jobs.
func (w *Workers) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for taskType, jw := range w.running {
		jw.Close()
		jw.AwaitClose()
		w.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
		delete(w.running, taskType)
	}
}
