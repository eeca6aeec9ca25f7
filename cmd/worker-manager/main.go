package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"city-insights/internal/common/camunda"
	"city-insights/internal/common/config"
	"city-insights/internal/common/logger"
	"city-insights/internal/common/observability"
	"city-insights/internal/common/qloo"
	"city-insights/internal/common/validation"
	analysis "city-insights/internal/workers/insights/analyze-business-environment"
	visualizations "city-insights/internal/workers/insights/generate-visualizations"
	"city-insights/pkg/registry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}
	if err := config.ValidateWorkerManager(cfg); err != nil {
		zap.NewExample().Fatal("invalid worker manager config", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"service": "worker-manager"})

	log.Info("starting worker manager", map[string]interface{}{"broker": cfg.Camunda.BrokerAddress})

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	validator := validation.NewValidator()
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		log.Warn("activity registry unavailable, job variables will not be schema-checked", map[string]interface{}{
			"path":  cfg.Registry.Path,
			"error": err.Error(),
		})
	} else if err := reg.RegisterSchemas(validator); err != nil {
		zapLog.Fatal("invalid activity schema", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zeebeClient, err := camunda.Connect(ctx, cfg.Camunda, camunda.DefaultRetryConfig, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	log.Info("zeebe client connected", nil)

	source := qloo.NewClient(cfg.Qloo, log)
	workers := camunda.NewWorkers(zeebeClient, log)

	vizHandler := visualizations.NewHandler(visualizations.LoadConfig(cfg), source, log,
		visualizations.WithValidator(validator),
		visualizations.WithObservability(obs))
	workers.Start(camunda.Registration{
		TaskType: visualizations.TaskType,
		Handler:  vizHandler.Handle,
		Config:   workerConfig(cfg, reg, visualizations.TaskType),
	})

	anHandler := analysis.NewHandler(analysis.LoadConfig(cfg), source, analysis.NewResponsesClient(cfg.APIs.GenAI), log,
		analysis.WithValidator(validator),
		analysis.WithObservability(obs))
	workers.Start(camunda.Registration{
		TaskType: analysis.TaskType,
		Handler:  anHandler.Handle,
		Config:   workerConfig(cfg, reg, analysis.TaskType),
	})

	log.Info("workers registered", map[string]interface{}{"taskTypes": workers.Running()})

	srv := &http.Server{Addr: cfg.Metrics.Address, Handler: healthMux(workers)}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()
	if err := zeebeClient.Close(); err != nil {
		log.Error("error closing zeebe client", map[string]interface{}{"error": err.Error()})
	}
	_ = srv.Shutdown(shutdownCtx)

	log.Info("worker manager stopped", nil)
}

// workerConfig resolves the job worker settings for taskType. Explicit
// workers.<task> config wins; otherwise the registry timeout applies. A
// registered activity without the zeebe tag is not subscribed.
func workerConfig(cfg *config.Config, reg *registry.ActivityRegistry, taskType string) config.WorkerConfig {
	wc := config.GetWorkerConfig(cfg, taskType)
	if reg == nil {
		return wc
	}
	if a, ok := reg.Find(taskType); ok && !a.HasTag("zeebe") {
		wc.Enabled = false
	}
	if _, explicit := cfg.Workers[taskType]; !explicit {
		wc.Timeout = int(reg.ActivityTimeout(taskType, config.GetDuration(wc.Timeout)).Milliseconds())
	}
	return wc
}

func healthMux(workers *camunda.Workers) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]interface{}{"status": "healthy"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		running := workers.Running()
		if len(running) == 0 {
			writeStatus(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "no workers running"})
			return
		}
		writeStatus(w, http.StatusOK, map[string]interface{}{"status": "ready", "workers": running})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, status int, body map[string]interface{}) {
	body["time"] = time.Now().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
