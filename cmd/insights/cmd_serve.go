package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"city-insights/internal/api"
	"city-insights/internal/common/config"
	"city-insights/internal/common/logger"
	"city-insights/internal/common/observability"
	"city-insights/internal/common/qloo"
	analysis "city-insights/internal/workers/insights/analyze-business-environment"
	visualizations "city-insights/internal/workers/insights/generate-visualizations"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	zapLogger := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer func() { _ = zapLogger.Sync() }()
	log := logger.NewZapAdapter(zapLogger).WithFields(map[string]interface{}{"service": cfg.App.Name})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(newController(cfg, log, obs), log)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", map[string]interface{}{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down api", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newController(cfg *config.Config, log logger.Logger, obs *observability.Observability) *api.Controller {
	source := qloo.NewClient(cfg.Qloo, log)

	vizCfg := visualizations.LoadConfig(cfg)
	vizCfg.RunSource = "api"
	viz := visualizations.NewHandler(vizCfg, source, log, visualizations.WithObservability(obs))

	anCfg := analysis.LoadConfig(cfg)
	anCfg.RunSource = "api"
	an := analysis.NewHandler(anCfg, source, analysis.NewResponsesClient(cfg.APIs.GenAI), log,
		analysis.WithObservability(obs))

	return api.NewController(viz, an)
}
