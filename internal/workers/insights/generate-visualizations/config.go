package generatevisualizations

import (
	"time"

	"city-insights/internal/common/config"
)

type Config struct {
	DefaultLimit int
	Timeout      time.Duration
	// RunSource labels pipeline run metrics: "worker" or "api".
	RunSource string
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		DefaultLimit: cfg.Qloo.DefaultLimit,
		Timeout:      config.GetDuration(wc.Timeout),
		RunSource:    "worker",
	}
}
