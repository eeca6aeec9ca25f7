package analyzebusinessenvironment

import (
	"time"

	"city-insights/internal/common/config"
)

const defaultLimit = 50

type Config struct {
	DefaultLimit int
	Timeout      time.Duration
	RunSource    string
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		DefaultLimit: defaultLimit,
		Timeout:      config.GetDuration(wc.Timeout),
		RunSource:    "worker",
	}
}
