package main

import (
	"city-insights/internal/common/config"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "insights",
	Short:        "City business insights from brand and place recommendations",
	Long:         "insights turns brand and place recommendations for a city into chart-ready datasets and language model business analyses.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: configs/config.yaml plus environment overlay)")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}
