package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"city-insights/internal/common/logger"
	"city-insights/internal/common/metrics"
	"city-insights/internal/insights"
	"city-insights/internal/models"
	"city-insights/internal/render"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type analyzeOptions struct {
	brandsPath string
	placesPath string
	city       string
	country    string
	format     string
	pngDir     string
	datasets   []string
	logLevel   string
}

var analyzeOpts analyzeOptions

func init() {
	rootCmd.AddCommand(analyzeCmd)

	f := analyzeCmd.Flags()
	f.StringVar(&analyzeOpts.brandsPath, "brands", "", "saved brand recommendations (JSON)")
	f.StringVar(&analyzeOpts.placesPath, "places", "", "saved place recommendations (JSON)")
	f.StringVar(&analyzeOpts.city, "city", "", "city name used in dataset titles")
	f.StringVar(&analyzeOpts.country, "country", "", "country code")
	f.StringVar(&analyzeOpts.format, "format", "json", "output format: json, yaml or text")
	f.StringVar(&analyzeOpts.pngDir, "png-dir", "", "also write PNG charts into this directory")
	f.StringSliceVar(&analyzeOpts.datasets, "datasets", nil, "only output these datasets (comma separated)")
	f.StringVar(&analyzeOpts.logLevel, "log-level", "warn", "log level")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Build datasets from saved recommendation documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.NewZapAdapter(logger.NewWithOutput(analyzeOpts.logLevel, "console", "stderr"))
		return runAnalyze(analyzeOpts, cmd.OutOrStdout(), log)
	},
}

func runAnalyze(opts analyzeOptions, out io.Writer, log logger.Logger) error {
	if opts.brandsPath == "" && opts.placesPath == "" {
		return fmt.Errorf("at least one of --brands or --places is required")
	}
	switch opts.format {
	case "json", "yaml", "text":
	default:
		return fmt.Errorf("unsupported format %q (json, yaml or text)", opts.format)
	}
	only, err := parseKinds(opts.datasets)
	if err != nil {
		return err
	}

	brands, err := readDocument(opts.brandsPath)
	if err != nil {
		return err
	}
	places, err := readDocument(opts.placesPath)
	if err != nil {
		return err
	}

	result := insights.Run(brands, places,
		insights.Context{City: opts.city, Country: opts.country},
		log, insights.WithObserver(metrics.PipelineObserver{}))
	if only != nil {
		for k := range result {
			if !only[k] {
				delete(result, k)
			}
		}
	}

	if opts.pngDir != "" {
		paths, err := render.WritePNGs(opts.pngDir, result)
		if err != nil {
			return err
		}
		log.Info("charts written", map[string]interface{}{"files": paths})
	}

	return writeResult(out, opts.format, result)
}

func parseKinds(names []string) (map[insights.Kind]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	kinds := make(map[insights.Kind]bool, len(names))
	for _, n := range names {
		k, err := insights.ParseKind(strings.TrimSpace(n))
		if err != nil {
			return nil, err
		}
		kinds[k] = true
	}
	return kinds, nil
}

func readDocument(path string) (models.Document, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := models.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return doc, nil
}

func writeResult(out io.Writer, format string, result insights.Result) error {
	switch format {
	case "text":
		_, err := fmt.Fprintln(out, render.RenderText(result))
		return err
	case "yaml":
		// Round-trip through JSON so YAML keys match the JSON field names.
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		var generic map[string]interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
}
