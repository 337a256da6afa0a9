// Package main provides the experiment command that evaluates forecasting
// baselines on a dataset and writes the scores as a markdown table.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"papermill/internal/config"
	"papermill/internal/experiment"
	"papermill/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to pipeline YAML config")
	dataset := flag.String("dataset", "", "CSV dataset path (overrides config)")
	output := flag.String("output", "", "Output markdown path (default <base_path>/experiment.md)")
	flag.Parse()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if *dataset != "" {
		cfg.Pipeline.Experiment.Dataset = *dataset
	}

	if cfg.Pipeline.Experiment.Dataset == "" {
		fmt.Fprintln(os.Stderr, "a dataset is required: pass -dataset or set pipeline.experiment.dataset")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := logger.NewWithFormat(cfg.Pipeline.Logging.Level, cfg.Pipeline.Logging.Format, os.Stderr)

	outPath := *output
	if outPath == "" {
		outPath = cfg.ArtifactPath("experiment.md")
	}

	log.Info("🧪 Running forecasting experiment", "dataset", cfg.Pipeline.Experiment.Dataset)

	runner := experiment.NewRunner(cfg.Pipeline.Experiment, log)

	report, err := runner.Run()
	if err != nil {
		log.Error("❌ Experiment failed", "error", err)
		os.Exit(1)
	}

	table := experiment.MarkdownTable(report)
	fmt.Println(table)

	if best := report.Best(); best != nil {
		log.Info("🏆 Best baseline", "model", best.Model, "rmse", fmt.Sprintf("%.4f", best.RMSE))
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Error("❌ Failed to create output directory", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, []byte(table), 0o644); err != nil {
		log.Error("❌ Failed to write output", "error", err)
		os.Exit(1)
	}

	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Error("❌ Failed to encode report", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(cfg.ArtifactPath("experiment.json"), reportJSON, 0o644); err != nil {
		log.Error("❌ Failed to write report artifact", "error", err)
		os.Exit(1)
	}

	log.Info("✅ Experiment complete", "models", len(report.Scores), "output", outPath)
}
