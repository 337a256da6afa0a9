// Package main provides the fetch command that downloads paper PDFs and
// extracts their text.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"papermill/internal/config"
	"papermill/internal/harvest"
	"papermill/internal/logger"
	"papermill/internal/models"
)

func main() {
	configPath := flag.String("config", "", "Path to pipeline YAML config")
	input := flag.String("input", "", "Papers JSON from the search stage (default <base_path>/papers.json)")
	output := flag.String("output", "", "Output JSON path (default <base_path>/texts.json)")
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

	log := logger.NewWithFormat(cfg.Pipeline.Logging.Level, cfg.Pipeline.Logging.Format, os.Stderr)

	inPath := *input
	if inPath == "" {
		inPath = cfg.ArtifactPath("papers.json")
	}

	outPath := *output
	if outPath == "" {
		outPath = cfg.ArtifactPath("texts.json")
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		log.Error("❌ Failed to read papers artifact", "path", inPath, "error", err)
		os.Exit(1)
	}

	var result models.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		log.Error("❌ Failed to parse papers artifact", "error", err)
		os.Exit(1)
	}

	papers := result.Papers

	log.Info("📥 Fetching PDFs", "papers", len(papers))

	fetcher := harvest.NewFetcher(
		cfg.ArtifactPath("pdfs"),
		&cfg.Pipeline.Retry,
		cfg.Advanced.ConcurrentFetches,
		log,
	)

	texts, err := fetcher.FetchAll(context.Background(), papers)
	if err != nil {
		log.Error("❌ Fetch failed", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Error("❌ Failed to create output directory", "error", err)
		os.Exit(1)
	}

	encoded, err := json.MarshalIndent(texts, "", "  ")
	if err != nil {
		log.Error("❌ Failed to encode texts", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		log.Error("❌ Failed to write output", "error", err)
		os.Exit(1)
	}

	log.Info("✅ Fetch complete", "extracted", len(texts), "skipped", len(papers)-len(texts), "output", outPath)
}
