// Package main provides the search command that queries arXiv and writes
// the paper list artifact.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"papermill/internal/arxiv"
	"papermill/internal/config"
	"papermill/internal/logger"
	"papermill/internal/models"
)

func main() {
	configPath := flag.String("config", "", "Path to pipeline YAML config")
	topic := flag.String("topic", "", "Research topic (overrides config)")
	maxResults := flag.Int("max-results", 0, "Maximum papers to fetch (overrides config)")
	output := flag.String("output", "", "Output JSON path (default <base_path>/papers.json)")
	flag.Parse()

	cfg := loadConfig(*configPath, *topic)
	log := logger.NewWithFormat(cfg.Pipeline.Logging.Level, cfg.Pipeline.Logging.Format, os.Stderr)

	if *maxResults > 0 {
		cfg.Pipeline.Search.MaxResults = *maxResults
	}

	outPath := *output
	if outPath == "" {
		outPath = cfg.ArtifactPath("papers.json")
	}

	log.Info("🔍 Searching arXiv", "topic", cfg.Pipeline.Topic, "max_results", cfg.Pipeline.Search.MaxResults)

	client := arxiv.NewClientWithConfig(cfg.Pipeline.Search.BaseURL, &cfg.Pipeline.Retry, cfg.Advanced.BufferSizeKb)

	papers, err := client.Search(context.Background(), cfg.Pipeline.Topic, cfg.Pipeline.Search.MaxResults, cfg.Pipeline.Search.SortBy)
	if err != nil {
		log.Error("❌ Search failed", "error", err)
		os.Exit(1)
	}

	for _, p := range papers {
		marker := "  "
		if p.HasPDF() {
			marker = "📄"
		}
		fmt.Printf("%s %s - %s\n", marker, p.ID, p.Title)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Error("❌ Failed to create output directory", "error", err)
		os.Exit(1)
	}

	result := models.SearchResult{
		Topic:     cfg.Pipeline.Topic,
		Papers:    papers,
		FetchedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Error("❌ Failed to encode papers", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		log.Error("❌ Failed to write output", "error", err)
		os.Exit(1)
	}

	log.Info("✅ Search complete", "papers", len(papers), "output", outPath)
}

func loadConfig(path, topic string) *config.Config {
	var (
		cfg *config.Config
		err error
	)

	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.Default()
	}

	if topic != "" {
		cfg.Pipeline.Topic = topic
	}

	if cfg.Pipeline.Topic == "" {
		fmt.Fprintln(os.Stderr, "a topic is required: pass -topic or set pipeline.topic in the config")
		flag.PrintDefaults()
		os.Exit(1)
	}

	return cfg
}
