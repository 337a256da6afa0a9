// Package main provides the publish command that upserts the finished
// paper into the archive service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"papermill/internal/config"
	"papermill/internal/logger"
	"papermill/internal/models"
	"papermill/internal/publish"
)

func main() {
	configPath := flag.String("config", "", "Path to pipeline YAML config")
	input := flag.String("input", "", "Signed paper markdown (default <base_path>/paper.md)")
	draftPath := flag.String("draft", "", "Draft JSON with topic and references (default <base_path>/draft.json)")
	archiveURL := flag.String("archive-url", "", "Archive endpoint (overrides config)")
	email := flag.String("email", os.Getenv("ARCHIVE_EMAIL"), "Archive email for authentication")
	password := flag.String("password", os.Getenv("ARCHIVE_PASSWORD"), "Archive password for authentication")
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

	url := *archiveURL
	if url == "" {
		url = cfg.Pipeline.Publish.URL
	}
	if url == "" {
		fmt.Fprintln(os.Stderr, "an archive URL is required: pass -archive-url or set pipeline.publish.url")
		flag.PrintDefaults()
		os.Exit(1)
	}

	inPath := *input
	if inPath == "" {
		inPath = cfg.ArtifactPath("paper.md")
	}

	dPath := *draftPath
	if dPath == "" {
		dPath = cfg.ArtifactPath("draft.json")
	}

	markdown, err := os.ReadFile(inPath)
	if err != nil {
		log.Error("❌ Failed to read paper", "path", inPath, "error", err)
		os.Exit(1)
	}

	draft := &models.Draft{Topic: cfg.Pipeline.Topic}
	if data, err := os.ReadFile(dPath); err == nil {
		if err := json.Unmarshal(data, draft); err != nil {
			log.Warn("⚠️ Draft artifact unreadable, publishing with config topic only", "error", err)
		}
	}

	var html string
	if data, err := os.ReadFile(cfg.ArtifactPath("paper.html")); err == nil {
		html = string(data)
	}

	ctx := context.Background()

	publisher := publish.NewPublisher(url, cfg.Pipeline.Publish.Token(), log)

	if *email != "" && *password != "" {
		log.Info("🔐 Authenticating...")

		if err := publisher.Authenticate(ctx, *email, *password); err != nil {
			log.Warn("⚠️ Authentication failed, attempting upload anyway", "error", err)
		}
	}

	result, err := publisher.Publish(ctx, draft, string(markdown), html)
	if err != nil {
		log.Error("❌ Publish failed", "error", err)
		os.Exit(1)
	}

	action := "updated"
	if result.Created {
		action = "created"
	}

	log.Info("✅ Paper published", "action", action, "id", result.ID, "slug", result.Slug)
}
