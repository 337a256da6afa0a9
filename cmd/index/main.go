// Package main provides the index command that chunks extracted texts and
// stores them, with embeddings, in the knowledge base.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"papermill/internal/config"
	"papermill/internal/embedding"
	"papermill/internal/kb"
	"papermill/internal/logger"
	"papermill/internal/models"
)

func main() {
	configPath := flag.String("config", "", "Path to pipeline YAML config")
	input := flag.String("input", "", "Texts JSON from the fetch stage (default <base_path>/texts.json)")
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
		inPath = cfg.ArtifactPath("texts.json")
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		log.Error("❌ Failed to read texts artifact", "path", inPath, "error", err)
		os.Exit(1)
	}

	var texts []models.PaperText
	if err := json.Unmarshal(data, &texts); err != nil {
		log.Error("❌ Failed to parse texts artifact", "error", err)
		os.Exit(1)
	}

	store, err := kb.Open(cfg.Pipeline.Knowledge.Path)
	if err != nil {
		log.Error("❌ Failed to open knowledge base", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var engine embedding.Engine
	if cfg.Features.EnableVectorSearch {
		engine, err = embedding.NewEngine(cfg.Pipeline.Embedding)
		if err != nil {
			log.Warn("⚠️ Embedding engine unavailable, indexing without vectors", "error", err)
		}
	}

	log.Info("📚 Indexing texts", "papers", len(texts), "store", cfg.Pipeline.Knowledge.Path)

	chunker := kb.NewChunker(cfg.Pipeline.Knowledge.ChunkMinRunes, cfg.Pipeline.Knowledge.ChunkTargetRunes)
	indexer := kb.NewIndexer(store, chunker, engine, log)

	chunks, err := indexer.IndexPapers(context.Background(), texts)
	if err != nil {
		log.Error("❌ Indexing failed", "error", err)
		os.Exit(1)
	}

	log.Info("✅ Indexing complete", "chunks", chunks)
}
