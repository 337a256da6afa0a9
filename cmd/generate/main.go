// Package main provides the generate command that composes the paper from
// the knowledge base, validates it, and writes the signed markdown.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"papermill/internal/compose"
	"papermill/internal/config"
	"papermill/internal/embedding"
	"papermill/internal/formatter"
	"papermill/internal/kb"
	"papermill/internal/logger"
	"papermill/internal/validator"
	"papermill/pkg/metadata"
)

func main() {
	configPath := flag.String("config", "", "Path to pipeline YAML config")
	topic := flag.String("topic", "", "Research topic (overrides config)")
	experimentPath := flag.String("experiment", "", "Experiment table markdown to weave into Results (optional)")
	output := flag.String("output", "", "Output markdown path (default <base_path>/paper.md)")
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

	if *topic != "" {
		cfg.Pipeline.Topic = *topic
	}

	if cfg.Pipeline.Topic == "" {
		fmt.Fprintln(os.Stderr, "a topic is required: pass -topic or set pipeline.topic in the config")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := logger.NewWithFormat(cfg.Pipeline.Logging.Level, cfg.Pipeline.Logging.Format, os.Stderr)

	outPath := *output
	if outPath == "" {
		outPath = cfg.ArtifactPath("paper.md")
	}

	ctx := context.Background()

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
			log.Warn("⚠️ Embedding engine unavailable, using keyword retrieval", "error", err)
		}
	}

	gen, err := compose.NewGenAIGenerator(ctx, cfg.Pipeline.LLM)
	if err != nil {
		log.Error("❌ Failed to create generator", "error", err)
		os.Exit(1)
	}

	composer := compose.NewComposer(kb.NewSearcher(store, engine, log), gen, cfg.Pipeline, log)

	if *experimentPath != "" {
		table, err := os.ReadFile(*experimentPath)
		if err != nil {
			log.Error("❌ Failed to read experiment table", "error", err)
			os.Exit(1)
		}
		composer.AttachExperiment(string(table))
	}

	log.Info("✍️  Composing paper", "topic", cfg.Pipeline.Topic, "sections", len(cfg.Pipeline.Sections))

	draft, err := composer.ComposeDraft(ctx)
	if err != nil {
		log.Error("❌ Composition failed", "error", err)
		os.Exit(1)
	}

	v := validator.NewDraftValidator(cfg.Pipeline.Validation, cfg.Features.StrictValidation)

	result := v.Validate(draft, cfg.Pipeline.Sections)
	fmt.Println(result)
	result.PrintErrors()
	result.PrintWarnings()

	if !result.IsValid && cfg.Features.StrictValidation {
		log.Error("❌ Draft failed strict validation")
		os.Exit(1)
	}

	signed := metadata.Sign(draft.Markdown, draft.Model, result.IsValid)

	formatted, err := formatter.FormatMarkdown(signed)
	if err != nil {
		log.Error("❌ Formatting failed", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Error("❌ Failed to create output directory", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, []byte(formatted), 0o644); err != nil {
		log.Error("❌ Failed to write output", "error", err)
		os.Exit(1)
	}

	// The draft artifact carries topic and references for the publish stage.
	var draftJSON []byte
	if cfg.Pipeline.Output.PrettyPrint {
		draftJSON, err = json.MarshalIndent(draft, "", "  ")
	} else {
		draftJSON, err = json.Marshal(draft)
	}
	if err != nil {
		log.Error("❌ Failed to encode draft", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(cfg.ArtifactPath("draft.json"), draftJSON, 0o644); err != nil {
		log.Error("❌ Failed to write draft artifact", "error", err)
		os.Exit(1)
	}

	log.Info("✅ Paper generated",
		"sections", draft.SectionCount(),
		"references", len(draft.References),
		"output", outPath,
	)
}
