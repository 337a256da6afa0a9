// Package main provides the unified worker command that runs the whole
// pipeline: search, fetch, index, experiment, compose, validate, render,
// and optionally publish.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"papermill/internal/arxiv"
	"papermill/internal/compose"
	"papermill/internal/config"
	"papermill/internal/embedding"
	"papermill/internal/experiment"
	"papermill/internal/formatter"
	"papermill/internal/harvest"
	"papermill/internal/kb"
	"papermill/internal/logger"
	"papermill/internal/publish"
	"papermill/internal/render"
	"papermill/internal/validator"
	"papermill/pkg/metadata"
)

func main() {
	// 1. Define Command-Line Flags
	// ---------------------------
	configPath := flag.String("config", "", "Path to pipeline YAML config")
	topic := flag.String("topic", "", "Research topic (overrides config)")
	dataset := flag.String("dataset", "", "CSV dataset for the baseline experiment (overrides config)")
	archiveURL := flag.String("archive-url", "", "Archive endpoint for publishing (overrides config)")
	email := flag.String("email", os.Getenv("ARCHIVE_EMAIL"), "Archive email for authentication")
	password := flag.String("password", os.Getenv("ARCHIVE_PASSWORD"), "Archive password for authentication")
	skipPublish := flag.Bool("skip-publish", false, "Stop after rendering, do not upload")
	flag.Parse()

	// Initialize Config and Logger
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
	if *dataset != "" {
		cfg.Pipeline.Experiment.Dataset = *dataset
		cfg.Pipeline.Experiment.Enabled = true
	}

	log := logger.NewWithFormat(cfg.Pipeline.Logging.Level, cfg.Pipeline.Logging.Format, os.Stderr)

	// Validate Inputs
	if cfg.Pipeline.Topic == "" {
		log.Error("Please provide a topic with -topic or set pipeline.topic in the config")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log.Info("🚀 Starting Papermill Pipeline")
	log.Info(fmt.Sprintf("📍 Topic: %s", cfg.Pipeline.Topic))
	log.Info(fmt.Sprintf("🎯 Output: %s", cfg.Pipeline.Output.BasePath))

	ctx := context.Background()
	startTime := time.Now()

	if err := os.MkdirAll(cfg.Pipeline.Output.BasePath, 0o755); err != nil {
		log.Error(fmt.Sprintf("❌ Failed to create output directory: %v", err))
		os.Exit(1)
	}

	// 2. Ingestion (Search & Fetch)
	// -----------------------------
	log.Info("Phase 1: Ingestion (Searching & Fetching)...")

	client := arxiv.NewClientWithConfig(
		cfg.Pipeline.Search.BaseURL,
		&cfg.Pipeline.Retry,
		cfg.Advanced.BufferSizeKb,
	)

	papers, err := client.Search(ctx, cfg.Pipeline.Topic, cfg.Pipeline.Search.MaxResults, cfg.Pipeline.Search.SortBy)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Search failed: %v", err))
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("✅ Found %d papers in %v", len(papers), time.Since(startTime)))

	fetcher := harvest.NewFetcher(
		cfg.ArtifactPath("pdfs"),
		&cfg.Pipeline.Retry,
		cfg.Advanced.ConcurrentFetches,
		log,
	)

	texts, err := fetcher.FetchAll(ctx, papers)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Fetch failed: %v", err))
		os.Exit(1)
	}

	if len(texts) == 0 {
		log.Error("❌ No paper texts could be extracted")
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("✅ Extracted text from %d of %d papers", len(texts), len(papers)))

	// 3. Processing (Indexing & Experiment)
	// -------------------------------------
	log.Info("Phase 2: Processing (Indexing & Baselines)...")

	processStart := time.Now()

	store, err := kb.Open(cfg.Pipeline.Knowledge.Path)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Failed to open knowledge base: %v", err))
		os.Exit(1)
	}
	defer store.Close()

	var engine embedding.Engine
	if cfg.Features.EnableVectorSearch {
		engine, err = embedding.NewEngine(cfg.Pipeline.Embedding)
		if err != nil {
			log.Warn(fmt.Sprintf("⚠️  Embedding engine unavailable, indexing without vectors: %v", err))
		}
	}

	chunker := kb.NewChunker(cfg.Pipeline.Knowledge.ChunkMinRunes, cfg.Pipeline.Knowledge.ChunkTargetRunes)
	indexer := kb.NewIndexer(store, chunker, engine, log)

	chunks, err := indexer.IndexPapers(ctx, texts)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Indexing failed: %v", err))
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("✅ Indexed %d chunks in %v", chunks, time.Since(processStart)))

	var experimentTable string
	if cfg.Pipeline.Experiment.Enabled && cfg.Pipeline.Experiment.Dataset != "" {
		runner := experiment.NewRunner(cfg.Pipeline.Experiment, log)

		report, runErr := runner.Run()
		if runErr != nil {
			log.Warn(fmt.Sprintf("⚠️  Experiment failed, composing without results table: %v", runErr))
		} else {
			experimentTable = experiment.MarkdownTable(report)
			if best := report.Best(); best != nil {
				log.Info(fmt.Sprintf("🏆 Best baseline: %s (RMSE %.4f)", best.Model, best.RMSE))
			}
		}
	}

	// 4. Composition (Generation & Validation)
	// ----------------------------------------
	log.Info("Phase 3: Composition (Generating & Validating)...")

	composeStart := time.Now()

	gen, err := compose.NewGenAIGenerator(ctx, cfg.Pipeline.LLM)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Failed to create generator: %v", err))
		os.Exit(1)
	}

	composer := compose.NewComposer(kb.NewSearcher(store, engine, log), gen, cfg.Pipeline, log)
	if experimentTable != "" {
		composer.AttachExperiment(experimentTable)
	}

	draft, err := composer.ComposeDraft(ctx)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Composition failed: %v", err))
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("✅ Composed %d sections, %d references in %v",
		draft.SectionCount(), len(draft.References), time.Since(composeStart)))

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
		log.Error(fmt.Sprintf("❌ Formatting failed: %v", err))
		os.Exit(1)
	}

	mdPath := cfg.ArtifactPath("paper.md")
	if err := os.WriteFile(mdPath, []byte(formatted), 0o644); err != nil {
		log.Error(fmt.Sprintf("❌ Failed to write paper: %v", err))
		os.Exit(1)
	}

	draftJSON, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		log.Error(fmt.Sprintf("❌ Failed to encode draft: %v", err))
		os.Exit(1)
	}

	if err := os.WriteFile(cfg.ArtifactPath("draft.json"), draftJSON, 0o644); err != nil {
		log.Error(fmt.Sprintf("❌ Failed to write draft artifact: %v", err))
		os.Exit(1)
	}

	// 5. Rendering
	// ------------
	log.Info("Phase 4: Rendering...")

	title := documentTitle(formatted, cfg.Pipeline.Topic)

	html, err := render.ToHTML(title, formatted)
	if err != nil {
		log.Error(fmt.Sprintf("❌ HTML rendering failed: %v", err))
		os.Exit(1)
	}

	htmlPath := cfg.ArtifactPath("paper.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		log.Error(fmt.Sprintf("❌ Failed to write HTML: %v", err))
		os.Exit(1)
	}

	pdfRendered := false
	if cfg.Features.EnablePDFRender && cfg.WantsFormat("pdf") {
		renderer := render.NewPDFRenderer(log)

		pdfPath := cfg.ArtifactPath("paper.pdf")
		if pdfErr := renderer.RenderFile(ctx, htmlPath, pdfPath); pdfErr != nil {
			log.Warn(fmt.Sprintf("⚠️  PDF rendering failed: %v (HTML is already on disk)", pdfErr))
		} else {
			pdfRendered = true
		}
	}

	// 6. Synchronization (Publishing)
	// -------------------------------
	publishAction := "skipped"
	var publishResult *publish.PublishResult

	url := *archiveURL
	if url == "" && cfg.Pipeline.Publish.Enabled {
		url = cfg.Pipeline.Publish.URL
	}

	if !*skipPublish && url != "" {
		log.Info("Phase 5: Synchronization (Publishing)...")

		publisher := publish.NewPublisher(url, cfg.Pipeline.Publish.Token(), log)

		if *email != "" && *password != "" {
			log.Info("🔐 Authenticating...")

			if authErr := publisher.Authenticate(ctx, *email, *password); authErr != nil {
				log.Warn(fmt.Sprintf("⚠️  Authentication failed: %v (Attempting upload anyway...)", authErr))
			} else {
				log.Info("✅ Authenticated successfully")
			}
		}

		publishResult, err = publisher.Publish(ctx, draft, formatted, html)
		if err != nil {
			log.Error(fmt.Sprintf("❌ Publish failed: %v", err))
			os.Exit(1)
		}

		publishAction = "updated"
		if publishResult.Created {
			publishAction = "created"
		}
	}

	// 7. Final Report
	// ---------------
	log.Info("✨ Pipeline Complete!")
	fmt.Println("\n------------------------------------------------")
	fmt.Printf("📊 Summary Report\n")
	fmt.Println("------------------------------------------------")
	fmt.Printf("Topic: %s\n", cfg.Pipeline.Topic)
	fmt.Printf("Papers Indexed: %d (%d chunks)\n", len(texts), chunks)
	fmt.Printf("Sections: %d\n", draft.SectionCount())
	fmt.Printf("References: %d\n", len(draft.References))
	fmt.Printf("Validation: %s\n", validationLabel(result))
	fmt.Printf("PDF Rendered: %v\n", pdfRendered)
	fmt.Printf("Publish: %s", publishAction)
	if publishResult != nil {
		fmt.Printf(" (id %d, slug %s)", publishResult.ID, publishResult.Slug)
	}
	fmt.Println()
	fmt.Printf("Total Duration: %v\n", time.Since(startTime))

	if len(result.Warnings) > 0 {
		fmt.Printf("⚠️  Warnings: %d\n", len(result.Warnings))

		for _, w := range result.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Println("------------------------------------------------")
}

func validationLabel(result *validator.ValidationResult) string {
	if result.IsValid {
		return "passed"
	}

	return fmt.Sprintf("failed (%d errors)", len(result.Errors))
}

// documentTitle takes the first heading, falling back to the topic.
func documentTitle(markdown, fallback string) string {
	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}

	return fallback
}
