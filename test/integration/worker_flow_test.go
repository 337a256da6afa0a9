package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"papermill/internal/compose"
	"papermill/internal/config"
	"papermill/internal/formatter"
	"papermill/internal/kb"
	"papermill/internal/logger"
	"papermill/internal/models"
	"papermill/internal/render"
	"papermill/internal/validator"
	"papermill/pkg/metadata"
)

// scriptedGenerator stands in for the LLM so the flow is deterministic.
type scriptedGenerator struct{}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "Section: ") {
			heading := strings.TrimPrefix(line, "Section: ")
			return fmt.Sprintf(
				"This part of the paper covers %s in enough depth to pass the word "+
					"count gate, drawing on the indexed literature about forecasting "+
					"with recurrent and attention based models [1].", heading), nil
		}
	}

	return "", fmt.Errorf("no section heading in prompt")
}

func (g *scriptedGenerator) Model() string { return "scripted-test-model" }

func seedKnowledgeBase(t *testing.T, store *kb.Store) {
	t.Helper()

	log := logger.New("error")
	chunker := kb.NewChunker(10, 120)
	indexer := kb.NewIndexer(store, chunker, nil, log)

	texts := []models.PaperText{
		{
			Paper: models.Paper{
				ID:      "2101.00001",
				Title:   "Sequence Models for Time Series",
				Authors: []string{"A. Author"},
				EntryID: "http://arxiv.org/abs/2101.00001",
			},
			FullText: "Recurrent networks model temporal dependence through hidden state. " +
				"Attention based forecasting architectures weigh past observations directly. " +
				"Both families are evaluated against naive and autoregressive baselines.",
		},
		{
			Paper: models.Paper{
				ID:      "2102.00002",
				Title:   "Evaluation of Forecasting Baselines",
				Authors: []string{"B. Writer", "C. Reviewer"},
				EntryID: "http://arxiv.org/abs/2102.00002",
			},
			FullText: "Forecast error is commonly reported as mean absolute error and root " +
				"mean squared error over a held out test range. Percentage error skips " +
				"zero valued observations to stay defined.",
		},
	}

	if _, err := indexer.IndexPapers(context.Background(), texts); err != nil {
		t.Fatalf("IndexPapers failed: %v", err)
	}
}

func TestWorkerFlow_ComposeValidateRender(t *testing.T) {
	ctx := context.Background()
	log := logger.New("error")

	cfg := config.Default()
	cfg.Pipeline.Topic = "neural time series forecasting"
	cfg.Pipeline.Sections = []string{"Abstract", "Methodology", "Results"}
	cfg.Pipeline.Knowledge.Path = filepath.Join(t.TempDir(), "kb.db")

	// 1. Indexing (simulating worker phases 1 & 2 without the network)
	store, err := kb.Open(cfg.Pipeline.Knowledge.Path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	seedKnowledgeBase(t, store)

	// 2. Composition
	composer := compose.NewComposer(kb.NewSearcher(store, nil, log), &scriptedGenerator{}, cfg.Pipeline, log)
	composer.AttachExperiment("| Model | MAE | RMSE |\n|---|---|---|\n| naive | 1.0 | 1.5 |\n")

	draft, err := composer.ComposeDraft(ctx)
	if err != nil {
		t.Fatalf("ComposeDraft failed: %v", err)
	}

	if draft.SectionCount() != 3 {
		t.Fatalf("Expected 3 sections, got %d", draft.SectionCount())
	}

	if len(draft.References) == 0 {
		t.Fatal("Expected at least one reference")
	}

	var results *models.Section
	for i := range draft.Sections {
		if draft.Sections[i].Heading == "Results" {
			results = &draft.Sections[i]
		}
	}

	if results == nil {
		t.Fatal("Results section missing from draft")
	}

	if !strings.Contains(results.Body, "| naive |") {
		t.Error("Expected experiment table woven into Results")
	}

	// 3. Validation
	v := validator.NewDraftValidator(cfg.Pipeline.Validation, false)

	result := v.Validate(draft, cfg.Pipeline.Sections)
	if !result.IsValid {
		t.Fatalf("Expected valid draft, got errors: %v", result.Errors)
	}

	// 4. Signing and formatting
	signed := metadata.Sign(draft.Markdown, draft.Model, result.IsValid)

	formatted, err := formatter.FormatMarkdown(signed)
	if err != nil {
		t.Fatalf("FormatMarkdown failed: %v", err)
	}

	valid, err := metadata.Verify(formatted)
	if !valid {
		t.Fatalf("Expected formatted output to verify, got: %v", err)
	}

	meta, _ := metadata.Extract(formatted)
	if meta == nil {
		t.Fatal("Expected a provenance block in the formatted output")
	}

	if meta.Model != "scripted-test-model" {
		t.Errorf("Expected model scripted-test-model, got %s", meta.Model)
	}

	if !meta.Validation {
		t.Error("Expected validation flag to survive formatting")
	}

	// 5. Rendering
	html, err := render.ToHTML(cfg.Pipeline.Topic, formatted)
	if err != nil {
		t.Fatalf("ToHTML failed: %v", err)
	}

	if !strings.Contains(html, "<h2") {
		t.Error("Expected section headings in rendered HTML")
	}

	if strings.Contains(html, "GENERATOR:") {
		t.Error("Expected provenance block stripped from rendered HTML")
	}

	if !strings.Contains(html, "References") {
		t.Error("Expected references section in rendered HTML")
	}
}
