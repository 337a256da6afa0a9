// Package main provides the render command that converts the signed paper
// markdown to styled HTML and, optionally, PDF.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"papermill/internal/config"
	"papermill/internal/logger"
	"papermill/internal/render"
)

func main() {
	configPath := flag.String("config", "", "Path to pipeline YAML config")
	input := flag.String("input", "", "Paper markdown path (default <base_path>/paper.md)")
	pdf := flag.Bool("pdf", false, "Also print the HTML to PDF through headless Chrome")
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
		inPath = cfg.ArtifactPath("paper.md")
	}

	content, err := os.ReadFile(inPath)
	if err != nil {
		log.Error("❌ Failed to read paper", "path", inPath, "error", err)
		os.Exit(1)
	}

	title := documentTitle(string(content), cfg.Pipeline.Topic)

	html, err := render.ToHTML(title, string(content))
	if err != nil {
		log.Error("❌ HTML rendering failed", "error", err)
		os.Exit(1)
	}

	htmlPath := strings.TrimSuffix(inPath, ".md") + ".html"
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		log.Error("❌ Failed to write HTML", "error", err)
		os.Exit(1)
	}

	log.Info("✅ HTML rendered", "output", htmlPath)

	if *pdf || cfg.Features.EnablePDFRender && cfg.WantsFormat("pdf") {
		pdfPath := strings.TrimSuffix(inPath, ".md") + ".pdf"

		renderer := render.NewPDFRenderer(log)
		if err := renderer.RenderFile(context.Background(), htmlPath, pdfPath); err != nil {
			// PDF output is best effort; the HTML is already on disk.
			log.Warn("⚠️ PDF rendering failed", "error", err)
			return
		}

		log.Info("✅ PDF rendered", "output", pdfPath)
	}
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
