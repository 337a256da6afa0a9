// Package compose turns retrieved knowledge-base excerpts into the sections
// of a survey paper. Each section is generated from its own retrieval set,
// cites sources with bracketed numbers, and the bibliography is assembled
// from the union of cited papers.
package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"papermill/internal/config"
)

// Generator errors.
var (
	ErrMissingAPIKey = errors.New("generation API key not set in environment")
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// Generator produces prose from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// GenAIGenerator generates text with the Gemini API.
type GenAIGenerator struct {
	client *genai.Client
	cfg    config.LLMConfig
}

// NewGenAIGenerator creates a Gemini-backed generator from config. The API
// key is resolved from the environment.
func NewGenAIGenerator(ctx context.Context, cfg config.LLMConfig) (*GenAIGenerator, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIGenerator{client: client, cfg: cfg}, nil
}

// Model returns the configured model name.
func (g *GenAIGenerator) Model() string {
	return g.cfg.Model
}

// Generate sends the prompt and returns the model's text.
func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(g.cfg.Temperature)),
	}
	if g.cfg.MaxOutputTokens > 0 {
		genCfg.MaxOutputTokens = int32(g.cfg.MaxOutputTokens)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
