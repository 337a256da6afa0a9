// Package embedding provides vector embedding generation for the knowledge
// base. Two backends are supported: Google GenAI (cloud) and Ollama (local).
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"

	"papermill/internal/config"
)

// Engine errors.
var (
	ErrDimensionMismatch = errors.New("vectors have different dimensions")
	ErrZeroVector        = errors.New("cannot compare zero-magnitude vector")
)

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of embeddings.
	Dimensions() int

	// Name returns the engine name.
	Name() string
}

// NewEngine creates an embedding engine from configuration.
func NewEngine(cfg config.EmbeddingConfig) (Engine, error) {
	switch cfg.Provider {
	case "genai":
		return NewGenAIEngine(cfg.APIKey(), cfg.Model, cfg.TaskType)
	case "ollama":
		return NewOllamaEngine(cfg.OllamaEndpoint, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'genai' or 'ollama')", cfg.Provider)
	}
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Returns a value in [-1, 1]; 1 means identical direction.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
