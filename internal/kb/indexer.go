package kb

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"papermill/internal/embedding"
	"papermill/internal/logger"
	"papermill/internal/models"
)

// Indexer chunks paper texts, embeds the chunks, and persists both.
type Indexer struct {
	store   *Store
	chunker *Chunker
	engine  embedding.Engine
	log     *logger.Logger
}

// NewIndexer creates an indexer. A nil engine stores chunks without
// vectors; retrieval then degrades to keyword matching.
func NewIndexer(store *Store, chunker *Chunker, engine embedding.Engine, log *logger.Logger) *Indexer {
	return &Indexer{
		store:   store,
		chunker: chunker,
		engine:  engine,
		log:     log,
	}
}

// IndexPapers ingests every paper text and returns the number of chunks
// stored. An embedding failure downgrades that paper to keyword-only
// retrieval instead of failing the stage.
func (ix *Indexer) IndexPapers(ctx context.Context, texts []models.PaperText) (int, error) {
	total := 0

	for _, pt := range texts {
		n, err := ix.indexOne(ctx, pt)
		if err != nil {
			return total, fmt.Errorf("failed to index %q: %w", pt.Paper.ID, err)
		}

		total += n
	}

	return total, nil
}

func (ix *Indexer) indexOne(ctx context.Context, pt models.PaperText) (int, error) {
	if err := ix.store.UpsertPaper(ctx, pt.Paper); err != nil {
		return 0, err
	}

	pieces := ix.chunker.Split(pt.FullText)
	if len(pieces) == 0 {
		ix.log.Warn("paper produced no chunks", "id", pt.Paper.ID, "title", pt.Paper.Title)
		return 0, nil
	}

	var vectors [][]float32

	if ix.engine != nil {
		var err error

		vectors, err = ix.engine.EmbedBatch(ctx, pieces)
		if err != nil {
			ix.log.Warn("embedding failed, storing chunks without vectors",
				"id", pt.Paper.ID, "error", err)

			vectors = nil
		}
	}

	for i, text := range pieces {
		chunk := models.Chunk{
			ID:      uuid.NewString(),
			PaperID: pt.Paper.ID,
			Ordinal: i,
			Text:    text,
			Title:   pt.Paper.Title,
			Authors: pt.Paper.Authors,
			URL:     pt.Paper.PDFURL,
		}

		var vec []float32
		if i < len(vectors) {
			vec = vectors[i]
		}

		if err := ix.store.InsertChunk(ctx, chunk, vec); err != nil {
			return i, err
		}
	}

	ix.log.Debug("indexed paper", "id", pt.Paper.ID, "chunks", len(pieces))

	return len(pieces), nil
}
