package kb

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papermill/internal/logger"
	"papermill/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "kb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func testPaper(id string) models.Paper {
	return models.Paper{
		ID:        id,
		EntryID:   "http://arxiv.org/abs/" + id,
		Title:     "Paper " + id,
		Authors:   []string{"A. Smith", "B. Johnson"},
		Summary:   "summary",
		Published: time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC),
		PDFURL:    "http://arxiv.org/pdf/" + id,
	}
}

func TestStore_UpsertAndCount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertPaper(ctx, testPaper("2101.00001")))
	require.NoError(t, store.UpsertPaper(ctx, testPaper("2101.00001"))) // idempotent

	n, err := store.CountPapers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_InsertAndReadChunks(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	paper := testPaper("2101.00001")
	require.NoError(t, store.UpsertPaper(ctx, paper))

	vec := []float32{0.1, 0.2, 0.3}
	chunk := models.Chunk{
		ID:      "c1",
		PaperID: paper.ID,
		Ordinal: 0,
		Text:    "LSTM networks retain long-range dependencies.",
	}
	require.NoError(t, store.InsertChunk(ctx, chunk, vec))

	n, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.FirstChunks(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, chunk.Text, got[0].Text)
	assert.Equal(t, paper.Title, got[0].Title)
	assert.Equal(t, paper.Authors, got[0].Authors)
	assert.Equal(t, paper.PDFURL, got[0].URL)
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.5, -1.25, 3.75, 0}

	out := decodeVector(encodeVector(in))
	assert.Equal(t, in, out)

	assert.Nil(t, encodeVector(nil))
	assert.Nil(t, decodeVector(nil))
}

type fakeEngine struct {
	byText map[string][]float32
	dim    int
	fail   bool
}

func (f *fakeEngine) Embed(_ context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, fmt.Errorf("engine offline")
	}
	if v, ok := f.byText[text]; ok {
		return v, nil
	}
	return make([]float32, f.dim), nil
}

func (f *fakeEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, txt := range texts {
		v, err := f.Embed(ctx, txt)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEngine) Dimensions() int { return f.dim }
func (f *fakeEngine) Name() string    { return "fake" }

func TestSearcher_VectorRanking(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	log := logger.New("error")

	paper := testPaper("2101.00001")
	require.NoError(t, store.UpsertPaper(ctx, paper))

	require.NoError(t, store.InsertChunk(ctx, models.Chunk{
		ID: "near", PaperID: paper.ID, Ordinal: 0, Text: "recurrent networks",
	}, []float32{1, 0, 0}))
	require.NoError(t, store.InsertChunk(ctx, models.Chunk{
		ID: "far", PaperID: paper.ID, Ordinal: 1, Text: "unrelated material",
	}, []float32{0, 1, 0}))

	engine := &fakeEngine{
		dim:    3,
		byText: map[string][]float32{"query": {0.9, 0.1, 0}},
	}

	searcher := NewSearcher(store, engine, log)

	chunks, err := searcher.Search(ctx, "query", 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "near", chunks[0].ID)
	assert.Greater(t, chunks[0].Similarity, 0.5)
}

func TestSearcher_KeywordFallback(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	log := logger.New("error")

	paper := testPaper("2101.00001")
	require.NoError(t, store.UpsertPaper(ctx, paper))

	// No embeddings stored; engine fails too.
	require.NoError(t, store.InsertChunk(ctx, models.Chunk{
		ID: "c1", PaperID: paper.ID, Ordinal: 0,
		Text: "Sliding window transforms create training pairs.",
	}, nil))

	searcher := NewSearcher(store, &fakeEngine{dim: 3, fail: true}, log)

	chunks, err := searcher.Search(ctx, "sliding window", 5)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "c1", chunks[0].ID)
}

func TestSearcher_LastResortOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	log := logger.New("error")

	paper := testPaper("2101.00001")
	require.NoError(t, store.UpsertPaper(ctx, paper))
	require.NoError(t, store.InsertChunk(ctx, models.Chunk{
		ID: "c1", PaperID: paper.ID, Ordinal: 0, Text: "alpha beta gamma content here",
	}, nil))

	searcher := NewSearcher(store, nil, log)

	// Query shares no keywords with the stored chunk.
	chunks, err := searcher.Search(ctx, "zzz qqq", 5)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestSearcher_EmptyStore(t *testing.T) {
	store := openTestStore(t)
	searcher := NewSearcher(store, nil, logger.New("error"))

	_, err := searcher.Search(context.Background(), "anything", 3)
	assert.ErrorIs(t, err, ErrEmptyKnowledgeBase)
}

func TestIndexer_IndexPapers(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	log := logger.New("error")

	chunker := NewChunker(10, 80)
	engine := &fakeEngine{dim: 3}

	indexer := NewIndexer(store, chunker, engine, log)

	texts := []models.PaperText{
		{
			Paper: testPaper("2101.00001"),
			FullText: "Long short-term memory networks model sequences. " +
				"Convolutional filters extract local temporal patterns. " +
				"Hybrid attention models combine both families of architecture.",
		},
	}

	n, err := indexer.IndexPapers(ctx, texts)
	require.NoError(t, err)
	assert.Greater(t, n, 1)

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestIndexer_EmbeddingFailureDegrades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	indexer := NewIndexer(store, NewChunker(10, 80), &fakeEngine{dim: 3, fail: true}, logger.New("error"))

	texts := []models.PaperText{{
		Paper:    testPaper("2101.00002"),
		FullText: "A sufficiently long sentence that survives the chunk minimum filter.",
	}}

	n, err := indexer.IndexPapers(ctx, texts)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Chunks are stored without vectors and remain keyword-searchable.
	searcher := NewSearcher(store, nil, logger.New("error"))
	chunks, err := searcher.Search(ctx, "chunk minimum filter", 5)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}
