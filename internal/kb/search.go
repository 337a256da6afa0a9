package kb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"papermill/internal/embedding"
	"papermill/internal/logger"
	"papermill/internal/models"
)

// Searcher retrieves the chunks most relevant to a query. Vector similarity
// is preferred; keyword matching and finally insertion order are fallbacks,
// so retrieval never fails the pipeline on a non-empty store.
type Searcher struct {
	store  *Store
	engine embedding.Engine
	log    *logger.Logger
}

// NewSearcher creates a searcher. A nil engine disables vector search.
func NewSearcher(store *Store, engine embedding.Engine, log *logger.Logger) *Searcher {
	return &Searcher{
		store:  store,
		engine: engine,
		log:    log,
	}
}

// Search returns up to k chunks ranked by relevance to the query.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	if k <= 0 {
		k = 3
	}

	total, err := s.store.CountChunks(ctx)
	if err != nil {
		return nil, err
	}

	if total == 0 {
		return nil, ErrEmptyKnowledgeBase
	}

	if s.engine != nil {
		chunks, err := s.vectorSearch(ctx, query, k)
		if err != nil {
			s.log.Warn("vector search unavailable, falling back to keywords", "error", err)
		} else if len(chunks) > 0 {
			return chunks, nil
		}
	}

	chunks, err := s.keywordSearch(ctx, query, k)
	if err != nil {
		return nil, err
	}

	if len(chunks) > 0 {
		return chunks, nil
	}

	return s.store.FirstChunks(ctx, k)
}

// vectorSearch embeds the query and ranks stored vectors by cosine
// similarity.
func (s *Searcher) vectorSearch(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	queryVec, err := s.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	stored, err := s.store.queryChunks(ctx, `WHERE c.embedding IS NOT NULL`)
	if err != nil {
		return nil, err
	}

	type scored struct {
		chunk models.Chunk
		score float64
	}

	ranked := make([]scored, 0, len(stored))

	for _, sc := range stored {
		sim, err := embedding.CosineSimilarity(queryVec, sc.vector)
		if err != nil {
			// Mixed-dimension or zero vectors are skipped, not fatal.
			continue
		}

		c := sc.chunk
		c.Similarity = sim
		ranked = append(ranked, scored{chunk: c, score: sim})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	chunks := make([]models.Chunk, len(ranked))
	for i, r := range ranked {
		chunks[i] = r.chunk
	}

	return chunks, nil
}

// keywordSearch matches chunks containing any query keyword.
func (s *Searcher) keywordSearch(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil, nil
	}

	var (
		conditions []string
		args       []any
	)

	for _, kw := range keywords {
		conditions = append(conditions, "LOWER(c.text) LIKE ?")
		args = append(args, "%"+kw+"%")
	}

	where := fmt.Sprintf(
		`WHERE %s ORDER BY c.created_at, c.paper_id, c.ordinal LIMIT ?`,
		strings.Join(conditions, " OR "),
	)
	args = append(args, k)

	stored, err := s.store.queryChunks(ctx, where, args...)
	if err != nil {
		return nil, err
	}

	return chunksOf(stored), nil
}
