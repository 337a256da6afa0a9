package kb

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"papermill/internal/models"
)

// Store errors.
var (
	ErrEmptyKnowledgeBase = errors.New("knowledge base contains no chunks")
)

const schema = `
CREATE TABLE IF NOT EXISTS papers (
	id        TEXT PRIMARY KEY,
	entry_id  TEXT,
	title     TEXT NOT NULL,
	authors   TEXT,
	summary   TEXT,
	published TEXT,
	pdf_url   TEXT
);

CREATE TABLE IF NOT EXISTS chunks (
	id         TEXT PRIMARY KEY,
	paper_id   TEXT NOT NULL REFERENCES papers(id),
	ordinal    INTEGER NOT NULL,
	text       TEXT NOT NULL,
	embedding  BLOB,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_paper ON chunks(paper_id, ordinal);
`

// Store persists papers and their citable chunks in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the knowledge base at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store dir: %w", err)
		}
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertPaper inserts or replaces a paper row.
func (s *Store) UpsertPaper(ctx context.Context, p models.Paper) error {
	authors, err := json.Marshal(p.Authors)
	if err != nil {
		return fmt.Errorf("failed to encode authors: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO papers (id, entry_id, title, authors, summary, published, pdf_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.EntryID, p.Title, string(authors), p.Summary,
		p.Published.UTC().Format(time.RFC3339), p.PDFURL,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert paper: %w", err)
	}

	return nil
}

// InsertChunk stores a chunk with an optional embedding vector.
func (s *Store) InsertChunk(ctx context.Context, chunk models.Chunk, vector []float32) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO chunks (id, paper_id, ordinal, text, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		chunk.ID, chunk.PaperID, chunk.Ordinal, chunk.Text,
		encodeVector(vector), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}

	return nil
}

// CountChunks returns the number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}

	return n, nil
}

// CountPapers returns the number of stored papers.
func (s *Store) CountPapers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count papers: %w", err)
	}

	return n, nil
}

const chunkSelect = `
SELECT c.id, c.paper_id, c.ordinal, c.text, c.embedding, c.created_at,
       p.title, p.authors, p.pdf_url
FROM chunks c
JOIN papers p ON p.id = c.paper_id
`

type storedChunk struct {
	chunk  models.Chunk
	vector []float32
}

func (s *Store) queryChunks(ctx context.Context, where string, args ...any) ([]storedChunk, error) {
	rows, err := s.db.QueryContext(ctx, chunkSelect+where, args...)
	if err != nil {
		return nil, fmt.Errorf("chunk query failed: %w", err)
	}
	defer rows.Close()

	var result []storedChunk

	for rows.Next() {
		var (
			sc        storedChunk
			blob      []byte
			authors   string
			createdAt string
		)

		if err := rows.Scan(
			&sc.chunk.ID, &sc.chunk.PaperID, &sc.chunk.Ordinal, &sc.chunk.Text,
			&blob, &createdAt, &sc.chunk.Title, &authors, &sc.chunk.URL,
		); err != nil {
			return nil, fmt.Errorf("chunk scan failed: %w", err)
		}

		if authors != "" {
			json.Unmarshal([]byte(authors), &sc.chunk.Authors)
		}

		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			sc.chunk.CreatedAt = t
		}

		sc.vector = decodeVector(blob)
		result = append(result, sc)
	}

	return result, rows.Err()
}

// FirstChunks returns the first k chunks in insertion order. This is the
// retrieval of last resort when neither vectors nor keywords match.
func (s *Store) FirstChunks(ctx context.Context, k int) ([]models.Chunk, error) {
	stored, err := s.queryChunks(ctx, `ORDER BY c.created_at, c.paper_id, c.ordinal LIMIT ?`, k)
	if err != nil {
		return nil, err
	}

	return chunksOf(stored), nil
}

func chunksOf(stored []storedChunk) []models.Chunk {
	chunks := make([]models.Chunk, len(stored))
	for i, sc := range stored {
		chunks[i] = sc.chunk
	}
	return chunks
}

// encodeVector packs float32 values as little-endian bytes. A nil vector
// encodes to nil, which SQLite stores as NULL.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}

	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}

	return buf
}

func decodeVector(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}

	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}

	return v
}
