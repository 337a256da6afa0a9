// Package kb implements the knowledge base: sentence-aware chunking of
// paper texts and a SQLite store with vector retrieval.
package kb

import (
	"strings"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// Chunker splits flowing text into citable chunks. Sentences are segmented
// per UAX #29 and merged until the target size is reached; fragments below
// the minimum are discarded.
type Chunker struct {
	minRunes    int
	targetRunes int
}

// NewChunker creates a chunker. Zero or negative bounds fall back to the
// original pipeline's constants (50 minimum, 300 target).
func NewChunker(minRunes, targetRunes int) *Chunker {
	if minRunes <= 0 {
		minRunes = 50
	}
	if targetRunes <= 0 {
		targetRunes = 300
	}
	if targetRunes < minRunes {
		targetRunes = minRunes
	}

	return &Chunker{
		minRunes:    minRunes,
		targetRunes: targetRunes,
	}
}

// Split segments text into chunks. Whitespace-only input yields no chunks.
func (c *Chunker) Split(text string) []string {
	var (
		chunks  []string
		current strings.Builder
		runes   int
	)

	flush := func() {
		trimmed := strings.TrimSpace(current.String())
		if utf8.RuneCountInString(trimmed) >= c.minRunes {
			chunks = append(chunks, trimmed)
		}
		current.Reset()
		runes = 0
	}

	segs := sentences.FromString(text)
	for segs.Next() {
		sentence := segs.Value()

		n := utf8.RuneCountInString(sentence)
		if runes > 0 && runes+n > c.targetRunes {
			flush()
		}

		current.WriteString(sentence)
		runes += n

		// A single oversized sentence becomes its own chunk.
		if runes >= c.targetRunes {
			flush()
		}
	}

	flush()

	return chunks
}
