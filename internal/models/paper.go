// Package models defines data structures shared across the pipeline stages.
package models

import "time"

// Paper represents a single paper discovered on arXiv.
type Paper struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Authors   []string  `json:"authors"`
	Summary   string    `json:"summary"`
	Published time.Time `json:"published"`
	PDFURL    string    `json:"pdfUrl"`
	EntryID   string    `json:"entryId"`
}

// HasPDF reports whether the entry carries a downloadable PDF link.
func (p *Paper) HasPDF() bool {
	return p.PDFURL != ""
}

// PaperText couples a paper with its extracted plain text.
type PaperText struct {
	Paper    Paper  `json:"paper"`
	FullText string `json:"fullText"`
	Bytes    int64  `json:"bytes"`
}

// SearchResult is the persisted output of the search stage.
type SearchResult struct {
	Topic     string    `json:"topic"`
	Papers    []Paper   `json:"papers"`
	FetchedAt time.Time `json:"fetchedAt"`
}
