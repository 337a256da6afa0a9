package models

import "time"

// Chunk is a citable excerpt of a paper's full text.
type Chunk struct {
	ID         string    `json:"id"`
	PaperID    string    `json:"paperId"`
	Ordinal    int       `json:"ordinal"`
	Text       string    `json:"text"`
	Title      string    `json:"sourceTitle"`
	Authors    []string  `json:"sourceAuthors"`
	URL        string    `json:"sourceUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	Similarity float64   `json:"similarity,omitempty"`
}

// Reference is a bibliography entry built from the chunks a section cited.
type Reference struct {
	Number  int      `json:"number"`
	PaperID string   `json:"paperId"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	URL     string   `json:"url"`
}
