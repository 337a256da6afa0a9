package models

import "time"

// Section is one generated section of the paper.
type Section struct {
	Heading   string   `json:"heading"`
	Body      string   `json:"body"`
	ChunkIDs  []string `json:"chunkIds"`
	Citations []int    `json:"citations"`
}

// Draft is the assembled paper before formatting and signing.
type Draft struct {
	Topic       string      `json:"topic"`
	Sections    []Section   `json:"sections"`
	References  []Reference `json:"references"`
	Markdown    string      `json:"markdown"`
	Model       string      `json:"model"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// SectionCount returns the number of non-empty sections.
func (d *Draft) SectionCount() int {
	n := 0
	for _, s := range d.Sections {
		if s.Body != "" {
			n++
		}
	}
	return n
}
