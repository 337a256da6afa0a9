package arxiv

import (
	"encoding/xml"
	"strings"
	"time"

	"papermill/internal/models"
)

// Atom feed structures for the arXiv query API.
// See https://info.arxiv.org/help/api/user-manual.html

type feed struct {
	XMLName      xml.Name `xml:"feed"`
	TotalResults int      `xml:"totalResults"`
	StartIndex   int      `xml:"startIndex"`
	Entries      []entry  `xml:"entry"`
}

type entry struct {
	ID        string   `xml:"id"`
	Title     string   `xml:"title"`
	Summary   string   `xml:"summary"`
	Published string   `xml:"published"`
	Authors   []author `xml:"author"`
	Links     []link   `xml:"link"`
}

type author struct {
	Name string `xml:"name"`
}

type link struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// parseFeed decodes an Atom response body into papers. Entries without a PDF
// link are kept; callers decide whether to skip them.
func parseFeed(data []byte) ([]models.Paper, error) {
	var f feed
	if err := xml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	papers := make([]models.Paper, 0, len(f.Entries))

	for _, e := range f.Entries {
		p := models.Paper{
			EntryID: strings.TrimSpace(e.ID),
			ID:      shortID(e.ID),
			Title:   collapseWhitespace(e.Title),
			Summary: collapseWhitespace(e.Summary),
		}

		for _, a := range e.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				p.Authors = append(p.Authors, name)
			}
		}

		for _, l := range e.Links {
			if l.Title == "pdf" || l.Type == "application/pdf" {
				p.PDFURL = l.Href
				break
			}
		}

		// Malformed dates fall back to the zero time rather than failing
		// the whole feed.
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
			p.Published = t
		}

		papers = append(papers, p)
	}

	return papers, nil
}

// shortID extracts the bare arXiv identifier from an entry URL, e.g.
// "http://arxiv.org/abs/2101.00001v1" -> "2101.00001v1".
func shortID(entryID string) string {
	trimmed := strings.TrimSpace(entryID)
	if idx := strings.LastIndex(trimmed, "/abs/"); idx >= 0 {
		return trimmed[idx+len("/abs/"):]
	}
	return trimmed
}

// collapseWhitespace joins the multi-line fields arXiv wraps at 80 columns.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
