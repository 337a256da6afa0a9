package compose

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"papermill/internal/config"
	"papermill/internal/kb"
	"papermill/internal/logger"
	"papermill/internal/models"
)

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// Composer drives per-section retrieval and generation and assembles the
// final draft with a deduplicated reference list.
type Composer struct {
	searcher *kb.Searcher
	gen      Generator
	cfg      config.PipelineConfig
	log      *logger.Logger

	// experimentTable, when set, is appended to the Results section so the
	// quantitative claims in the paper come from a run the pipeline
	// actually performed.
	experimentTable string
}

// NewComposer creates a composer with its dependencies.
func NewComposer(searcher *kb.Searcher, gen Generator, cfg config.PipelineConfig, log *logger.Logger) *Composer {
	return &Composer{
		searcher: searcher,
		gen:      gen,
		cfg:      cfg,
		log:      log,
	}
}

// AttachExperiment adds a rendered experiment table to the Results section.
func (c *Composer) AttachExperiment(table string) {
	c.experimentTable = table
}

// referenceRegistry assigns stable reference numbers to papers in order of
// first retrieval, deduplicated by paper id.
type referenceRegistry struct {
	byPaper map[string]int
	refs    []models.Reference
}

func newReferenceRegistry() *referenceRegistry {
	return &referenceRegistry{byPaper: make(map[string]int)}
}

// numberFor returns the reference number for a chunk's source paper,
// registering it on first sight.
func (r *referenceRegistry) numberFor(chunk models.Chunk) int {
	if n, ok := r.byPaper[chunk.PaperID]; ok {
		return n
	}

	n := len(r.refs) + 1
	r.byPaper[chunk.PaperID] = n
	r.refs = append(r.refs, models.Reference{
		Number:  n,
		PaperID: chunk.PaperID,
		Title:   chunk.Title,
		Authors: chunk.Authors,
		URL:     chunk.URL,
	})

	return n
}

// ComposeDraft generates every configured section and assembles the draft.
func (c *Composer) ComposeDraft(ctx context.Context) (*models.Draft, error) {
	if len(c.cfg.Sections) == 0 {
		return nil, errors.New("no sections configured")
	}

	registry := newReferenceRegistry()

	draft := &models.Draft{
		Topic:       c.cfg.Topic,
		Model:       c.gen.Model(),
		GeneratedAt: time.Now().UTC(),
	}

	for _, heading := range c.cfg.Sections {
		section, err := c.composeSection(ctx, heading, registry)
		if err != nil {
			return nil, fmt.Errorf("failed to compose section %q: %w", heading, err)
		}

		draft.Sections = append(draft.Sections, *section)
		c.log.Info("section composed", "heading", heading, "sources", len(section.Citations))
	}

	draft.References = registry.refs
	draft.Markdown = renderMarkdown(draft)

	return draft, nil
}

func (c *Composer) composeSection(ctx context.Context, heading string, registry *referenceRegistry) (*models.Section, error) {
	query := c.cfg.Topic + " " + heading

	// An empty knowledge base fails here, before any generation call, so a
	// paper is never composed without grounding material.
	chunks, err := c.searcher.Search(ctx, query, c.cfg.Knowledge.TopK)
	if err != nil {
		return nil, err
	}

	excerpts := make([]Excerpt, 0, len(chunks))
	chunkIDs := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		excerpts = append(excerpts, Excerpt{
			Number: registry.numberFor(chunk),
			Title:  chunk.Title,
			Text:   chunk.Text,
		})
		chunkIDs = append(chunkIDs, chunk.ID)
	}

	body, err := c.gen.Generate(ctx, BuildSectionPrompt(c.cfg.Topic, heading, excerpts))
	if err != nil {
		return nil, err
	}

	if heading == "Results" && c.experimentTable != "" {
		body = body + "\n\n" + strings.TrimSpace(c.experimentTable)
	}

	return &models.Section{
		Heading:   heading,
		Body:      body,
		ChunkIDs:  chunkIDs,
		Citations: extractCitations(body, registry),
	}, nil
}

// extractCitations returns the sorted set of bracketed numbers in the body
// that resolve to a registered reference. Unresolvable numbers are left for
// the validator to flag.
func extractCitations(body string, registry *referenceRegistry) []int {
	seen := make(map[int]bool)

	for _, m := range citationPattern.FindAllStringSubmatch(body, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(registry.refs) {
			continue
		}
		seen[n] = true
	}

	citations := make([]int, 0, len(seen))
	for n := range seen {
		citations = append(citations, n)
	}
	sort.Ints(citations)

	return citations
}

// renderMarkdown assembles the full document: title, sections, references.
func renderMarkdown(draft *models.Draft) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", draft.Topic)

	for _, s := range draft.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Heading, strings.TrimSpace(s.Body))
	}

	if len(draft.References) > 0 {
		b.WriteString("## References\n\n")

		for _, r := range draft.References {
			fmt.Fprintf(&b, "%s\n\n", FormatReference(r))
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// FormatReference renders a bibliography line.
func FormatReference(r models.Reference) string {
	authors := strings.Join(r.Authors, ", ")
	if authors == "" {
		authors = "Unknown authors"
	}

	line := fmt.Sprintf("[%d] %s. %s.", r.Number, authors, strings.TrimRight(r.Title, "."))
	if r.URL != "" {
		line += " " + r.URL
	}

	return line
}
