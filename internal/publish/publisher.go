package publish

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"papermill/internal/logger"
	"papermill/internal/models"
	"papermill/pkg/metadata"
)

// Publisher upserts finished papers into the archive.
type Publisher struct {
	client Client
	logger *logger.Logger
}

// NewPublisher creates a publisher backed by the REST archive.
func NewPublisher(baseURL, token string, log *logger.Logger) *Publisher {
	return &Publisher{
		client: NewRESTClient(baseURL, token, log),
		logger: log,
	}
}

// NewPublisherWithClient creates a publisher with a custom client (useful
// for testing).
func NewPublisherWithClient(client Client, log *logger.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: log,
	}
}

// Authenticate logs in with email and password.
func (p *Publisher) Authenticate(ctx context.Context, email, password string) error {
	return p.client.Login(ctx, email, password)
}

// PublishResult reports what the upsert did.
type PublishResult struct {
	ID      int
	Slug    string
	Created bool
}

// Publish upserts the draft's signed markdown and optional HTML rendering.
// The archive slug is derived from the topic so repeated runs on the same
// topic update the same record.
func (p *Publisher) Publish(ctx context.Context, draft *models.Draft, signedMarkdown, html string) (*PublishResult, error) {
	meta, _ := metadata.Extract(signedMarkdown)

	payload := &PaperPayload{
		Slug:        Slugify(draft.Topic),
		Topic:       draft.Topic,
		Model:       draft.Model,
		Markdown:    signedMarkdown,
		HTML:        html,
		References:  len(draft.References),
		GeneratedAt: draft.GeneratedAt,
	}

	if meta != nil {
		payload.Hash = meta.Hash
		payload.Validated = meta.Validation
	}

	existingID, err := p.client.FindPaper(ctx, payload.Slug)
	if err != nil && !errors.Is(err, ErrPaperNotFound) {
		return nil, fmt.Errorf("failed to look up paper: %w", err)
	}

	if existingID > 0 {
		if err := p.client.UpdatePaper(ctx, existingID, payload); err != nil {
			return nil, fmt.Errorf("failed to update paper: %w", err)
		}

		p.logger.Info("paper updated in archive", "id", existingID, "slug", payload.Slug)

		return &PublishResult{ID: existingID, Slug: payload.Slug}, nil
	}

	id, err := p.client.CreatePaper(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create paper: %w", err)
	}

	p.logger.Info("paper created in archive", "id", id, "slug", payload.Slug)

	return &PublishResult{ID: id, Slug: payload.Slug, Created: true}, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the topic and collapses everything else to hyphens.
func Slugify(topic string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(topic), "-")
	return strings.Trim(slug, "-")
}
