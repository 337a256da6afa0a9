// Package harvest downloads paper PDFs and extracts their plain text.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"papermill/internal/config"
	"papermill/internal/logger"
	"papermill/internal/models"
)

// Fetch errors.
var (
	ErrNoPDFLink            = errors.New("paper has no PDF link")
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrEmptyExtraction      = errors.New("extracted text is empty")
)

// Fetcher downloads PDFs with bounded concurrency and per-file retry.
type Fetcher struct {
	httpClient  *http.Client
	retryPolicy *config.RetryPolicy
	log         *logger.Logger
	destDir     string
	concurrency int
}

// NewFetcher creates a fetcher writing PDFs under destDir.
func NewFetcher(destDir string, retryPolicy *config.RetryPolicy, concurrency int, log *logger.Logger) *Fetcher {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: retryPolicy.GetTimeout(),
		},
		retryPolicy: retryPolicy,
		log:         log,
		destDir:     destDir,
		concurrency: concurrency,
	}
}

// FetchAll downloads and extracts every paper with a PDF link. Individual
// failures are logged and skipped; the pipeline continues with whatever
// survived. The returned slice preserves the input order.
func (f *Fetcher) FetchAll(ctx context.Context, papers []models.Paper) ([]models.PaperText, error) {
	if err := os.MkdirAll(f.destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	results := make([]*models.PaperText, len(papers))

	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, paper := range papers {
		g.Go(func() error {
			text, err := f.fetchOne(ctx, paper)
			if err != nil {
				f.log.Warn("skipping paper", "id", paper.ID, "title", paper.Title, "error", err)
				return nil
			}

			mu.Lock()
			results[i] = text
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	texts := make([]models.PaperText, 0, len(papers))
	for _, r := range results {
		if r != nil {
			texts = append(texts, *r)
		}
	}

	return texts, nil
}

// fetchOne downloads a single PDF and extracts its text.
func (f *Fetcher) fetchOne(ctx context.Context, paper models.Paper) (*models.PaperText, error) {
	if !paper.HasPDF() {
		return nil, ErrNoPDFLink
	}

	path := filepath.Join(f.destDir, sanitizeFilename(paper.ID)+".pdf")

	size, err := f.download(ctx, paper.PDFURL, path)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	text, err := ExtractText(path)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	f.log.Debug("fetched paper", "id", paper.ID, "bytes", size, "chars", len(text))

	return &models.PaperText{
		Paper:    paper,
		FullText: text,
		Bytes:    size,
	}, nil
}

// download fetches the URL to path with retry and backoff.
func (f *Fetcher) download(ctx context.Context, rawURL, path string) (int64, error) {
	var lastErr error

	for attempt := 1; attempt <= f.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := f.retryPolicy.GetRetryDelay(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}

		size, err := f.downloadOnce(ctx, rawURL, path)
		if err == nil {
			return size, nil
		}

		lastErr = fmt.Errorf("attempt %d/%d: %w", attempt, f.retryPolicy.MaxAttempts, err)

		var statusErr *statusError
		if errors.As(err, &statusErr) && !isRetryableStatus(statusErr.code) {
			return 0, lastErr
		}
	}

	return 0, lastErr
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: %d", ErrUnexpectedStatusCode, e.code)
}

func (e *statusError) Unwrap() error {
	return ErrUnexpectedStatusCode
}

func (f *Fetcher) downloadOnce(ctx context.Context, rawURL, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "papermill/1.0 (research paper pipeline)")
	req.Header.Set("Accept", "application/pdf")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &statusError{code: resp.StatusCode}
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	return size, nil
}

func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests,
		http.StatusRequestTimeout:
		return true
	}

	return false
}

// sanitizeFilename replaces path separators in arXiv IDs (e.g. "cs/0101001").
func sanitizeFilename(id string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return replacer.Replace(id)
}
