// Package arxiv provides a client for the arXiv query API.
package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"papermill/internal/config"
	"papermill/internal/models"
)

// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

const defaultBaseURL = "https://export.arxiv.org/api/query"

// Client queries the arXiv Atom API with config-driven retry logic.
type Client struct {
	httpClient   *http.Client
	retryPolicy  *config.RetryPolicy
	baseURL      string
	bufferSizeKb int
}

// NewClient creates a client with default retry settings.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryPolicy: &config.RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    500,
			MaxDelayMs:        30000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        30,
		},
		baseURL:      defaultBaseURL,
		bufferSizeKb: 10240,
	}
}

// NewClientWithConfig creates a client with custom base URL and retry policy.
func NewClientWithConfig(baseURL string, retryPolicy *config.RetryPolicy, bufferSizeKb int) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: retryPolicy.GetTimeout(),
		},
		retryPolicy:  retryPolicy,
		baseURL:      baseURL,
		bufferSizeKb: bufferSizeKb,
	}
}

// Search queries arXiv for papers matching the topic. An empty feed is not
// an error; callers receive a zero-length slice.
func (c *Client) Search(ctx context.Context, topic string, maxResults int, sortBy string) ([]models.Paper, error) {
	if sortBy == "" {
		sortBy = "relevance"
	}

	params := url.Values{}
	params.Set("search_query", "all:"+topic)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("sortBy", sortBy)
	params.Set("sortOrder", "descending")

	body, err := c.get(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("arxiv query failed: %w", err)
	}

	papers, err := parseFeed(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse atom feed: %w", err)
	}

	return papers, nil
}

// get fetches a URL with retry and backoff, capping the response body.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.retryPolicy.GetRetryDelay(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("User-Agent", "papermill/1.0 (research paper pipeline)")
		req.Header.Set("Accept", "application/atom+xml")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, c.retryPolicy.MaxAttempts, err)

			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()

			lastErr = fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
			if !isRetryableStatus(resp.StatusCode) {
				return nil, lastErr
			}

			continue
		}

		limit := int64(c.bufferSizeKb) * 1024
		body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
		resp.Body.Close()

		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)

			continue
		}

		return body, nil
	}

	return nil, lastErr
}

// isRetryableStatus determines if we should retry based on HTTP status code.
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
