// Package publish uploads finished papers to the archive service. Papers
// are upserted by slug so re-running the pipeline updates the archived copy
// instead of duplicating it.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"papermill/internal/config"
	"papermill/internal/logger"
)

// Archive errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrNoTokenReceived      = errors.New("no token received from login")
	ErrPaperNotFound        = errors.New("paper not found")
)

const maxResponseBytes = 10 * 1024 * 1024

// Client defines the archive API surface.
type Client interface {
	Login(ctx context.Context, email, password string) error
	FindPaper(ctx context.Context, slug string) (int, error)
	CreatePaper(ctx context.Context, paper *PaperPayload) (int, error)
	UpdatePaper(ctx context.Context, id int, paper *PaperPayload) error
}

// Ensure RESTClient implements Client.
var _ Client = (*RESTClient)(nil)

// PaperPayload is the archive's representation of a finished paper.
type PaperPayload struct {
	Slug        string    `json:"slug"`
	Topic       string    `json:"topic"`
	Model       string    `json:"model"`
	Markdown    string    `json:"markdown"`
	HTML        string    `json:"html,omitempty"`
	Hash        string    `json:"hash"`
	Validated   bool      `json:"validated"`
	References  int       `json:"references"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// RESTClient talks to the archive's JSON API.
type RESTClient struct {
	httpClient  *http.Client
	retryPolicy *config.RetryPolicy
	baseURL     string
	token       string
	authToken   string
	mu          sync.RWMutex
	logger      *logger.Logger
}

// NewRESTClient creates a client. token is the static bearer token from the
// environment; Login can replace it with a session token.
func NewRESTClient(baseURL, token string, log *logger.Logger) *RESTClient {
	return &RESTClient{
		baseURL: baseURL,
		token:   token,
		retryPolicy: &config.RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    500,
			MaxDelayMs:        30000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        30,
		},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

// Login exchanges credentials for a session token.
func (c *RESTClient) Login(ctx context.Context, email, password string) error {
	body, err := c.do(ctx, http.MethodPost, "/api/users/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &loginResp); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}

	if loginResp.Token == "" {
		return ErrNoTokenReceived
	}

	c.mu.Lock()
	c.authToken = loginResp.Token
	c.mu.Unlock()

	return nil
}

// FindPaper returns the archive id for a slug, or ErrPaperNotFound.
func (c *RESTClient) FindPaper(ctx context.Context, slug string) (int, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/papers?slug="+slug, nil)
	if err != nil {
		return 0, err
	}

	var findResp struct {
		Docs []struct {
			ID int `json:"id"`
		} `json:"docs"`
	}
	if err := json.Unmarshal(body, &findResp); err != nil {
		return 0, fmt.Errorf("failed to parse find response: %w", err)
	}

	if len(findResp.Docs) == 0 {
		return 0, ErrPaperNotFound
	}

	return findResp.Docs[0].ID, nil
}

// CreatePaper uploads a new paper and returns its archive id.
func (c *RESTClient) CreatePaper(ctx context.Context, paper *PaperPayload) (int, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/papers", paper)
	if err != nil {
		return 0, err
	}

	var createResp struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(body, &createResp); err != nil {
		return 0, fmt.Errorf("failed to parse create response: %w", err)
	}

	return createResp.ID, nil
}

// UpdatePaper replaces an archived paper.
func (c *RESTClient) UpdatePaper(ctx context.Context, id int, paper *PaperPayload) error {
	_, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/papers/%d", id), paper)
	return err
}

// do performs a request with retry on transport errors and retryable
// statuses. Papers are keyed by slug, so replaying a create or update is
// safe.
func (c *RESTClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var jsonBody []byte
	if payload != nil {
		var err error
		jsonBody, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

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

		var reqBody io.Reader
		if jsonBody != nil {
			reqBody = bytes.NewReader(jsonBody)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		if jsonBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		c.mu.RLock()
		session := c.authToken
		static := c.token
		c.mu.RUnlock()

		if session != "" {
			req.Header.Set("Authorization", "Bearer "+session)
		} else if static != "" {
			req.Header.Set("Authorization", "Bearer "+static)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, c.retryPolicy.MaxAttempts, err)

			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()

		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)

			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if c.logger != nil {
				c.logger.Error("archive request failed", "method", method, "path", path, "status", resp.StatusCode)
			}

			lastErr = fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, resp.StatusCode, string(body))
			if !isRetryableStatus(resp.StatusCode) {
				return nil, lastErr
			}

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
