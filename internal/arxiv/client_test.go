package arxiv

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"papermill/internal/config"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <totalResults xmlns="http://a9.com/-/spec/opensearch/1.1/">2</totalResults>
  <entry>
    <id>http://arxiv.org/abs/2101.00001v1</id>
    <title>Deep Learning for
 Time Series Forecasting</title>
    <summary>A survey of recurrent
 and convolutional approaches.</summary>
    <published>2021-01-04T12:00:00Z</published>
    <author><name>A. Smith</name></author>
    <author><name>B. Johnson</name></author>
    <link href="http://arxiv.org/abs/2101.00001v1" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2101.00001v1" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2102.00002v3</id>
    <title>Attention Hybrids</title>
    <summary>Attention-based hybrid models.</summary>
    <published>not-a-date</published>
    <author><name>C. Zhang</name></author>
    <link href="http://arxiv.org/abs/2102.00002v3" rel="alternate" type="text/html"/>
  </entry>
</feed>`

func fastRetry() *config.RetryPolicy {
	return &config.RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    1,
		MaxDelayMs:        5,
		BackoffMultiplier: 1.0,
		TimeoutSec:        5,
	}
}

func TestSearch_ParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("search_query") != "all:time series forecasting" {
			t.Errorf("unexpected search_query: %q", q.Get("search_query"))
		}
		if q.Get("max_results") != "5" {
			t.Errorf("unexpected max_results: %q", q.Get("max_results"))
		}
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	client := NewClientWithConfig(srv.URL, fastRetry(), 1024)

	papers, err := client.Search(context.Background(), "time series forecasting", 5, "relevance")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(papers) != 2 {
		t.Fatalf("expected 2 papers, got %d", len(papers))
	}

	first := papers[0]
	if first.ID != "2101.00001v1" {
		t.Errorf("expected short id 2101.00001v1, got %q", first.ID)
	}

	if first.Title != "Deep Learning for Time Series Forecasting" {
		t.Errorf("title not collapsed: %q", first.Title)
	}

	if len(first.Authors) != 2 || first.Authors[1] != "B. Johnson" {
		t.Errorf("unexpected authors: %v", first.Authors)
	}

	if !first.HasPDF() {
		t.Error("first paper should have a PDF link")
	}

	if first.Published.Year() != 2021 {
		t.Errorf("unexpected published date: %v", first.Published)
	}

	second := papers[1]
	if second.HasPDF() {
		t.Error("second paper should have no PDF link")
	}

	if !second.Published.IsZero() {
		t.Errorf("malformed date should fall back to zero time, got %v", second.Published)
	}
}

func TestSearch_EmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer srv.Close()

	client := NewClientWithConfig(srv.URL, fastRetry(), 1024)

	papers, err := client.Search(context.Background(), "nonexistent topic", 5, "")
	if err != nil {
		t.Fatalf("empty feed should not be an error: %v", err)
	}

	if len(papers) != 0 {
		t.Errorf("expected 0 papers, got %d", len(papers))
	}
}

func TestSearch_RetriesOnServiceUnavailable(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	client := NewClientWithConfig(srv.URL, fastRetry(), 1024)

	papers, err := client.Search(context.Background(), "topic", 5, "")
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}

	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}

	if len(papers) != 2 {
		t.Errorf("expected 2 papers after retry, got %d", len(papers))
	}
}

func TestSearch_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClientWithConfig(srv.URL, fastRetry(), 1024)

	_, err := client.Search(context.Background(), "topic", 5, "")
	if !errors.Is(err, ErrUnexpectedStatusCode) {
		t.Fatalf("expected ErrUnexpectedStatusCode, got %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("400 should not be retried, got %d attempts", calls.Load())
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/2101.00001v1", "2101.00001v1"},
		{"  http://arxiv.org/abs/cs/0101001v2 ", "cs/0101001v2"},
		{"2101.00001", "2101.00001"},
	}

	for _, tt := range tests {
		if got := shortID(tt.in); got != tt.want {
			t.Errorf("shortID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
