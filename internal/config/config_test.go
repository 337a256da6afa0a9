package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Pipeline.Topic = "time series forecasting"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_MissingTopic(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingTopic) {
		t.Errorf("expected ErrMissingTopic, got %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero max results", func(c *Config) { c.Pipeline.Search.MaxResults = 0 }, ErrInvalidMaxResults},
		{"zero attempts", func(c *Config) { c.Pipeline.Retry.MaxAttempts = 0 }, ErrInvalidMaxAttempts},
		{"negative delay", func(c *Config) { c.Pipeline.Retry.InitialDelayMs = -1 }, ErrInvalidInitialDelay},
		{"bad multiplier", func(c *Config) { c.Pipeline.Retry.BackoffMultiplier = 0.5 }, ErrInvalidBackoffMultiplier},
		{"zero timeout", func(c *Config) { c.Pipeline.Retry.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"no output path", func(c *Config) { c.Pipeline.Output.BasePath = "" }, ErrMissingOutputPath},
		{"bad format", func(c *Config) { c.Pipeline.Output.Formats = []string{"docx"} }, ErrInvalidOutputFormat},
		{"no kb path", func(c *Config) { c.Pipeline.Knowledge.Path = "" }, ErrMissingKnowledgePath},
		{"chunk bounds", func(c *Config) { c.Pipeline.Knowledge.ChunkMinRunes = 500 }, ErrInvalidChunkBounds},
		{"zero top k", func(c *Config) { c.Pipeline.Knowledge.TopK = 0 }, ErrInvalidTopK},
		{"no model", func(c *Config) { c.Pipeline.LLM.Model = "" }, ErrMissingModel},
		{"hot temperature", func(c *Config) { c.Pipeline.LLM.Temperature = 3 }, ErrInvalidTemperature},
		{"bad provider", func(c *Config) { c.Pipeline.Embedding.Provider = "openai" }, ErrInvalidProvider},
		{"no sections", func(c *Config) { c.Pipeline.Sections = nil }, ErrNoSections},
		{"bad log level", func(c *Config) { c.Pipeline.Logging.Level = "verbose" }, ErrInvalidLogLevel},
		{"bad log format", func(c *Config) { c.Pipeline.Logging.Format = "xml" }, ErrInvalidLogFormat},
		{"reference bounds", func(c *Config) { c.Pipeline.Validation.MinReferences = 100 }, ErrInvalidReferenceBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidate_ExperimentBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Pipeline.Experiment.Enabled = true
	cfg.Pipeline.Experiment.TrainSplit = 1.0

	if err := cfg.Validate(); !errors.Is(err, ErrInvalidTrainSplit) {
		t.Errorf("expected ErrInvalidTrainSplit, got %v", err)
	}

	cfg = validConfig()
	cfg.Pipeline.Experiment.Enabled = true
	cfg.Pipeline.Experiment.Windows = nil

	if err := cfg.Validate(); !errors.Is(err, ErrNoWindowCandidates) {
		t.Errorf("expected ErrNoWindowCandidates, got %v", err)
	}
}

func TestGetRetryDelay(t *testing.T) {
	rp := &RetryPolicy{
		InitialDelayMs:    500,
		MaxDelayMs:        3000,
		BackoffMultiplier: 2.0,
	}

	if d := rp.GetRetryDelay(1); d != 0 {
		t.Errorf("attempt 1 should have no delay, got %v", d)
	}

	if d := rp.GetRetryDelay(2); d != 500*time.Millisecond {
		t.Errorf("attempt 2 expected 500ms, got %v", d)
	}

	if d := rp.GetRetryDelay(3); d != 1*time.Second {
		t.Errorf("attempt 3 expected 1s, got %v", d)
	}

	// Capped at max delay.
	if d := rp.GetRetryDelay(10); d != 3*time.Second {
		t.Errorf("expected cap at 3s, got %v", d)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	cfg := validConfig()
	cfg.Pipeline.Search.MaxResults = 7

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Pipeline.Search.MaxResults != 7 {
		t.Errorf("expected max_results 7, got %d", loaded.Pipeline.Search.MaxResults)
	}

	if loaded.Pipeline.Topic != cfg.Pipeline.Topic {
		t.Errorf("topic mismatch: %q vs %q", loaded.Pipeline.Topic, cfg.Pipeline.Topic)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	llm := &LLMConfig{APIKeyEnv: "PAPERMILL_TEST_KEY"}
	os.Setenv("PAPERMILL_TEST_KEY", "secret")
	defer os.Unsetenv("PAPERMILL_TEST_KEY")

	if got := llm.APIKey(); got != "secret" {
		t.Errorf("expected key from env, got %q", got)
	}
}

func TestWantsFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Pipeline.Output.Formats = []string{"md", "pdf"}

	if !cfg.WantsFormat("pdf") {
		t.Error("expected pdf format enabled")
	}

	if cfg.WantsFormat("html") {
		t.Error("expected html format disabled")
	}
}
