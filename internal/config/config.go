// Package config provides configuration management for the paper pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingTopic             = errors.New("pipeline.topic is required")
	ErrInvalidMaxResults        = errors.New("search.max_results must be at least 1")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrMissingOutputPath        = errors.New("output.base_path is required")
	ErrInvalidOutputFormat      = errors.New("output.formats must be a subset of: md, html, pdf")
	ErrMissingKnowledgePath     = errors.New("knowledge_base.path is required")
	ErrInvalidChunkBounds       = errors.New("knowledge_base.chunk_min_runes cannot exceed chunk_target_runes")
	ErrInvalidTopK              = errors.New("knowledge_base.top_k must be at least 1")
	ErrMissingModel             = errors.New("llm.model is required")
	ErrInvalidTemperature       = errors.New("llm.temperature must be in [0, 2]")
	ErrInvalidProvider          = errors.New("embedding.provider must be 'genai' or 'ollama'")
	ErrNoSections               = errors.New("at least one section is required")
	ErrInvalidTrainSplit        = errors.New("experiment.train_split must be in (0, 1)")
	ErrInvalidHorizon           = errors.New("experiment.horizon must be at least 1")
	ErrNoWindowCandidates       = errors.New("experiment.windows must list at least one window length")
	ErrNoOrderCandidates        = errors.New("experiment.ar_orders must list at least one order")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'text' or 'json'")
	ErrInvalidReferenceBounds   = errors.New("validation.min_references cannot exceed max_references")
)

// Config represents the complete pipeline configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Features FeaturesConfig `yaml:"features"`
	Advanced AdvancedConfig `yaml:"advanced"`
}

// PipelineConfig contains the stage-level settings.
type PipelineConfig struct {
	Topic      string           `yaml:"topic"`
	Sections   []string         `yaml:"sections"`
	Search     SearchConfig     `yaml:"search"`
	Retry      RetryPolicy      `yaml:"retry"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge_base"`
	LLM        LLMConfig        `yaml:"llm"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Experiment ExperimentConfig `yaml:"experiment"`
	Publish    PublishConfig    `yaml:"publish"`
	Validation ValidationConfig `yaml:"validation"`
}

// SearchConfig controls the arXiv query.
type SearchConfig struct {
	MaxResults int    `yaml:"max_results"`
	SortBy     string `yaml:"sort_by"`
	BaseURL    string `yaml:"base_url"`
}

// RetryPolicy defines retry behavior for outbound HTTP.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// OutputConfig defines where and how artifacts are written.
type OutputConfig struct {
	BasePath    string   `yaml:"base_path"`
	Formats     []string `yaml:"formats"`
	PrettyPrint bool     `yaml:"pretty_print"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// KnowledgeConfig defines the chunk store.
type KnowledgeConfig struct {
	Path             string `yaml:"path"`
	ChunkMinRunes    int    `yaml:"chunk_min_runes"`
	ChunkTargetRunes int    `yaml:"chunk_target_runes"`
	TopK             int    `yaml:"top_k"`
}

// LLMConfig defines the generation model. The API key is read from the
// environment variable named by APIKeyEnv, never from the YAML file.
type LLMConfig struct {
	Model           string  `yaml:"model"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	APIKeyEnv       string  `yaml:"api_key_env"`
}

// APIKey resolves the generation API key from the environment.
func (c *LLMConfig) APIKey() string {
	env := c.APIKeyEnv
	if env == "" {
		env = "GEMINI_API_KEY"
	}
	return os.Getenv(env)
}

// EmbeddingConfig selects and parameterizes the embedding engine.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	TaskType       string `yaml:"task_type"`
	OllamaEndpoint string `yaml:"ollama_endpoint"`
	APIKeyEnv      string `yaml:"api_key_env"`
}

// APIKey resolves the embedding API key from the environment.
func (c *EmbeddingConfig) APIKey() string {
	env := c.APIKeyEnv
	if env == "" {
		env = "GEMINI_API_KEY"
	}
	return os.Getenv(env)
}

// ExperimentConfig parameterizes the forecasting evaluation stage.
type ExperimentConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Dataset        string  `yaml:"dataset"`
	ValueColumn    string  `yaml:"value_column"`
	DateColumn     string  `yaml:"date_column"`
	DateFormat     string  `yaml:"date_format"`
	Horizon        int     `yaml:"horizon"`
	TrainSplit     float64 `yaml:"train_split"`
	Normalize      bool    `yaml:"normalize"`
	SeasonalPeriod int     `yaml:"seasonal_period"`
	Windows        []int   `yaml:"windows"`
	AROrders       []int   `yaml:"ar_orders"`
}

// PublishConfig defines the optional archive endpoint.
type PublishConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	TokenEnv string `yaml:"token_env"`
}

// Token resolves the publish bearer token from the environment.
func (c *PublishConfig) Token() string {
	if c.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.TokenEnv)
}

// ValidationConfig bounds the generated document.
type ValidationConfig struct {
	MinReferences    int  `yaml:"min_references"`
	MaxReferences    int  `yaml:"max_references"`
	MinSectionWords  int  `yaml:"min_section_words"`
	CheckCitations   bool `yaml:"check_citations"`
	CheckTableFormat bool `yaml:"check_table_format"`
}

// FeaturesConfig contains feature flags.
type FeaturesConfig struct {
	EnableVectorSearch bool `yaml:"enable_vector_search"`
	EnablePDFRender    bool `yaml:"enable_pdf_render"`
	StrictValidation   bool `yaml:"strict_validation"`
}

// AdvancedConfig contains advanced settings.
type AdvancedConfig struct {
	ConcurrentFetches int  `yaml:"concurrent_fetches"`
	BufferSizeKb      int  `yaml:"buffer_size_kb"`
	ContinueOnErrors  bool `yaml:"continue_on_errors"`
}

// Default returns a configuration usable without a YAML file, matching the
// original pipeline's constants (5 results, 300-rune chunks, 50-rune floor,
// temperature 0.7, 80/20 split).
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Sections: []string{
				"Abstract", "Introduction", "Related Work", "Methodology",
				"Results", "Discussion", "Conclusion",
			},
			Search: SearchConfig{
				MaxResults: 5,
				SortBy:     "relevance",
				BaseURL:    "https://export.arxiv.org/api/query",
			},
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    500,
				MaxDelayMs:        30000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        30,
			},
			Output: OutputConfig{
				BasePath:    "out",
				Formats:     []string{"md", "html"},
				PrettyPrint: true,
			},
			Logging: LoggingConfig{Level: "info", Format: "text"},
			Knowledge: KnowledgeConfig{
				Path:             "out/knowledge.db",
				ChunkMinRunes:    50,
				ChunkTargetRunes: 300,
				TopK:             3,
			},
			LLM: LLMConfig{
				Model:           "gemini-2.0-flash",
				Temperature:     0.7,
				MaxOutputTokens: 4096,
				APIKeyEnv:       "GEMINI_API_KEY",
			},
			Embedding: EmbeddingConfig{
				Provider:       "genai",
				Model:          "gemini-embedding-001",
				TaskType:       "RETRIEVAL_DOCUMENT",
				OllamaEndpoint: "http://localhost:11434",
				APIKeyEnv:      "GEMINI_API_KEY",
			},
			Experiment: ExperimentConfig{
				ValueColumn:    "y",
				DateFormat:     "2006-01-02",
				Horizon:        1,
				TrainSplit:     0.8,
				Normalize:      true,
				SeasonalPeriod: 12,
				Windows:        []int{8, 16, 24},
				AROrders:       []int{1, 2, 4},
			},
			Validation: ValidationConfig{
				MinReferences:    1,
				MaxReferences:    50,
				MinSectionWords:  20,
				CheckCitations:   true,
				CheckTableFormat: true,
			},
		},
		Features: FeaturesConfig{
			EnableVectorSearch: true,
			EnablePDFRender:    false,
			StrictValidation:   false,
		},
		Advanced: AdvancedConfig{
			ConcurrentFetches: 3,
			BufferSizeKb:      10240,
			ContinueOnErrors:  true,
		},
	}
}

// Load loads configuration from a YAML file layered over Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	p := &c.Pipeline

	if p.Topic == "" {
		return ErrMissingTopic
	}

	if p.Search.MaxResults < 1 {
		return ErrInvalidMaxResults
	}

	if p.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if p.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if p.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if p.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if p.Output.BasePath == "" {
		return ErrMissingOutputPath
	}

	for _, f := range p.Output.Formats {
		if f != "md" && f != "html" && f != "pdf" {
			return fmt.Errorf("%w: %q", ErrInvalidOutputFormat, f)
		}
	}

	if p.Knowledge.Path == "" {
		return ErrMissingKnowledgePath
	}

	if p.Knowledge.ChunkMinRunes > p.Knowledge.ChunkTargetRunes {
		return ErrInvalidChunkBounds
	}

	if p.Knowledge.TopK < 1 {
		return ErrInvalidTopK
	}

	if p.LLM.Model == "" {
		return ErrMissingModel
	}

	if p.LLM.Temperature < 0 || p.LLM.Temperature > 2 {
		return ErrInvalidTemperature
	}

	if p.Embedding.Provider != "genai" && p.Embedding.Provider != "ollama" {
		return fmt.Errorf("%w: %q", ErrInvalidProvider, p.Embedding.Provider)
	}

	if len(p.Sections) == 0 {
		return ErrNoSections
	}

	if p.Experiment.Enabled {
		if p.Experiment.TrainSplit <= 0 || p.Experiment.TrainSplit >= 1 {
			return ErrInvalidTrainSplit
		}

		if p.Experiment.Horizon < 1 {
			return ErrInvalidHorizon
		}

		if len(p.Experiment.Windows) == 0 {
			return ErrNoWindowCandidates
		}

		if len(p.Experiment.AROrders) == 0 {
			return ErrNoOrderCandidates
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[p.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if p.Logging.Format != "text" && p.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	if p.Validation.MinReferences > p.Validation.MaxReferences {
		return ErrInvalidReferenceBounds
	}

	return nil
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if rp.MaxDelayMs > 0 && int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// ArtifactPath returns the output path for a named artifact.
func (c *Config) ArtifactPath(name string) string {
	return filepath.Join(c.Pipeline.Output.BasePath, name)
}

// WantsFormat reports whether the given output format is enabled.
func (c *Config) WantsFormat(format string) bool {
	for _, f := range c.Pipeline.Output.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// String returns a short description of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Topic: %q, MaxResults: %d, Sections: %d, Output: %s}",
		c.Pipeline.Topic,
		c.Pipeline.Search.MaxResults,
		len(c.Pipeline.Sections),
		c.Pipeline.Output.BasePath,
	)
}
