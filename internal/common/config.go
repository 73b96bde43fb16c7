package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment" yaml:"environment"` // "development" or "production"
	Storage     StorageConfig   `toml:"storage" yaml:"storage"`
	Logging     LoggingConfig   `toml:"logging" yaml:"logging"`
	Pipeline    PipelineConfig  `toml:"pipeline" yaml:"pipeline"`
	OCR         OCRConfig       `toml:"ocr" yaml:"ocr"`
	Embedding   EmbeddingConfig `toml:"embedding" yaml:"embedding"`
	Gemini      GeminiConfig    `toml:"gemini" yaml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude" yaml:"claude"`
	LLM         LLMConfig       `toml:"llm" yaml:"llm"`
	Themes      ThemesConfig    `toml:"themes" yaml:"themes"`
	Search      SearchConfig    `toml:"search" yaml:"search"`
	Usage       UsageConfig     `toml:"usage" yaml:"usage"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger" yaml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" yaml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup" yaml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level" yaml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output []string `toml:"output" yaml:"output"`                                      // "stdout", "file"
}

// PipelineConfig controls document processing behaviour
type PipelineConfig struct {
	ChunkSize         int `toml:"chunk_size" yaml:"chunk_size" validate:"gt=0"`                           // Characters per chunk window
	ChunkOverlap      int `toml:"chunk_overlap" yaml:"chunk_overlap" validate:"gte=0"`                    // Overlap between adjacent chunks
	EmbeddingBatch    int `toml:"embedding_batch" yaml:"embedding_batch" validate:"gt=0"`                 // Chunks per embedding request
	ParallelRequests  int `toml:"parallel_requests" yaml:"parallel_requests" validate:"gt=0"`             // Concurrent embedding requests per group
	DocumentWorkers   int `toml:"document_workers" yaml:"document_workers" validate:"gt=0"`               // Concurrent document pipelines
	MaxDocumentBytes  int `toml:"max_document_bytes" yaml:"max_document_bytes" validate:"gt=0"`           // Upload size ceiling
	AllowedExtensions []string `toml:"allowed_extensions" yaml:"allowed_extensions"`                      // Empty = accept anything
}

// OCRConfig configures the remote OCR collaborator
type OCRConfig struct {
	BaseURL        string        `toml:"base_url" yaml:"base_url"`
	APIKey         string        `toml:"api_key" yaml:"api_key"`
	PollInterval   time.Duration `toml:"poll_interval" yaml:"poll_interval"`     // Between status checks
	PollTimeout    time.Duration `toml:"poll_timeout" yaml:"poll_timeout"`       // Hard ceiling for a single job
	StallPolls     int           `toml:"stall_polls" yaml:"stall_polls"`         // Unchanged polls before a job is declared stuck
	RequestTimeout time.Duration `toml:"request_timeout" yaml:"request_timeout"` // HTTP timeout per call
	RateLimit      float64       `toml:"rate_limit" yaml:"rate_limit"`           // Requests per second
}

// EmbeddingConfig selects and tunes the embedding strategy
type EmbeddingConfig struct {
	Strategy  string  `toml:"strategy" yaml:"strategy" validate:"oneof=gemini local"` // "gemini" or "local"
	Model     string  `toml:"model" yaml:"model"`
	Dimension int     `toml:"dimension" yaml:"dimension" validate:"gt=0"`
	RateLimit float64 `toml:"rate_limit" yaml:"rate_limit"` // Requests per second for the remote strategy
}

type GeminiConfig struct {
	APIKey      string  `toml:"api_key" yaml:"api_key"`
	Model       string  `toml:"model" yaml:"model"`
	Temperature float32 `toml:"temperature" yaml:"temperature"`
	MaxTokens   int     `toml:"max_tokens" yaml:"max_tokens"`
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key" yaml:"api_key"`
	Model       string  `toml:"model" yaml:"model"`
	Temperature float32 `toml:"temperature" yaml:"temperature"`
	MaxTokens   int     `toml:"max_tokens" yaml:"max_tokens"`
}

type LLMConfig struct {
	DefaultProvider string `toml:"default_provider" yaml:"default_provider" validate:"oneof=gemini claude"`
	MaxRetries      int    `toml:"max_retries" yaml:"max_retries" validate:"gte=0"`
}

// ThemesConfig controls theme extraction and the staleness scheduler
type ThemesConfig struct {
	MaxChunks        int    `toml:"max_chunks" yaml:"max_chunks" validate:"gt=0"`         // Sampling cap for the LLM context
	ExcerptLength    int    `toml:"excerpt_length" yaml:"excerpt_length" validate:"gt=0"` // Per-chunk excerpt size
	MaxContextLength int    `toml:"max_context_length" yaml:"max_context_length" validate:"gt=0"`
	RefreshGrowth    float64 `toml:"refresh_growth" yaml:"refresh_growth"` // Fractional document growth that triggers re-analysis
	Schedule         string `toml:"schedule" yaml:"schedule"`              // Cron schedule for staleness checks; empty disables
}

// SearchConfig contains configuration for semantic search behaviour
type SearchConfig struct {
	DefaultLimit    int     `toml:"default_limit" yaml:"default_limit" validate:"gt=0"`
	MaxLimit        int     `toml:"max_limit" yaml:"max_limit" validate:"gt=0"`
	SnippetLength   int     `toml:"snippet_length" yaml:"snippet_length" validate:"gt=0"`
	MaxSnippets     int     `toml:"max_snippets" yaml:"max_snippets" validate:"gt=0"`
	ScoreThreshold  float64 `toml:"score_threshold" yaml:"score_threshold"` // 0 = use the strategy default
	HistorySnapshot bool    `toml:"history_snapshot" yaml:"history_snapshot"`
}

// UsageConfig caps metered remote calls per calendar month
type UsageConfig struct {
	MonthlyTokenLimit int `toml:"monthly_token_limit" yaml:"monthly_token_limit"` // 0 = unlimited
	MonthlyPageLimit  int `toml:"monthly_page_limit" yaml:"monthly_page_limit"`   // OCR pages, 0 = unlimited
}

// NewDefaultConfig returns the built-in defaults, overridden by files and env
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Pipeline: PipelineConfig{
			ChunkSize:        1000,
			ChunkOverlap:     200,
			EmbeddingBatch:   50,
			ParallelRequests: 3,
			DocumentWorkers:  4,
			MaxDocumentBytes: 50 * 1024 * 1024, // 50MB
		},
		OCR: OCRConfig{
			PollInterval:   2 * time.Second,
			PollTimeout:    5 * time.Minute,
			StallPolls:     30, // ~60s of no movement at the default interval
			RequestTimeout: 30 * time.Second,
			RateLimit:      2,
		},
		Embedding: EmbeddingConfig{
			Strategy:  "local", // Offline by default; "gemini" requires an API key
			Model:     "gemini-embedding-001",
			Dimension: 256,
			RateLimit: 5,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-3-flash-preview",
			Temperature: 0.3,
			MaxTokens:   4096,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			Temperature: 0.3,
			MaxTokens:   4096,
		},
		LLM: LLMConfig{
			DefaultProvider: "gemini",
			MaxRetries:      3,
		},
		Themes: ThemesConfig{
			MaxChunks:        50,
			ExcerptLength:    500,
			MaxContextLength: 15000,
			RefreshGrowth:    0.2,
			Schedule:         "0 */30 * * * *", // Every 30 minutes (6-field cron)
		},
		Search: SearchConfig{
			DefaultLimit:    20,
			MaxLimit:        200,
			SnippetLength:   160,
			MaxSnippets:     2,
			HistorySnapshot: true,
		},
		Usage: UsageConfig{
			MonthlyTokenLimit: 0,
			MonthlyPageLimit:  0,
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files. Files ending in .yaml/.yml are parsed as
// YAML, everything else as TOML.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, config)
		default:
			err = toml.Unmarshal(data, config)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the merged configuration for structural errors
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Pipeline.ChunkOverlap >= c.Pipeline.ChunkSize {
		return fmt.Errorf("invalid configuration: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Pipeline.ChunkOverlap, c.Pipeline.ChunkSize)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("REPERIO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if badgerPath := os.Getenv("REPERIO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if level := os.Getenv("REPERIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("REPERIO_LOG_OUTPUT"); output != "" {
		config.Logging.Output = splitList(output)
	}

	if v := os.Getenv("REPERIO_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Pipeline.ChunkSize = n
		}
	}
	if v := os.Getenv("REPERIO_CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Pipeline.ChunkOverlap = n
		}
	}
	if v := os.Getenv("REPERIO_DOCUMENT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Pipeline.DocumentWorkers = n
		}
	}

	if url := os.Getenv("REPERIO_OCR_BASE_URL"); url != "" {
		config.OCR.BaseURL = url
	}
	if key := os.Getenv("REPERIO_OCR_API_KEY"); key != "" {
		config.OCR.APIKey = key
	}
	if v := os.Getenv("REPERIO_OCR_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.OCR.PollInterval = d
		}
	}
	if v := os.Getenv("REPERIO_OCR_POLL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.OCR.PollTimeout = d
		}
	}

	if strategy := os.Getenv("REPERIO_EMBEDDING_STRATEGY"); strategy != "" {
		config.Embedding.Strategy = strategy
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if provider := os.Getenv("REPERIO_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = provider
	}

	if v := os.Getenv("REPERIO_USAGE_TOKEN_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Usage.MonthlyTokenLimit = n
		}
	}
	if v := os.Getenv("REPERIO_USAGE_PAGE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Usage.MonthlyPageLimit = n
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, badgerPath, logLevel string) {
	if badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
}

// IsProduction returns true when running with production settings
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
