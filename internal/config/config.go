// Package config loads service configuration from defaults, an
// optional YAML file, and DOCRANK_* environment variables, in that
// order of precedence (environment wins).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use "30s" forms.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Ranking    RankingConfig    `yaml:"ranking"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// ServerConfig covers the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// APIKey enables bearer auth on the API routes when non-empty.
	APIKey         string `yaml:"api_key"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// EmbeddingConfig selects and tunes the embedding backend.
type EmbeddingConfig struct {
	// Provider is one of "tfidf", "openai", "ollama".
	Provider string   `yaml:"provider"`
	Model    string   `yaml:"model"`
	BaseURL  string   `yaml:"base_url"`
	APIKey   string   `yaml:"api_key"`
	Timeout  Duration `yaml:"timeout"`
	// TruncateAt bounds the retry input after a failed embed call.
	TruncateAt int `yaml:"truncate_at"`
	// CacheCaseFold lowercases embedding cache keys.
	CacheCaseFold bool `yaml:"cache_case_fold"`
}

// RecognizerConfig holds structure recognition thresholds.
type RecognizerConfig struct {
	HeadingRatio       float64 `yaml:"heading_ratio"`
	MaxHeadingTokens   int     `yaml:"max_heading_tokens"`
	GapLineRatio       float64 `yaml:"gap_line_ratio"`
	MaxSubsectionChars int     `yaml:"max_subsection_chars"`
}

// RankingConfig holds selection parameters.
type RankingConfig struct {
	TopKSections        int     `yaml:"top_k_sections"`
	TopKSubsections     int     `yaml:"top_k_subsections"`
	DocumentCapFraction float64 `yaml:"document_cap_fraction"`
	RepresentativeChars int     `yaml:"representative_chars"`
}

// PipelineConfig sizes the extraction fan-out and the job queue.
type PipelineConfig struct {
	ExtractWorkers int      `yaml:"extract_workers"`
	WorkerCount    int      `yaml:"worker_count"`
	MaxQueueSize   int      `yaml:"max_queue_size"`
	JobTTL         Duration `yaml:"job_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8090",
			LogLevel:       "info",
			LogFormat:      "json",
			MaxUploadBytes: 52428800, // 50MB
		},
		Embedding: EmbeddingConfig{
			Provider:   "tfidf",
			Timeout:    Duration(30 * time.Second),
			TruncateAt: 512,
		},
		Recognizer: RecognizerConfig{
			HeadingRatio:       1.15,
			MaxHeadingTokens:   12,
			GapLineRatio:       1.5,
			MaxSubsectionChars: 500,
		},
		Ranking: RankingConfig{
			TopKSections:        5,
			TopKSubsections:     2,
			DocumentCapFraction: 0.5,
			RepresentativeChars: 600,
		},
		Pipeline: PipelineConfig{
			ExtractWorkers: 4,
			WorkerCount:    2,
			MaxQueueSize:   32,
			JobTTL:         Duration(1 * time.Hour),
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path
// when non-empty, then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = envOr("DOCRANK_ADDR", c.Server.Addr)
	c.Server.APIKey = envOr("DOCRANK_API_KEY", c.Server.APIKey)
	c.Server.LogLevel = envOr("DOCRANK_LOG_LEVEL", c.Server.LogLevel)
	c.Server.LogFormat = envOr("DOCRANK_LOG_FORMAT", c.Server.LogFormat)
	c.Server.MaxUploadBytes = envInt64("DOCRANK_MAX_UPLOAD_BYTES", c.Server.MaxUploadBytes)

	c.Embedding.Provider = envOr("DOCRANK_EMBED_PROVIDER", c.Embedding.Provider)
	c.Embedding.Model = envOr("DOCRANK_EMBED_MODEL", c.Embedding.Model)
	c.Embedding.BaseURL = envOr("DOCRANK_EMBED_BASE_URL", c.Embedding.BaseURL)
	c.Embedding.APIKey = envOr("DOCRANK_EMBED_API_KEY", c.Embedding.APIKey)
	c.Embedding.Timeout = Duration(envDuration("DOCRANK_EMBED_TIMEOUT", time.Duration(c.Embedding.Timeout)))
	c.Embedding.TruncateAt = envInt("DOCRANK_EMBED_TRUNCATE_AT", c.Embedding.TruncateAt)
	c.Embedding.CacheCaseFold = envBool("DOCRANK_CACHE_CASE_FOLD", c.Embedding.CacheCaseFold)

	c.Recognizer.HeadingRatio = envFloat("DOCRANK_HEADING_RATIO", c.Recognizer.HeadingRatio)
	c.Recognizer.MaxHeadingTokens = envInt("DOCRANK_MAX_HEADING_TOKENS", c.Recognizer.MaxHeadingTokens)
	c.Recognizer.GapLineRatio = envFloat("DOCRANK_GAP_LINE_RATIO", c.Recognizer.GapLineRatio)
	c.Recognizer.MaxSubsectionChars = envInt("DOCRANK_MAX_SUBSECTION_CHARS", c.Recognizer.MaxSubsectionChars)

	c.Ranking.TopKSections = envInt("DOCRANK_TOP_K_SECTIONS", c.Ranking.TopKSections)
	c.Ranking.TopKSubsections = envInt("DOCRANK_TOP_K_SUBSECTIONS", c.Ranking.TopKSubsections)
	c.Ranking.DocumentCapFraction = envFloat("DOCRANK_DOCUMENT_CAP_FRACTION", c.Ranking.DocumentCapFraction)
	c.Ranking.RepresentativeChars = envInt("DOCRANK_REPRESENTATIVE_CHARS", c.Ranking.RepresentativeChars)

	c.Pipeline.ExtractWorkers = envInt("DOCRANK_EXTRACT_WORKERS", c.Pipeline.ExtractWorkers)
	c.Pipeline.WorkerCount = envInt("DOCRANK_WORKER_COUNT", c.Pipeline.WorkerCount)
	c.Pipeline.MaxQueueSize = envInt("DOCRANK_MAX_QUEUE_SIZE", c.Pipeline.MaxQueueSize)
	c.Pipeline.JobTTL = Duration(envDuration("DOCRANK_JOB_TTL", time.Duration(c.Pipeline.JobTTL)))
}

// Validate rejects configurations the service cannot start with,
// returning the first problem found.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}
	switch c.Server.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format %q", c.Server.LogFormat)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}

	switch c.Embedding.Provider {
	case "tfidf", "ollama":
	case "openai":
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding api key is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Embedding.Timeout <= 0 {
		return fmt.Errorf("embedding timeout must be positive")
	}
	if c.Embedding.TruncateAt <= 0 {
		return fmt.Errorf("embedding truncate_at must be positive, got %d", c.Embedding.TruncateAt)
	}

	if c.Recognizer.HeadingRatio <= 1 {
		return fmt.Errorf("heading ratio must exceed 1, got %v", c.Recognizer.HeadingRatio)
	}
	if c.Recognizer.MaxHeadingTokens < 1 {
		return fmt.Errorf("max heading tokens must be at least 1, got %d", c.Recognizer.MaxHeadingTokens)
	}
	if c.Recognizer.GapLineRatio <= 0 {
		return fmt.Errorf("gap line ratio must be positive, got %v", c.Recognizer.GapLineRatio)
	}
	if c.Recognizer.MaxSubsectionChars < 1 {
		return fmt.Errorf("max subsection chars must be at least 1, got %d", c.Recognizer.MaxSubsectionChars)
	}

	if c.Ranking.TopKSections < 1 {
		return fmt.Errorf("top_k_sections must be at least 1, got %d", c.Ranking.TopKSections)
	}
	if c.Ranking.TopKSubsections < 1 {
		return fmt.Errorf("top_k_subsections must be at least 1, got %d", c.Ranking.TopKSubsections)
	}
	if f := c.Ranking.DocumentCapFraction; f <= 0 || f > 1 {
		return fmt.Errorf("document_cap_fraction must be in (0, 1], got %v", f)
	}
	if c.Ranking.RepresentativeChars < 1 {
		return fmt.Errorf("representative_chars must be at least 1, got %d", c.Ranking.RepresentativeChars)
	}

	if c.Pipeline.ExtractWorkers < 1 {
		return fmt.Errorf("extract workers must be at least 1, got %d", c.Pipeline.ExtractWorkers)
	}
	if c.Pipeline.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", c.Pipeline.WorkerCount)
	}
	if c.Pipeline.MaxQueueSize < 1 {
		return fmt.Errorf("max queue size must be at least 1, got %d", c.Pipeline.MaxQueueSize)
	}
	if c.Pipeline.JobTTL <= 0 {
		return fmt.Errorf("job ttl must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
