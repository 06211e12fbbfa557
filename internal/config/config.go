package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"querymind/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig `validate:"required"`
	AI       AIConfig       `validate:"required"`
	Server   ServerConfig   `validate:"required"`
	Engine   EngineConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string `validate:"required"`
}

// AIConfig holds completion-service settings
type AIConfig struct {
	APIKey      string `validate:"required"`
	Model       string `validate:"required"`
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required"`
	GinMode string
}

// EngineConfig holds reflection engine tunables
type EngineConfig struct {
	// CoverageFloor is the distinct-count floor for the coverage-gap check.
	CoverageFloor int
	// FallbackVocabulary lists the tokens the deterministic fallback scans
	// the question for.
	FallbackVocabulary []string
	// ExecutorTimeout bounds each query-executor call.
	ExecutorTimeout time.Duration
	// CacheMaxEntries bounds each cache layer.
	CacheMaxEntries int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		AI: AIConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			Model:       envOr("OPENAI_MODEL", "gpt-4.1-mini"),
			BaseURL:     os.Getenv("OPENAI_BASE_URL"),
			Temperature: envFloat("AI_TEMPERATURE", 0.0),
			MaxTokens:   envInt("AI_MAX_TOKENS", 1024),
			Timeout:     envDuration("AI_TIMEOUT", 30*time.Second),
		},
		Server: ServerConfig{
			Port:    envOr("PORT", "8080"),
			GinMode: envOr("GIN_MODE", "release"),
		},
		Engine: EngineConfig{
			CoverageFloor:      envInt("COVERAGE_FLOOR", 4),
			FallbackVocabulary: envList("FALLBACK_VOCABULARY"),
			ExecutorTimeout:    envDuration("EXECUTOR_TIMEOUT", 15*time.Second),
			CacheMaxEntries:    envInt("CACHE_MAX_ENTRIES", 1024),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	if c.AI.APIKey == "" {
		return errors.ConfigInvalid("OPENAI_API_KEY is required")
	}
	if c.AI.Model == "" {
		return errors.ConfigInvalid("OPENAI_MODEL is required")
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// envList parses a comma-separated variable; empty means "use defaults".
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
