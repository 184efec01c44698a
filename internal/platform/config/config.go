// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Content  ContentConfig
	Learning LearningConfig
	Session  SessionConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int
	Host        string
	CORSOrigins []string
}

// DatabaseConfig holds PostgreSQL connection settings for the activity log.
// An empty URL disables the log.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings for session state.
// An empty URL keeps sessions in process memory.
type CacheConfig struct {
	URL string
}

// ContentConfig points at the ontology and the optional fallback override.
type ContentConfig struct {
	OntologyPath string
	FallbackPath string // directory of YAML files; empty uses the embedded table
	FallbackOnly bool   // skip the ontology entirely
}

// LearningConfig tunes quizzes and recommendations.
type LearningConfig struct {
	QuizSize       int
	RecommendMin   int
	RecommendLimit int
}

// SessionConfig holds learner session settings.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with LEARN_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        envInt("LEARN_SERVER_PORT", 8080),
			Host:        envStr("LEARN_SERVER_HOST", "0.0.0.0"),
			CORSOrigins: envList("LEARN_CORS_ORIGINS", nil),
		},
		Database: DatabaseConfig{
			URL:      envStr("LEARN_DATABASE_URL", ""),
			MaxConns: envInt("LEARN_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("LEARN_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL: envStr("LEARN_CACHE_URL", ""),
		},
		Content: ContentConfig{
			OntologyPath: envStr("LEARN_ONTOLOGY_PATH", "./financial_analysis_enhanced.owl"),
			FallbackPath: envStr("LEARN_FALLBACK_PATH", ""),
			FallbackOnly: envBool("LEARN_FALLBACK_ONLY", false),
		},
		Learning: LearningConfig{
			QuizSize:       envInt("LEARN_QUIZ_SIZE", 5),
			RecommendMin:   envInt("LEARN_RECOMMEND_MIN", 3),
			RecommendLimit: envInt("LEARN_RECOMMEND_LIMIT", 7),
		},
		Session: SessionConfig{
			CookieName: envStr("LEARN_SESSION_COOKIE", "pai_session"),
			TTL:        time.Duration(envInt("LEARN_SESSION_TTL", 120)) * time.Minute,
		},
		Log: LogConfig{
			Level:  envStr("LEARN_LOG_LEVEL", "info"),
			Format: envStr("LEARN_LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("LEARN_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Learning.QuizSize <= 0 {
		return fmt.Errorf("LEARN_QUIZ_SIZE must be positive, got %d", c.Learning.QuizSize)
	}
	if c.Learning.RecommendMin < 0 {
		return fmt.Errorf("LEARN_RECOMMEND_MIN must not be negative, got %d", c.Learning.RecommendMin)
	}
	if c.Learning.RecommendLimit < 0 {
		return fmt.Errorf("LEARN_RECOMMEND_LIMIT must not be negative, got %d", c.Learning.RecommendLimit)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("LEARN_SESSION_TTL must be positive")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LEARN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}
	return nil
}

// HasDatabase returns true if the activity log database is configured.
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// HasCache returns true if sessions should be kept in Redis.
func (c *Config) HasCache() bool {
	return c.Cache.URL != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

// envList splits a comma-separated variable, dropping blanks.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
