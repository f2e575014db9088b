// Package config loads LLMdig configuration from a TOML file with
// environment variable overrides.
//
// Configuration priority (highest to lowest):
//  1. Command-line flags (handled in cmd/llmdig/main.go)
//  2. Environment variables (LLMDIG_* prefix, plus OPENAI_API_KEY and PORT)
//  3. TOML config file (if present)
//  4. Hardcoded defaults
//
// Environment variables map from LLMDIG_SECTION_KEY format, e.g.
// LLMDIG_SERVER_PORT maps to server.port in TOML.
package config

import "time"

// ServerConfig contains DNS server settings.
type ServerConfig struct {
	Host           string `mapstructure:"host"`            // bind address
	Port           int    `mapstructure:"port"`            // bind port
	TimeoutSeconds int    `mapstructure:"timeout_seconds"` // per-request wall limit
}

// LLMConfig contains backend settings.
type LLMConfig struct {
	Backend        string  `mapstructure:"backend"` // "openai", "ollama", or a custom URL
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// RateLimitConfig controls per-client admission.
type RateLimitConfig struct {
	RequestsPerMinute int  `mapstructure:"requests_per_minute"` // bucket refill
	BurstSize         int  `mapstructure:"burst_size"`          // bucket capacity
	Enabled           bool `mapstructure:"enabled"`
	// CleanupSeconds is how often stale buckets are swept (default: 300).
	CleanupSeconds float64 `mapstructure:"cleanup_seconds"`
	// StaleAfterSeconds is how long an idle bucket lives (default: 600).
	StaleAfterSeconds float64 `mapstructure:"stale_after_seconds"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level            string `mapstructure:"level"`
	Structured       bool   `mapstructure:"structured"`
	StructuredFormat string `mapstructure:"structured_format"`
}

// APIConfig contains management API settings.
// Disabled and bound to localhost by default; APIKey is a secret and is
// never echoed back by API endpoints.
type APIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	APIKey  string `mapstructure:"api_key"`
}

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	API       APIConfig       `mapstructure:"api"`
}

// RequestTimeout returns the per-request wall limit as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

// LLMTimeout returns the backend HTTP timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// CacheTTL returns the default cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
