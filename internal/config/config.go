package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the TOML file at path (skipped when the file
// does not exist) and the environment, applies the defaults, and validates
// the result. Validation failures here are fatal at startup.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LLMDIG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("toml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	applyLegacyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults configures all default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 9000)
	v.SetDefault("server.timeout_seconds", 30)

	v.SetDefault("llm.backend", "openai")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.max_tokens", 256)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout_seconds", 30)

	v.SetDefault("rate_limit.requests_per_minute", 60)
	v.SetDefault("rate_limit.burst_size", 10)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.cleanup_seconds", 300.0)
	v.SetDefault("rate_limit.stale_after_seconds", 600.0)

	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.ttl_seconds", 300)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.structured", false)
	v.SetDefault("logging.structured_format", "json")

	// Management API: off and loopback-only unless asked for.
	v.SetDefault("api.enabled", false)
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.api_key", "")
}

// applyLegacyEnv applies the two overrides that predate the LLMDIG_ scheme:
// OPENAI_API_KEY for the credential and PORT for the bind port.
func applyLegacyEnv(cfg *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if raw := os.Getenv("PORT"); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil {
			cfg.Server.Port = port
		}
	}
}

// validate rejects configurations the server cannot run with.
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.New("server.port must be 1..65535")
	}
	if cfg.Server.TimeoutSeconds <= 0 {
		return errors.New("server.timeout_seconds must be positive")
	}

	switch {
	case cfg.LLM.Backend == "openai", cfg.LLM.Backend == "ollama":
	case strings.HasPrefix(cfg.LLM.Backend, "http://"), strings.HasPrefix(cfg.LLM.Backend, "https://"):
	default:
		return fmt.Errorf("llm.backend must be \"openai\", \"ollama\", or an http(s) URL, got %q", cfg.LLM.Backend)
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be in [0, 2]")
	}
	if cfg.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	if cfg.LLM.MaxTokens <= 0 {
		return errors.New("llm.max_tokens must be positive")
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("rate_limit.requests_per_minute must be positive")
		}
		if cfg.RateLimit.BurstSize <= 0 {
			return errors.New("rate_limit.burst_size must be positive")
		}
	}

	if cfg.Cache.MaxEntries <= 0 {
		return errors.New("cache.max_entries must be positive")
	}
	if cfg.Cache.TTLSeconds <= 0 {
		return errors.New("cache.ttl_seconds must be positive")
	}

	if cfg.API.Enabled {
		if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
			return errors.New("api.port must be 1..65535")
		}
		if cfg.API.Host == "" {
			cfg.API.Host = "127.0.0.1"
		}
	}
	return nil
}
