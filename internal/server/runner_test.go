package server_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmdig/llmdig/internal/config"
	"github.com/llmdig/llmdig/internal/llm"
	"github.com/llmdig/llmdig/internal/server"
)

func baseConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 9000
	cfg.Server.TimeoutSeconds = 30
	cfg.LLM.Backend = "ollama"
	cfg.LLM.Model = "llama3"
	cfg.LLM.MaxTokens = 256
	cfg.LLM.TimeoutSeconds = 30
	cfg.RateLimit.RequestsPerMinute = 60
	cfg.RateLimit.BurstSize = 10
	cfg.RateLimit.Enabled = true
	cfg.Cache.MaxEntries = 100
	cfg.Cache.TTLSeconds = 300
	return cfg
}

func TestNew_BuildsPipeline(t *testing.T) {
	r, err := server.New(baseConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", r.Addr())
	assert.NotNil(t, r.Handler())
	assert.NotNil(t, r.Stats())
	assert.Zero(t, r.CacheSnapshot().Entries)
}

func TestNew_HostedBackendNeedsAPIKey(t *testing.T) {
	cfg := baseConfig()
	cfg.LLM.Backend = "openai"
	cfg.LLM.APIKey = ""

	_, err := server.New(cfg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrConfiguration)
}

func TestNew_CustomBackendURL(t *testing.T) {
	cfg := baseConfig()
	cfg.LLM.Backend = "http://localhost:8000/generate"

	r, err := server.New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "custom", r.Handler().Client.Name())
}
