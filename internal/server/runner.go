package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/llmdig/llmdig/internal/cache"
	"github.com/llmdig/llmdig/internal/config"
	"github.com/llmdig/llmdig/internal/llm"
)

// Runner assembles the request pipeline from configuration and drives the
// UDP server's lifecycle. The handler's shared state (cache, limiter,
// backend, stats) is immutable after construction; the shared maps carry
// their own synchronization.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger

	stats   *Stats
	cache   *cache.Cache
	limiter *RateLimiter
	handler *Handler
	udp     *UDPServer
}

// New builds a Runner. Backend construction errors (a hosted backend without
// an API key, an unknown variant) surface here and are fatal at startup.
func New(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	client, err := llm.New(llm.Options{
		Backend:     cfg.LLM.Backend,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLMTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("building llm backend: %w", err)
	}

	stats := NewStats()
	respCache := cache.New(cfg.Cache.MaxEntries, cfg.CacheTTL())
	limiter := NewRateLimiter(
		cfg.RateLimit.RequestsPerMinute,
		cfg.RateLimit.BurstSize,
		time.Duration(cfg.RateLimit.CleanupSeconds*float64(time.Second)),
		time.Duration(cfg.RateLimit.StaleAfterSeconds*float64(time.Second)),
	)

	h := &Handler{
		Logger:           logger,
		Client:           client,
		Cache:            respCache,
		Limiter:          limiter,
		Stats:            stats,
		Timeout:          cfg.RequestTimeout(),
		TTL:              cfg.CacheTTL(),
		RateLimitEnabled: cfg.RateLimit.Enabled,
	}

	return &Runner{
		cfg:     cfg,
		logger:  logger,
		stats:   stats,
		cache:   respCache,
		limiter: limiter,
		handler: h,
		udp:     &UDPServer{Logger: logger, Handler: h},
	}, nil
}

// Stats returns the pipeline counters for the management API.
func (r *Runner) Stats() *Stats { return r.stats }

// CacheSnapshot returns cache statistics for the management API.
func (r *Runner) CacheSnapshot() cache.Stats { return r.cache.Snapshot() }

// Handler exposes the request handler, mainly for tests.
func (r *Runner) Handler() *Handler { return r.handler }

// Addr returns the configured bind address.
func (r *Runner) Addr() string {
	return net.JoinHostPort(r.cfg.Server.Host, strconv.Itoa(r.cfg.Server.Port))
}

// Run serves DNS until ctx is cancelled. A periodic sweep evicts expired
// cache entries even when the write path is idle.
func (r *Runner) Run(ctx context.Context) error {
	if r.logger != nil {
		r.logger.Info("starting",
			"addr", r.Addr(),
			"backend", r.handler.Client.Name(),
			"model", r.cfg.LLM.Model,
			"rate_limit", r.cfg.RateLimit.Enabled,
			"cache_entries", r.cfg.Cache.MaxEntries,
		)
	}

	go r.cacheJanitor(ctx)
	return r.udp.Run(ctx, r.Addr())
}

// cacheJanitor sweeps expired entries every five minutes.
func (r *Runner) cacheJanitor(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.cache.CleanupExpired(); removed > 0 && r.logger != nil {
				r.logger.Debug("cache cleanup", "removed", removed)
			}
		}
	}
}
