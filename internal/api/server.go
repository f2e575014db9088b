// Package api provides the optional management HTTP API for LLMdig:
// health checks and runtime statistics over a Gin-based server.
//
// The API is disabled by default and binds to localhost. Do not expose it to
// untrusted networks without setting api.api_key.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/llmdig/llmdig/internal/api/handlers"
	"github.com/llmdig/llmdig/internal/api/middleware"
	"github.com/llmdig/llmdig/internal/config"
)

// Server is the management API server.
type Server struct {
	logger     *slog.Logger
	engine     *gin.Engine
	handler    *handlers.Handler
	httpServer *http.Server
}

// New builds the API server from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.SlogRequestLogger(logger))

	h := handlers.New(logger)
	RegisterRoutes(engine, h, cfg)

	addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
	return &Server{
		logger:  logger,
		engine:  engine,
		handler: h,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Handler returns the endpoint handler for wiring runtime stats sources.
func (s *Server) Handler() *handlers.Handler { return s.handler }

// Addr returns the bind address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// ListenAndServe blocks serving HTTP until Shutdown.
func (s *Server) ListenAndServe() error { return s.httpServer.ListenAndServe() }

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error { return s.httpServer.Shutdown(ctx) }
