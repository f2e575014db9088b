package api

import (
	"github.com/gin-gonic/gin"

	"github.com/llmdig/llmdig/internal/api/handlers"
	"github.com/llmdig/llmdig/internal/api/middleware"
	"github.com/llmdig/llmdig/internal/config"
)

// RegisterRoutes mounts the management endpoints under /api/v1.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	v1 := r.Group("/api/v1")

	// Optional API key protection.
	if cfg != nil && cfg.API.APIKey != "" {
		v1.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	v1.GET("/health", h.Health)
	v1.GET("/stats", h.Stats)
}
