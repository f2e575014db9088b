// Package models defines the JSON response shapes of the management API.
package models

import (
	"time"

	"github.com/llmdig/llmdig/internal/cache"
	"github.com/llmdig/llmdig/internal/server"
)

// StatusResponse is the health check body.
type StatusResponse struct {
	Status string `json:"status"`
}

// CPUStats contains system CPU figures.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
}

// MemoryStats contains system memory figures.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// ServerStatsResponse is the /stats body: uptime, system figures, pipeline
// counters, and cache effectiveness.
type ServerStatsResponse struct {
	Uptime        string               `json:"uptime"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	StartTime     time.Time            `json:"start_time"`
	CPU           CPUStats             `json:"cpu"`
	Memory        MemoryStats          `json:"memory"`
	DNS           server.StatsSnapshot `json:"dns"`
	Cache         cache.Stats          `json:"cache"`
	CacheHitRate  float64              `json:"cache_hit_rate"`
}
