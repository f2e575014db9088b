// Package handlers implements the management API endpoints.
package handlers

import (
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/llmdig/llmdig/internal/api/models"
	"github.com/llmdig/llmdig/internal/cache"
	"github.com/llmdig/llmdig/internal/server"
)

// Handler carries the dependencies of the API endpoints. The stats sources
// are injected after the DNS pipeline is built.
type Handler struct {
	logger    *slog.Logger
	startTime time.Time

	mu         sync.RWMutex
	dnsStats   func() server.StatsSnapshot
	cacheStats func() cache.Stats
}

// New creates a Handler.
func New(logger *slog.Logger) *Handler {
	return &Handler{logger: logger, startTime: time.Now()}
}

// SetDNSStatsFunc wires the pipeline counter source.
func (h *Handler) SetDNSStatsFunc(fn func() server.StatsSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dnsStats = fn
}

// SetCacheStatsFunc wires the cache snapshot source.
func (h *Handler) SetCacheStatsFunc(fn func() cache.Stats) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheStats = fn
}

// Health answers the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Stats returns uptime, system CPU/memory usage, pipeline counters, and
// cache effectiveness.
func (h *Handler) Stats(c *gin.Context) {
	uptime := time.Since(h.startTime)

	memStats := models.MemoryStats{}
	if vm, err := mem.VirtualMemory(); err == nil {
		memStats.TotalMB = float64(vm.Total) / 1024 / 1024
		memStats.UsedMB = float64(vm.Used) / 1024 / 1024
		memStats.UsedPercent = vm.UsedPercent
	}

	cpuStats := models.CPUStats{NumCPU: runtime.NumCPU()}
	if pct, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(pct) > 0 {
		cpuStats.UsedPercent = pct[0]
	}

	resp := models.ServerStatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		CPU:           cpuStats,
		Memory:        memStats,
	}

	h.mu.RLock()
	dnsFn, cacheFn := h.dnsStats, h.cacheStats
	h.mu.RUnlock()
	if dnsFn != nil {
		resp.DNS = dnsFn()
		resp.CacheHitRate = resp.DNS.CacheHitRate()
	}
	if cacheFn != nil {
		resp.Cache = cacheFn()
	}

	c.JSON(http.StatusOK, resp)
}
