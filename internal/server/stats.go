package server

import "sync/atomic"

// Stats collects request-pipeline counters.
// All methods are safe for concurrent use.
type Stats struct {
	queriesTotal   atomic.Uint64
	responsesOK    atomic.Uint64
	responsesErr   atomic.Uint64
	dropped        atomic.Uint64
	rateLimited    atomic.Uint64
	cacheHits      atomic.Uint64
	cacheMisses    atomic.Uint64
	backendCalls   atomic.Uint64
	backendErrors  atomic.Uint64
	latencyTotalNs atomic.Uint64
}

// NewStats creates a statistics collector.
func NewStats() *Stats {
	return &Stats{}
}

// RecordQuery counts one inbound datagram.
func (s *Stats) RecordQuery() {
	if s != nil {
		s.queriesTotal.Add(1)
	}
}

// RecordOK counts a NoError reply.
func (s *Stats) RecordOK() {
	if s != nil {
		s.responsesOK.Add(1)
	}
}

// RecordError counts an error reply (SERVFAIL, FORMERR, NOTIMP).
func (s *Stats) RecordError() {
	if s != nil {
		s.responsesErr.Add(1)
	}
}

// RecordDropped counts a datagram dropped without a reply.
func (s *Stats) RecordDropped() {
	if s != nil {
		s.dropped.Add(1)
	}
}

// RecordRateLimited counts an admission rejection.
func (s *Stats) RecordRateLimited() {
	if s != nil {
		s.rateLimited.Add(1)
	}
}

// RecordCacheHit counts an answer served from the cache.
func (s *Stats) RecordCacheHit() {
	if s != nil {
		s.cacheHits.Add(1)
	}
}

// RecordCacheMiss counts an answer that needed a build.
func (s *Stats) RecordCacheMiss() {
	if s != nil {
		s.cacheMisses.Add(1)
	}
}

// RecordBackendCall counts one dispatched backend request.
func (s *Stats) RecordBackendCall() {
	if s != nil {
		s.backendCalls.Add(1)
	}
}

// RecordBackendError counts a failed backend request.
func (s *Stats) RecordBackendError() {
	if s != nil {
		s.backendErrors.Add(1)
	}
}

// RecordLatency adds one request's wall time in nanoseconds.
func (s *Stats) RecordLatency(ns int64) {
	if s != nil && ns > 0 {
		s.latencyTotalNs.Add(uint64(ns))
	}
}

// StatsSnapshot is a point-in-time view of the pipeline counters.
type StatsSnapshot struct {
	QueriesTotal  uint64  `json:"queries_total"`
	ResponsesOK   uint64  `json:"responses_ok"`
	ResponsesErr  uint64  `json:"responses_error"`
	Dropped       uint64  `json:"dropped"`
	RateLimited   uint64  `json:"rate_limited"`
	CacheHits     uint64  `json:"cache_hits"`
	CacheMisses   uint64  `json:"cache_misses"`
	BackendCalls  uint64  `json:"backend_calls"`
	BackendErrors uint64  `json:"backend_errors"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	if s == nil {
		return StatsSnapshot{}
	}
	total := s.queriesTotal.Load()
	avgMs := 0.0
	if total > 0 {
		avgMs = float64(s.latencyTotalNs.Load()) / float64(total) / 1e6
	}
	return StatsSnapshot{
		QueriesTotal:  total,
		ResponsesOK:   s.responsesOK.Load(),
		ResponsesErr:  s.responsesErr.Load(),
		Dropped:       s.dropped.Load(),
		RateLimited:   s.rateLimited.Load(),
		CacheHits:     s.cacheHits.Load(),
		CacheMisses:   s.cacheMisses.Load(),
		BackendCalls:  s.backendCalls.Load(),
		BackendErrors: s.backendErrors.Load(),
		AvgLatencyMs:  avgMs,
	}
}

// CacheHitRate returns the cache hit percentage, 0 when idle.
func (s StatsSnapshot) CacheHitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total) * 100
}
