package server

import (
	"math"
	"net/netip"
	"sync"
	"time"
)

// This file implements per-client admission control with the token bucket
// algorithm: each observed client address owns a bucket of capacity
// burst_size, refilled at requests_per_minute/60 tokens per second. A request
// consumes one token; an empty bucket means the client is rejected (the
// handler answers SERVFAIL).

// Rate limiter housekeeping defaults.
const (
	DefaultSweepInterval = 5 * time.Minute  // how often stale buckets are swept
	DefaultStaleAfter    = 10 * time.Minute // idle time before a bucket is dropped
)

// tokenBucket tracks one client's budget. Tokens are real-valued so refill
// accrues smoothly between requests.
type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// RateLimiter is a per-client-address token bucket limiter.
// Safe for concurrent use. A nil *RateLimiter allows everything.
type RateLimiter struct {
	capacity   float64       // burst size
	refillRate float64       // tokens per second
	sweepEvery time.Duration // sweep cadence
	staleAfter time.Duration // idle bucket lifetime

	mu        sync.Mutex
	buckets   map[netip.Addr]*tokenBucket
	lastSweep time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerMinute sustained with
// bursts of burstSize. Non-positive sweep/stale durations use the defaults.
func NewRateLimiter(requestsPerMinute, burstSize int, sweepEvery, staleAfter time.Duration) *RateLimiter {
	if sweepEvery <= 0 {
		sweepEvery = DefaultSweepInterval
	}
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &RateLimiter{
		capacity:   float64(burstSize),
		refillRate: float64(requestsPerMinute) / 60.0,
		sweepEvery: sweepEvery,
		staleAfter: staleAfter,
		buckets:    map[netip.Addr]*tokenBucket{},
		lastSweep:  time.Now(),
	}
}

// Allow reports whether a request from addr is admitted, consuming one token
// when it is. A first-seen address starts with a full bucket.
func (l *RateLimiter) Allow(addr netip.Addr) bool {
	if l == nil {
		return true
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.sweepEvery {
		l.sweepLocked(now)
	}

	b := l.buckets[addr]
	if b == nil {
		b = &tokenBucket{tokens: l.capacity, lastRefill: now}
		l.buckets[addr] = b
	}

	// Refill for elapsed time, capped at capacity.
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.refillRate)
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// sweepLocked drops buckets idle longer than staleAfter. Must hold l.mu.
// The sweep is a single pass over the map, so admission latency stays
// bounded by the number of tracked clients.
func (l *RateLimiter) sweepLocked(now time.Time) {
	for addr, b := range l.buckets {
		if now.Sub(b.lastRefill) > l.staleAfter {
			delete(l.buckets, addr)
		}
	}
	l.lastSweep = now
}

// Tracked returns how many client addresses currently hold a bucket.
func (l *RateLimiter) Tracked() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
