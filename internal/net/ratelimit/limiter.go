// Package ratelimit gates all outbound HTTP requests with per-source token
// buckets. Every fetch path must pass through Acquire before touching the
// network.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/courtwire/courtwire/internal/metrics"
)

// SourceConfig sets the bucket for one logical source.
type SourceConfig struct {
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
}

// Limiter provides per-source rate limiting using token buckets. Tokens
// refill continuously at rpm/60 per second, capped at burst = floor(rpm).
type Limiter struct {
	mu       sync.RWMutex
	buckets  map[string]*rate.Limiter
	configs  map[string]SourceConfig
	fallback SourceConfig
	metrics  *metrics.Registry
}

// NewLimiter creates a limiter from per-source configs. Sources without an
// entry fall back to the "default" config (or 30 rpm when absent).
func NewLimiter(configs map[string]SourceConfig, m *metrics.Registry) *Limiter {
	fallback, ok := configs["default"]
	if !ok || fallback.RequestsPerMinute <= 0 {
		fallback = SourceConfig{RequestsPerMinute: 30}
	}
	return &Limiter{
		buckets:  make(map[string]*rate.Limiter),
		configs:  configs,
		fallback: fallback,
		metrics:  m,
	}
}

// getBucket returns or creates the token bucket for the specified source.
func (l *Limiter) getBucket(source string) *rate.Limiter {
	l.mu.RLock()
	bucket, exists := l.buckets[source]
	l.mu.RUnlock()

	if exists {
		return bucket
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if bucket, exists := l.buckets[source]; exists {
		return bucket
	}

	cfg, ok := l.configs[source]
	if !ok || cfg.RequestsPerMinute <= 0 {
		cfg = l.fallback
	}
	burst := int(cfg.RequestsPerMinute)
	if burst < 1 {
		burst = 1
	}
	bucket = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60.0), burst)
	l.buckets[source] = bucket
	return bucket
}

// Acquire blocks until n tokens are available for the source or the context
// is cancelled. Fairness is first-come-first-served per bucket.
func (l *Limiter) Acquire(ctx context.Context, source string, n int) error {
	if n < 1 {
		n = 1
	}
	bucket := l.getBucket(source)

	start := time.Now()
	err := bucket.WaitN(ctx, n)
	if l.metrics != nil {
		l.metrics.LimiterWait.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}
	return err
}

// Allow reports whether a single request for the source would be admitted
// without waiting. Used by health checks; fetch paths use Acquire.
func (l *Limiter) Allow(source string) bool {
	return l.getBucket(source).Allow()
}

// Tokens returns the tokens currently available for a source.
func (l *Limiter) Tokens(source string) float64 {
	return l.getBucket(source).Tokens()
}

// Reset clears all buckets. Intended for tests.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets = make(map[string]*rate.Limiter)
}
