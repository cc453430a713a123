package ratelimit

import (
	"context"
	"testing"
	"time"
)

func testLimiter(configs map[string]SourceConfig) *Limiter {
	return NewLimiter(configs, nil)
}

func TestLimiter_BurstThenBlock(t *testing.T) {
	limiter := testLimiter(map[string]SourceConfig{
		"nba_stats": {RequestsPerMinute: 120}, // 2 rps, burst 120
	})

	// Burst capacity equals floor(rpm); the first requests drain tokens.
	if !limiter.Allow("nba_stats") {
		t.Error("first request should be allowed")
	}
	if limiter.Tokens("nba_stats") > 120 {
		t.Errorf("tokens should be capped at burst, got %v", limiter.Tokens("nba_stats"))
	}
}

func TestLimiter_IndependentSources(t *testing.T) {
	limiter := testLimiter(map[string]SourceConfig{
		"bref":      {RequestsPerMinute: 60},
		"gamebooks": {RequestsPerMinute: 60},
	})

	for i := 0; i < 60; i++ {
		limiter.Allow("bref")
	}
	if limiter.Allow("bref") {
		t.Error("bref bucket should be drained")
	}
	if !limiter.Allow("gamebooks") {
		t.Error("gamebooks bucket should be independent of bref")
	}
}

func TestLimiter_DefaultFallback(t *testing.T) {
	limiter := testLimiter(map[string]SourceConfig{
		"default": {RequestsPerMinute: 1},
	})

	if !limiter.Allow("unknown_source") {
		t.Error("first request on unknown source should use default bucket")
	}
	if limiter.Allow("unknown_source") {
		t.Error("default bucket of 1 rpm should be drained after one request")
	}
}

func TestLimiter_AcquireWaits(t *testing.T) {
	limiter := testLimiter(map[string]SourceConfig{
		"nba_stats": {RequestsPerMinute: 600}, // 10 rps, burst 600
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Drain the burst.
	for i := 0; i < 600; i++ {
		limiter.Allow("nba_stats")
	}

	// Next acquire must wait roughly one refill interval (100ms at 10 rps).
	start := time.Now()
	if err := limiter.Acquire(ctx, "nba_stats", 1); err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 20*time.Millisecond {
		t.Errorf("Acquire should have waited for refill, took %v", elapsed)
	}
}

func TestLimiter_AcquireCancellable(t *testing.T) {
	limiter := testLimiter(map[string]SourceConfig{
		"bref": {RequestsPerMinute: 1}, // one token per minute
	})

	// Drain the single token.
	if err := limiter.Acquire(context.Background(), "bref", 1); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Acquire(ctx, "bref", 1)
	if err == nil {
		t.Error("Acquire should fail when context expires before refill")
	}
}
