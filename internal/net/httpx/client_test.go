package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/courtwire/courtwire/internal/net/circuit"
	"github.com/courtwire/courtwire/internal/net/ratelimit"
)

func testFetcher(t *testing.T) *Fetcher {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MaxAttempts = 3
	cfg.BackoffBase = 5 * time.Millisecond
	cfg.BackoffMax = 20 * time.Millisecond
	limiter := ratelimit.NewLimiter(map[string]ratelimit.SourceConfig{
		"default": {RequestsPerMinute: 100000},
	}, nil)
	breakers := circuit.NewSet(circuit.Config{FailuresBeforeOpen: 100, RecoveryTimeout: time.Minute}, nil)
	return NewFetcher(cfg, limiter, breakers, nil)
}

func TestFetcher_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := testFetcher(t)
	body, err := f.Get(context.Background(), "nba_stats", srv.URL, nil, nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("unexpected body %q", body)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestFetcher_SurfacesAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := testFetcher(t)
	_, err := f.Get(context.Background(), "nba_stats", srv.URL, nil, nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Errorf("expected wrapped StatusError 500, got %v", err)
	}
}

func TestFetcher_CallerNarrowsRetryPolicy(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := testFetcher(t)
	f.RetryStatus = func(code int) bool { return code >= 500 }

	_, err := f.Get(context.Background(), "bref", srv.URL, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("404 should not be retried under narrowed policy, got %d calls", calls)
	}
}

func TestFetcher_BrowserHeadersAndOverrides(t *testing.T) {
	var ua, ref string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		ref = r.Header.Get("Referer")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := testFetcher(t)
	_, err := f.Get(context.Background(), "nba_stats", srv.URL, nil, map[string]string{
		"Referer": "https://www.nba.com/",
	})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ua == "" || ua == "Go-http-client/1.1" {
		t.Errorf("expected browser-like User-Agent, got %q", ua)
	}
	if ref != "https://www.nba.com/" {
		t.Errorf("caller header should be applied, got %q", ref)
	}
}

func TestFetcher_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resource":"scoreboard","parameters":{"GameDate":"2024-01-15"}}`))
	}))
	defer srv.Close()

	f := testFetcher(t)
	var out struct {
		Resource string `json:"resource"`
	}
	if err := f.GetJSON(context.Background(), "nba_stats", srv.URL, nil, nil, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Resource != "scoreboard" {
		t.Errorf("decoded resource = %q", out.Resource)
	}
}

func TestFetcher_BreakerOpensOnSustainedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.MaxAttempts = 1
	limiter := ratelimit.NewLimiter(map[string]ratelimit.SourceConfig{
		"default": {RequestsPerMinute: 100000},
	}, nil)
	breakers := circuit.NewSet(circuit.Config{FailuresBeforeOpen: 2, RecoveryTimeout: time.Minute}, nil)
	f := NewFetcher(cfg, limiter, breakers, nil)

	for i := 0; i < 2; i++ {
		if _, err := f.Get(context.Background(), "gamebooks", srv.URL, nil, nil); err == nil {
			t.Fatal("expected failure")
		}
	}
	_, err := f.Get(context.Background(), "gamebooks", srv.URL, nil, nil)
	if !errors.Is(err, circuit.ErrOpen) {
		t.Errorf("expected ErrOpen after sustained 429s, got %v", err)
	}
}

func TestBuildURL_SortedParams(t *testing.T) {
	got := BuildURL("https://stats.nba.com/stats/scoreboardv2", map[string]string{
		"GameDate":  "2024-01-15",
		"DayOffset": "0",
		"LeagueID":  "00",
	})
	want := "https://stats.nba.com/stats/scoreboardv2?DayOffset=0&GameDate=2024-01-15&LeagueID=00"
	if got != want {
		t.Errorf("BuildURL = %q, want %q", got, want)
	}
	if BuildURL("http://x/y", nil) != "http://x/y" {
		t.Error("no params should return URL unchanged")
	}
}
