// Package httpx is the outbound HTTP layer shared by all source clients.
// Every request passes through the per-source rate limiter, a retry loop
// with exponential backoff, and the vendor circuit breaker.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtwire/courtwire/internal/metrics"
	"github.com/courtwire/courtwire/internal/net/circuit"
	"github.com/courtwire/courtwire/internal/net/ratelimit"
)

// Config controls retry and pooling behavior.
type Config struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	BackoffBase    time.Duration `yaml:"backoff_base"`
	BackoffMax     time.Duration `yaml:"backoff_max"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	MaxIdleConns   int           `yaml:"max_idle_conns"`
}

// DefaultConfig matches the vendor-facing defaults: 5 attempts, 1s backoff
// doubling to a 60s cap, 30s total / 10s connect, 20 concurrent, 10 keep-alive.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    5,
		BackoffBase:    time.Second,
		BackoffMax:     60 * time.Second,
		RequestTimeout: 30 * time.Second,
		ConnectTimeout: 10 * time.Second,
		MaxConcurrent:  20,
		MaxIdleConns:   10,
	}
}

// browserHeaders are the spoofed defaults sent on every request unless the
// caller overrides a key.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.9",
	"Accept-Encoding": "gzip, deflate",
	"Connection":      "keep-alive",
	"Cache-Control":   "no-cache",
}

// StatusError carries a non-2xx response through the retry loop.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}

// ErrNonRetryable wraps errors the retry loop must surface immediately.
var ErrNonRetryable = errors.New("non-retryable")

// Fetcher performs rate-limited, retrying HTTP requests for one source.
type Fetcher struct {
	config    Config
	client    *http.Client
	limiter   *ratelimit.Limiter
	breakers  *circuit.Set
	metrics   *metrics.Registry
	semaphore chan struct{}

	// RetryStatus decides whether an HTTP status is retried. The default
	// retries all 4xx/5xx to absorb vendor anti-scrape 429 behavior; callers
	// may narrow it.
	RetryStatus func(code int) bool
}

// NewFetcher builds a fetcher sharing the given limiter and breaker set.
func NewFetcher(cfg Config, limiter *ratelimit.Limiter, breakers *circuit.Set, m *metrics.Registry) *Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultConfig()
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		MaxConnsPerHost:     cfg.MaxConcurrent,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Fetcher{
		config: cfg,
		client: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		limiter:   limiter,
		breakers:  breakers,
		metrics:   m,
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
		RetryStatus: func(code int) bool {
			return code >= 400
		},
	}
}

// Get performs a rate-limited GET and returns the raw body.
func (f *Fetcher) Get(ctx context.Context, source, rawURL string, params map[string]string, headers map[string]string) ([]byte, error) {
	return f.do(ctx, source, http.MethodGet, rawURL, params, headers, nil)
}

// GetJSON performs a GET and decodes the body into out.
func (f *Fetcher) GetJSON(ctx context.Context, source, rawURL string, params map[string]string, headers map[string]string, out any) error {
	body, err := f.Get(ctx, source, rawURL, params, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", rawURL, err)
	}
	return nil
}

// Post performs a rate-limited POST with the given body.
func (f *Fetcher) Post(ctx context.Context, source, rawURL string, params map[string]string, headers map[string]string, body []byte) ([]byte, error) {
	return f.do(ctx, source, http.MethodPost, rawURL, params, headers, body)
}

// Download streams a GET response to destPath, creating parent directories.
// Used for gamebook PDFs, where bodies do not fit the in-memory path.
func (f *Fetcher) Download(ctx context.Context, source, rawURL, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create download dir: %w", err)
	}

	_, err := f.breakers.Execute(source, func() (any, error) {
		if err := f.limiter.Acquire(ctx, source, 1); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrNonRetryable, err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrNonRetryable, err)
		}
		applyHeaders(req, nil)

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{Code: resp.StatusCode, URL: rawURL}
		}

		tmp := destPath + ".part"
		out, err := os.Create(tmp)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrNonRetryable, err)
		}
		if _, err := io.Copy(out, resp.Body); err != nil {
			out.Close()
			os.Remove(tmp)
			return nil, err
		}
		if err := out.Close(); err != nil {
			return nil, err
		}
		return nil, os.Rename(tmp, destPath)
	})
	return err
}

func (f *Fetcher) do(ctx context.Context, source, method, rawURL string, params, headers map[string]string, body []byte) ([]byte, error) {
	out, err := f.breakers.Execute(source, func() (any, error) {
		return f.attempt(ctx, source, method, rawURL, params, headers, body)
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (f *Fetcher) attempt(ctx context.Context, source, method, rawURL string, params, headers map[string]string, body []byte) ([]byte, error) {
	select {
	case f.semaphore <- struct{}{}:
		defer func() { <-f.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	fullURL := BuildURL(rawURL, params)

	var lastErr error
	for attempt := 0; attempt < f.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := f.backoff(attempt)
			if f.metrics != nil {
				f.metrics.HTTPRetries.WithLabelValues(source).Inc()
			}
			log.Debug().
				Str("source", source).
				Str("url", rawURL).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying HTTP request")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		// The limiter is the single gate in front of every outbound call,
		// so each retry attempt pays for its own token.
		if err := f.limiter.Acquire(ctx, source, 1); err != nil {
			return nil, err
		}

		data, err := f.once(ctx, source, method, fullURL, headers, body)
		if err == nil {
			if f.metrics != nil {
				f.metrics.HTTPRequests.WithLabelValues(source, "ok").Inc()
			}
			return data, nil
		}
		lastErr = err

		if errors.Is(err, ErrNonRetryable) || ctx.Err() != nil {
			break
		}
		var se *StatusError
		if errors.As(err, &se) && !f.RetryStatus(se.Code) {
			break
		}
	}

	if f.metrics != nil {
		f.metrics.HTTPRequests.WithLabelValues(source, "error").Inc()
	}
	return nil, fmt.Errorf("request to %s failed after retries: %w", rawURL, lastErr)
}

func (f *Fetcher) once(ctx context.Context, source, method, fullURL string, headers map[string]string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNonRetryable, err)
	}
	applyHeaders(req, headers)

	start := time.Now()
	resp, err := f.client.Do(req)
	if f.metrics != nil {
		f.metrics.HTTPDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: fullURL}
	}
	return data, nil
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	d := f.config.BackoffBase << (attempt - 1)
	if d > f.config.BackoffMax {
		d = f.config.BackoffMax
	}
	return d
}

func applyHeaders(req *http.Request, headers map[string]string) {
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

// BuildURL appends params to rawURL in sorted key order. Sorting keeps the
// URL stable so cache keys are deterministic.
func BuildURL(rawURL string, params map[string]string) string {
	if len(params) == 0 {
		return rawURL
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		values.Set(k, params[k])
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + values.Encode()
}
