// Package metrics holds the process-wide Prometheus registry for courtwire.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all Prometheus metrics for the ingestion engine.
type Registry struct {
	// HTTP fetch metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPRetries  *prometheus.CounterVec

	// Cache performance metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Circuit breaker state (0=closed, 1=half-open, 2=open)
	BreakerState *prometheus.GaugeVec

	// Preprocessor drift
	SchemaDrift *prometheus.CounterVec

	// Pipeline metrics
	GamesProcessed *prometheus.CounterVec
	RowsUpserted   *prometheus.CounterVec
	DerivedSkips   *prometheus.CounterVec
	PipelineRuns   *prometheus.HistogramVec

	// Rate limiter waits
	LimiterWait *prometheus.HistogramVec
}

// NewRegistry creates all collectors and registers them with reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtwire_http_requests_total",
				Help: "Total outbound HTTP requests by source and result",
			},
			[]string{"source", "result"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courtwire_http_duration_seconds",
				Help:    "Outbound HTTP request duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"source"},
		),
		HTTPRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtwire_http_retries_total",
				Help: "Total HTTP retry attempts by source",
			},
			[]string{"source"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtwire_cache_hits_total",
				Help: "Response cache hits by endpoint class",
			},
			[]string{"class"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtwire_cache_misses_total",
				Help: "Response cache misses by endpoint class",
			},
			[]string{"class"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "courtwire_breaker_state",
				Help: "Circuit breaker state per vendor (0=closed, 1=half-open, 2=open)",
			},
			[]string{"vendor"},
		),
		SchemaDrift: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtwire_schema_drift_total",
				Help: "Vendor payload drift occurrences by field",
			},
			[]string{"field"},
		),
		GamesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtwire_games_processed_total",
				Help: "Games processed by pipeline and result",
			},
			[]string{"pipeline", "result"},
		),
		RowsUpserted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtwire_rows_upserted_total",
				Help: "Rows written by diff-aware upserts per table",
			},
			[]string{"table"},
		),
		DerivedSkips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtwire_derived_skips_total",
				Help: "Derived-loader skips by completeness reason",
			},
			[]string{"reason"},
		),
		PipelineRuns: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courtwire_pipeline_duration_seconds",
				Help:    "Wall-clock duration of pipeline runs",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"pipeline"},
		),
		LimiterWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courtwire_limiter_wait_seconds",
				Help:    "Time spent waiting on per-source token buckets",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		),
	}

	reg.MustRegister(
		r.HTTPRequests, r.HTTPDuration, r.HTTPRetries,
		r.CacheHits, r.CacheMisses,
		r.BreakerState, r.SchemaDrift,
		r.GamesProcessed, r.RowsUpserted, r.DerivedSkips, r.PipelineRuns,
		r.LimiterWait,
	)
	return r
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the registry bound to prometheus.DefaultRegisterer.
// Components should take a *Registry by injection; Default exists for the
// process entry point and for tests that do not care about scraping.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry(prometheus.DefaultRegisterer)
	})
	return defaultReg
}

// NewTestRegistry returns a registry backed by a private Prometheus
// registerer, safe to create once per test.
func NewTestRegistry() *Registry {
	return NewRegistry(prometheus.NewRegistry())
}
