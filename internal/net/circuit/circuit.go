// Package circuit wraps sony/gobreaker with per-vendor named breakers.
package circuit

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/courtwire/courtwire/internal/metrics"
)

// ErrOpen is returned when a breaker rejects a call outright.
var ErrOpen = errors.New("circuit breaker is open")

// Config sets the trip and recovery behavior for one vendor breaker.
type Config struct {
	FailuresBeforeOpen uint32        `yaml:"failures_before_open"`
	RecoveryTimeout    time.Duration `yaml:"recovery_timeout"`
}

// DefaultConfig matches the vendor-facing defaults: open after 5 consecutive
// failures, probe again after 60 seconds.
func DefaultConfig() Config {
	return Config{FailuresBeforeOpen: 5, RecoveryTimeout: 60 * time.Second}
}

// Set manages one breaker per vendor.
type Set struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	config   Config
	metrics  *metrics.Registry
}

// NewSet creates a breaker set with the given config applied to every vendor.
func NewSet(cfg Config, m *metrics.Registry) *Set {
	if cfg.FailuresBeforeOpen == 0 {
		cfg = DefaultConfig()
	}
	return &Set{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		config:   cfg,
		metrics:  m,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

func (s *Set) breaker(vendor string) *gobreaker.CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cb, ok := s.breakers[vendor]; ok {
		return cb
	}

	st := gobreaker.Settings{Name: vendor}
	st.Timeout = s.config.RecoveryTimeout
	st.MaxRequests = 3 // probes admitted while half-open
	failures := s.config.FailuresBeforeOpen
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= failures
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		if s.metrics != nil {
			s.metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
		}
		evt := log.Warn()
		if to == gobreaker.StateOpen {
			evt = log.Error()
		}
		evt.Str("vendor", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state change")
	}

	cb := gobreaker.NewCircuitBreaker(st)
	s.breakers[vendor] = cb
	return cb
}

// Execute runs fn under the vendor's breaker. Rejections while open are
// mapped to ErrOpen so callers can distinguish them from vendor failures.
func (s *Set) Execute(vendor string, fn func() (any, error)) (any, error) {
	out, err := s.breaker(vendor).Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrOpen
	}
	return out, err
}

// State reports the current state of a vendor breaker.
func (s *Set) State(vendor string) gobreaker.State {
	return s.breaker(vendor).State()
}
