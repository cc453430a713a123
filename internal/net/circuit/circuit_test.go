package circuit

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

var errVendor = errors.New("vendor down")

func fail() (any, error)    { return nil, errVendor }
func succeed() (any, error) { return "ok", nil }

func TestSet_OpensAfterConsecutiveFailures(t *testing.T) {
	set := NewSet(Config{FailuresBeforeOpen: 3, RecoveryTimeout: time.Minute}, nil)

	for i := 0; i < 3; i++ {
		if _, err := set.Execute("nba_stats", fail); !errors.Is(err, errVendor) {
			t.Fatalf("attempt %d: expected vendor error, got %v", i, err)
		}
	}

	if set.State("nba_stats") != gobreaker.StateOpen {
		t.Fatalf("breaker should be open, got %v", set.State("nba_stats"))
	}
	if _, err := set.Execute("nba_stats", succeed); !errors.Is(err, ErrOpen) {
		t.Errorf("open breaker should reject with ErrOpen, got %v", err)
	}
}

func TestSet_VendorsAreIndependent(t *testing.T) {
	set := NewSet(Config{FailuresBeforeOpen: 1, RecoveryTimeout: time.Minute}, nil)

	if _, err := set.Execute("bref", fail); !errors.Is(err, errVendor) {
		t.Fatalf("expected vendor error, got %v", err)
	}
	if set.State("bref") != gobreaker.StateOpen {
		t.Error("bref breaker should be open")
	}

	out, err := set.Execute("gamebooks", succeed)
	if err != nil {
		t.Fatalf("gamebooks breaker should be unaffected: %v", err)
	}
	if out != "ok" {
		t.Errorf("unexpected result %v", out)
	}
}

func TestSet_HalfOpenRecovery(t *testing.T) {
	set := NewSet(Config{FailuresBeforeOpen: 1, RecoveryTimeout: 30 * time.Millisecond}, nil)

	set.Execute("nba_stats", fail)
	if set.State("nba_stats") != gobreaker.StateOpen {
		t.Fatal("breaker should be open")
	}

	time.Sleep(50 * time.Millisecond)

	// First probe after the recovery window; success closes the breaker.
	if _, err := set.Execute("nba_stats", succeed); err != nil {
		t.Fatalf("probe should be admitted after recovery timeout: %v", err)
	}
	if set.State("nba_stats") != gobreaker.StateClosed {
		t.Errorf("breaker should close after successful probe, got %v", set.State("nba_stats"))
	}
}

func TestSet_HalfOpenFailureReopens(t *testing.T) {
	set := NewSet(Config{FailuresBeforeOpen: 1, RecoveryTimeout: 30 * time.Millisecond}, nil)

	set.Execute("bref", fail)
	time.Sleep(50 * time.Millisecond)

	if _, err := set.Execute("bref", fail); !errors.Is(err, errVendor) {
		t.Fatalf("probe should run and fail: %v", err)
	}
	if set.State("bref") != gobreaker.StateOpen {
		t.Errorf("failed probe should reopen the breaker, got %v", set.State("bref"))
	}
}
