package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtwire/courtwire/internal/domain"
)

func ev(period, idx int, elapsed float64) domain.PBPEvent {
	e := elapsed
	return domain.PBPEvent{
		GameID: "0022300123", Period: period, EventIdx: idx,
		SecondsElapsed: &e, EventType: "shot",
	}
}

func TestCheckMonotonic_CleanStream(t *testing.T) {
	events := []domain.PBPEvent{
		ev(1, 1, 0), ev(1, 2, 12), ev(1, 3, 30),
		ev(2, 4, 0), ev(2, 5, 20),
	}
	assert.Empty(t, CheckMonotonic("0022300123", events))
}

func TestCheckMonotonic_IndexGapAndDuplicate(t *testing.T) {
	events := []domain.PBPEvent{
		ev(1, 1, 0), ev(1, 1, 5), ev(1, 4, 10),
	}
	issues := CheckMonotonic("0022300123", events)
	require.Len(t, issues, 2)
	assert.Contains(t, issues[0].Detail, "duplicate event_idx 1")
	assert.Contains(t, issues[1].Detail, "gap 1 -> 4")
}

func TestCheckMonotonic_BackwardStepTolerance(t *testing.T) {
	// One ≤5s regression is tolerated for simultaneous events.
	tolerated := []domain.PBPEvent{
		ev(1, 1, 0), ev(1, 2, 100), ev(1, 3, 97), ev(1, 4, 110),
	}
	assert.Empty(t, CheckMonotonic("0022300123", tolerated))

	// A second regression in the same period is not.
	repeated := []domain.PBPEvent{
		ev(1, 1, 0), ev(1, 2, 100), ev(1, 3, 97), ev(1, 4, 110), ev(1, 5, 106),
	}
	issues := CheckMonotonic("0022300123", repeated)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Detail, "regressed")

	// A large single regression exceeds the tolerance outright.
	large := []domain.PBPEvent{
		ev(1, 1, 0), ev(1, 2, 100), ev(1, 3, 40),
	}
	issues = CheckMonotonic("0022300123", large)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Detail, "100.0 -> 40.0")
}

func TestCheckMonotonic_PeriodOverlap(t *testing.T) {
	events := []domain.PBPEvent{
		ev(1, 5, 0), ev(1, 6, 10),
		ev(2, 6, 0), ev(2, 7, 8),
	}
	issues := CheckMonotonic("0022300123", events)
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Detail, "period 2 starts at idx 6 inside period 1")
}
