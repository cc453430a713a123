package validate

import (
	"context"
	"fmt"
	"time"

	"github.com/courtwire/courtwire/internal/domain"
)

// backwardToleranceSecs is how far seconds_elapsed may step backward once
// per period; simultaneous events land out of order in vendor feeds.
const backwardToleranceSecs = 5.0

// CheckMonotonic inspects one game's events for index gaps, duplicates,
// elapsed-time regressions beyond tolerance, and overlapping period
// boundaries. Pure function; the events must be sorted by (period, idx).
func CheckMonotonic(gameID string, events []domain.PBPEvent) []Issue {
	var issues []Issue
	add := func(detail string) {
		issues = append(issues, Issue{
			Check: "pbp_monotonicity", Table: "pbp_events", Key: gameID, Detail: detail,
		})
	}

	byPeriod := map[int][]domain.PBPEvent{}
	for _, ev := range events {
		byPeriod[ev.Period] = append(byPeriod[ev.Period], ev)
	}

	lastIdxOfPrevPeriod := -1
	for period := 1; ; period++ {
		evs, ok := byPeriod[period]
		if !ok {
			break
		}

		backwardUsed := false
		var lastElapsed float64 = -1
		lastIdx := -1
		for _, ev := range evs {
			if ev.EventIdx == lastIdx {
				add(fmt.Sprintf("period %d: duplicate event_idx %d", period, ev.EventIdx))
			} else if lastIdx >= 0 && ev.EventIdx != lastIdx+1 {
				add(fmt.Sprintf("period %d: event_idx gap %d -> %d", period, lastIdx, ev.EventIdx))
			}
			lastIdx = ev.EventIdx

			if ev.SecondsElapsed != nil {
				e := *ev.SecondsElapsed
				if lastElapsed >= 0 && e < lastElapsed {
					if backwardUsed || lastElapsed-e > backwardToleranceSecs {
						add(fmt.Sprintf("period %d: seconds_elapsed regressed %.1f -> %.1f at idx %d",
							period, lastElapsed, e, ev.EventIdx))
					} else {
						backwardUsed = true
					}
				}
				if e > lastElapsed {
					lastElapsed = e
				}
			}
		}

		// Period boundaries must not overlap in event_idx.
		if len(evs) > 0 && lastIdxOfPrevPeriod >= 0 && evs[0].EventIdx <= lastIdxOfPrevPeriod {
			add(fmt.Sprintf("period %d starts at idx %d inside period %d", period, evs[0].EventIdx, period-1))
		}
		if len(evs) > 0 {
			lastIdxOfPrevPeriod = evs[len(evs)-1].EventIdx
		}
	}
	return issues
}

// PBPMonotonicity runs CheckMonotonic over every game ingested since the
// cutoff.
func (v *Validator) PBPMonotonicity(ctx context.Context, since time.Time) (Result, error) {
	start := time.Now()
	res := Result{Check: "pbp_monotonicity", Passed: true}

	qctx, cancel := context.WithTimeout(ctx, v.timeout)
	var gameIDs []string
	err := v.db.SelectContext(qctx, &gameIDs,
		"SELECT game_id FROM games WHERE ingested_at_utc >= $1 ORDER BY game_id", since)
	cancel()
	if err != nil {
		return res, fmt.Errorf("failed to list recent games: %w", err)
	}

	for _, gameID := range gameIDs {
		qctx, cancel := context.WithTimeout(ctx, v.timeout)
		var events []domain.PBPEvent
		err := v.db.SelectContext(qctx, &events, `
			SELECT game_id, period, event_idx, seconds_elapsed, event_type
			FROM pbp_events WHERE game_id = $1
			ORDER BY period, event_idx`, gameID)
		cancel()
		if err != nil {
			return res, fmt.Errorf("failed to load events for %s: %w", gameID, err)
		}
		res.Issues = append(res.Issues, CheckMonotonic(gameID, events)...)
		res.RowsChecked += len(events)
	}

	res.Passed = len(res.Issues) == 0
	res.Duration = time.Since(start)
	return res, nil
}
