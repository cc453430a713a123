package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtwire/courtwire/internal/domain"
)

// Completeness thresholds for derived-analytics eligibility.
const (
	minPBPEvents       = 400
	minElapsedCoverage = 0.75
)

// GameIsComplete decides whether a game's core facts support derived
// analytics: final status, Q1 boxscore present, play-by-play covering every
// period with enough events and timestamp coverage. The reasons slice names
// every failed prerequisite. A query error is reported as its own reason so
// callers skip the game this round instead of writing on unknown state.
func (s *Store) GameIsComplete(ctx context.Context, gameID string) (bool, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var reasons []string

	var game struct {
		Status domain.GameStatus `db:"status"`
		Period int               `db:"period"`
	}
	err := s.db.GetContext(ctx, &game,
		"SELECT status, period FROM games WHERE game_id = $1", gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, []string{"game row missing"}, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("failed to check game status: %w", err)
	}
	if game.Status != domain.StatusFinal {
		reasons = append(reasons, fmt.Sprintf("status is %s, not final", game.Status))
	}

	var q1Rows int
	err = s.db.GetContext(ctx, &q1Rows,
		"SELECT COUNT(*) FROM team_game_stats WHERE game_id = $1 AND q1_pts IS NOT NULL", gameID)
	if err != nil {
		return false, nil, fmt.Errorf("failed to check Q1 boxscore: %w", err)
	}
	if q1Rows < 2 {
		reasons = append(reasons, "Q1 boxscore missing")
	}

	var pbp struct {
		Events  int `db:"events"`
		Periods int `db:"periods"`
		Timed   int `db:"timed"`
	}
	err = s.db.GetContext(ctx, &pbp, `
		SELECT COUNT(*) AS events,
		       COUNT(DISTINCT period) AS periods,
		       COUNT(seconds_elapsed) AS timed
		FROM pbp_events WHERE game_id = $1`, gameID)
	if err != nil {
		return false, nil, fmt.Errorf("failed to check play-by-play: %w", err)
	}
	if pbp.Events < minPBPEvents {
		reasons = append(reasons, fmt.Sprintf("only %d pbp events, need %d", pbp.Events, minPBPEvents))
	}
	if game.Period > 0 && pbp.Periods < game.Period {
		reasons = append(reasons, fmt.Sprintf("pbp covers %d of %d periods", pbp.Periods, game.Period))
	}
	if pbp.Events > 0 {
		coverage := float64(pbp.Timed) / float64(pbp.Events)
		if coverage < minElapsedCoverage {
			reasons = append(reasons, fmt.Sprintf("elapsed coverage %.2f below %.2f", coverage, minElapsedCoverage))
		}
	}

	return len(reasons) == 0, reasons, nil
}
