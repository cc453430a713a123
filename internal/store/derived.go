package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/courtwire/courtwire/internal/domain"
)

// DerivedBundle holds one game's derived-analytics rows.
type DerivedBundle struct {
	Window *domain.Q1Window
	Shocks []domain.EarlyShock
	Travel []domain.ScheduleTravel
}

// LoadDerived writes derived rows for one game behind the completeness gate.
// Incomplete games are skipped with a structured log and zero counts; a
// completeness-check error also skips, so derived tables never advance on
// unknown state.
func (s *Store) LoadDerived(ctx context.Context, gameID string, bundle *DerivedBundle) (TableCounts, error) {
	ok, reasons, err := s.GameIsComplete(ctx, gameID)
	if err != nil {
		log.Warn().Err(err).Str("game_id", gameID).Msg("completeness check failed")
		return TableCounts{}, nil
	}
	if !ok {
		log.Info().
			Str("event", "derived_loader.skip").
			Str("game_id", gameID).
			Strs("reasons", reasons).
			Msg("skipping incomplete game")
		return TableCounts{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	counts := TableCounts{}
	if bundle.Window != nil {
		n, err := upsertRows(ctx, tx, q1WindowsSpec, []domain.Q1Window{*bundle.Window}, s.batchSize)
		if err != nil {
			return nil, err
		}
		counts[q1WindowsSpec.Table] = n
	}
	n, err := upsertRows(ctx, tx, earlyShocksSpec, bundle.Shocks, s.batchSize)
	if err != nil {
		return nil, err
	}
	counts[earlyShocksSpec.Table] = n

	n, err = upsertRows(ctx, tx, scheduleTravelSpec, bundle.Travel, s.batchSize)
	if err != nil {
		return nil, err
	}
	counts[scheduleTravelSpec.Table] = n

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit derived rows for %s: %w", gameID, err)
	}
	return counts, nil
}

// UpsertTravel writes schedule-travel rows. Travel is computed over a team's
// whole schedule, but each written row answers for one game and goes through
// the same completeness gate as the per-game tables; rows for incomplete
// games are dropped here, not by the caller.
func (s *Store) UpsertTravel(ctx context.Context, rows []domain.ScheduleTravel) (int64, error) {
	verdicts := make(map[string]bool, len(rows))
	gated := make([]domain.ScheduleTravel, 0, len(rows))
	for _, row := range rows {
		complete, checked := verdicts[row.GameID]
		if !checked {
			ok, reasons, err := s.GameIsComplete(ctx, row.GameID)
			if err != nil {
				log.Warn().Err(err).Str("game_id", row.GameID).Msg("completeness check failed")
				ok = false
			} else if !ok {
				log.Info().
					Str("event", "derived_loader.skip").
					Str("game_id", row.GameID).
					Strs("reasons", reasons).
					Msg("skipping incomplete game")
			}
			verdicts[row.GameID] = ok
			complete = ok
		}
		if complete {
			gated = append(gated, row)
		}
	}
	if len(gated) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return upsertRows(ctx, s.db, scheduleTravelSpec, gated, s.batchSize)
}
