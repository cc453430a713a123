package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/courtwire/courtwire/internal/domain"
)

// GameBundle is everything one game's ingestion produced, loaded together or
// not at all.
type GameBundle struct {
	Game        *domain.Game
	Crosswalk   *domain.GameIDCrosswalk
	Referees    []domain.RefereeAssignment
	Alternates  []domain.RefereeAlternate
	Lineups     []domain.StartingLineup
	Injuries    []domain.InjurySnapshot
	Events      []domain.PBPEvent
	TeamStats   []domain.TeamGameStats
	PlayerStats []domain.PlayerGameStats
	Outcome     *domain.Outcome
}

// TableCounts maps table name to rows written.
type TableCounts map[string]int64

// Total sums the per-table counts.
func (t TableCounts) Total() int64 {
	var n int64
	for _, v := range t {
		n += v
	}
	return n
}

// Merge adds other's counts into t.
func (t TableCounts) Merge(other TableCounts) {
	for k, v := range other {
		t[k] += v
	}
}

// LoadGame writes a bundle in parent-then-child order inside one transaction
// with deferred constraints. Any failure rolls the whole game back; partial
// games are never persisted.
func (s *Store) LoadGame(ctx context.Context, bundle *GameBundle) (TableCounts, error) {
	if bundle.Game == nil {
		return nil, fmt.Errorf("bundle has no game row")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SET CONSTRAINTS ALL DEFERRED"); err != nil {
		return nil, fmt.Errorf("failed to defer constraints: %w", err)
	}

	counts := TableCounts{}

	n, err := upsertRows(ctx, tx, gamesSpec, []domain.Game{*bundle.Game}, s.batchSize)
	if err != nil {
		return nil, err
	}
	counts[gamesSpec.Table] = n

	if bundle.Crosswalk != nil {
		n, err = upsertRows(ctx, tx, crosswalkSpec, []domain.GameIDCrosswalk{*bundle.Crosswalk}, s.batchSize)
		if err != nil {
			return nil, err
		}
		counts[crosswalkSpec.Table] = n
	}

	if n, err = upsertRows(ctx, tx, refereesSpec, bundle.Referees, s.batchSize); err != nil {
		return nil, err
	}
	counts[refereesSpec.Table] = n

	if n, err = upsertRows(ctx, tx, alternatesSpec, bundle.Alternates, s.batchSize); err != nil {
		return nil, err
	}
	counts[alternatesSpec.Table] = n

	if n, err = upsertRows(ctx, tx, lineupsSpec, bundle.Lineups, s.batchSize); err != nil {
		return nil, err
	}
	counts[lineupsSpec.Table] = n

	if n, err = upsertRows(ctx, tx, injuriesSpec, bundle.Injuries, s.batchSize); err != nil {
		return nil, err
	}
	counts[injuriesSpec.Table] = n

	if n, err = upsertRows(ctx, tx, pbpSpec, bundle.Events, s.batchSize); err != nil {
		return nil, err
	}
	counts[pbpSpec.Table] = n

	if n, err = upsertRows(ctx, tx, teamStatsSpec, bundle.TeamStats, s.batchSize); err != nil {
		return nil, err
	}
	counts[teamStatsSpec.Table] = n

	if n, err = upsertRows(ctx, tx, playerStatsSpec, bundle.PlayerStats, s.batchSize); err != nil {
		return nil, err
	}
	counts[playerStatsSpec.Table] = n

	if bundle.Outcome != nil {
		n, err = upsertRows(ctx, tx, outcomesSpec, []domain.Outcome{*bundle.Outcome}, s.batchSize)
		if err != nil {
			return nil, err
		}
		counts[outcomesSpec.Table] = n
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit game %s: %w", bundle.Game.GameID, err)
	}

	log.Debug().
		Str("game_id", bundle.Game.GameID).
		Int64("rows", counts.Total()).
		Msg("game loaded")
	return counts, nil
}
