package store

import (
	"context"
	"fmt"

	"github.com/courtwire/courtwire/internal/domain"
)

// UpsertReferees writes assignments and alternates outside a game load.
// Gamebook parses arrive per date after the games themselves, so referee
// rows get their own transaction.
func (s *Store) UpsertReferees(ctx context.Context, refs []domain.RefereeAssignment, alts []domain.RefereeAlternate) (TableCounts, error) {
	if len(refs) == 0 && len(alts) == 0 {
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
	n, err := upsertRows(ctx, tx, refereesSpec, refs, s.batchSize)
	if err != nil {
		return nil, err
	}
	counts[refereesSpec.Table] = n

	n, err = upsertRows(ctx, tx, alternatesSpec, alts, s.batchSize)
	if err != nil {
		return nil, err
	}
	counts[alternatesSpec.Table] = n

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit referee rows: %w", err)
	}
	return counts, nil
}
