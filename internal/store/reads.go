package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtwire/courtwire/internal/domain"
)

// GetGame fetches one game row; (nil, nil) when absent.
func (s *Store) GetGame(ctx context.Context, gameID string) (*domain.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var game domain.Game
	err := s.db.GetContext(ctx, &game, `
		SELECT game_id, season, game_time_utc, local_date, arena_tz,
		       home_tricode, away_tricode, status, period,
		       source, source_url, ingested_at_utc
		FROM games WHERE game_id = $1`, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %s: %w", gameID, err)
	}
	return &game, nil
}

// ListEvents returns a game's play-by-play in period/index order.
func (s *Store) ListEvents(ctx context.Context, gameID string) ([]domain.PBPEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var events []domain.PBPEvent
	err := s.db.SelectContext(ctx, &events, `
		SELECT * FROM pbp_events
		WHERE game_id = $1
		ORDER BY period, event_idx`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", gameID, err)
	}
	return events, nil
}

// ListGamesByDate returns the games played on one arena-local date.
func (s *Store) ListGamesByDate(ctx context.Context, localDate string) ([]domain.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var games []domain.Game
	err := s.db.SelectContext(ctx, &games, `
		SELECT game_id, season, game_time_utc, local_date, arena_tz,
		       home_tricode, away_tricode, status, period,
		       source, source_url, ingested_at_utc
		FROM games WHERE local_date = $1 ORDER BY game_id`, localDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for %s: %w", localDate, err)
	}
	return games, nil
}

// TeamSchedule returns a team's games for one season in date order, home and
// away, for the travel derivation.
func (s *Store) TeamSchedule(ctx context.Context, tricode, season string) ([]domain.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var games []domain.Game
	err := s.db.SelectContext(ctx, &games, `
		SELECT game_id, season, game_time_utc, local_date, arena_tz,
		       home_tricode, away_tricode, status, period,
		       source, source_url, ingested_at_utc
		FROM games
		WHERE season = $1 AND (home_tricode = $2 OR away_tricode = $2)
		ORDER BY local_date, game_id`, season, tricode)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule for %s: %w", tricode, err)
	}
	return games, nil
}

// SeasonTricodes returns the distinct teams that appear in a season.
func (s *Store) SeasonTricodes(ctx context.Context, season string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var teams []string
	err := s.db.SelectContext(ctx, &teams, `
		SELECT DISTINCT home_tricode FROM games WHERE season = $1
		UNION
		SELECT DISTINCT away_tricode FROM games WHERE season = $1
		ORDER BY 1`, season)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for %s: %w", season, err)
	}
	return teams, nil
}

// GameStatus returns the stored status for a game; ("", nil) when the game
// has never been ingested.
func (s *Store) GameStatus(ctx context.Context, gameID string) (domain.GameStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var status domain.GameStatus
	err := s.db.GetContext(ctx, &status, "SELECT status FROM games WHERE game_id = $1", gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get status for %s: %w", gameID, err)
	}
	return status, nil
}
