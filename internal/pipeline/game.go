package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/courtwire/courtwire/internal/domain"
	"github.com/courtwire/courtwire/internal/preprocess"
	"github.com/courtwire/courtwire/internal/sources"
	"github.com/courtwire/courtwire/internal/store"
)

// ShouldProcessGame decides whether one game is fetched this run. Non-final
// games are always refetched; final games only under --force.
func (o *Orchestrator) ShouldProcessGame(ctx context.Context, gameID string) (bool, string, error) {
	if o.cfg.ForceRefresh {
		return true, "force refresh", nil
	}
	status, err := o.store.GameStatus(ctx, gameID)
	if err != nil {
		return false, "", err
	}
	switch status {
	case "":
		return true, "not yet ingested", nil
	case domain.StatusFinal:
		return false, "already final", nil
	default:
		return true, "status " + string(status), nil
	}
}

// ProcessGame runs one game through every configured source. NBA-Stats builds
// the canonical bundle; supplementary sources enrich it afterwards. A source
// that does not support an operation is skipped, not failed.
func (o *Orchestrator) ProcessGame(ctx context.Context, gameID string) (store.TableCounts, error) {
	counts := store.TableCounts{}
	for _, source := range o.cfg.Sources {
		var (
			c   store.TableCounts
			err error
		)
		switch source {
		case sources.NBAStatsName:
			c, err = o.processNBAStats(ctx, gameID)
		case sources.BRefName:
			c, err = o.processBRef(ctx, gameID)
		case sources.GamebooksName:
			continue // gamebooks are ingested per date, not per game
		default:
			log.Warn().Str("source", source).Msg("unknown source configured, skipping")
			continue
		}
		if errors.Is(err, sources.ErrUnsupported) {
			log.Debug().Str("source", source).Str("game_id", gameID).Msg("operation unsupported, skipping")
			continue
		}
		if err != nil {
			return counts, fmt.Errorf("source %s: %w", source, err)
		}
		counts.Merge(c)
	}
	return counts, nil
}

func (o *Orchestrator) processNBAStats(ctx context.Context, gameID string) (store.TableCounts, error) {
	box, err := o.facade.Boxscore(ctx, sources.NBAStatsName, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch boxscore for %s: %w", gameID, err)
	}
	pbp, err := o.facade.PBP(ctx, sources.NBAStatsName, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pbp for %s: %w", gameID, err)
	}
	// Shot charts lag the boxscore feed; a missing chart degrades the events,
	// it never fails the game.
	shots, err := o.facade.Shots(ctx, sources.NBAStatsName, gameID)
	if err != nil && !errors.Is(err, sources.ErrUnsupported) {
		log.Warn().Err(err).Str("game_id", gameID).Msg("shot chart unavailable")
		shots = nil
	}

	if o.cfg.PersistRaw {
		raws := map[string][]byte{"boxscore": box.Raw, "pbp": pbp.Raw}
		if shots != nil {
			raws["shots"] = shots.Raw
		}
		o.archiveRaw(gameID, raws)
	}

	bundle, err := o.assembleNBAStats(gameID, nbaStatsInputs{Boxscore: box, PBP: pbp, Shots: shots})
	if err != nil {
		return nil, err
	}
	if o.cfg.DryRun {
		log.Info().
			Str("game_id", gameID).
			Int("events", len(bundle.Events)).
			Int("player_rows", len(bundle.PlayerStats)).
			Msg("dry run, nothing written")
		return store.TableCounts{}, nil
	}
	return o.store.LoadGame(ctx, bundle)
}

// processBRef supplements an already ingested game: the crosswalk id plus
// quarter scores from the basketball-reference line score. It needs the
// canonical game row to derive the vendor id, so it is a no-op until the
// NBA-Stats pass has landed.
func (o *Orchestrator) processBRef(ctx context.Context, gameID string) (store.TableCounts, error) {
	game, err := o.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		log.Debug().Str("game_id", gameID).Msg("no canonical row yet, bref supplement skipped")
		return store.TableCounts{}, nil
	}

	brefID := brefGameID(game.LocalDate, game.HomeTricode)
	tables, err := o.facade.Boxscore(ctx, sources.BRefName, brefID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bref boxscore %s: %w", brefID, err)
	}

	bundle := &store.GameBundle{
		Game:      game,
		Crosswalk: &domain.GameIDCrosswalk{GameID: gameID, BRefGameID: &brefID},
	}
	for _, raw := range tables.Set("line_score") {
		tri, ok := raw["TEAM"].(string)
		if !ok || tri == "" {
			continue
		}
		row := preprocess.Row{"TEAM": tri, "PTS": raw["T"], "Q1_PTS": raw["1"]}
		ts, err := o.tr.TeamStats(sources.BRefName, gameID, row)
		if err != nil {
			return nil, err
		}
		bundle.TeamStats = append(bundle.TeamStats, *ts)
	}

	if o.cfg.DryRun {
		return store.TableCounts{}, nil
	}
	return o.store.LoadGame(ctx, bundle)
}

// archiveRaw writes the raw vendor payloads under <archive>/<game_id>/.
// Archive failures are logged, never fatal.
func (o *Orchestrator) archiveRaw(gameID string, payloads map[string][]byte) {
	dir := filepath.Join(o.cfg.ArchiveDir, gameID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn().Err(err).Str("game_id", gameID).Msg("failed to create archive dir")
		return
	}
	for name, body := range payloads {
		if len(body) == 0 {
			continue
		}
		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, body, 0o644); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to archive payload")
		}
	}
}

// processBatch runs a set of game ids through the worker pool, checkpointing
// each one. Results accumulate into res under the mutex; one game's failure
// never stops the batch.
func (o *Orchestrator) processBatch(ctx context.Context, res *Result, pipeline string, gameIDs []string) {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, o.cfg.Workers)
	)
	for _, gameID := range gameIDs {
		if ctx.Err() != nil {
			break
		}
		should, reason, err := o.ShouldProcessGame(ctx, gameID)
		if err != nil {
			log.Warn().Err(err).Str("game_id", gameID).Msg("skip check failed, processing anyway")
			should = true
		}
		if !should {
			log.Debug().Str("game_id", gameID).Str("reason", reason).Msg("game skipped")
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(gameID string) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := o.store.BeginCheckpoint(ctx, pipeline, gameID, "ingest"); err != nil {
				log.Warn().Err(err).Str("game_id", gameID).Msg("failed to begin checkpoint")
			}
			counts, err := o.ProcessGame(ctx, gameID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Error().Err(err).Str("game_id", gameID).Msg("game failed")
				res.Failures++
				res.FailedKeys = append(res.FailedKeys, gameID)
				o.metrics.GamesProcessed.WithLabelValues(pipeline, "error").Inc()
				if cperr := o.store.FailCheckpoint(ctx, pipeline, gameID, "ingest", err); cperr != nil {
					log.Warn().Err(cperr).Str("game_id", gameID).Msg("failed to record failure")
				}
				return
			}
			res.Successes++
			res.Counts.Merge(counts)
			o.metrics.GamesProcessed.WithLabelValues(pipeline, "ok").Inc()
			for table, n := range counts {
				o.metrics.RowsUpserted.WithLabelValues(table).Add(float64(n))
			}
			if cperr := o.store.CompleteCheckpoint(ctx, pipeline, gameID, "ingest"); cperr != nil {
				log.Warn().Err(cperr).Str("game_id", gameID).Msg("failed to record completion")
			}
		}(gameID)
	}
	wg.Wait()
}
