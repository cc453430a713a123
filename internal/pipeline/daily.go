package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtwire/courtwire/internal/domain"
	"github.com/courtwire/courtwire/internal/preprocess"
	"github.com/courtwire/courtwire/internal/sources"
	"github.com/courtwire/courtwire/internal/transform"
)

// RunDaily ingests every game of the dates in [from, to], then the gamebook
// referee assignments for those dates. A date whose scoreboard cannot be
// fetched is counted as a failure and the run moves on.
func (o *Orchestrator) RunDaily(ctx context.Context, from, to time.Time) (*Result, error) {
	start := time.Now()
	res := newResult("daily")
	defer func() {
		o.metrics.PipelineRuns.WithLabelValues("daily").Observe(time.Since(start).Seconds())
	}()

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return res.finish(start, err), err
		}
		gameIDs, err := o.gamesForDate(ctx, d)
		if err != nil {
			log.Error().Err(err).Str("date", d.Format("2006-01-02")).Msg("scoreboard failed")
			res.Failures++
			res.FailedKeys = append(res.FailedKeys, d.Format("2006-01-02"))
			continue
		}
		log.Info().
			Str("date", d.Format("2006-01-02")).
			Int("games", len(gameIDs)).
			Msg("daily ingest started")

		o.processBatch(ctx, res, "daily", gameIDs)
		o.ingestRefs(ctx, res, d)
	}
	return res.finish(start, nil), nil
}

// gamesForDate lists the game ids of one calendar date from the primary
// scoreboard.
func (o *Orchestrator) gamesForDate(ctx context.Context, date time.Time) ([]string, error) {
	tables, err := o.facade.Scoreboard(ctx, sources.NBAStatsName, date)
	if err != nil {
		return nil, err
	}
	headers := tables.Set("GameHeader")
	ids := make([]string, 0, len(headers))
	seen := make(map[string]bool, len(headers))
	for _, row := range headers {
		id, err := preprocess.ToStrOrNil(row["GAME_ID"])
		if err != nil || id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		ids = append(ids, *id)
	}
	return ids, nil
}

// ingestRefs pulls the league gamebooks of one date and upserts the parsed
// officials. The gamebook feed lags the games, so ids are filtered against
// games already loaded; unknown ids are warned and dropped.
func (o *Orchestrator) ingestRefs(ctx context.Context, res *Result, date time.Time) {
	results, err := o.facade.Refs(ctx, sources.GamebooksName, date)
	if errors.Is(err, sources.ErrUnsupported) {
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("date", date.Format("2006-01-02")).Msg("gamebook fetch failed")
		res.Failures++
		return
	}

	byGame := make(map[string]*sources.GamebookResult, len(results))
	var ids []string
	for i := range results {
		r := &results[i]
		if r.GameID == "" {
			log.Warn().Str("url", r.SourceURL).Msg("gamebook carries no game id, dropped")
			continue
		}
		byGame[r.GameID] = r
		ids = append(ids, r.GameID)
	}

	keep, warnings, err := o.validator.FilterGameIDs(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Msg("failed to filter gamebook game ids")
		return
	}
	for _, w := range warnings {
		log.Warn().Str("date", date.Format("2006-01-02")).Msg(w)
	}

	var refs []domain.RefereeAssignment
	var alts []domain.RefereeAlternate
	for _, gameID := range keep {
		r := byGame[gameID]
		for _, off := range r.Officials {
			refs = append(refs, domain.RefereeAssignment{
				GameID:       gameID,
				RefereeSlug:  transform.PlayerSlug(off.Name),
				RefereeName:  off.Name,
				Role:         off.Role,
				CrewPosition: off.CrewPosition,
			})
		}
		for _, name := range r.Alternates {
			alts = append(alts, domain.RefereeAlternate{
				GameID:      gameID,
				RefereeSlug: transform.PlayerSlug(name),
				RefereeName: name,
			})
		}
	}
	if len(refs) == 0 && len(alts) == 0 {
		return
	}
	if o.cfg.DryRun {
		log.Info().Int("officials", len(refs)).Int("alternates", len(alts)).Msg("dry run, referee rows not written")
		return
	}

	counts, err := o.store.UpsertReferees(ctx, refs, alts)
	if err != nil {
		log.Error().Err(err).Str("date", date.Format("2006-01-02")).Msg("failed to upsert referees")
		res.Failures++
		return
	}
	res.Counts.Merge(counts)
	for table, n := range counts {
		o.metrics.RowsUpserted.WithLabelValues(table).Add(float64(n))
	}
}

// ParseDateRange parses the CLI --date-range value: a single YYYY-MM-DD or
// "YYYY-MM-DD:YYYY-MM-DD".
func ParseDateRange(s string) (time.Time, time.Time, error) {
	parse := func(v string) (time.Time, error) { return time.Parse("2006-01-02", v) }
	if len(s) == 21 && s[10] == ':' {
		from, err := parse(s[:10])
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid date range %q: %w", s, err)
		}
		to, err := parse(s[11:])
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid date range %q: %w", s, err)
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("date range %q ends before it starts", s)
		}
		return from, to, nil
	}
	d, err := parse(s)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, d, nil
}
