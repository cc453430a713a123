package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtwire/courtwire/internal/derive"
	"github.com/courtwire/courtwire/internal/domain"
	"github.com/courtwire/courtwire/internal/store"
)

// DerivedTables are the table names the derive command accepts for --tables.
var DerivedTables = []string{"q1_windows", "early_shocks", "schedule_travel"}

// RunDerive recomputes derived analytics for every game in the date span.
// Per-game tables go through the completeness gate in the store; travel rows
// span whole schedules and load per team afterwards.
func (o *Orchestrator) RunDerive(ctx context.Context, from, to time.Time, tables []string) (*Result, error) {
	start := time.Now()
	res := newResult("derive")
	defer func() {
		o.metrics.PipelineRuns.WithLabelValues("derive").Observe(time.Since(start).Seconds())
	}()

	want := make(map[string]bool, len(tables))
	for _, t := range tables {
		want[t] = true
	}
	all := len(want) == 0
	seasons := make(map[string]bool)

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return res.finish(start, err), err
		}
		games, err := o.store.ListGamesByDate(ctx, d.Format("2006-01-02"))
		if err != nil {
			return res.finish(start, err), err
		}
		for i := range games {
			g := &games[i]
			seasons[g.Season] = true
			if !all && !want["q1_windows"] && !want["early_shocks"] {
				continue
			}
			if err := o.deriveGame(ctx, res, g, all, want); err != nil {
				log.Error().Err(err).Str("game_id", g.GameID).Msg("derive failed")
				res.Failures++
				res.FailedKeys = append(res.FailedKeys, g.GameID)
				continue
			}
			res.Successes++
		}
	}

	if all || want["schedule_travel"] {
		for season := range seasons {
			if err := o.deriveTravel(ctx, res, season); err != nil {
				log.Error().Err(err).Str("season", season).Msg("travel derivation failed")
				res.Failures++
			}
		}
	}
	return res.finish(start, nil), nil
}

func (o *Orchestrator) deriveGame(ctx context.Context, res *Result, g *domain.Game, all bool, want map[string]bool) error {
	events, err := o.store.ListEvents(ctx, g.GameID)
	if err != nil {
		return err
	}

	bundle := &store.DerivedBundle{}
	if all || want["q1_windows"] {
		bundle.Window = derive.Q1Window(g, events)
	}
	if all || want["early_shocks"] {
		bundle.Shocks = derive.EarlyShocks(g, events, derive.DefaultShockConfig())
	}

	if o.cfg.DryRun {
		return nil
	}
	counts, err := o.store.LoadDerived(ctx, g.GameID, bundle)
	if err != nil {
		return err
	}
	res.Counts.Merge(counts)
	for table, n := range counts {
		o.metrics.RowsUpserted.WithLabelValues(table).Add(float64(n))
	}
	return nil
}

// deriveTravel recomputes rest and travel rows for every team of one season.
// Rows are FK-filtered before the upsert because a schedule can reference
// games the span has not ingested yet; the store then drops rows whose game
// fails the completeness gate, so the rest arithmetic still sees the full
// schedule while only complete games are written.
func (o *Orchestrator) deriveTravel(ctx context.Context, res *Result, season string) error {
	teams, err := o.store.SeasonTricodes(ctx, season)
	if err != nil {
		return err
	}

	for _, team := range teams {
		if err := ctx.Err(); err != nil {
			return err
		}
		schedule, err := o.store.TeamSchedule(ctx, team, season)
		if err != nil {
			return err
		}
		stops, err := o.travelStops(schedule)
		if err != nil {
			return fmt.Errorf("team %s: %w", team, err)
		}
		rows, err := derive.ScheduleTravel(team, stops)
		if err != nil {
			return fmt.Errorf("team %s: %w", team, err)
		}
		if len(rows) == 0 {
			continue
		}

		ids := make([]string, len(rows))
		for i, r := range rows {
			ids[i] = r.GameID
		}
		keep, warnings, err := o.validator.FilterGameIDs(ctx, ids)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			log.Warn().Str("team", team).Msg(w)
		}
		present := make(map[string]bool, len(keep))
		for _, id := range keep {
			present[id] = true
		}
		filtered := rows[:0]
		for _, r := range rows {
			if present[r.GameID] {
				filtered = append(filtered, r)
			}
		}

		if o.cfg.DryRun || len(filtered) == 0 {
			continue
		}
		n, err := o.store.UpsertTravel(ctx, filtered)
		if err != nil {
			return err
		}
		res.Counts["schedule_travel"] += n
		o.metrics.RowsUpserted.WithLabelValues("schedule_travel").Add(float64(n))
	}
	return nil
}

// travelStops annotates a team's schedule with the venue each game was played
// in; the venue is always the home side's arena.
func (o *Orchestrator) travelStops(schedule []domain.Game) ([]derive.GameStop, error) {
	stops := make([]derive.GameStop, 0, len(schedule))
	for _, g := range schedule {
		venue, ok := o.tr.Venues().ByTricode(o.tr.Aliases(), g.HomeTricode)
		if !ok {
			return nil, fmt.Errorf("no venue for home team %s", g.HomeTricode)
		}
		localDate, err := time.Parse("2006-01-02", g.LocalDate)
		if err != nil {
			return nil, fmt.Errorf("game %s has malformed local date %q", g.GameID, g.LocalDate)
		}

		localHour := -1
		if g.GameTimeUTC != nil {
			if loc, err := time.LoadLocation(g.ArenaTZ); err == nil {
				localHour = g.GameTimeUTC.In(loc).Hour()
			}
		}
		stops = append(stops, derive.GameStop{
			GameID:    g.GameID,
			LocalDate: localDate,
			LocalHour: localHour,
			Venue:     venue,
		})
	}
	return stops, nil
}
