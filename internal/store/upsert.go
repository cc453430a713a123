package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// UpsertSpec describes one table's diff-aware upsert. Keys are the conflict
// target; Cols are updated on conflict. Columns named in NoDiff are written
// but excluded from the change comparison, so bookkeeping columns like
// ingestion timestamps never force a rewrite of an otherwise-identical row.
type UpsertSpec struct {
	Table  string
	Keys   []string
	Cols   []string
	NoDiff []string
}

// SQL renders the named-parameter upsert statement. The WHERE clause makes
// the update a no-op when the incoming payload matches the stored row, which
// preserves row versions and fires no downstream change events.
func (s UpsertSpec) SQL() string {
	all := append(append([]string{}, s.Keys...), s.Cols...)

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(s.Table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(all, ", "))
	sb.WriteString(") VALUES (:")
	sb.WriteString(strings.Join(all, ", :"))
	sb.WriteString(") ON CONFLICT (")
	sb.WriteString(strings.Join(s.Keys, ", "))
	sb.WriteString(")")

	if len(s.Cols) == 0 {
		sb.WriteString(" DO NOTHING")
		return sb.String()
	}

	sb.WriteString(" DO UPDATE SET ")
	sets := make([]string, len(s.Cols))
	for i, c := range s.Cols {
		sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
	}
	sb.WriteString(strings.Join(sets, ", "))

	diffCols := s.diffCols()
	if len(diffCols) > 0 {
		sb.WriteString(" WHERE (")
		diffs := make([]string, len(diffCols))
		for i, c := range diffCols {
			diffs[i] = fmt.Sprintf("EXCLUDED.%s IS DISTINCT FROM %s.%s", c, s.Table, c)
		}
		sb.WriteString(strings.Join(diffs, " OR "))
		sb.WriteString(")")
	}
	return sb.String()
}

func (s UpsertSpec) diffCols() []string {
	skip := make(map[string]bool, len(s.NoDiff))
	for _, c := range s.NoDiff {
		skip[c] = true
	}
	out := make([]string, 0, len(s.Cols))
	for _, c := range s.Cols {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}

// upsertRows executes the spec over rows in batches, returning the number of
// rows actually written (unchanged rows fall out of the diff-aware WHERE and
// are not counted).
func upsertRows[T any](ctx context.Context, e sqlx.ExtContext, spec UpsertSpec, rows []T, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	query := spec.SQL()

	var total int64
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		res, err := sqlx.NamedExecContext(ctx, e, query, rows[start:end])
		if err != nil {
			return total, fmt.Errorf("failed to upsert into %s: %w", spec.Table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}

// Table specs, in parent-then-child load order.
var (
	gamesSpec = UpsertSpec{
		Table: "games",
		Keys:  []string{"game_id"},
		Cols: []string{"season", "game_time_utc", "local_date", "arena_tz",
			"home_tricode", "away_tricode", "status", "period",
			"source", "source_url", "ingested_at_utc"},
		NoDiff: []string{"ingested_at_utc"},
	}
	crosswalkSpec = UpsertSpec{
		Table: "game_id_crosswalk",
		Keys:  []string{"game_id"},
		Cols:  []string{"bref_game_id"},
	}
	refereesSpec = UpsertSpec{
		Table: "referee_assignments",
		Keys:  []string{"game_id", "referee_slug"},
		Cols:  []string{"referee_name", "role", "crew_position"},
	}
	alternatesSpec = UpsertSpec{
		Table: "referee_alternates",
		Keys:  []string{"game_id", "referee_slug"},
		Cols:  []string{"referee_name"},
	}
	lineupsSpec = UpsertSpec{
		Table: "starting_lineups",
		Keys:  []string{"game_id", "team_tricode", "player_slug"},
		Cols:  []string{"player_id", "position"},
	}
	injuriesSpec = UpsertSpec{
		Table: "injury_snapshots",
		Keys:  []string{"game_id", "team_tricode", "player_slug", "observed_at"},
		Cols:  []string{"status", "detail"},
	}
	pbpSpec = UpsertSpec{
		Table: "pbp_events",
		Keys:  []string{"game_id", "period", "event_idx"},
		Cols: []string{"clock_remaining", "clock_ms", "seconds_elapsed",
			"home_score", "away_score", "event_type", "event_subtype",
			"description", "player1_slug", "player1_id", "player2_slug",
			"player2_id", "player3_slug", "player3_id", "team_tricode",
			"shot_made", "shot_value", "shot_type", "shot_zone",
			"shot_distance_ft", "shot_x", "shot_y", "is_transition",
			"is_early_clock", "shot_clock_secs", "possession_team"},
	}
	teamStatsSpec = UpsertSpec{
		Table: "team_game_stats",
		Keys:  []string{"game_id", "team_tricode"},
		Cols: []string{"pts", "fgm", "fga", "fg3m", "fg3a", "ftm", "fta",
			"oreb", "dreb", "ast", "stl", "blk", "tov", "pf", "q1_pts",
			"off_rating", "def_rating", "pace", "usage_pct"},
	}
	playerStatsSpec = UpsertSpec{
		Table: "player_game_stats",
		Keys:  []string{"game_id", "team_tricode", "player_slug"},
		Cols: []string{"player_id", "minutes_secs", "pts", "fgm", "fga",
			"fg3m", "fg3a", "ftm", "fta", "oreb", "dreb", "ast", "stl",
			"blk", "tov", "pf", "plus_minus", "usage_pct"},
	}
	outcomesSpec = UpsertSpec{
		Table: "outcomes",
		Keys:  []string{"game_id"},
		Cols: []string{"home_final", "away_final", "home_q1", "away_q1",
			"margin", "ot_count", "winner_tricode"},
	}
	q1WindowsSpec = UpsertSpec{
		Table: "q1_windows",
		Keys:  []string{"game_id"},
		Cols: []string{"possessions", "pace_per48", "expected_pace_per48",
			"home_efg_pct", "away_efg_pct", "home_to_rate", "away_to_rate",
			"home_ft_rate", "away_ft_rate", "home_oreb_pct", "away_oreb_pct",
			"home_dreb_pct", "away_dreb_pct", "home_bonus_secs",
			"away_bonus_secs", "transition_rate", "early_clock_rate"},
	}
	earlyShocksSpec = UpsertSpec{
		Table: "early_shocks",
		Keys:  []string{"game_id", "shock_type", "period", "seconds_elapsed", "player_slug"},
		Cols: []string{"team_tricode", "sequence_number", "event_idx_start",
			"event_idx_end", "immediate_sub", "possessions_since"},
	}
	scheduleTravelSpec = UpsertSpec{
		Table: "schedule_travel",
		Keys:  []string{"game_id", "team_tricode"},
		Cols: []string{"back_to_back", "three_in_four", "five_in_seven",
			"days_rest", "tz_shift_hours", "circadian_index",
			"altitude_delta_m", "distance_km", "prev_venue_lat", "prev_venue_lon"},
	}
	checkpointSpec = UpsertSpec{
		Table:  "pipeline_state",
		Keys:   []string{"pipeline_name", "key", "step"},
		Cols:   []string{"status", "started_at", "completed_at", "error_message"},
		NoDiff: []string{"started_at", "completed_at"},
	}
)
