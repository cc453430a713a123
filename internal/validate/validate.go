// Package validate runs the batch data-quality checks over recently ingested
// rows and provides the pre-insert FK filter used by derived loaders.
// Checks report issues; they never modify data.
package validate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Issue is one offending row or relationship found by a check.
type Issue struct {
	Check  string `json:"check"`
	Table  string `json:"table"`
	Key    string `json:"key"`
	Detail string `json:"detail"`
}

// Result is the outcome of one named check.
type Result struct {
	Check       string        `json:"check"`
	Passed      bool          `json:"passed"`
	RowsChecked int           `json:"rows_checked"`
	Issues      []Issue       `json:"issues,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Validator runs checks against the canonical tables.
type Validator struct {
	db      *sqlx.DB
	timeout time.Duration
}

// New builds a validator.
func New(db *sqlx.DB) *Validator {
	return &Validator{db: db, timeout: 60 * time.Second}
}

// childTables carry a game_id foreign key into games.
var childTables = []string{
	"game_id_crosswalk", "referee_assignments", "referee_alternates",
	"starting_lineups", "injury_snapshots", "pbp_events",
	"team_game_stats", "player_game_stats", "outcomes",
	"q1_windows", "early_shocks", "schedule_travel",
}

// RunAll executes every check over rows touching games ingested since the
// cutoff and returns one result per check.
func (v *Validator) RunAll(ctx context.Context, since time.Time) ([]Result, error) {
	checks := []func(context.Context, time.Time) (Result, error){
		v.FKValidity,
		v.Uniqueness,
		v.PBPMonotonicity,
		v.Completeness,
		v.Freshness,
		v.CrossTableConsistency,
	}
	results := make([]Result, 0, len(checks))
	for _, check := range checks {
		res, err := check(ctx, since)
		if err != nil {
			return results, err
		}
		log.Info().
			Str("check", res.Check).
			Bool("passed", res.Passed).
			Int("issues", len(res.Issues)).
			Msg("validation check finished")
		results = append(results, res)
	}
	return results, nil
}

// FKValidity verifies that every child-table game_id resolves in games.
func (v *Validator) FKValidity(ctx context.Context, since time.Time) (Result, error) {
	start := time.Now()
	res := Result{Check: "fk_validity", Passed: true}

	for _, table := range childTables {
		ctx, cancel := context.WithTimeout(ctx, v.timeout)
		var orphans []string
		query := fmt.Sprintf(`
			SELECT DISTINCT c.game_id FROM %s c
			LEFT JOIN games g ON g.game_id = c.game_id
			WHERE g.game_id IS NULL
			LIMIT 100`, table)
		err := v.db.SelectContext(ctx, &orphans, query)
		cancel()
		if err != nil {
			return res, fmt.Errorf("failed to check FKs on %s: %w", table, err)
		}
		for _, id := range orphans {
			res.Issues = append(res.Issues, Issue{
				Check: res.Check, Table: table, Key: id,
				Detail: "game_id not present in games",
			})
		}
		res.RowsChecked++
	}
	res.Passed = len(res.Issues) == 0
	res.Duration = time.Since(start)
	return res, nil
}

// Uniqueness verifies no duplicate bref ids and no official assigned twice
// to the same game.
func (v *Validator) Uniqueness(ctx context.Context, since time.Time) (Result, error) {
	start := time.Now()
	res := Result{Check: "uniqueness", Passed: true}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	var dupBRef []string
	err := v.db.SelectContext(ctx, &dupBRef, `
		SELECT bref_game_id FROM game_id_crosswalk
		WHERE bref_game_id IS NOT NULL
		GROUP BY bref_game_id HAVING COUNT(*) > 1`)
	if err != nil {
		return res, fmt.Errorf("failed to check bref uniqueness: %w", err)
	}
	for _, id := range dupBRef {
		res.Issues = append(res.Issues, Issue{
			Check: res.Check, Table: "game_id_crosswalk", Key: id,
			Detail: "bref_game_id maps to multiple games",
		})
	}

	var dupRefs []struct {
		GameID      string `db:"game_id"`
		RefereeSlug string `db:"referee_slug"`
	}
	err = v.db.SelectContext(ctx, &dupRefs, `
		SELECT game_id, referee_slug FROM referee_assignments
		GROUP BY game_id, referee_slug HAVING COUNT(*) > 1`)
	if err != nil {
		return res, fmt.Errorf("failed to check referee uniqueness: %w", err)
	}
	for _, d := range dupRefs {
		res.Issues = append(res.Issues, Issue{
			Check: res.Check, Table: "referee_assignments",
			Key:    d.GameID + "/" + d.RefereeSlug,
			Detail: "official assigned to the same game more than once",
		})
	}

	res.Passed = len(res.Issues) == 0
	res.Duration = time.Since(start)
	return res, nil
}

// Completeness reports the share of recent games carrying play-by-play, Q1
// scores, and outcomes, plus the fraction of events with timestamps.
func (v *Validator) Completeness(ctx context.Context, since time.Time) (Result, error) {
	start := time.Now()
	res := Result{Check: "completeness", Passed: true}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	var shares struct {
		Games    int `db:"games"`
		WithPBP  int `db:"with_pbp"`
		WithQ1   int `db:"with_q1"`
		WithOutc int `db:"with_outcome"`
	}
	err := v.db.GetContext(ctx, &shares, `
		SELECT COUNT(*) AS games,
		       COUNT(DISTINCT p.game_id) AS with_pbp,
		       COUNT(DISTINCT t.game_id) AS with_q1,
		       COUNT(DISTINCT o.game_id) AS with_outcome
		FROM games g
		LEFT JOIN pbp_events p ON p.game_id = g.game_id
		LEFT JOIN team_game_stats t ON t.game_id = g.game_id AND t.q1_pts IS NOT NULL
		LEFT JOIN outcomes o ON o.game_id = g.game_id
		WHERE g.ingested_at_utc >= $1`, since)
	if err != nil {
		return res, fmt.Errorf("failed to check completeness: %w", err)
	}
	res.RowsChecked = shares.Games

	if shares.Games > 0 {
		for name, n := range map[string]int{
			"pbp": shares.WithPBP, "q1 scores": shares.WithQ1, "outcomes": shares.WithOutc,
		} {
			if n < shares.Games {
				res.Issues = append(res.Issues, Issue{
					Check: res.Check, Table: "games",
					Detail: fmt.Sprintf("%d of %d recent games missing %s", shares.Games-n, shares.Games, name),
				})
			}
		}
	}
	// Completeness shares are informational: issues are reported but recent
	// partial ingests are expected mid-run.
	res.Duration = time.Since(start)
	return res, nil
}

// Freshness verifies the most recent ingestion is within the window.
func (v *Validator) Freshness(ctx context.Context, since time.Time) (Result, error) {
	start := time.Now()
	res := Result{Check: "freshness", Passed: true}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	var latest sql.NullTime
	if err := v.db.GetContext(ctx, &latest, "SELECT MAX(ingested_at_utc) FROM games"); err != nil {
		return res, fmt.Errorf("failed to check freshness: %w", err)
	}
	const window = 48 * time.Hour
	switch {
	case !latest.Valid:
		res.Issues = append(res.Issues, Issue{
			Check: res.Check, Table: "games", Detail: "no games ingested yet",
		})
	case time.Since(latest.Time) > window:
		res.Issues = append(res.Issues, Issue{
			Check: res.Check, Table: "games",
			Detail: fmt.Sprintf("last ingestion %s is older than %s", latest.Time.Format(time.RFC3339), window),
		})
	}
	res.Passed = len(res.Issues) == 0
	res.Duration = time.Since(start)
	return res, nil
}

// CrossTableConsistency verifies derived-table tricodes belong to their game.
func (v *Validator) CrossTableConsistency(ctx context.Context, since time.Time) (Result, error) {
	start := time.Now()
	res := Result{Check: "cross_table_consistency", Passed: true}

	for _, table := range []string{"early_shocks", "schedule_travel", "team_game_stats", "player_game_stats"} {
		ctx, cancel := context.WithTimeout(ctx, v.timeout)
		var bad []struct {
			GameID  string `db:"game_id"`
			Tricode string `db:"team_tricode"`
		}
		query := fmt.Sprintf(`
			SELECT d.game_id, d.team_tricode FROM %s d
			JOIN games g ON g.game_id = d.game_id
			WHERE d.team_tricode IS NOT NULL
			  AND d.team_tricode NOT IN (g.home_tricode, g.away_tricode)
			LIMIT 100`, table)
		err := v.db.SelectContext(ctx, &bad, query)
		cancel()
		if err != nil {
			return res, fmt.Errorf("failed to check tricodes on %s: %w", table, err)
		}
		for _, b := range bad {
			res.Issues = append(res.Issues, Issue{
				Check: res.Check, Table: table, Key: b.GameID,
				Detail: fmt.Sprintf("tricode %s is neither home nor away", b.Tricode),
			})
		}
	}
	res.Passed = len(res.Issues) == 0
	res.Duration = time.Since(start)
	return res, nil
}

// FilterGameIDs returns the subset of ids present in games, with one warning
// per dropped id. Derived loaders call this before inserting.
func (v *Validator) FilterGameIDs(ctx context.Context, ids []string) ([]string, []string, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	query, args, err := sqlx.In("SELECT game_id FROM games WHERE game_id IN (?)", ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to expand id filter: %w", err)
	}
	var found []string
	if err := v.db.SelectContext(ctx, &found, v.db.Rebind(query), args...); err != nil {
		return nil, nil, fmt.Errorf("failed to filter game ids: %w", err)
	}

	present := make(map[string]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	var keep, warnings []string
	for _, id := range ids {
		if present[id] {
			keep = append(keep, id)
		} else {
			warnings = append(warnings, fmt.Sprintf("game %s not in games, row dropped", id))
		}
	}
	return keep, warnings, nil
}
