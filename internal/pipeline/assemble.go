package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtwire/courtwire/internal/domain"
	"github.com/courtwire/courtwire/internal/extract"
	"github.com/courtwire/courtwire/internal/preprocess"
	"github.com/courtwire/courtwire/internal/sources"
	"github.com/courtwire/courtwire/internal/store"
	"github.com/courtwire/courtwire/internal/transform"
)

// nbaStatsInputs are the raw table sets one game needs from stats.nba.com.
// Shots are optional; the bundle degrades without them.
type nbaStatsInputs struct {
	Boxscore *extract.Tables
	PBP      *extract.Tables
	Shots    *extract.Tables
}

// assembleNBAStats maps the vendor result sets of one game onto the canonical
// row vocabulary and runs them through the transformer. The vendor keeps its
// own column names (EVENTNUM, PCTIMESTRING, TO); everything downstream of
// this function only sees canonical fields.
func (o *Orchestrator) assembleNBAStats(gameID string, in nbaStatsInputs) (*store.GameBundle, error) {
	summaries := in.Boxscore.Set("GameSummary")
	if len(summaries) == 0 {
		return nil, fmt.Errorf("boxscore for %s has no GameSummary rows", gameID)
	}
	summary := summaries[0]
	lineScores := in.Boxscore.Set("LineScore")

	homeTri, err := tricodeForTeamID(lineScores, summary["HOME_TEAM_ID"])
	if err != nil {
		return nil, fmt.Errorf("home team for %s: %w", gameID, err)
	}
	awayTri, err := tricodeForTeamID(lineScores, summary["VISITOR_TEAM_ID"])
	if err != nil {
		return nil, fmt.Errorf("away team for %s: %w", gameID, err)
	}

	gameRow := preprocess.Normalize(preprocess.Row{
		"GAME_ID":     summary["GAME_ID"],
		"HOME_TEAM":   homeTri,
		"AWAY_TEAM":   awayTri,
		"GAME_STATUS": summary["GAME_STATUS_ID"],
		"PERIOD":      summary["LIVE_PERIOD"],
		"LOCAL_DATE":  dateOnly(summary["GAME_DATE_EST"]),
		"SOURCE_URL":  "stats.nba.com/stats/boxscoresummaryv2?GameID=" + gameID,
	}, o.metrics)
	game, err := o.tr.Game(sources.NBAStatsName, gameRow)
	if err != nil {
		return nil, fmt.Errorf("failed to transform game %s: %w", gameID, err)
	}

	bundle := &store.GameBundle{
		Game: game,
		Crosswalk: &domain.GameIDCrosswalk{
			GameID:     gameID,
			BRefGameID: strPtrOf(brefGameID(game.LocalDate, game.HomeTricode)),
		},
	}

	q1ByTricode, err := q1Points(lineScores)
	if err != nil {
		return nil, fmt.Errorf("line score for %s: %w", gameID, err)
	}
	for _, raw := range in.Boxscore.Set("TeamStats") {
		row := teamStatRow(raw)
		if tri, ok := raw["TEAM_ABBREVIATION"].(string); ok {
			if q1, found := q1ByTricode[tri]; found {
				row["Q1_PTS"] = q1
			}
		}
		ts, err := o.tr.TeamStats(sources.NBAStatsName, gameID, preprocess.Normalize(row, o.metrics))
		if err != nil {
			return nil, err
		}
		bundle.TeamStats = append(bundle.TeamStats, *ts)
	}

	observedAt := time.Now().UTC()
	for _, raw := range in.Boxscore.Set("PlayerStats") {
		row := playerStatRow(raw)
		normalized := preprocess.Normalize(row, o.metrics)
		ps, err := o.tr.PlayerStats(sources.NBAStatsName, gameID, normalized)
		if err != nil {
			return nil, err
		}
		bundle.PlayerStats = append(bundle.PlayerStats, *ps)

		if pos, ok := raw["START_POSITION"].(string); ok && pos != "" {
			lineupRow := preprocess.Row{
				"TEAM":        raw["TEAM_ABBREVIATION"],
				"PLAYER_NAME": raw["PLAYER_NAME"],
				"PLAYER_ID":   raw["PLAYER_ID"],
				"POSITION":    pos,
			}
			lu, err := o.tr.Lineup(sources.NBAStatsName, gameID, lineupRow)
			if err != nil {
				return nil, err
			}
			bundle.Lineups = append(bundle.Lineups, *lu)
		}

		if inj := injuryRow(raw); inj != nil {
			snap, err := o.tr.Injury(sources.NBAStatsName, gameID, observedAt, inj)
			if err != nil {
				return nil, err
			}
			bundle.Injuries = append(bundle.Injuries, *snap)
		}
	}

	shotsByEvent := indexShots(in.Shots)
	for _, raw := range in.PBP.Set("PlayByPlay") {
		row, err := pbpRow(raw, shotsByEvent)
		if err != nil {
			return nil, fmt.Errorf("pbp for %s: %w", gameID, err)
		}
		ev, err := o.tr.PBPEvent(sources.NBAStatsName, gameID, preprocess.Normalize(row, o.metrics))
		if err != nil {
			return nil, err
		}
		bundle.Events = append(bundle.Events, *ev)
	}

	if game.Status == domain.StatusFinal {
		home, away := teamStatsFor(bundle.TeamStats, game.HomeTricode), teamStatsFor(bundle.TeamStats, game.AwayTricode)
		if home != nil && away != nil {
			outcome, err := transform.Outcome(game, home, away)
			if err != nil {
				log.Warn().Err(err).Str("game_id", gameID).Msg("final game without an outcome line")
			} else {
				bundle.Outcome = outcome
			}
		}
	}
	return bundle, nil
}

// teamStatRow renames the traditional-boxscore team columns to canonical ones.
func teamStatRow(raw preprocess.Row) preprocess.Row {
	row := preprocess.Row{"TEAM": raw["TEAM_ABBREVIATION"]}
	for _, k := range []string{"PTS", "FGM", "FGA", "FG3M", "FG3A", "FTM", "FTA", "OREB", "DREB", "AST", "STL", "BLK", "PF"} {
		row[k] = raw[k]
	}
	row["TOV"] = raw["TO"] // the vendor names turnovers TO
	return row
}

func playerStatRow(raw preprocess.Row) preprocess.Row {
	row := preprocess.Row{
		"TEAM":        raw["TEAM_ABBREVIATION"],
		"PLAYER_NAME": raw["PLAYER_NAME"],
		"PLAYER_ID":   raw["PLAYER_ID"],
	}
	for _, k := range []string{"PTS", "FGM", "FGA", "FG3M", "FG3A", "FTM", "FTA", "OREB", "DREB", "AST", "STL", "BLK", "PF", "PLUS_MINUS"} {
		row[k] = raw[k]
	}
	row["TOV"] = raw["TO"]
	if secs := minutesToSecs(raw["MIN"]); secs != nil {
		row["MIN_SECS"] = *secs
	}
	return row
}

// injuryRow turns a DNP comment into an injury-snapshot row, or nil when the
// comment is absent or not injury-shaped ("DNP - Coach's Decision" is not an
// injury).
func injuryRow(raw preprocess.Row) preprocess.Row {
	comment, ok := raw["COMMENT"].(string)
	if !ok {
		return nil
	}
	comment = strings.TrimSpace(comment)
	if comment == "" || !strings.Contains(strings.ToLower(comment), "injury") &&
		!strings.Contains(strings.ToLower(comment), "illness") {
		return nil
	}
	parts := strings.SplitN(comment, "-", 2)
	status := strings.TrimSpace(parts[0])
	row := preprocess.Row{
		"TEAM":          raw["TEAM_ABBREVIATION"],
		"PLAYER_NAME":   raw["PLAYER_NAME"],
		"INJURY_STATUS": status,
	}
	if len(parts) == 2 {
		row["DETAIL"] = strings.TrimSpace(parts[1])
	}
	return row
}

// pbpRow maps one playbyplayv2 row, merging shot-chart detail when the event
// has one. LOC_X/LOC_Y arrive in tenths of feet.
func pbpRow(raw preprocess.Row, shots map[int]preprocess.Row) (preprocess.Row, error) {
	row := preprocess.Row{
		"PERIOD":       raw["PERIOD"],
		"EVENT_IDX":    raw["EVENTNUM"],
		"EVENTMSGTYPE": raw["EVENTMSGTYPE"],
		"CLOCK":        raw["PCTIMESTRING"],
		"DESCRIPTION":  firstDescription(raw),
		"PLAYER1_NAME": raw["PLAYER1_NAME"],
		"PLAYER1_ID":   raw["PLAYER1_ID"],
		"PLAYER2_NAME": raw["PLAYER2_NAME"],
		"PLAYER2_ID":   raw["PLAYER2_ID"],
		"PLAYER3_NAME": raw["PLAYER3_NAME"],
		"PLAYER3_ID":   raw["PLAYER3_ID"],
		"TEAM":         raw["PLAYER1_TEAM_ABBREVIATION"],
	}
	for k, v := range row {
		if v == nil {
			delete(row, k)
		}
	}

	if s, ok := raw["SCORE"].(string); ok && s != "" {
		away, home, err := parseScore(s)
		if err != nil {
			return nil, err
		}
		row["AWAY_SCORE"], row["HOME_SCORE"] = away, home
	}

	eventNum, err := preprocess.ToIntOrNil(raw["EVENTNUM"])
	if err == nil && eventNum != nil {
		if shot, ok := shots[*eventNum]; ok {
			if x, err := preprocess.ToFloatOrNil(shot["LOC_X"]); err == nil && x != nil {
				row["SHOT_X"] = *x / 10
			}
			if y, err := preprocess.ToFloatOrNil(shot["LOC_Y"]); err == nil && y != nil {
				row["SHOT_Y"] = *y / 10
			}
			row["SHOT_DISTANCE"] = shot["SHOT_DISTANCE"]
			row["SHOT_MADE"] = shot["SHOT_MADE_FLAG"]
			if action, ok := shot["ACTION_TYPE"].(string); ok {
				row["SHOT_TYPE"] = action
			}
		}
	}
	return row, nil
}

func indexShots(shots *extract.Tables) map[int]preprocess.Row {
	rows := shots.Set("Shot_Chart_Detail")
	out := make(map[int]preprocess.Row, len(rows))
	for _, r := range rows {
		if n, err := preprocess.ToIntOrNil(r["GAME_EVENT_ID"]); err == nil && n != nil {
			out[*n] = r
		}
	}
	return out
}

// firstDescription collapses the three per-side description columns; at most
// one is populated per event.
func firstDescription(raw preprocess.Row) any {
	for _, k := range []string{"HOMEDESCRIPTION", "VISITORDESCRIPTION", "NEUTRALDESCRIPTION"} {
		if s, ok := raw[k].(string); ok && s != "" {
			return s
		}
	}
	return nil
}

// parseScore splits the vendor running score "AWAY - HOME".
func parseScore(s string) (int, int, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed score %q", s)
	}
	away, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed score %q", s)
	}
	home, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed score %q", s)
	}
	return away, home, nil
}

// minutesToSecs parses the vendor minutes column. Seen shapes: "34:12",
// "34.000000:12", and null for players who did not appear.
func minutesToSecs(v any) *int {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	parts := strings.SplitN(s, ":", 2)
	mins, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil
	}
	secs := int(mins) * 60
	if len(parts) == 2 {
		if extra, err := strconv.Atoi(parts[1]); err == nil {
			secs += extra
		}
	}
	return &secs
}

// tricodeForTeamID resolves a summary team id against the line-score rows.
func tricodeForTeamID(lineScores []preprocess.Row, teamID any) (string, error) {
	want, err := preprocess.ToIntOrNil(teamID)
	if err != nil || want == nil {
		return "", fmt.Errorf("missing team id")
	}
	for _, row := range lineScores {
		got, err := preprocess.ToIntOrNil(row["TEAM_ID"])
		if err != nil || got == nil || *got != *want {
			continue
		}
		if tri, ok := row["TEAM_ABBREVIATION"].(string); ok && tri != "" {
			return tri, nil
		}
	}
	return "", fmt.Errorf("team id %d not in line score", *want)
}

// q1Points maps tricode to first-quarter points from the line-score rows.
func q1Points(lineScores []preprocess.Row) (map[string]int, error) {
	out := make(map[string]int, len(lineScores))
	for _, row := range lineScores {
		tri, ok := row["TEAM_ABBREVIATION"].(string)
		if !ok || tri == "" {
			continue
		}
		q1, err := preprocess.ToIntOrNil(row["PTS_QTR1"])
		if err != nil {
			return nil, fmt.Errorf("team %s: %w", tri, err)
		}
		if q1 != nil {
			out[tri] = *q1
		}
	}
	return out, nil
}

func teamStatsFor(stats []domain.TeamGameStats, tricode string) *domain.TeamGameStats {
	for i := range stats {
		if stats[i].TeamTricode == tricode {
			return &stats[i]
		}
	}
	return nil
}

// dateOnly trims "2024-01-15T00:00:00" down to the calendar date.
func dateOnly(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if i := strings.IndexByte(s, 'T'); i > 0 {
		return s[:i]
	}
	return s
}

// brefGameID derives the basketball-reference id from the arena-local date
// and home tricode: "2024-01-15" + "BOS" → "202401150BOS".
func brefGameID(localDate, homeTricode string) string {
	return strings.ReplaceAll(localDate, "-", "") + "0" + homeTricode
}

func strPtrOf(s string) *string { return &s }
