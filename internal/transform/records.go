package transform

import (
	"fmt"
	"time"

	"github.com/courtwire/courtwire/internal/domain"
	"github.com/courtwire/courtwire/internal/preprocess"
)

// Lineup builds a starting-lineup row.
func (t *Transformer) Lineup(source, gameID string, row preprocess.Row) (*domain.StartingLineup, error) {
	team, err := t.resolveTeam(source, row, "TEAM")
	if err != nil {
		return nil, err
	}
	name, err := requireStr(row, "PLAYER_NAME")
	if err != nil {
		return nil, err
	}
	position, _ := optStr(row, "POSITION")
	pos := ""
	if position != nil {
		pos = *position
	}
	playerID, _ := optInt(row, "PLAYER_ID")
	return &domain.StartingLineup{
		GameID:      gameID,
		TeamTricode: team,
		PlayerSlug:  PlayerSlug(name),
		PlayerID:    playerID,
		Position:    pos,
	}, nil
}

// TeamStats builds a per-team stat line from a boxscore row.
func (t *Transformer) TeamStats(source, gameID string, row preprocess.Row) (*domain.TeamGameStats, error) {
	team, err := t.resolveTeam(source, row, "TEAM")
	if err != nil {
		return nil, err
	}
	s := &domain.TeamGameStats{GameID: gameID, TeamTricode: team}
	var errs []error
	s.Points = statInt(row, "PTS", &errs)
	s.FGM = statInt(row, "FGM", &errs)
	s.FGA = statInt(row, "FGA", &errs)
	s.FG3M = statInt(row, "FG3M", &errs)
	s.FG3A = statInt(row, "FG3A", &errs)
	s.FTM = statInt(row, "FTM", &errs)
	s.FTA = statInt(row, "FTA", &errs)
	s.OREB = statInt(row, "OREB", &errs)
	s.DREB = statInt(row, "DREB", &errs)
	s.AST = statInt(row, "AST", &errs)
	s.STL = statInt(row, "STL", &errs)
	s.BLK = statInt(row, "BLK", &errs)
	s.TOV = statInt(row, "TOV", &errs)
	s.PF = statInt(row, "PF", &errs)
	s.Q1Points = statInt(row, "Q1_PTS", &errs)
	s.OffRating = statFloat(row, "OFF_RATING", &errs)
	s.DefRating = statFloat(row, "DEF_RATING", &errs)
	s.Pace = statFloat(row, "PACE", &errs)
	s.UsagePct = statFloat(row, "USG_PCT", &errs)
	if len(errs) > 0 {
		return nil, fmt.Errorf("team stats for %s: %v", team, errs[0])
	}
	return s, nil
}

// PlayerStats builds a per-player stat line from a boxscore row.
func (t *Transformer) PlayerStats(source, gameID string, row preprocess.Row) (*domain.PlayerGameStats, error) {
	team, err := t.resolveTeam(source, row, "TEAM")
	if err != nil {
		return nil, err
	}
	name, err := requireStr(row, "PLAYER_NAME")
	if err != nil {
		return nil, err
	}
	s := &domain.PlayerGameStats{
		GameID:      gameID,
		TeamTricode: team,
		PlayerSlug:  PlayerSlug(name),
	}
	var errs []error
	s.PlayerID = statInt(row, "PLAYER_ID", &errs)
	s.MinutesSecs = statInt(row, "MIN_SECS", &errs)
	s.Points = statInt(row, "PTS", &errs)
	s.FGM = statInt(row, "FGM", &errs)
	s.FGA = statInt(row, "FGA", &errs)
	s.FG3M = statInt(row, "FG3M", &errs)
	s.FG3A = statInt(row, "FG3A", &errs)
	s.FTM = statInt(row, "FTM", &errs)
	s.FTA = statInt(row, "FTA", &errs)
	s.OREB = statInt(row, "OREB", &errs)
	s.DREB = statInt(row, "DREB", &errs)
	s.AST = statInt(row, "AST", &errs)
	s.STL = statInt(row, "STL", &errs)
	s.BLK = statInt(row, "BLK", &errs)
	s.TOV = statInt(row, "TOV", &errs)
	s.PF = statInt(row, "PF", &errs)
	s.PlusMinus = statInt(row, "PLUS_MINUS", &errs)
	s.UsagePct = statFloat(row, "USG_PCT", &errs)
	if len(errs) > 0 {
		return nil, fmt.Errorf("player stats for %s: %v", s.PlayerSlug, errs[0])
	}
	return s, nil
}

// Outcome builds the final result line from home/away team stat lines.
func Outcome(game *domain.Game, home, away *domain.TeamGameStats) (*domain.Outcome, error) {
	if home.Points == nil || away.Points == nil {
		return nil, fmt.Errorf("outcome for %s requires final scores", game.GameID)
	}
	o := &domain.Outcome{
		GameID:    game.GameID,
		HomeFinal: *home.Points,
		AwayFinal: *away.Points,
		HomeQ1:    home.Q1Points,
		AwayQ1:    away.Q1Points,
		Margin:    *home.Points - *away.Points,
	}
	if game.Period > 4 {
		o.OTCount = game.Period - 4
	}
	if o.Margin >= 0 {
		o.WinnerTri = game.HomeTricode
	} else {
		o.WinnerTri = game.AwayTricode
	}
	return o, nil
}

// Injury builds an injury snapshot row.
func (t *Transformer) Injury(source, gameID string, observedAt time.Time, row preprocess.Row) (*domain.InjurySnapshot, error) {
	team, err := t.resolveTeam(source, row, "TEAM")
	if err != nil {
		return nil, err
	}
	name, err := requireStr(row, "PLAYER_NAME")
	if err != nil {
		return nil, err
	}
	status, err := requireStr(row, "INJURY_STATUS")
	if err != nil {
		return nil, err
	}
	detail, _ := optStr(row, "DETAIL")
	return &domain.InjurySnapshot{
		GameID:      gameID,
		TeamTricode: team,
		PlayerSlug:  PlayerSlug(name),
		Status:      status,
		Detail:      detail,
		ObservedAt:  observedAt.UTC(),
	}, nil
}

func statInt(row preprocess.Row, field string, errs *[]error) *int {
	n, err := optInt(row, field)
	if err != nil {
		*errs = append(*errs, err)
		return nil
	}
	return n
}

func statFloat(row preprocess.Row, field string, errs *[]error) *float64 {
	f, err := optFloat(row, field)
	if err != nil {
		*errs = append(*errs, err)
		return nil
	}
	return f
}
