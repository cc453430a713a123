package transform

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/courtwire/courtwire/internal/domain"
	"github.com/courtwire/courtwire/internal/preprocess"
)

// PBPEvent builds a canonical play-by-play event from a preprocessed row.
// Rows reach this point with EVENT_TYPE already mapped to a canonical token.
func (t *Transformer) PBPEvent(source, gameID string, row preprocess.Row) (*domain.PBPEvent, error) {
	period, err := requireInt(row, "PERIOD")
	if err != nil {
		return nil, err
	}
	eventIdx, err := requireInt(row, "EVENT_IDX")
	if err != nil {
		return nil, err
	}
	eventType, err := requireStr(row, "EVENT_TYPE")
	if err != nil {
		return nil, err
	}

	ev := &domain.PBPEvent{
		GameID:    gameID,
		Period:    period,
		EventIdx:  eventIdx,
		EventType: eventType,
	}

	if clock, _ := optStr(row, "CLOCK"); clock != nil {
		ms, err := domain.ParseClockMS(*clock)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", eventIdx, err)
		}
		elapsed, flipped := domain.SecondsElapsed(period, ms)
		if flipped {
			log.Warn().
				Str("game_id", gameID).
				Int("period", period).
				Int("event_idx", eventIdx).
				Str("clock", *clock).
				Msg("clock exceeds period length, elapsed flipped")
		}
		ev.ClockRemaining = *clock
		ev.ClockMS = &ms
		ev.SecondsElapsed = &elapsed
	}

	ev.EventSubtype, _ = optStr(row, "EVENT_SUBTYPE")
	ev.Description, _ = optStr(row, "DESCRIPTION")
	ev.HomeScore, _ = optInt(row, "HOME_SCORE")
	ev.AwayScore, _ = optInt(row, "AWAY_SCORE")

	for i, pair := range []struct{ slug, id string }{
		{"PLAYER1_NAME", "PLAYER1_ID"},
		{"PLAYER2_NAME", "PLAYER2_ID"},
		{"PLAYER3_NAME", "PLAYER3_ID"},
	} {
		name, _ := optStr(row, pair.slug)
		var slug *string
		if name != nil {
			s := PlayerSlug(*name)
			slug = &s
		}
		id, _ := optInt(row, pair.id)
		switch i {
		case 0:
			ev.Player1Slug, ev.Player1ID = slug, id
		case 1:
			ev.Player2Slug, ev.Player2ID = slug, id
		case 2:
			ev.Player3Slug, ev.Player3ID = slug, id
		}
	}

	if rawTeam, _ := optStr(row, "TEAM"); rawTeam != nil {
		canon, err := t.aliases.Resolve(source, *rawTeam)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", eventIdx, err)
		}
		ev.TeamTricode = &canon
	}

	if eventType == "shot" {
		t.applyShot(ev, row)
	}

	ev.IsTransition, _ = optBool(row, "IS_TRANSITION")
	ev.IsEarlyClock, _ = optBool(row, "IS_EARLY_CLOCK")
	ev.ShotClockSecs, _ = optFloat(row, "SHOT_CLOCK_SECS")
	if poss, _ := optStr(row, "POSSESSION_TEAM"); poss != nil {
		if canon, err := t.aliases.Resolve(source, *poss); err == nil {
			ev.PossessionTeam = &canon
		}
	}

	return ev, nil
}

func (t *Transformer) applyShot(ev *domain.PBPEvent, row preprocess.Row) {
	desc := ""
	if ev.Description != nil {
		desc = *ev.Description
	}

	// Made/missed comes from the vendor result when present; otherwise a
	// "MISS" prefix in the description decides.
	made, _ := optBool(row, "SHOT_MADE")
	if made == nil {
		missed := strings.HasPrefix(strings.ToUpper(strings.TrimSpace(desc)), "MISS")
		v := !missed
		made = &v
	}
	ev.ShotMade = made

	value := ShotValue(desc)
	ev.ShotValue = &value

	ev.ShotType, _ = optStr(row, "SHOT_TYPE")
	ev.ShotDistance, _ = optFloat(row, "SHOT_DISTANCE")
	ev.ShotX, _ = optFloat(row, "SHOT_X")
	ev.ShotY, _ = optFloat(row, "SHOT_Y")

	if ev.ShotX != nil && ev.ShotY != nil && ev.ShotDistance != nil {
		zone := ShotZone(*ev.ShotX, *ev.ShotY, *ev.ShotDistance)
		ev.ShotZone = &zone
	}
}

func requireInt(row preprocess.Row, field string) (int, error) {
	n, err := optInt(row, field)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return 0, fmt.Errorf("missing required field %s", field)
	}
	return *n, nil
}

func optInt(row preprocess.Row, field string) (*int, error) {
	v, ok := row[field]
	if !ok {
		return nil, nil
	}
	n, err := preprocess.ToIntOrNil(v)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", field, err)
	}
	return n, nil
}

func optFloat(row preprocess.Row, field string) (*float64, error) {
	v, ok := row[field]
	if !ok {
		return nil, nil
	}
	f, err := preprocess.ToFloatOrNil(v)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", field, err)
	}
	return f, nil
}

func optBool(row preprocess.Row, field string) (*bool, error) {
	v, ok := row[field]
	if !ok {
		return nil, nil
	}
	b, err := preprocess.ToBoolOrNil(v)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", field, err)
	}
	return b, nil
}
