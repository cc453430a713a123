package transform

import (
	"fmt"
	"time"

	"github.com/courtwire/courtwire/internal/domain"
	"github.com/courtwire/courtwire/internal/preprocess"
	"github.com/courtwire/courtwire/internal/refdata"
)

// Transformer builds canonical records from preprocessed rows. One instance
// per pipeline; it only holds reference data and is safe for concurrent use.
type Transformer struct {
	aliases *refdata.AliasTable
	venues  *refdata.VenueTable
}

// New creates a transformer over the loaded reference tables.
func New(aliases *refdata.AliasTable, venues *refdata.VenueTable) *Transformer {
	return &Transformer{aliases: aliases, venues: venues}
}

// Aliases exposes the alias table for callers that resolve tricodes directly.
func (t *Transformer) Aliases() *refdata.AliasTable { return t.aliases }

// Venues exposes the venue table.
func (t *Transformer) Venues() *refdata.VenueTable { return t.venues }

var statusTokens = map[string]domain.GameStatus{
	"scheduled":   domain.StatusScheduled,
	"live":        domain.StatusLive,
	"final":       domain.StatusFinal,
	"postponed":   domain.StatusPostponed,
	"cancelled":   domain.StatusCancelled,
	"suspended":   domain.StatusSuspended,
	"rescheduled": domain.StatusRescheduled,
	// NBA-Stats numeric status codes, stringified by the preprocessor.
	"1": domain.StatusScheduled,
	"2": domain.StatusLive,
	"3": domain.StatusFinal,
}

// Game builds the canonical Game record for one vendor row.
func (t *Transformer) Game(source string, row preprocess.Row) (*domain.Game, error) {
	gameID, err := requireStr(row, "GAME_ID")
	if err != nil {
		return nil, err
	}
	if len(gameID) != 10 {
		return nil, fmt.Errorf("game id %q is not 10 characters", gameID)
	}

	home, err := t.resolveTeam(source, row, "HOME_TEAM")
	if err != nil {
		return nil, err
	}
	away, err := t.resolveTeam(source, row, "AWAY_TEAM")
	if err != nil {
		return nil, err
	}

	statusRaw, _ := optStr(row, "GAME_STATUS")
	status := domain.StatusScheduled
	if statusRaw != nil {
		s, ok := statusTokens[*statusRaw]
		if !ok {
			return nil, fmt.Errorf("unknown game status %q", *statusRaw)
		}
		status = s
	}

	// Arena timezone comes from the home venue unless the vendor supplied one.
	tz, _ := optStr(row, "ARENA_TZ")
	if tz == nil {
		if v, ok := t.venues.ByTricode(t.aliases, home); ok {
			tz = &v.TZ
		} else {
			return nil, fmt.Errorf("no venue timezone for home team %s", home)
		}
	}

	var utc *time.Time
	if raw, _ := optStr(row, "GAME_TIME_UTC"); raw != nil {
		parsed, err := time.Parse(time.RFC3339, *raw)
		if err != nil {
			return nil, fmt.Errorf("invalid game time %q: %w", *raw, err)
		}
		parsed = parsed.UTC()
		utc = &parsed
	}

	explicitDate, _ := optStr(row, "LOCAL_DATE")
	localDate := ""
	switch {
	case utc != nil:
		explicit := ""
		if explicitDate != nil {
			explicit = *explicitDate
		}
		localDate, err = LocalDate(explicit, *utc, *tz)
		if err != nil {
			return nil, err
		}
	case explicitDate != nil:
		localDate = *explicitDate
	default:
		return nil, fmt.Errorf("game %s carries neither UTC time nor local date", gameID)
	}

	season, _ := optStr(row, "SEASON")
	if season == nil {
		s, err := SeasonFromGameID(gameID)
		if err != nil {
			if d, perr := time.Parse("2006-01-02", localDate); perr == nil {
				s = SeasonFromDate(d)
			} else {
				return nil, err
			}
		}
		season = &s
	}

	period := 0
	if p, err := preprocess.ToIntOrNil(row["PERIOD"]); err == nil && p != nil {
		period = *p
	}

	sourceURL, _ := optStr(row, "SOURCE_URL")
	url := ""
	if sourceURL != nil {
		url = *sourceURL
	}

	return &domain.Game{
		GameID:        gameID,
		Season:        *season,
		GameTimeUTC:   utc,
		LocalDate:     localDate,
		ArenaTZ:       *tz,
		HomeTricode:   home,
		AwayTricode:   away,
		Status:        status,
		Period:        period,
		SourceName:    source,
		SourceURL:     url,
		IngestedAtUTC: time.Now().UTC(),
	}, nil
}

func (t *Transformer) resolveTeam(source string, row preprocess.Row, field string) (string, error) {
	raw, err := requireStr(row, field)
	if err != nil {
		return "", err
	}
	canon, err := t.aliases.Resolve(source, raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return canon, nil
}

func requireStr(row preprocess.Row, field string) (string, error) {
	s, err := optStr(row, field)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", fmt.Errorf("missing required field %s", field)
	}
	return *s, nil
}

func optStr(row preprocess.Row, field string) (*string, error) {
	v, ok := row[field]
	if !ok {
		return nil, nil
	}
	s, err := preprocess.ToStrOrNil(v)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", field, err)
	}
	return s, nil
}
