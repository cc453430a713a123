// Package derive computes the derived-analytics tables (Q1 possession
// windows, early shocks, schedule travel) from canonical play-by-play and
// schedule facts. Everything here is pure computation; loading happens in
// the store package behind the completeness gate.
package derive

import (
	"math"
	"sort"

	"github.com/courtwire/courtwire/internal/domain"
)

// Q1 window bounds in clock milliseconds remaining.
const (
	WindowStartMS = 720000 // 12:00
	WindowEndMS   = 480000 // 8:00
)

// windowSeconds is the game-clock length of the window.
const windowSeconds = 240.0

// leagueAvgPacePer48 anchors the actual-vs-expected pace comparison.
const leagueAvgPacePer48 = 100.0

// InWindow reports whether a clock reading falls inside [start, end] under
// broadcast-second semantics: the end boundary itself is included, but
// anything inside the same broadcast second below it (e.g. 7:59.999 against
// an 8:00 end) is excluded.
func InWindow(clockMS, startMS, endMS int) bool {
	return clockMS <= startMS && (clockMS == endMS || clockMS >= endMS+1000)
}

// EstimatePossessions applies the standard possession estimator, floored at
// one so rate denominators stay sane on sparse windows.
func EstimatePossessions(fga, fta, oreb, tov int) int {
	poss := fga + int(math.Floor(0.44*float64(fta))) - oreb + tov
	if poss < 1 {
		return 1
	}
	return poss
}

type teamCounts struct {
	fga, fgm, fg3m, fta, ftm  int
	oreb, dreb, tov, fouls    int
	events, transition, early int
	bonusSecs                 float64
}

// Q1Window computes the possession-window record for one game from its
// play-by-play. Events outside Q1 or outside the 12:00→8:00 clock window are
// ignored; duplicates on (period, clock, type, team) keep the first.
func Q1Window(game *domain.Game, events []domain.PBPEvent) *domain.Q1Window {
	windowed := dedupe(filterWindow(events))

	home := &teamCounts{}
	away := &teamCounts{}
	totalEvents, transition, early := 0, 0, 0
	homeFouls, awayFouls := 0, 0

	for _, ev := range windowed {
		tc := countsFor(game, home, away, ev.TeamTricode)

		totalEvents++
		if ev.IsTransition != nil && *ev.IsTransition {
			transition++
		}
		if ev.IsEarlyClock != nil && *ev.IsEarlyClock {
			early++
		}

		switch ev.EventType {
		case "shot":
			if tc == nil {
				break
			}
			tc.fga++
			if ev.ShotMade != nil && *ev.ShotMade {
				tc.fgm++
				if ev.ShotValue != nil && *ev.ShotValue == 3 {
					tc.fg3m++
				}
			}
		case "free_throw":
			if tc == nil {
				break
			}
			tc.fta++
			if ev.ShotMade != nil && *ev.ShotMade {
				tc.ftm++
			}
		case "rebound":
			if tc == nil {
				break
			}
			if isOffensiveRebound(game, windowed, ev) {
				tc.oreb++
			} else {
				tc.dreb++
			}
		case "turnover":
			if tc != nil {
				tc.tov++
			}
		case "foul":
			if tc == nil || ev.SecondsElapsed == nil {
				break
			}
			tc.fouls++
			// The fouling team's 4th quarter foul puts the opponent in the
			// bonus for the rest of the window.
			remaining := windowSeconds - *ev.SecondsElapsed
			if remaining < 0 {
				remaining = 0
			}
			if tc == home {
				homeFouls++
				if homeFouls == 4 {
					away.bonusSecs = remaining
				}
			} else {
				awayFouls++
				if awayFouls == 4 {
					home.bonusSecs = remaining
				}
			}
		}
	}

	poss := EstimatePossessions(
		home.fga+away.fga, home.fta+away.fta,
		home.oreb+away.oreb, home.tov+away.tov,
	)

	w := &domain.Q1Window{
		GameID:        game.GameID,
		Possessions:   poss,
		PacePer48:     float64(poss) / (windowSeconds / 60.0) * 48.0,
		ExpectedPace:  leagueAvgPacePer48,
		HomeBonusSecs: home.bonusSecs,
		AwayBonusSecs: away.bonusSecs,
	}
	if totalEvents > 0 {
		w.TransitionRate = float64(transition) / float64(totalEvents)
		w.EarlyClockRate = float64(early) / float64(totalEvents)
	}

	w.HomeEFGPct = efg(home)
	w.AwayEFGPct = efg(away)
	w.HomeTORate = toRate(home)
	w.AwayTORate = toRate(away)
	w.HomeFTRate = ftRate(home)
	w.AwayFTRate = ftRate(away)
	w.HomeOREBPct = rebPct(home.oreb, away.dreb)
	w.AwayOREBPct = rebPct(away.oreb, home.dreb)
	w.HomeDREBPct = rebPct(home.dreb, away.oreb)
	w.AwayDREBPct = rebPct(away.dreb, home.oreb)
	return w
}

func filterWindow(events []domain.PBPEvent) []domain.PBPEvent {
	out := make([]domain.PBPEvent, 0, len(events))
	for _, ev := range events {
		if ev.Period != 1 || ev.ClockMS == nil {
			continue
		}
		if InWindow(*ev.ClockMS, WindowStartMS, WindowEndMS) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EventIdx < out[j].EventIdx })
	return out
}

type dedupeKey struct {
	period  int
	clockMS int
	evType  string
	team    string
}

func dedupe(events []domain.PBPEvent) []domain.PBPEvent {
	seen := make(map[dedupeKey]struct{}, len(events))
	out := make([]domain.PBPEvent, 0, len(events))
	for _, ev := range events {
		team := ""
		if ev.TeamTricode != nil {
			team = *ev.TeamTricode
		}
		clock := -1
		if ev.ClockMS != nil {
			clock = *ev.ClockMS
		}
		k := dedupeKey{ev.Period, clock, ev.EventType, team}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, ev)
	}
	return out
}

func countsFor(game *domain.Game, home, away *teamCounts, team *string) *teamCounts {
	if team == nil {
		return nil
	}
	switch *team {
	case game.HomeTricode:
		return home
	case game.AwayTricode:
		return away
	}
	return nil
}

// isOffensiveRebound decides the rebound side by team alternation against
// the shooting team of the most recent missed shot or free throw.
func isOffensiveRebound(game *domain.Game, events []domain.PBPEvent, reb domain.PBPEvent) bool {
	if reb.TeamTricode == nil {
		return false
	}
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.EventIdx >= reb.EventIdx {
			continue
		}
		if ev.EventType != "shot" && ev.EventType != "free_throw" {
			continue
		}
		if ev.ShotMade != nil && *ev.ShotMade {
			return false // made shot: the rebound column is noise
		}
		if ev.TeamTricode == nil {
			return false
		}
		return *ev.TeamTricode == *reb.TeamTricode
	}
	return false
}

func efg(tc *teamCounts) *float64 {
	if tc.fga == 0 {
		return nil
	}
	v := (float64(tc.fgm) + 0.5*float64(tc.fg3m)) / float64(tc.fga)
	return &v
}

func toRate(tc *teamCounts) *float64 {
	poss := EstimatePossessions(tc.fga, tc.fta, tc.oreb, tc.tov)
	v := float64(tc.tov) / float64(poss)
	return &v
}

func ftRate(tc *teamCounts) *float64 {
	if tc.fga == 0 {
		return nil
	}
	v := float64(tc.fta) / float64(tc.fga)
	return &v
}

func rebPct(own, opp int) *float64 {
	total := own + opp
	if total == 0 {
		return nil
	}
	v := float64(own) / float64(total)
	return &v
}
