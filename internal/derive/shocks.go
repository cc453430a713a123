package derive

import (
	"sort"
	"strings"

	"github.com/courtwire/courtwire/internal/domain"
)

// ShockConfig tunes early-shock detection.
type ShockConfig struct {
	// TwoFoulThresholdSecs is the elapsed-time ceiling for a second personal
	// foul to count as a shock.
	TwoFoulThresholdSecs float64 `yaml:"two_foul_threshold_secs"`
	// InjuryAbsentPossessions is how many possessions a player must sit out
	// after an injury keyword before the departure is confirmed.
	InjuryAbsentPossessions int `yaml:"injury_absent_possessions"`
}

// DefaultShockConfig mirrors the production thresholds.
func DefaultShockConfig() ShockConfig {
	return ShockConfig{TwoFoulThresholdSecs: 360, InjuryAbsentPossessions: 6}
}

var injuryKeywords = []string{"injury", "hurt", "twisted", "sprain", "strain", "collision"}

// EarlyShocks detects the Q1 disruption events for one game: a second
// personal foul inside the threshold, technical or flagrant fouls, and
// confirmed injury departures. Detection is limited to the first six minutes
// of Q1.
func EarlyShocks(game *domain.Game, events []domain.PBPEvent, cfg ShockConfig) []domain.EarlyShock {
	if cfg.TwoFoulThresholdSecs <= 0 {
		cfg = DefaultShockConfig()
	}
	q1 := q1Sorted(events)

	shocks := []domain.EarlyShock{}
	shocks = append(shocks, twoFoulShocks(game, q1, cfg)...)
	shocks = append(shocks, techFlagrantShocks(q1, cfg)...)
	shocks = append(shocks, injuryShocks(q1, cfg)...)
	sort.SliceStable(shocks, func(i, j int) bool {
		return shocks[i].EventIdxStart < shocks[j].EventIdxStart
	})
	return shocks
}

func q1Sorted(events []domain.PBPEvent) []domain.PBPEvent {
	out := make([]domain.PBPEvent, 0, len(events))
	for _, ev := range events {
		if ev.Period == 1 {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EventIdx < out[j].EventIdx })
	return out
}

func elapsed(ev domain.PBPEvent) float64 {
	if ev.SecondsElapsed == nil {
		return -1
	}
	return *ev.SecondsElapsed
}

func description(ev domain.PBPEvent) string {
	if ev.Description == nil {
		return ""
	}
	return strings.ToLower(*ev.Description)
}

func subtype(ev domain.PBPEvent) string {
	if ev.EventSubtype == nil {
		return ""
	}
	return strings.ToLower(*ev.EventSubtype)
}

func isTechnical(ev domain.PBPEvent) bool {
	return ev.EventType == "foul" &&
		(strings.Contains(subtype(ev), "technical") || strings.Contains(description(ev), "technical"))
}

func isFlagrant(ev domain.PBPEvent) bool {
	return ev.EventType == "foul" &&
		(strings.Contains(subtype(ev), "flagrant") || strings.Contains(description(ev), "flagrant"))
}

func isPersonalFoul(ev domain.PBPEvent) bool {
	return ev.EventType == "foul" && !isTechnical(ev) && !isFlagrant(ev)
}

type foulSeen struct {
	eventIdx int
	elapsed  float64
}

func twoFoulShocks(game *domain.Game, q1 []domain.PBPEvent, cfg ShockConfig) []domain.EarlyShock {
	fouls := map[string][]foulSeen{}
	var shocks []domain.EarlyShock
	fired := map[string]bool{}

	for _, ev := range q1 {
		if !isPersonalFoul(ev) || ev.Player1Slug == nil {
			continue
		}
		e := elapsed(ev)
		if e < 0 {
			continue
		}
		slug := *ev.Player1Slug
		fouls[slug] = append(fouls[slug], foulSeen{ev.EventIdx, e})

		// Only the second foul fires, and only inside the threshold; a
		// second foul past it (or a third foul) never creates another row.
		if len(fouls[slug]) != 2 || fired[slug] || e > cfg.TwoFoulThresholdSecs {
			continue
		}
		fired[slug] = true
		first := fouls[slug][0]

		subbed := substitutedWithinNextPossession(game, q1, ev.EventIdx, slug)
		possSince := possessionsBetween(game, q1, first.eventIdx, ev.EventIdx)

		shocks = append(shocks, domain.EarlyShock{
			GameID:           game.GameID,
			ShockType:        domain.ShockTwoFoulsEarly,
			Period:           1,
			SecondsElapsed:   e,
			PlayerSlug:       slug,
			TeamTricode:      ev.TeamTricode,
			SequenceNumber:   1,
			EventIdxStart:    first.eventIdx,
			EventIdxEnd:      ev.EventIdx,
			ImmediateSub:     &subbed,
			PossessionsSince: &possSince,
		})
	}
	return shocks
}

func techFlagrantShocks(q1 []domain.PBPEvent, cfg ShockConfig) []domain.EarlyShock {
	seq := map[string]int{} // player+type → occurrence count
	var shocks []domain.EarlyShock

	for _, ev := range q1 {
		var st domain.ShockType
		switch {
		case isTechnical(ev):
			st = domain.ShockTechnical
		case isFlagrant(ev):
			st = domain.ShockFlagrant
		default:
			continue
		}
		e := elapsed(ev)
		if e < 0 || e > cfg.TwoFoulThresholdSecs {
			continue
		}
		slug := ""
		if ev.Player1Slug != nil {
			slug = *ev.Player1Slug
		}
		key := slug + "|" + string(st)
		seq[key]++

		shocks = append(shocks, domain.EarlyShock{
			GameID:         ev.GameID,
			ShockType:      st,
			Period:         1,
			SecondsElapsed: e,
			PlayerSlug:     slug,
			TeamTricode:    ev.TeamTricode,
			SequenceNumber: seq[key],
			EventIdxStart:  ev.EventIdx,
			EventIdxEnd:    ev.EventIdx,
		})
	}
	return shocks
}

func injuryShocks(q1 []domain.PBPEvent, cfg ShockConfig) []domain.EarlyShock {
	var shocks []domain.EarlyShock
	for i, ev := range q1 {
		if ev.Player1Slug == nil {
			continue
		}
		e := elapsed(ev)
		if e < 0 || e > cfg.TwoFoulThresholdSecs {
			continue
		}
		desc := description(ev)
		match := false
		for _, kw := range injuryKeywords {
			if strings.Contains(desc, kw) {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		slug := *ev.Player1Slug

		absent, reappeared := absentPossessions(q1[i+1:], slug)
		if reappeared && absent < cfg.InjuryAbsentPossessions {
			continue // player came back quickly, not a departure
		}

		shocks = append(shocks, domain.EarlyShock{
			GameID:           ev.GameID,
			ShockType:        domain.ShockInjuryLeave,
			Period:           1,
			SecondsElapsed:   e,
			PlayerSlug:       slug,
			TeamTricode:      ev.TeamTricode,
			SequenceNumber:   1,
			EventIdxStart:    ev.EventIdx,
			EventIdxEnd:      ev.EventIdx,
			PossessionsSince: &absent,
		})
	}
	return shocks
}

// absentPossessions counts possessions until the player's slug reappears in
// any participant slot. reappeared is false when the stream ends first.
func absentPossessions(rest []domain.PBPEvent, slug string) (int, bool) {
	tracker := newPossessionTracker()
	for _, ev := range rest {
		if mentionsPlayer(ev, slug) {
			return tracker.count, true
		}
		tracker.observe(ev)
	}
	return tracker.count, false
}

func mentionsPlayer(ev domain.PBPEvent, slug string) bool {
	for _, s := range []*string{ev.Player1Slug, ev.Player2Slug, ev.Player3Slug} {
		if s != nil && *s == slug {
			return true
		}
	}
	return false
}

// substitutedWithinNextPossession reports whether the player was subbed out
// before the possession after the trigger event ended.
func substitutedWithinNextPossession(game *domain.Game, q1 []domain.PBPEvent, afterIdx int, slug string) bool {
	tracker := newPossessionTracker()
	for _, ev := range q1 {
		if ev.EventIdx <= afterIdx {
			continue
		}
		if tracker.count > 1 {
			return false
		}
		// NBA-Stats substitution rows list the outgoing player first.
		if ev.EventType == "substitution" && ev.Player1Slug != nil && *ev.Player1Slug == slug {
			return true
		}
		tracker.observe(ev)
	}
	return false
}

func possessionsBetween(game *domain.Game, q1 []domain.PBPEvent, fromIdx, toIdx int) int {
	tracker := newPossessionTracker()
	for _, ev := range q1 {
		if ev.EventIdx <= fromIdx || ev.EventIdx > toIdx {
			continue
		}
		tracker.observe(ev)
	}
	return tracker.count
}

// possessionTracker counts possession changes by team alternation: the
// possession flips on period-begin, a jump ball, a made shot, a turnover, or
// a rebound by the team that did not have the ball. Offensive rebounds keep
// the possession alive.
type possessionTracker struct {
	count      int
	possession string // tricode with the ball, "" when unknown
}

func newPossessionTracker() *possessionTracker {
	return &possessionTracker{}
}

func (p *possessionTracker) observe(ev domain.PBPEvent) {
	team := ""
	if ev.TeamTricode != nil {
		team = *ev.TeamTricode
	}
	switch ev.EventType {
	case "period_start", "jump_ball":
		p.count++
		p.possession = team
	case "shot":
		if ev.ShotMade != nil && *ev.ShotMade {
			p.count++
			p.possession = "" // next team inbound, set by their first action
		} else if p.possession == "" {
			p.possession = team
		}
	case "turnover":
		p.count++
		p.possession = ""
	case "rebound":
		if team == "" {
			return
		}
		if p.possession == "" {
			p.possession = team
			return
		}
		if team != p.possession {
			p.count++
			p.possession = team
		}
	default:
		if p.possession == "" && team != "" {
			p.possession = team
		}
	}
}
