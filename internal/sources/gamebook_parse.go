package sources

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/courtwire/courtwire/internal/domain"
)

// Official is one parsed referee entry.
type Official struct {
	Name         string
	Number       int
	Role         domain.RefereeRole
	CrewPosition int
}

// GamebookResult is the structured output of one gamebook parse. Sections
// the PDF lacked stay zero-valued; Confidence reflects how much of the
// expected structure was found.
type GamebookResult struct {
	GameID         string
	Matchup        string
	Venue          string
	Officials      []Official
	Alternates     []string
	TechnicalFouls []string
	Confidence     float64
	SourceURL      string
}

var (
	gameIDRe  = regexp.MustCompile(`\b(00\d{8})\b`)
	matchupRe = regexp.MustCompile(`(?m)^\s*([A-Z][A-Za-z .'-]{2,40}?)\s+(?:at|@|vs\.?)\s+([A-Z][A-Za-z .'-]{2,40}?)\s*$`)
	venueRe   = regexp.MustCompile(`(?mi)^\s*(?:Arena|Venue)\s*:\s*(.+)$`)
	arenaRe   = regexp.MustCompile(`(?m)^\s*([A-Z][A-Za-z0-9 .&'-]*(?:Arena|Center|Centre|Garden|Forum|Fieldhouse|Coliseum|Pavilion)[A-Za-z0-9 .,'-]*)\s*$`)

	officialsSecRe  = regexp.MustCompile(`(?is)Officials?\s*:\s*(.*?)(?:\n\s*\n|Alternates?|Technical|$)`)
	alternatesSecRe = regexp.MustCompile(`(?is)Alternates?\s*:\s*(.*?)(?:\n\s*\n|Technical|$)`)
	technicalSecRe  = regexp.MustCompile(`(?is)Technical Fouls?\s*:\s*(.*?)(?:\n\s*\n|$)`)

	refEntryRe    = regexp.MustCompile(`#?(\d{1,3})\s+([A-Z][\w.'-]+(?:\s+[A-Z][\w.'-]+)+)(?:\s*\(([^)]+)\))?`)
	properNameRe  = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s[A-Z][a-z]+)+\b`)
	confKeywords  = []string{"official", "referee", "crew chief", "alternate", "game book"}
)

// ParseGamebook applies regex section detection to extracted gamebook text.
// Missing sections never fail the parse; callers judge the result by its
// confidence score.
func ParseGamebook(text string) *GamebookResult {
	res := &GamebookResult{}

	if m := gameIDRe.FindStringSubmatch(text); m != nil {
		res.GameID = m[1]
	}
	if m := matchupRe.FindStringSubmatch(text); m != nil {
		res.Matchup = strings.TrimSpace(m[1]) + " at " + strings.TrimSpace(m[2])
	}
	if m := venueRe.FindStringSubmatch(text); m != nil {
		res.Venue = strings.TrimSpace(m[1])
	} else if m := arenaRe.FindStringSubmatch(text); m != nil {
		res.Venue = strings.TrimSpace(m[1])
	}

	if m := officialsSecRe.FindStringSubmatch(text); m != nil {
		res.Officials = parseOfficials(m[1])
	}
	if m := alternatesSecRe.FindStringSubmatch(text); m != nil {
		for _, e := range refEntryRe.FindAllStringSubmatch(m[1], -1) {
			res.Alternates = append(res.Alternates, strings.TrimSpace(e[2]))
		}
	}
	if m := technicalSecRe.FindStringSubmatch(text); m != nil {
		for _, line := range strings.Split(m[1], "\n") {
			if line = strings.TrimSpace(line); line != "" && strings.ToLower(line) != "none" {
				res.TechnicalFouls = append(res.TechnicalFouls, line)
			}
		}
	}

	res.Confidence = confidence(text, res)
	return res
}

func parseOfficials(section string) []Official {
	var out []Official
	for i, e := range refEntryRe.FindAllStringSubmatch(section, -1) {
		num, _ := strconv.Atoi(e[1])
		out = append(out, Official{
			Name:         strings.TrimSpace(e[2]),
			Number:       num,
			Role:         roleFor(e[3], i+1),
			CrewPosition: i + 1,
		})
	}
	return out
}

// roleFor maps an explicit "(Crew Chief)" annotation, falling back to the
// conventional crew ordering when the PDF omits roles.
func roleFor(annotation string, position int) domain.RefereeRole {
	switch strings.ToLower(strings.TrimSpace(annotation)) {
	case "crew chief":
		return domain.RoleCrewChief
	case "referee":
		return domain.RoleReferee
	case "umpire":
		return domain.RoleUmpire
	}
	switch position {
	case 1:
		return domain.RoleCrewChief
	case 2:
		return domain.RoleReferee
	case 3:
		return domain.RoleUmpire
	}
	return domain.RoleOfficial
}

// confidence scores a parse from text length, referee-keyword hits, and
// proper-name matches, clamped to [0,1].
func confidence(text string, res *GamebookResult) float64 {
	score := float64(len(text)) / 2000.0
	if score > 0.4 {
		score = 0.4
	}

	lower := strings.ToLower(text)
	kw := 0.0
	for _, k := range confKeywords {
		if strings.Contains(lower, k) {
			kw += 0.08
		}
	}
	if kw > 0.3 {
		kw = 0.3
	}
	score += kw

	names := float64(len(res.Officials)+len(res.Alternates)) * 0.1
	if names == 0 {
		// No structured entries parsed; fall back to raw proper-name density.
		names = float64(len(properNameRe.FindAllString(text, 6))) * 0.02
	}
	if names > 0.3 {
		names = 0.3
	}
	score += names

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}
