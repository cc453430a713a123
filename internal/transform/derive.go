// Package transform turns preprocessed row dictionaries into validated
// canonical records. All derivations here are pure; I/O happened upstream.
package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// SeasonFromGameID derives the season label from an NBA-format game id:
// digits 3-4 carry the season start year offset from 2000.
// "0022300123" → "2023-24".
func SeasonFromGameID(gameID string) (string, error) {
	if len(gameID) != 10 {
		return "", fmt.Errorf("game id %q is not 10 characters", gameID)
	}
	yy, err := strconv.Atoi(gameID[3:5])
	if err != nil {
		return "", fmt.Errorf("game id %q has non-numeric season digits", gameID)
	}
	// Two-digit pivot: backfills reach into the late 1990s.
	if yy >= 46 {
		return seasonLabel(1900 + yy), nil
	}
	return seasonLabel(2000 + yy), nil
}

// SeasonFromDate derives the season from a calendar date: October through
// December start a season that year, January through September belong to the
// prior year's season.
func SeasonFromDate(d time.Time) string {
	year := d.Year()
	if d.Month() < time.October {
		year--
	}
	return seasonLabel(year)
}

func seasonLabel(startYear int) string {
	return fmt.Sprintf("%d-%02d", startYear, (startYear+1)%100)
}

// DateToleranceError marks a local/UTC date disagreement beyond one day.
type DateToleranceError struct {
	Explicit string
	Derived  string
}

func (e *DateToleranceError) Error() string {
	return fmt.Sprintf("local date %s differs from UTC-derived date %s by more than one day", e.Explicit, e.Derived)
}

// LocalDate resolves the arena-local date. An explicit vendor-supplied date
// is preserved; otherwise the UTC instant is rendered in the arena timezone.
// A one-day disagreement between the two is logged, anything larger errors.
func LocalDate(explicit string, utc time.Time, tz string) (string, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", fmt.Errorf("invalid arena timezone %q: %w", tz, err)
	}
	derived := utc.In(loc).Format("2006-01-02")
	if explicit == "" {
		return derived, nil
	}

	expDay, err := time.ParseInLocation("2006-01-02", explicit, loc)
	if err != nil {
		return "", fmt.Errorf("invalid explicit local date %q: %w", explicit, err)
	}
	derDay, _ := time.ParseInLocation("2006-01-02", derived, loc)
	diff := expDay.Sub(derDay).Hours() / 24
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return explicit, nil
	case diff <= 1:
		log.Warn().
			Str("explicit", explicit).
			Str("derived", derived).
			Str("tz", tz).
			Msg("local date differs from UTC-derived date by one day")
		return explicit, nil
	default:
		return "", &DateToleranceError{Explicit: explicit, Derived: derived}
	}
}

// Shot zones, classified from court coordinates and distance.
const (
	ZoneRestrictedArea = "restricted_area"
	ZonePaint          = "paint"
	ZoneMidRange       = "mid_range"
	ZoneCorner3        = "corner_3"
	ZoneAboveBreak3    = "above_break_3"
)

// cornerXFt is the |x| beyond which a three is a corner three.
const cornerXFt = 22.0

// ShotZone classifies a shot from (x, y) in feet from the basket center and
// the reported distance.
func ShotZone(x, y, distanceFt float64) string {
	switch {
	case distanceFt <= 4:
		return ZoneRestrictedArea
	case distanceFt <= 10:
		return ZonePaint
	case distanceFt <= 23:
		return ZoneMidRange
	case math.Abs(x) >= cornerXFt:
		return ZoneCorner3
	default:
		return ZoneAboveBreak3
	}
}

// ShotValue infers the point value from the event description; NBA-Stats
// marks threes with a "3PT" keyword.
func ShotValue(description string) int {
	if strings.Contains(strings.ToUpper(description), "3PT") {
		return 3
	}
	return 2
}

// PlayerSlug normalizes a display name into the canonical slug form used for
// referee and player keys ("Jayson Tatum" → "jayson-tatum").
func PlayerSlug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, "'", "")
	fields := strings.Fields(s)
	return strings.Join(fields, "-")
}
