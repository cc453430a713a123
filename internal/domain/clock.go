package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// RegulationPeriodMS is the length of a regulation quarter.
	RegulationPeriodMS = 720000
	// OvertimePeriodMS is the length of an overtime period.
	OvertimePeriodMS = 300000
)

// PeriodLengthMS returns the clock length of the given period in milliseconds.
func PeriodLengthMS(period int) int {
	if period > 4 {
		return OvertimePeriodMS
	}
	return RegulationPeriodMS
}

var (
	colonClockRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?:\.(\d{1,3}))?$`)
	isoClockRe   = regexp.MustCompile(`^PT(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)
)

// ParseClockMS parses a time-remaining string into milliseconds. Accepted
// forms: "M:SS", "MM:SS", "MM:SS.fff" and ISO-8601-like "PT<m>M<s>S".
func ParseClockMS(clock string) (int, error) {
	s := strings.TrimSpace(clock)
	if s == "" {
		return 0, fmt.Errorf("empty clock string")
	}

	if m := colonClockRe.FindStringSubmatch(s); m != nil {
		mins, _ := strconv.Atoi(m[1])
		secs, _ := strconv.Atoi(m[2])
		if secs >= 60 {
			return 0, fmt.Errorf("invalid seconds in clock %q", clock)
		}
		ms := 0
		if m[3] != "" {
			frac := m[3]
			for len(frac) < 3 {
				frac += "0"
			}
			ms, _ = strconv.Atoi(frac)
		}
		return mins*60000 + secs*1000 + ms, nil
	}

	if m := isoClockRe.FindStringSubmatch(s); m != nil && (m[1] != "" || m[2] != "") {
		mins := 0
		if m[1] != "" {
			mins, _ = strconv.Atoi(m[1])
		}
		secs := 0.0
		if m[2] != "" {
			secs, _ = strconv.ParseFloat(m[2], 64)
		}
		return mins*60000 + int(secs*1000+0.5), nil
	}

	return 0, fmt.Errorf("unrecognized clock format %q", clock)
}

// SecondsElapsed converts milliseconds remaining into seconds elapsed in the
// period. A negative result is flipped once to absorb off-by-one vendor data;
// the caller is expected to log when flipped is true.
func SecondsElapsed(period, clockMS int) (elapsed float64, flipped bool) {
	length := PeriodLengthMS(period)
	elapsed = float64(length-clockMS) / 1000.0
	if elapsed < 0 {
		elapsed = -elapsed
		flipped = true
	}
	return elapsed, flipped
}
