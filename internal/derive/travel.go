package derive

import (
	"math"
	"sort"
	"time"

	"github.com/courtwire/courtwire/internal/domain"
	"github.com/courtwire/courtwire/internal/refdata"
)

// GameStop is one game on a team's schedule, annotated with the venue where
// it was played.
type GameStop struct {
	GameID    string
	LocalDate time.Time // midnight, arena-local calendar day
	LocalHour int       // scheduled local start hour, -1 when unknown
	Venue     refdata.Venue
}

const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between two coordinates.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}

// TZShiftHours returns the signed timezone shift between two venues on a
// date; positive means eastward travel.
func TZShiftHours(prev, curr refdata.Venue, on time.Time) (float64, error) {
	prevLoc, err := time.LoadLocation(prev.TZ)
	if err != nil {
		return 0, err
	}
	currLoc, err := time.LoadLocation(curr.TZ)
	if err != nil {
		return 0, err
	}
	ref := time.Date(on.Year(), on.Month(), on.Day(), 12, 0, 0, 0, time.UTC)
	_, prevOff := ref.In(prevLoc).Zone()
	_, currOff := ref.In(currLoc).Zone()
	return float64(currOff-prevOff) / 3600.0, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CircadianIndex computes the bounded fatigue composite in [0,1].
func CircadianIndex(tzShift, distanceKM, altitudeGainM float64, daysRest, localHour int) float64 {
	eastward := tzShift > 0
	dir := 1.0
	if eastward {
		dir = 1.5
	}
	base := math.Min(math.Abs(tzShift)/3.0, 1.0) * dir
	base += clamp(distanceKM/5000.0, 0, 0.3)
	if altitudeGainM > 1000 {
		base += clamp(altitudeGainM/2000.0, 0, 0.2)
	}

	restMult := 0.5
	switch {
	case daysRest <= 0:
		restMult = 1.5
	case daysRest == 1:
		restMult = 1.0
	case daysRest == 2:
		restMult = 0.8
	}

	lateMult := 1.0
	if eastward && localHour >= 22 {
		lateMult = 1.2
	}

	return clamp(base*restMult*lateMult, 0, 1)
}

// ScheduleTravel computes rest and travel records for one team's schedule.
// The first game of the span has no previous venue and produces no row.
func ScheduleTravel(team string, stops []GameStop) ([]domain.ScheduleTravel, error) {
	sorted := make([]GameStop, len(stops))
	copy(sorted, stops)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LocalDate.Before(sorted[j].LocalDate) })

	var out []domain.ScheduleTravel
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		dayDiff := int(curr.LocalDate.Sub(prev.LocalDate).Hours() / 24)
		daysRest := dayDiff - 1
		if daysRest < 0 {
			daysRest = 0
		}

		dist := HaversineKM(prev.Venue.Lat, prev.Venue.Lon, curr.Venue.Lat, curr.Venue.Lon)
		tzShift, err := TZShiftHours(prev.Venue, curr.Venue, curr.LocalDate)
		if err != nil {
			return nil, err
		}
		altDelta := curr.Venue.AltitudeM - prev.Venue.AltitudeM

		localHour := curr.LocalHour
		if localHour < 0 {
			localHour = 19 // typical tip-off when the schedule lacks a time
		}

		rec := domain.ScheduleTravel{
			GameID:         curr.GameID,
			TeamTricode:    team,
			BackToBack:     dayDiff == 1,
			ThreeInFour:    gamesWithin(sorted, i, 4) >= 3,
			FiveInSeven:    gamesWithin(sorted, i, 7) >= 5,
			DaysRest:       daysRest,
			TZShiftHours:   tzShift,
			CircadianIndex: CircadianIndex(tzShift, dist, altDelta, daysRest, localHour),
			AltitudeDeltaM: altDelta,
			DistanceKM:     dist,
		}
		lat, lon := prev.Venue.Lat, prev.Venue.Lon
		rec.PrevVenueLat, rec.PrevVenueLon = &lat, &lon
		out = append(out, rec)
	}
	return out, nil
}

// gamesWithin counts games in the span of `days` calendar days ending at the
// game at index i (inclusive).
func gamesWithin(sorted []GameStop, i, days int) int {
	end := sorted[i].LocalDate
	start := end.AddDate(0, 0, -(days - 1))
	count := 0
	for j := 0; j <= i; j++ {
		if !sorted[j].LocalDate.Before(start) && !sorted[j].LocalDate.After(end) {
			count++
		}
	}
	return count
}
