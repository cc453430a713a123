package derive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtwire/courtwire/internal/refdata"
)

var (
	tdGarden = refdata.Venue{
		TeamID: 1610612738, ArenaName: "TD Garden", TZ: "America/New_York",
		Lat: 42.3662, Lon: -71.0621, AltitudeM: 6,
	}
	golden1 = refdata.Venue{
		TeamID: 1610612758, ArenaName: "Golden 1 Center", TZ: "America/Los_Angeles",
		Lat: 38.5802, Lon: -121.4997, AltitudeM: 9,
	}
	ballArena = refdata.Venue{
		TeamID: 1610612743, ArenaName: "Ball Arena", TZ: "America/Denver",
		Lat: 39.7487, Lon: -105.0077, AltitudeM: 1581,
	}
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHaversineKM(t *testing.T) {
	// Same point.
	assert.InDelta(t, 0, HaversineKM(42.3662, -71.0621, 42.3662, -71.0621), 1e-9)

	// Boston to Sacramento, roughly 4300km great-circle.
	d := HaversineKM(tdGarden.Lat, tdGarden.Lon, golden1.Lat, golden1.Lon)
	assert.Greater(t, d, 4200.0)
	assert.Less(t, d, 4400.0)
}

func TestTZShiftHours(t *testing.T) {
	shift, err := TZShiftHours(tdGarden, golden1, day(2024, time.January, 15))
	require.NoError(t, err)
	assert.Equal(t, -3.0, shift) // westward

	back, err := TZShiftHours(golden1, tdGarden, day(2024, time.January, 15))
	require.NoError(t, err)
	assert.Equal(t, 3.0, back) // eastward
}

func TestCircadianIndex(t *testing.T) {
	cases := []struct {
		name      string
		tzShift   float64
		distKM    float64
		altGainM  float64
		daysRest  int
		localHour int
		want      float64
	}{
		{"no travel, long rest", 0, 0, 0, 3, 19, 0},
		{"short westward hop, two days rest", 0, 500, 0, 3, 19, 0.05},
		{"eastward two zones, moderate rest", 2, 1000, 0, 2, 19, 0.96},
		{"eastward one zone, late tip", 1, 0, 0, 1, 22, 0.6},
		{"altitude gain into Denver", 0, 600, 1572, 1, 19, 0.32},
		{"cross-country back-to-back caps at one", -3, 4300, 0, 0, 19, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CircadianIndex(tc.tzShift, tc.distKM, tc.altGainM, tc.daysRest, tc.localHour)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestCircadianIndex_SmallAltitudeIgnored(t *testing.T) {
	// 900m of gain stays below the 1000m threshold and adds nothing.
	with := CircadianIndex(0, 0, 900, 3, 19)
	assert.Equal(t, 0.0, with)
}

func TestScheduleTravel_BackToBackCrossCountry(t *testing.T) {
	stops := []GameStop{
		{GameID: "g1", LocalDate: day(2024, time.January, 14), LocalHour: 19, Venue: tdGarden},
		{GameID: "g2", LocalDate: day(2024, time.January, 15), LocalHour: 19, Venue: golden1},
	}
	recs, err := ScheduleTravel("BOS", stops)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, "g2", r.GameID)
	assert.Equal(t, "BOS", r.TeamTricode)
	assert.True(t, r.BackToBack)
	assert.Equal(t, 0, r.DaysRest)
	assert.Equal(t, -3.0, r.TZShiftHours)
	assert.Greater(t, r.DistanceKM, 4200.0)
	assert.Less(t, r.DistanceKM, 4400.0)
	// Zero rest after a cross-country flight saturates the index.
	assert.Equal(t, 1.0, r.CircadianIndex)
	require.NotNil(t, r.PrevVenueLat)
	assert.InDelta(t, tdGarden.Lat, *r.PrevVenueLat, 1e-9)
}

func TestScheduleTravel_DensityFlags(t *testing.T) {
	stops := []GameStop{
		{GameID: "g1", LocalDate: day(2024, time.January, 1), Venue: tdGarden},
		{GameID: "g2", LocalDate: day(2024, time.January, 3), Venue: tdGarden},
		{GameID: "g3", LocalDate: day(2024, time.January, 4), Venue: tdGarden},
	}
	recs, err := ScheduleTravel("BOS", stops)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	g2 := recs[0]
	assert.Equal(t, 1, g2.DaysRest)
	assert.False(t, g2.BackToBack)
	assert.False(t, g2.ThreeInFour)

	g3 := recs[1]
	assert.True(t, g3.BackToBack)
	assert.True(t, g3.ThreeInFour) // Jan 1, 3, 4 inside a four-day span
	assert.False(t, g3.FiveInSeven)
	assert.Equal(t, 0.0, g3.TZShiftHours)
	assert.InDelta(t, 0.0, g3.DistanceKM, 1e-9)
}

func TestScheduleTravel_SortsInput(t *testing.T) {
	stops := []GameStop{
		{GameID: "g2", LocalDate: day(2024, time.January, 18), LocalHour: 19, Venue: ballArena},
		{GameID: "g1", LocalDate: day(2024, time.January, 15), LocalHour: 19, Venue: tdGarden},
	}
	recs, err := ScheduleTravel("BOS", stops)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "g2", recs[0].GameID)
	assert.Equal(t, 2, recs[0].DaysRest)
	assert.InDelta(t, 1575, recs[0].AltitudeDeltaM, 1e-9)
}

func TestScheduleTravel_SingleGameNoRows(t *testing.T) {
	recs, err := ScheduleTravel("BOS", []GameStop{
		{GameID: "g1", LocalDate: day(2024, time.January, 15), Venue: tdGarden},
	})
	require.NoError(t, err)
	assert.Empty(t, recs)
}
