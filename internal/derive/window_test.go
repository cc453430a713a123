package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtwire/courtwire/internal/domain"
)

func TestInWindow_Boundaries(t *testing.T) {
	cases := []struct {
		clockMS int
		want    bool
	}{
		{720000, true},  // 12:00 inclusive
		{600000, true},  // 10:00 inside
		{481000, true},  // 8:01 inside
		{480001, false}, // 8:00.001 inside the excluded broadcast second
		{480000, true},  // 8:00.000 exactly included
		{479999, false}, // 7:59.999 excluded
		{479000, false}, // 7:59 outside
		{720001, false}, // above the window start
	}
	for _, tc := range cases {
		if got := InWindow(tc.clockMS, WindowStartMS, WindowEndMS); got != tc.want {
			t.Errorf("InWindow(%d) = %v, want %v", tc.clockMS, got, tc.want)
		}
	}
}

func TestEstimatePossessions(t *testing.T) {
	if got := EstimatePossessions(10, 6, 2, 3); got != 13 {
		t.Errorf("EstimatePossessions(10,6,2,3) = %d, want 13", got)
	}
	if got := EstimatePossessions(0, 0, 5, 0); got != 1 {
		t.Errorf("possessions must floor at 1, got %d", got)
	}
}

func strPtr(s string) *string   { return &s }
func boolPtr(b bool) *bool      { return &b }
func intPtr(n int) *int         { return &n }
func f64Ptr(f float64) *float64 { return &f }

func windowEvent(idx, clockMS int, evType, team string) domain.PBPEvent {
	elapsed := float64(720000-clockMS) / 1000.0
	return domain.PBPEvent{
		GameID:         "0022300123",
		Period:         1,
		EventIdx:       idx,
		ClockMS:        intPtr(clockMS),
		SecondsElapsed: &elapsed,
		EventType:      evType,
		TeamTricode:    strPtr(team),
	}
}

func testGame() *domain.Game {
	return &domain.Game{GameID: "0022300123", HomeTricode: "BOS", AwayTricode: "LAL"}
}

func TestQ1Window_DedupeCollapsesIdenticalEvents(t *testing.T) {
	// Three identical foul rows collapse to one.
	events := []domain.PBPEvent{
		windowEvent(10, 600000, "foul", "LAL"),
		windowEvent(11, 600000, "foul", "LAL"),
		windowEvent(12, 600000, "foul", "LAL"),
		windowEvent(13, 590000, "turnover", "BOS"),
	}
	game := testGame()
	w := Q1Window(game, events)

	// One foul + one turnover. Possessions = max(1, 0+0-0+1) = 1.
	assert.Equal(t, 1, w.Possessions)
}

func TestQ1Window_TeamDerivations(t *testing.T) {
	game := testGame()
	var events []domain.PBPEvent

	// BOS: 4 FGA (2 made, 1 of them a three), 2 FTA, 1 TOV.
	shot := windowEvent(1, 700000, "shot", "BOS")
	shot.ShotMade = boolPtr(true)
	shot.ShotValue = intPtr(3)
	events = append(events, shot)

	shot2 := windowEvent(2, 690000, "shot", "BOS")
	shot2.ShotMade = boolPtr(true)
	shot2.ShotValue = intPtr(2)
	events = append(events, shot2)

	miss := windowEvent(3, 680000, "shot", "BOS")
	miss.ShotMade = boolPtr(false)
	events = append(events, miss)

	// LAL defensive rebound after the miss.
	events = append(events, windowEvent(4, 679000, "rebound", "LAL"))

	miss2 := windowEvent(5, 660000, "shot", "BOS")
	miss2.ShotMade = boolPtr(false)
	events = append(events, miss2)

	// BOS offensive rebound keeps the possession.
	events = append(events, windowEvent(6, 659000, "rebound", "BOS"))

	ft := windowEvent(7, 640000, "free_throw", "BOS")
	ft.ShotMade = boolPtr(true)
	events = append(events, ft)
	ft2 := windowEvent(8, 639000, "free_throw", "BOS")
	ft2.ShotMade = boolPtr(false)
	events = append(events, ft2)

	events = append(events, windowEvent(9, 620000, "turnover", "BOS"))

	w := Q1Window(game, events)

	require.NotNil(t, w.HomeEFGPct)
	// eFG = (2 + 0.5*1) / 4 = 0.625
	assert.InDelta(t, 0.625, *w.HomeEFGPct, 1e-9)

	require.NotNil(t, w.HomeFTRate)
	// FT rate = FTA/FGA = 2/4
	assert.InDelta(t, 0.5, *w.HomeFTRate, 1e-9)

	require.NotNil(t, w.HomeOREBPct)
	// BOS OREB 1 vs LAL DREB 1 → 0.5
	assert.InDelta(t, 0.5, *w.HomeOREBPct, 1e-9)

	require.NotNil(t, w.HomeTORate)
	// BOS possessions = 4 + floor(0.44*2) − 1 + 1 = 4; TO rate = 1/4.
	assert.InDelta(t, 0.25, *w.HomeTORate, 1e-9)

	// Away team took no shots: nil ratios rather than zero divisions.
	assert.Nil(t, w.AwayEFGPct)
	assert.Nil(t, w.AwayFTRate)
}

func TestQ1Window_BonusTime(t *testing.T) {
	game := testGame()
	var events []domain.PBPEvent
	// LAL commits 4 fouls; the 4th at elapsed 180s puts BOS in the bonus for
	// the remaining 60s of the window.
	clocks := []int{700000, 660000, 620000, 540000} // elapsed 20, 60, 100, 180
	for i, c := range clocks {
		events = append(events, windowEvent(i+1, c, "foul", "LAL"))
	}
	w := Q1Window(game, events)
	assert.InDelta(t, 60.0, w.HomeBonusSecs, 1e-9)
	assert.Equal(t, 0.0, w.AwayBonusSecs)
}

func TestQ1Window_IgnoresEventsOutsideWindow(t *testing.T) {
	game := testGame()
	inside := windowEvent(1, 600000, "turnover", "BOS")
	late := windowEvent(2, 400000, "turnover", "LAL")  // 5:20 remaining, outside
	q2 := windowEvent(3, 600000, "turnover", "LAL")
	q2.Period = 2

	w := Q1Window(game, []domain.PBPEvent{inside, late, q2})
	assert.Equal(t, 1, w.Possessions) // only the inside turnover counts
}

func TestQ1Window_TransitionAndEarlyClockRates(t *testing.T) {
	game := testGame()
	a := windowEvent(1, 700000, "shot", "BOS")
	a.IsTransition = boolPtr(true)
	b := windowEvent(2, 690000, "shot", "LAL")
	b.IsEarlyClock = boolPtr(true)
	c := windowEvent(3, 680000, "turnover", "BOS")

	w := Q1Window(game, []domain.PBPEvent{a, b, c})
	assert.InDelta(t, 1.0/3.0, w.TransitionRate, 1e-9)
	assert.InDelta(t, 1.0/3.0, w.EarlyClockRate, 1e-9)
}

func TestQ1Window_Pace(t *testing.T) {
	game := testGame()
	var events []domain.PBPEvent
	// 8 made shots alternating teams: 8 possessions in 4 minutes → 96 per 48.
	for i := 0; i < 8; i++ {
		team := "BOS"
		if i%2 == 1 {
			team = "LAL"
		}
		ev := windowEvent(i+1, 710000-i*20000, "shot", team)
		ev.ShotMade = boolPtr(true)
		events = append(events, ev)
	}
	w := Q1Window(game, events)
	assert.Equal(t, 8, w.Possessions)
	assert.InDelta(t, 96.0, w.PacePer48, 1e-9)
	assert.Equal(t, 100.0, w.ExpectedPace)
}
