package preprocess

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/courtwire/courtwire/internal/metrics"
)

func TestIsEnumField(t *testing.T) {
	for _, name := range []string{"EVENT_TYPE", "GAME_STATUS", "REF_ROLE", "SHOT_RESULT", "SHOT_ZONE", "PLAY_KIND", "TEAM_CODE", "EVENTMSGTYPE", "PERSONTYPE"} {
		if !IsEnumField(name) {
			t.Errorf("%s should be an enum field", name)
		}
	}
	for _, name := range []string{"PTS", "GAME_ID", "DESCRIPTION", "PLAYER1_NAME"} {
		if IsEnumField(name) {
			t.Errorf("%s should not be an enum field", name)
		}
	}
}

func TestMapEventType_KnownCodes(t *testing.T) {
	cases := map[any]string{
		1:    "shot",
		2:    "shot",
		3:    "free_throw",
		4:    "rebound",
		5:    "turnover",
		6:    "foul",
		8:    "substitution",
		9:    "timeout",
		10:   "jump_ball",
		11:   "ejection",
		12:   "period_start",
		13:   "period_end",
		18:   "instant_replay",
		"6":  "foul",   // stringified codes appear in the same column
		6.0:  "foul",   // and so do float-decoded JSON numbers
		"13": "period_end",
	}
	for in, want := range cases {
		if got := MapEventType(in, nil); got != want {
			t.Errorf("MapEventType(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestMapEventType_DriftFallsBackToDefault(t *testing.T) {
	m := metrics.NewTestRegistry()

	if got := MapEventType(99, m); got != "shot" {
		t.Errorf("unknown code should map to safe default, got %q", got)
	}
	drift := testutil.ToFloat64(m.SchemaDrift.WithLabelValues("event_type"))
	if drift != 1 {
		t.Errorf("schema_drift counter = %v, want 1", drift)
	}
}

func TestNormalize(t *testing.T) {
	m := metrics.NewTestRegistry()
	row := Row{
		"EVENTMSGTYPE": "4",
		"SHOT_ZONE":    7, // vendor integer zone code, stringified in place
		"GAME_ID":      "0022300123",
		"PTS":          12,
	}
	Normalize(row, m)

	if row["EVENT_TYPE"] != "rebound" {
		t.Errorf("EVENT_TYPE = %v", row["EVENT_TYPE"])
	}
	if row["SHOT_ZONE"] != "7" {
		t.Errorf("SHOT_ZONE should be stringified, got %v (%T)", row["SHOT_ZONE"], row["SHOT_ZONE"])
	}
	if row["GAME_ID"] != "0022300123" {
		t.Error("non-enum fields must be untouched")
	}
	if row["PTS"] != 12 {
		t.Error("numeric stat columns must be untouched")
	}
}
