package domain

// Q1Window is the derived possession-window record for 12:00→8:00 of Q1.
// One row per game.
type Q1Window struct {
	GameID        string  `json:"game_id" db:"game_id"`
	Possessions   int     `json:"possessions" db:"possessions"`
	PacePer48     float64 `json:"pace_per48" db:"pace_per48"`
	ExpectedPace  float64 `json:"expected_pace_per48" db:"expected_pace_per48"`
	HomeEFGPct    *float64 `json:"home_efg_pct,omitempty" db:"home_efg_pct"`
	AwayEFGPct    *float64 `json:"away_efg_pct,omitempty" db:"away_efg_pct"`
	HomeTORate    *float64 `json:"home_to_rate,omitempty" db:"home_to_rate"`
	AwayTORate    *float64 `json:"away_to_rate,omitempty" db:"away_to_rate"`
	HomeFTRate    *float64 `json:"home_ft_rate,omitempty" db:"home_ft_rate"`
	AwayFTRate    *float64 `json:"away_ft_rate,omitempty" db:"away_ft_rate"`
	HomeOREBPct   *float64 `json:"home_oreb_pct,omitempty" db:"home_oreb_pct"`
	AwayOREBPct   *float64 `json:"away_oreb_pct,omitempty" db:"away_oreb_pct"`
	HomeDREBPct   *float64 `json:"home_dreb_pct,omitempty" db:"home_dreb_pct"`
	AwayDREBPct   *float64 `json:"away_dreb_pct,omitempty" db:"away_dreb_pct"`
	HomeBonusSecs float64 `json:"home_bonus_secs" db:"home_bonus_secs"`
	AwayBonusSecs float64 `json:"away_bonus_secs" db:"away_bonus_secs"`
	TransitionRate float64 `json:"transition_rate" db:"transition_rate"`
	EarlyClockRate float64 `json:"early_clock_rate" db:"early_clock_rate"`
}

// ShockType classifies an early-shock event.
type ShockType string

const (
	ShockTwoFoulsEarly ShockType = "two-personal-fouls-early"
	ShockTechnical     ShockType = "technical"
	ShockFlagrant      ShockType = "flagrant"
	ShockInjuryLeave   ShockType = "injury-leave"
)

// EarlyShock is one Q1 disruption event. Uniquely identified by
// (game_id, shock_type, period, seconds_elapsed, player_slug).
type EarlyShock struct {
	GameID           string    `json:"game_id" db:"game_id"`
	ShockType        ShockType `json:"shock_type" db:"shock_type"`
	Period           int       `json:"period" db:"period"`
	SecondsElapsed   float64   `json:"seconds_elapsed" db:"seconds_elapsed"`
	PlayerSlug       string    `json:"player_slug" db:"player_slug"`
	TeamTricode      *string   `json:"team_tricode,omitempty" db:"team_tricode"`
	SequenceNumber   int       `json:"sequence_number" db:"sequence_number"`
	EventIdxStart    int       `json:"event_idx_start" db:"event_idx_start"`
	EventIdxEnd      int       `json:"event_idx_end" db:"event_idx_end"`
	ImmediateSub     *bool     `json:"immediate_sub,omitempty" db:"immediate_sub"`
	PossessionsSince *int      `json:"possessions_since,omitempty" db:"possessions_since"`
}

// ScheduleTravel is the per (game, team) rest and travel record.
type ScheduleTravel struct {
	GameID          string   `json:"game_id" db:"game_id"`
	TeamTricode     string   `json:"team_tricode" db:"team_tricode"`
	BackToBack      bool     `json:"back_to_back" db:"back_to_back"`
	ThreeInFour     bool     `json:"three_in_four" db:"three_in_four"`
	FiveInSeven     bool     `json:"five_in_seven" db:"five_in_seven"`
	DaysRest        int      `json:"days_rest" db:"days_rest"`
	TZShiftHours    float64  `json:"tz_shift_hours" db:"tz_shift_hours"` // positive = eastward
	CircadianIndex  float64  `json:"circadian_index" db:"circadian_index"`
	AltitudeDeltaM  float64  `json:"altitude_delta_m" db:"altitude_delta_m"`
	DistanceKM      float64  `json:"distance_km" db:"distance_km"`
	PrevVenueLat    *float64 `json:"prev_venue_lat,omitempty" db:"prev_venue_lat"`
	PrevVenueLon    *float64 `json:"prev_venue_lon,omitempty" db:"prev_venue_lon"`
}
