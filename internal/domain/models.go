package domain

import "time"

// GameStatus is the canonical lifecycle status of a game.
type GameStatus string

const (
	StatusScheduled   GameStatus = "scheduled"
	StatusLive        GameStatus = "live"
	StatusFinal       GameStatus = "final"
	StatusPostponed   GameStatus = "postponed"
	StatusCancelled   GameStatus = "cancelled"
	StatusSuspended   GameStatus = "suspended"
	StatusRescheduled GameStatus = "rescheduled"
)

// Source identifies a vendor feeding the pipeline.
type Source string

const (
	SourceNBAStats  Source = "nba_stats"
	SourceBRef      Source = "bref"
	SourceGamebooks Source = "gamebooks"
	SourceDefault   Source = "default"
)

// Game is the root fact. Every child table carries its GameID.
type Game struct {
	GameID        string     `json:"game_id" db:"game_id"`
	Season        string     `json:"season" db:"season"`
	GameTimeUTC   *time.Time `json:"game_time_utc,omitempty" db:"game_time_utc"`
	LocalDate     string     `json:"local_date" db:"local_date"` // arena-local YYYY-MM-DD
	ArenaTZ       string     `json:"arena_tz" db:"arena_tz"`     // IANA zone of the venue
	HomeTricode   string     `json:"home_tricode" db:"home_tricode"`
	AwayTricode   string     `json:"away_tricode" db:"away_tricode"`
	Status        GameStatus `json:"status" db:"status"`
	Period        int        `json:"period" db:"period"`
	SourceName    string     `json:"source" db:"source"`
	SourceURL     string     `json:"source_url" db:"source_url"`
	IngestedAtUTC time.Time  `json:"ingested_at_utc" db:"ingested_at_utc"`
}

// PBPEvent is a single play-by-play event, keyed (game_id, period, event_idx).
type PBPEvent struct {
	GameID         string   `json:"game_id" db:"game_id"`
	Period         int      `json:"period" db:"period"`
	EventIdx       int      `json:"event_idx" db:"event_idx"`
	ClockRemaining string   `json:"clock_remaining" db:"clock_remaining"`
	ClockMS        *int     `json:"clock_ms,omitempty" db:"clock_ms"`
	SecondsElapsed *float64 `json:"seconds_elapsed,omitempty" db:"seconds_elapsed"`
	HomeScore      *int     `json:"home_score,omitempty" db:"home_score"`
	AwayScore      *int     `json:"away_score,omitempty" db:"away_score"`
	EventType      string   `json:"event_type" db:"event_type"`
	EventSubtype   *string  `json:"event_subtype,omitempty" db:"event_subtype"`
	Description    *string  `json:"description,omitempty" db:"description"`
	Player1Slug    *string  `json:"player1_slug,omitempty" db:"player1_slug"`
	Player1ID      *int     `json:"player1_id,omitempty" db:"player1_id"`
	Player2Slug    *string  `json:"player2_slug,omitempty" db:"player2_slug"`
	Player2ID      *int     `json:"player2_id,omitempty" db:"player2_id"`
	Player3Slug    *string  `json:"player3_slug,omitempty" db:"player3_slug"`
	Player3ID      *int     `json:"player3_id,omitempty" db:"player3_id"`
	TeamTricode    *string  `json:"team_tricode,omitempty" db:"team_tricode"`

	ShotMade     *bool    `json:"shot_made,omitempty" db:"shot_made"`
	ShotValue    *int     `json:"shot_value,omitempty" db:"shot_value"`
	ShotType     *string  `json:"shot_type,omitempty" db:"shot_type"`
	ShotZone     *string  `json:"shot_zone,omitempty" db:"shot_zone"`
	ShotDistance *float64 `json:"shot_distance_ft,omitempty" db:"shot_distance_ft"`
	ShotX        *float64 `json:"shot_x,omitempty" db:"shot_x"`
	ShotY        *float64 `json:"shot_y,omitempty" db:"shot_y"`

	IsTransition   *bool    `json:"is_transition,omitempty" db:"is_transition"`
	IsEarlyClock   *bool    `json:"is_early_clock,omitempty" db:"is_early_clock"`
	ShotClockSecs  *float64 `json:"shot_clock_secs,omitempty" db:"shot_clock_secs"`
	PossessionTeam *string  `json:"possession_team,omitempty" db:"possession_team"`
}

// RefereeRole is the crew role of an assigned official.
type RefereeRole string

const (
	RoleCrewChief RefereeRole = "crew-chief"
	RoleReferee   RefereeRole = "referee"
	RoleUmpire    RefereeRole = "umpire"
	RoleOfficial  RefereeRole = "official"
)

// RefereeAssignment is one official assigned to a game.
type RefereeAssignment struct {
	GameID       string      `json:"game_id" db:"game_id"`
	RefereeSlug  string      `json:"referee_slug" db:"referee_slug"`
	RefereeName  string      `json:"referee_name" db:"referee_name"`
	Role         RefereeRole `json:"role" db:"role"`
	CrewPosition int         `json:"crew_position" db:"crew_position"`
}

// RefereeAlternate is a listed alternate official.
type RefereeAlternate struct {
	GameID      string `json:"game_id" db:"game_id"`
	RefereeSlug string `json:"referee_slug" db:"referee_slug"`
	RefereeName string `json:"referee_name" db:"referee_name"`
}

// StartingLineup holds one starter row; five per team per game.
type StartingLineup struct {
	GameID      string `json:"game_id" db:"game_id"`
	TeamTricode string `json:"team_tricode" db:"team_tricode"`
	PlayerSlug  string `json:"player_slug" db:"player_slug"`
	PlayerID    *int   `json:"player_id,omitempty" db:"player_id"`
	Position    string `json:"position" db:"position"`
}

// InjurySnapshot is a time-stamped injury status observation.
type InjurySnapshot struct {
	GameID      string    `json:"game_id" db:"game_id"`
	TeamTricode string    `json:"team_tricode" db:"team_tricode"`
	PlayerSlug  string    `json:"player_slug" db:"player_slug"`
	Status      string    `json:"status" db:"status"`
	Detail      *string   `json:"detail,omitempty" db:"detail"`
	ObservedAt  time.Time `json:"observed_at" db:"observed_at"`
}

// GameIDCrosswalk maps the canonical game id to vendor ids.
type GameIDCrosswalk struct {
	GameID     string  `json:"game_id" db:"game_id"`
	BRefGameID *string `json:"bref_game_id,omitempty" db:"bref_game_id"`
	VendorIDs  map[string]string `json:"vendor_ids,omitempty" db:"-"`
}

// TeamGameStats carries basic+advanced per-team per-game stats.
type TeamGameStats struct {
	GameID      string   `json:"game_id" db:"game_id"`
	TeamTricode string   `json:"team_tricode" db:"team_tricode"`
	Points      *int     `json:"pts,omitempty" db:"pts"`
	FGM         *int     `json:"fgm,omitempty" db:"fgm"`
	FGA         *int     `json:"fga,omitempty" db:"fga"`
	FG3M        *int     `json:"fg3m,omitempty" db:"fg3m"`
	FG3A        *int     `json:"fg3a,omitempty" db:"fg3a"`
	FTM         *int     `json:"ftm,omitempty" db:"ftm"`
	FTA         *int     `json:"fta,omitempty" db:"fta"`
	OREB        *int     `json:"oreb,omitempty" db:"oreb"`
	DREB        *int     `json:"dreb,omitempty" db:"dreb"`
	AST         *int     `json:"ast,omitempty" db:"ast"`
	STL         *int     `json:"stl,omitempty" db:"stl"`
	BLK         *int     `json:"blk,omitempty" db:"blk"`
	TOV         *int     `json:"tov,omitempty" db:"tov"`
	PF          *int     `json:"pf,omitempty" db:"pf"`
	Q1Points    *int     `json:"q1_pts,omitempty" db:"q1_pts"`
	OffRating   *float64 `json:"off_rating,omitempty" db:"off_rating"`
	DefRating   *float64 `json:"def_rating,omitempty" db:"def_rating"`
	Pace        *float64 `json:"pace,omitempty" db:"pace"`
	UsagePct    *float64 `json:"usage_pct,omitempty" db:"usage_pct"`
}

// PlayerGameStats carries per-player per-game box lines.
type PlayerGameStats struct {
	GameID      string   `json:"game_id" db:"game_id"`
	TeamTricode string   `json:"team_tricode" db:"team_tricode"`
	PlayerSlug  string   `json:"player_slug" db:"player_slug"`
	PlayerID    *int     `json:"player_id,omitempty" db:"player_id"`
	MinutesSecs *int     `json:"minutes_secs,omitempty" db:"minutes_secs"`
	Points      *int     `json:"pts,omitempty" db:"pts"`
	FGM         *int     `json:"fgm,omitempty" db:"fgm"`
	FGA         *int     `json:"fga,omitempty" db:"fga"`
	FG3M        *int     `json:"fg3m,omitempty" db:"fg3m"`
	FG3A        *int     `json:"fg3a,omitempty" db:"fg3a"`
	FTM         *int     `json:"ftm,omitempty" db:"ftm"`
	FTA         *int     `json:"fta,omitempty" db:"fta"`
	OREB        *int     `json:"oreb,omitempty" db:"oreb"`
	DREB        *int     `json:"dreb,omitempty" db:"dreb"`
	AST         *int     `json:"ast,omitempty" db:"ast"`
	STL         *int     `json:"stl,omitempty" db:"stl"`
	BLK         *int     `json:"blk,omitempty" db:"blk"`
	TOV         *int     `json:"tov,omitempty" db:"tov"`
	PF          *int     `json:"pf,omitempty" db:"pf"`
	PlusMinus   *int     `json:"plus_minus,omitempty" db:"plus_minus"`
	UsagePct    *float64 `json:"usage_pct,omitempty" db:"usage_pct"`
}

// Outcome is the final result line for a game.
type Outcome struct {
	GameID     string `json:"game_id" db:"game_id"`
	HomeFinal  int    `json:"home_final" db:"home_final"`
	AwayFinal  int    `json:"away_final" db:"away_final"`
	HomeQ1     *int   `json:"home_q1,omitempty" db:"home_q1"`
	AwayQ1     *int   `json:"away_q1,omitempty" db:"away_q1"`
	Margin     int    `json:"margin" db:"margin"`
	OTCount    int    `json:"ot_count" db:"ot_count"`
	WinnerTri  string `json:"winner_tricode" db:"winner_tricode"`
}

// CheckpointStatus is the lifecycle status of a pipeline work item.
type CheckpointStatus string

const (
	CheckpointPending   CheckpointStatus = "pending"
	CheckpointRunning   CheckpointStatus = "running"
	CheckpointCompleted CheckpointStatus = "completed"
	CheckpointFailed    CheckpointStatus = "failed"
)

// Checkpoint is one row of pipeline_state.
type Checkpoint struct {
	PipelineName string           `json:"pipeline_name" db:"pipeline_name"`
	Key          string           `json:"key" db:"key"` // game_id or date
	Step         string           `json:"step" db:"step"`
	Status       CheckpointStatus `json:"status" db:"status"`
	StartedAt    *time.Time       `json:"started_at,omitempty" db:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage *string          `json:"error_message,omitempty" db:"error_message"`
}
