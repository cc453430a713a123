package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/courtwire/courtwire/internal/cache"
	"github.com/courtwire/courtwire/internal/extract"
	"github.com/courtwire/courtwire/internal/net/httpx"
	"github.com/courtwire/courtwire/internal/transform"
)

// NBAStatsName is the logical source name used for rate limiting, breaker
// selection, and provenance columns.
const NBAStatsName = "nba_stats"

const defaultNBAStatsBase = "https://stats.nba.com/stats"

// nbaStatsHeaders are required beyond the browser defaults; stats.nba.com
// rejects requests without the origin trio.
var nbaStatsHeaders = map[string]string{
	"Referer":            "https://www.nba.com/",
	"Origin":             "https://www.nba.com",
	"x-nba-stats-origin": "stats",
	"x-nba-stats-token":  "true",
}

// NBAStatsClient reads the stats.nba.com JSON endpoints.
type NBAStatsClient struct {
	baseURL string
	fetcher *httpx.Fetcher
	cache   *cache.Cache
}

// NewNBAStats builds the client with the default base URL.
func NewNBAStats(fetcher *httpx.Fetcher, c *cache.Cache) *NBAStatsClient {
	return &NBAStatsClient{baseURL: defaultNBAStatsBase, fetcher: fetcher, cache: c}
}

func (c *NBAStatsClient) Name() string { return NBAStatsName }

// fetch resolves endpoint+params through the cache, hitting the network only
// on a miss.
func (c *NBAStatsClient) fetch(ctx context.Context, endpoint string, params map[string]string, class cache.EndpointClass) ([]byte, error) {
	key := cache.Key(c.baseURL, endpoint, params)
	if entry, ok := c.cache.Get(ctx, key, class); ok {
		return entry.Payload, nil
	}
	body, err := c.fetcher.Get(ctx, NBAStatsName, c.baseURL+"/"+endpoint, params, nbaStatsHeaders)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	c.cache.Set(ctx, key, class, body)
	return body, nil
}

func (c *NBAStatsClient) tables(ctx context.Context, endpoint string, params map[string]string, class cache.EndpointClass) (*extract.Tables, error) {
	body, err := c.fetch(ctx, endpoint, params, class)
	if err != nil {
		return nil, err
	}
	return extract.NBAStats(body)
}

// Scoreboard lists the games of one date via scoreboardv2.
func (c *NBAStatsClient) Scoreboard(ctx context.Context, date time.Time) (*extract.Tables, error) {
	return c.tables(ctx, "scoreboardv2", map[string]string{
		"GameDate":  date.Format("01/02/2006"),
		"LeagueID":  "00",
		"DayOffset": "0",
	}, cache.ClassLive)
}

// Boxscore merges the summary and traditional boxscore endpoints into one
// table set: game header and officials from the summary, team and player
// stats from the traditional.
func (c *NBAStatsClient) Boxscore(ctx context.Context, gameID string) (*extract.Tables, error) {
	summary, err := c.tables(ctx, "boxscoresummaryv2", map[string]string{"GameID": gameID}, cache.ClassGame)
	if err != nil {
		return nil, err
	}
	traditional, err := c.tables(ctx, "boxscoretraditionalv2", map[string]string{
		"GameID":      gameID,
		"StartPeriod": "0",
		"EndPeriod":   "10",
		"StartRange":  "0",
		"EndRange":    "0",
		"RangeType":   "0",
	}, cache.ClassGame)
	if err != nil {
		return nil, err
	}
	for name, rows := range traditional.Sets {
		if _, exists := summary.Sets[name]; !exists {
			summary.Sets[name] = rows
		}
	}
	return summary, nil
}

// PBP fetches the full play-by-play via playbyplayv2.
func (c *NBAStatsClient) PBP(ctx context.Context, gameID string) (*extract.Tables, error) {
	return c.tables(ctx, "playbyplayv2", map[string]string{
		"GameID":      gameID,
		"StartPeriod": "0",
		"EndPeriod":   "10",
	}, cache.ClassGame)
}

// Lineups reuses the traditional boxscore; starters are the rows with a
// non-empty START_POSITION, which the transformer filters on.
func (c *NBAStatsClient) Lineups(ctx context.Context, gameID string) (*extract.Tables, error) {
	return c.tables(ctx, "boxscoretraditionalv2", map[string]string{
		"GameID":      gameID,
		"StartPeriod": "0",
		"EndPeriod":   "10",
		"StartRange":  "0",
		"EndRange":    "0",
		"RangeType":   "0",
	}, cache.ClassGame)
}

// Shots fetches the shot chart via shotchartdetail.
func (c *NBAStatsClient) Shots(ctx context.Context, gameID string) (*extract.Tables, error) {
	season, err := transform.SeasonFromGameID(gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive season for shot chart: %w", err)
	}
	return c.tables(ctx, "shotchartdetail", map[string]string{
		"GameID":         gameID,
		"Season":         season,
		"SeasonType":     "Regular Season",
		"TeamID":         "0",
		"PlayerID":       "0",
		"ContextMeasure": "FGA",
		"LeagueID":       "00",
	}, cache.ClassGame)
}
