package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/courtwire/courtwire/internal/cache"
	"github.com/courtwire/courtwire/internal/extract"
	"github.com/courtwire/courtwire/internal/net/httpx"
	"github.com/courtwire/courtwire/internal/transform"
)

// BRefName is the logical source name for basketball-reference.
const BRefName = "bref"

const defaultBRefBase = "https://www.basketball-reference.com"

// BRefClient scrapes basketball-reference pages. Game operations take the
// bref game id (e.g. "202401150BOS"); the crosswalk table owns the mapping to
// the canonical id.
type BRefClient struct {
	baseURL string
	fetcher *httpx.Fetcher
	cache   *cache.Cache
}

// NewBRef builds the client with the default base URL.
func NewBRef(fetcher *httpx.Fetcher, c *cache.Cache) *BRefClient {
	return &BRefClient{baseURL: defaultBRefBase, fetcher: fetcher, cache: c}
}

func (c *BRefClient) Name() string { return BRefName }

func (c *BRefClient) fetch(ctx context.Context, path string, class cache.EndpointClass) (*extract.Tables, error) {
	key := cache.Key(c.baseURL, path, nil)
	if entry, ok := c.cache.Get(ctx, key, class); ok {
		return extract.BRef(entry.Payload)
	}
	body, err := c.fetcher.Get(ctx, BRefName, c.baseURL+path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	c.cache.Set(ctx, key, class, body)
	return extract.BRef(body)
}

// Scoreboard returns the season schedule page covering the date; the
// transformer filters the schedule table down to the date's games.
func (c *BRefClient) Scoreboard(ctx context.Context, date time.Time) (*extract.Tables, error) {
	season := transform.SeasonFromDate(date)
	endYear := seasonEndYear(season)
	month := strings.ToLower(date.Month().String())
	path := fmt.Sprintf("/leagues/NBA_%d_games-%s.html", endYear, month)
	return c.fetch(ctx, path, cache.ClassLive)
}

// Boxscore fetches the game page with line score and per-team basic and
// advanced tables.
func (c *BRefClient) Boxscore(ctx context.Context, brefGameID string) (*extract.Tables, error) {
	return c.fetch(ctx, "/boxscores/"+brefGameID+".html", cache.ClassGame)
}

// PBP fetches the play-by-play page for a game.
func (c *BRefClient) PBP(ctx context.Context, brefGameID string) (*extract.Tables, error) {
	return c.fetch(ctx, "/boxscores/pbp/"+brefGameID+".html", cache.ClassGame)
}

// seasonEndYear turns "2023-24" into 2024, the year bref keys its season
// pages on.
func seasonEndYear(season string) int {
	var start int
	fmt.Sscanf(season, "%d", &start)
	return start + 1
}
