// Package sources holds the vendor clients and the uniform facade the
// pipeline talks to. Clients fetch through the shared cache and fetcher;
// payload shape is handled by the extract package, so the rest of the system
// only ever sees flat row maps.
package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courtwire/courtwire/internal/extract"
)

// ErrUnsupported tags operations a source does not implement.
var ErrUnsupported = errors.New("unsupported operation")

// UnsupportedError identifies exactly which source/operation pair is missing.
type UnsupportedError struct {
	Source string
	Op     string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("source %s does not support %s", e.Source, e.Op)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// Client is the minimal contract every vendor client satisfies. Operations
// are capability interfaces; the facade feature-checks at call time.
type Client interface {
	Name() string
}

// ScoreboardClient lists the games of one calendar date.
type ScoreboardClient interface {
	Scoreboard(ctx context.Context, date time.Time) (*extract.Tables, error)
}

// BoxscoreClient fetches summary plus team/player stat tables for one game.
type BoxscoreClient interface {
	Boxscore(ctx context.Context, gameID string) (*extract.Tables, error)
}

// PBPClient fetches the play-by-play stream for one game.
type PBPClient interface {
	PBP(ctx context.Context, gameID string) (*extract.Tables, error)
}

// LineupsClient fetches starting-lineup rows for one game.
type LineupsClient interface {
	Lineups(ctx context.Context, gameID string) (*extract.Tables, error)
}

// ShotsClient fetches the shot chart for one game.
type ShotsClient interface {
	Shots(ctx context.Context, gameID string) (*extract.Tables, error)
}

// RefsClient fetches referee assignments and alternates for a date.
type RefsClient interface {
	Refs(ctx context.Context, date time.Time) ([]GamebookResult, error)
}

// Facade dispatches operations to registered clients, returning a precise
// UnsupportedError when a client lacks the capability.
type Facade struct {
	clients map[string]Client
}

// NewFacade registers the given clients under their names.
func NewFacade(clients ...Client) *Facade {
	m := make(map[string]Client, len(clients))
	for _, c := range clients {
		m[c.Name()] = c
	}
	return &Facade{clients: m}
}

// Sources returns the registered source names.
func (f *Facade) Sources() []string {
	out := make([]string, 0, len(f.clients))
	for name := range f.clients {
		out = append(out, name)
	}
	return out
}

// Client returns the registered client for a source name.
func (f *Facade) Client(source string) (Client, bool) {
	c, ok := f.clients[source]
	return c, ok
}

func (f *Facade) Scoreboard(ctx context.Context, source string, date time.Time) (*extract.Tables, error) {
	c, ok := f.clients[source]
	if !ok {
		return nil, &UnsupportedError{Source: source, Op: "scoreboard"}
	}
	sc, ok := c.(ScoreboardClient)
	if !ok {
		return nil, &UnsupportedError{Source: source, Op: "scoreboard"}
	}
	return sc.Scoreboard(ctx, date)
}

func (f *Facade) Boxscore(ctx context.Context, source, gameID string) (*extract.Tables, error) {
	c, ok := f.clients[source]
	if !ok {
		return nil, &UnsupportedError{Source: source, Op: "boxscore"}
	}
	bc, ok := c.(BoxscoreClient)
	if !ok {
		return nil, &UnsupportedError{Source: source, Op: "boxscore"}
	}
	return bc.Boxscore(ctx, gameID)
}

func (f *Facade) PBP(ctx context.Context, source, gameID string) (*extract.Tables, error) {
	c, ok := f.clients[source]
	if !ok {
		return nil, &UnsupportedError{Source: source, Op: "pbp"}
	}
	pc, ok := c.(PBPClient)
	if !ok {
		return nil, &UnsupportedError{Source: source, Op: "pbp"}
	}
	return pc.PBP(ctx, gameID)
}

func (f *Facade) Lineups(ctx context.Context, source, gameID string) (*extract.Tables, error) {
	c, ok := f.clients[source]
	if !ok {
		return nil, &UnsupportedError{Source: source, Op: "lineups"}
	}
	lc, ok := c.(LineupsClient)
	if !ok {
		return nil, &UnsupportedError{Source: source, Op: "lineups"}
	}
	return lc.Lineups(ctx, gameID)
}

func (f *Facade) Shots(ctx context.Context, source, gameID string) (*extract.Tables, error) {
	c, ok := f.clients[source]
	if !ok {
		return nil, &UnsupportedError{Source: source, Op: "shots"}
	}
	sc, ok := c.(ShotsClient)
	if !ok {
		return nil, &UnsupportedError{Source: source, Op: "shots"}
	}
	return sc.Shots(ctx, gameID)
}

func (f *Facade) Refs(ctx context.Context, source string, date time.Time) ([]GamebookResult, error) {
	c, ok := f.clients[source]
	if !ok {
		return nil, &UnsupportedError{Source: source, Op: "refs"}
	}
	rc, ok := c.(RefsClient)
	if !ok {
		return nil, &UnsupportedError{Source: source, Op: "refs"}
	}
	return rc.Refs(ctx, date)
}
