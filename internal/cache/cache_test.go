package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestKey_Deterministic(t *testing.T) {
	a := Key("https://stats.nba.com", "/stats/boxscore", map[string]string{"GameID": "0022300123", "LeagueID": "00"})
	b := Key("https://stats.nba.com", "/stats/boxscore", map[string]string{"LeagueID": "00", "GameID": "0022300123"})
	if a != b {
		t.Error("param order must not change the key")
	}
	if len(a) != 64 {
		t.Errorf("key should be hex SHA-256, got length %d", len(a))
	}

	c := Key("https://stats.nba.com", "/stats/boxscore", map[string]string{"GameID": "0022300124"})
	if a == c {
		t.Error("different params must produce different keys")
	}
}

func TestCache_RoundTrip(t *testing.T) {
	c, err := New(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()
	key := Key("https://stats.nba.com", "/stats/pbp", map[string]string{"GameID": "0022300123"})

	if _, ok := c.Get(ctx, key, ClassGame); ok {
		t.Fatal("empty cache should miss")
	}

	c.Set(ctx, key, ClassGame, []byte(`{"resultSets":[]}`))

	entry, ok := c.Get(ctx, key, ClassGame)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if string(entry.Payload) != `{"resultSets":[]}` {
		t.Errorf("payload = %s", entry.Payload)
	}
	if entry.IngestedAt.IsZero() {
		t.Error("ingested timestamp should be populated")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	fs, err := NewFSBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSBackend failed: %v", err)
	}
	c := &Cache{fs: fs}
	ctx := context.Background()
	key := Key("https://stats.nba.com", "/stats/scoreboardv2", map[string]string{"GameDate": "2024-01-15"})

	stale := Entry{
		Payload:    []byte(`{}`),
		IngestedAt: time.Now().Add(-10 * time.Minute),
	}
	data, _ := json.Marshal(stale)
	if err := fs.Set(ctx, key, data, 0); err != nil {
		t.Fatalf("backend set failed: %v", err)
	}

	// 10 minutes is stale for the 300s live class but fresh for the 1h game class.
	if _, ok := c.Get(ctx, key, ClassLive); ok {
		t.Error("live-class entry past TTL should miss")
	}
	if _, ok := c.Get(ctx, key, ClassGame); !ok {
		t.Error("game-class entry within TTL should hit")
	}
}

type fakeShared struct {
	mu   sync.Mutex
	data map[string][]byte
	fail bool
}

func (f *fakeShared) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("shared tier down")
	}
	return f.data[key], nil
}

func (f *fakeShared) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("shared tier down")
	}
	if f.data == nil {
		f.data = map[string][]byte{}
	}
	f.data[key] = data
	return nil
}

func TestCache_SharedTierFallback(t *testing.T) {
	shared := &fakeShared{}
	c, err := New(t.TempDir(), shared, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()
	key := Key("https://www.basketball-reference.com", "/boxscores/202401150BOS.html", nil)

	c.Set(ctx, key, ClassOther, []byte("<html/>"))

	// Drop the filesystem copy; the shared tier should still serve the entry.
	c.fs = mustFS(t)
	entry, ok := c.Get(ctx, key, ClassOther)
	if !ok {
		t.Fatal("expected hit from shared tier")
	}
	if string(entry.Payload) != "<html/>" {
		t.Errorf("payload = %q", entry.Payload)
	}
}

func TestCache_SharedTierFailureIsSwallowed(t *testing.T) {
	shared := &fakeShared{fail: true}
	c, err := New(t.TempDir(), shared, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()
	key := Key("x", "y", nil)

	// Neither Set nor Get may surface shared-tier errors.
	c.Set(ctx, key, ClassOther, []byte(`{"a":1}`))
	if _, ok := c.Get(ctx, key, ClassOther); !ok {
		t.Error("filesystem tier should still serve despite shared failure")
	}
}

func mustFS(t *testing.T) *FSBackend {
	t.Helper()
	fs, err := NewFSBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return fs
}
