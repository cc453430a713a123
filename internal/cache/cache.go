// Package cache implements the content-addressed response cache that sits in
// front of the HTTP fetcher. The filesystem is the primary backend; a redis
// tier can be layered in for shared deployments. Cache failures are logged
// and swallowed: a broken cache must never fail a request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtwire/courtwire/internal/metrics"
)

// EndpointClass selects the TTL applied to a cached response.
type EndpointClass string

const (
	ClassLive  EndpointClass = "live"  // scoreboard-ish endpoints
	ClassGame  EndpointClass = "game"  // boxscore, pbp, lineups, shots
	ClassOther EndpointClass = "other"
)

// TTL returns the time-to-live for the endpoint class.
func (c EndpointClass) TTL() time.Duration {
	switch c {
	case ClassLive:
		return 300 * time.Second
	case ClassGame:
		return 3600 * time.Second
	default:
		return 1800 * time.Second
	}
}

// Entry is the stored value: raw response payload plus ingestion timestamp.
// Payload holds the undecoded body; HTML and PDF responses are not JSON, so
// the field is opaque bytes rather than a decoded tree.
type Entry struct {
	Payload    []byte    `json:"payload"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Key derives the content address for a request: SHA-256 over the base URL,
// endpoint, and sorted parameters.
func Key(baseURL, endpoint string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(baseURL)
	sb.WriteString(endpoint)
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(params[k])
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// Backend is a key-value store holding serialized entries.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Cache is the TTL response cache used by source clients before they call
// the fetcher.
type Cache struct {
	fs      *FSBackend
	shared  Backend // optional second tier
	metrics *metrics.Registry
}

// New creates a cache rooted at dir. shared may be nil.
func New(dir string, shared Backend, m *metrics.Registry) (*Cache, error) {
	fs, err := NewFSBackend(dir)
	if err != nil {
		return nil, err
	}
	return &Cache{fs: fs, shared: shared, metrics: m}, nil
}

// Get returns the cached entry for key if present and fresh.
func (c *Cache) Get(ctx context.Context, key string, class EndpointClass) (*Entry, bool) {
	if entry, ok := c.load(ctx, c.fs, key, class); ok {
		c.count(true, class)
		return entry, true
	}
	if c.shared != nil {
		if entry, ok := c.load(ctx, c.shared, key, class); ok {
			c.count(true, class)
			return entry, true
		}
	}
	c.count(false, class)
	return nil, false
}

// Set stores payload under key. Writes are best-effort on both tiers.
func (c *Cache) Set(ctx context.Context, key string, class EndpointClass, payload []byte) {
	entry := Entry{Payload: payload, IngestedAt: time.Now().UTC()}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache entry marshal failed")
		return
	}
	if err := c.fs.Set(ctx, key, data, class.TTL()); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("filesystem cache write failed")
	}
	if c.shared != nil {
		if err := c.shared.Set(ctx, key, data, class.TTL()); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("shared cache write failed")
		}
	}
}

func (c *Cache) load(ctx context.Context, b Backend, key string, class EndpointClass) (*Entry, bool) {
	data, err := b.Get(ctx, key)
	if err != nil || data == nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if time.Since(entry.IngestedAt) > class.TTL() {
		return nil, false
	}
	return &entry, true
}

func (c *Cache) count(hit bool, class EndpointClass) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.CacheHits.WithLabelValues(string(class)).Inc()
	} else {
		c.metrics.CacheMisses.WithLabelValues(string(class)).Inc()
	}
}

// FSBackend stores one file per key under a root directory.
type FSBackend struct {
	root string
}

// NewFSBackend creates the root directory if needed.
func NewFSBackend(root string) (*FSBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &FSBackend{root: root}, nil
}

func (b *FSBackend) path(key string) string {
	// Shard by the first two hex chars to keep directories small.
	return filepath.Join(b.root, key[:2], key+".json")
}

// Get reads the entry file for key; a missing file is (nil, nil).
func (b *FSBackend) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

// Set writes the entry file atomically via rename.
func (b *FSBackend) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	p := b.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
