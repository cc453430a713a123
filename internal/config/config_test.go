package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtwire/courtwire/internal/net/ratelimit"
)

func TestLoad_FileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
database:
  dsn: postgres://localhost/courtwire_test
rate_limits:
  nba_stats:
    requests_per_minute: 5
pipeline:
  workers: 2
  sources: ["nba_stats"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://localhost/courtwire_test", cfg.Database.DSN)
	assert.Equal(t, 5.0, cfg.RateLimits["nba_stats"].RequestsPerMinute)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, []string{"nba_stats"}, cfg.Pipeline.Sources)
	// Untouched sections keep their defaults.
	assert.Equal(t, "config/team_aliases.yaml", cfg.Reference.Aliases)
	assert.Equal(t, "data/cache", cfg.Cache.Dir)
}

func TestLoad_EnvDSNOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  dsn: postgres://file/db
`), 0o644))
	t.Setenv(EnvDSN, "postgres://env/db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/db", cfg.Database.DSN)
}

func TestLoad_MissingDSN(t *testing.T) {
	t.Setenv(EnvDSN, "")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.dsn")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	require.Error(t, err)
}

func TestValidate_NegativeRate(t *testing.T) {
	cfg := Default()
	cfg.Database.DSN = "postgres://x"
	cfg.RateLimits["nba_stats"] = ratelimit.SourceConfig{RequestsPerMinute: -1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nba_stats")
}
