// Package config loads the engine configuration from YAML with environment
// overrides for secrets. Validation happens once at startup; a bad config is
// a fatal error, not something to limp along with.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/courtwire/courtwire/internal/net/circuit"
	"github.com/courtwire/courtwire/internal/net/httpx"
	"github.com/courtwire/courtwire/internal/net/ratelimit"
	"github.com/courtwire/courtwire/internal/pipeline"
	"github.com/courtwire/courtwire/internal/store"
)

// EnvDSN overrides database.dsn so credentials stay out of config files.
const EnvDSN = "COURTWIRE_DB_DSN"

// Config is the full engine configuration.
type Config struct {
	LogLevel   string                            `yaml:"log_level"`
	HTTP       httpx.Config                      `yaml:"http"`
	RateLimits map[string]ratelimit.SourceConfig `yaml:"rate_limits"`
	Breaker    circuit.Config                    `yaml:"breaker"`
	Cache      CacheConfig                       `yaml:"cache"`
	Database   store.Config                      `yaml:"database"`
	Pipeline   pipeline.Config                   `yaml:"pipeline"`
	Reference  ReferenceConfig                   `yaml:"reference"`
	Gamebooks  GamebooksConfig                   `yaml:"gamebooks"`
	Ops        OpsConfig                         `yaml:"ops"`
}

// CacheConfig locates the response cache tiers.
type CacheConfig struct {
	Dir         string `yaml:"dir"`
	RedisAddr   string `yaml:"redis_addr"` // empty disables the shared tier
	RedisPrefix string `yaml:"redis_prefix"`
}

// ReferenceConfig locates the read-only reference tables.
type ReferenceConfig struct {
	Aliases string `yaml:"aliases"`
	Venues  string `yaml:"venues"`
}

// GamebooksConfig locates the PDF download cache.
type GamebooksConfig struct {
	Dir string `yaml:"dir"`
}

// OpsConfig controls the health/metrics listener; empty disables it.
type OpsConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the configuration used when a field is absent from the file.
func Default() Config {
	return Config{
		LogLevel: "info",
		HTTP:     httpx.DefaultConfig(),
		RateLimits: map[string]ratelimit.SourceConfig{
			"nba_stats": {RequestsPerMinute: 20},
			"bref":      {RequestsPerMinute: 10},
			"gamebooks": {RequestsPerMinute: 10},
			"default":   {RequestsPerMinute: 30},
		},
		Breaker: circuit.DefaultConfig(),
		Cache: CacheConfig{
			Dir: "data/cache",
		},
		Database: store.DefaultConfig(),
		Pipeline: pipeline.Config{
			Sources:     []string{"nba_stats", "bref", "gamebooks"},
			Workers:     5,
			SeasonBatch: 25,
			BatchPause:  2 * time.Second,
			ArchiveDir:  "data/raw",
		},
		Reference: ReferenceConfig{
			Aliases: "config/team_aliases.yaml",
			Venues:  "config/venues.csv",
		},
		Gamebooks: GamebooksConfig{Dir: "data/gamebooks"},
		Ops:       OpsConfig{Listen: ""},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path returns defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if dsn := os.Getenv(EnvDSN); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the engine cannot start with.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required (or set %s)", EnvDSN)
	}
	if c.Reference.Aliases == "" || c.Reference.Venues == "" {
		return fmt.Errorf("reference.aliases and reference.venues are required")
	}
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required")
	}
	for source, rl := range c.RateLimits {
		if rl.RequestsPerMinute < 0 {
			return fmt.Errorf("rate_limits.%s: requests_per_minute must not be negative", source)
		}
	}
	if len(c.Pipeline.Sources) == 0 {
		return fmt.Errorf("pipeline.sources must name at least one source")
	}
	return nil
}
