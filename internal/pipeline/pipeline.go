// Package pipeline wires fetch, extract, transform, and load into the three
// orchestrators the CLI drives: game, daily, and season, plus the derived
// run. One game's failure never aborts a batch; errors are captured into the
// run result and counted.
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/courtwire/courtwire/internal/metrics"
	"github.com/courtwire/courtwire/internal/sources"
	"github.com/courtwire/courtwire/internal/store"
	"github.com/courtwire/courtwire/internal/transform"
	"github.com/courtwire/courtwire/internal/validate"
)

// Config controls orchestrator behavior. Flags the CLI owns (force, dry-run,
// resume) are set per run.
type Config struct {
	Sources     []string      `yaml:"sources"`
	Workers     int           `yaml:"workers"`
	SeasonBatch int           `yaml:"season_batch"`
	BatchPause  time.Duration `yaml:"batch_pause"`
	ArchiveDir  string        `yaml:"archive_dir"`

	ForceRefresh bool `yaml:"-"`
	DryRun       bool `yaml:"-"`
	Resume       bool `yaml:"-"`
	PersistRaw   bool `yaml:"-"`
}

func (c Config) withDefaults() Config {
	if len(c.Sources) == 0 {
		c.Sources = []string{sources.NBAStatsName}
	}
	if c.Workers <= 0 {
		c.Workers = 5
	}
	if c.SeasonBatch <= 0 {
		c.SeasonBatch = 25
	}
	if c.BatchPause <= 0 {
		c.BatchPause = 2 * time.Second
	}
	return c
}

// Result is the structured outcome every orchestrator returns, even on total
// failure.
type Result struct {
	RunID      string            `json:"run_id"`
	Pipeline   string            `json:"pipeline"`
	Success    bool              `json:"success"`
	Counts     store.TableCounts `json:"counts"`
	Successes  int               `json:"successes"`
	Failures   int               `json:"failures"`
	FailedKeys []string          `json:"failed_keys,omitempty"`
	Duration   time.Duration     `json:"duration"`
	Error      string            `json:"error,omitempty"`
}

func newResult(pipeline string) *Result {
	return &Result{
		RunID:    uuid.NewString(),
		Pipeline: pipeline,
		Counts:   store.TableCounts{},
	}
}

// finish seals the result: success means no hard error and no failed items.
func (r *Result) finish(start time.Time, err error) *Result {
	r.Duration = time.Since(start)
	if err != nil {
		r.Error = err.Error()
	}
	r.Success = err == nil && r.Failures == 0
	return r
}

// Orchestrator runs the pipelines over shared collaborators.
type Orchestrator struct {
	facade    *sources.Facade
	tr        *transform.Transformer
	store     *store.Store
	validator *validate.Validator
	metrics   *metrics.Registry
	cfg       Config
}

// New builds an orchestrator; cfg zero values fall back to defaults.
func New(facade *sources.Facade, tr *transform.Transformer, st *store.Store, v *validate.Validator, m *metrics.Registry, cfg Config) *Orchestrator {
	return &Orchestrator{
		facade:    facade,
		tr:        tr,
		store:     st,
		validator: v,
		metrics:   m,
		cfg:       cfg.withDefaults(),
	}
}
