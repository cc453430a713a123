package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/courtwire/courtwire/internal/cache"
	"github.com/courtwire/courtwire/internal/config"
	"github.com/courtwire/courtwire/internal/metrics"
	"github.com/courtwire/courtwire/internal/net/circuit"
	"github.com/courtwire/courtwire/internal/net/httpx"
	"github.com/courtwire/courtwire/internal/net/ratelimit"
	"github.com/courtwire/courtwire/internal/ops"
	"github.com/courtwire/courtwire/internal/pipeline"
	"github.com/courtwire/courtwire/internal/refdata"
	"github.com/courtwire/courtwire/internal/sources"
	"github.com/courtwire/courtwire/internal/store"
	"github.com/courtwire/courtwire/internal/transform"
	"github.com/courtwire/courtwire/internal/validate"
)

// app holds everything a command needs, wired once from config.
type app struct {
	cfg       *config.Config
	db        *sqlx.DB
	store     *store.Store
	orch      *pipeline.Orchestrator
	validator *validate.Validator
	ops       *ops.Server
}

// newApp loads config and builds the full dependency graph. Run-scoped flags
// (force, dry-run, resume, persist-raw) come from the CLI, not the file.
func newApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagLogLevel == "" && cfg.LogLevel != "" {
		setupLogging(cfg.LogLevel)
	}

	m := metrics.Default()
	limiter := ratelimit.NewLimiter(cfg.RateLimits, m)
	breakers := circuit.NewSet(cfg.Breaker, m)
	fetcher := httpx.NewFetcher(cfg.HTTP, limiter, breakers, m)

	var shared cache.Backend
	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		shared = cache.NewRedisBackend(client, cfg.Cache.RedisPrefix)
	}
	responseCache, err := cache.New(cfg.Cache.Dir, shared, m)
	if err != nil {
		return nil, err
	}

	aliases, err := refdata.LoadAliases(cfg.Reference.Aliases)
	if err != nil {
		return nil, err
	}
	venues, err := refdata.LoadVenues(cfg.Reference.Venues)
	if err != nil {
		return nil, err
	}
	tr := transform.New(aliases, venues)

	db, err := store.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	st := store.New(db, cfg.Database.QueryTimeout)
	validator := validate.New(db)

	facade := sources.NewFacade(
		sources.NewNBAStats(fetcher, responseCache),
		sources.NewBRef(fetcher, responseCache),
		sources.NewGamebooks(fetcher, sources.NewIndexLister(fetcher), cfg.Gamebooks.Dir),
	)

	pcfg := cfg.Pipeline
	pcfg.ForceRefresh = flagForce
	pcfg.DryRun = flagDryRun
	pcfg.Resume = flagResume
	pcfg.PersistRaw = flagPersistRaw

	a := &app{
		cfg:       cfg,
		db:        db,
		store:     st,
		orch:      pipeline.New(facade, tr, st, validator, m, pcfg),
		validator: validator,
	}
	if cfg.Ops.Listen != "" {
		a.ops = ops.New(cfg.Ops.Listen, db)
		a.ops.Start()
	}
	return a, nil
}

func (a *app) Close() {
	if a.ops != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.ops.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("ops server shutdown failed")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

// reportResult logs the run outcome and converts failures into a process
// error so the exit code reflects them.
func reportResult(res *pipeline.Result) error {
	log.Info().
		Str("run_id", res.RunID).
		Str("pipeline", res.Pipeline).
		Int("successes", res.Successes).
		Int("failures", res.Failures).
		Int64("rows", res.Counts.Total()).
		Dur("duration", res.Duration).
		Msg("run finished")
	if !res.Success {
		if res.Error != "" {
			return fmt.Errorf("%s run failed: %s", res.Pipeline, res.Error)
		}
		return fmt.Errorf("%s run finished with %d failures", res.Pipeline, res.Failures)
	}
	return nil
}
