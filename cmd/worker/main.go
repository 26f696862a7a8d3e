// Package main is the entry point of the gradebook analytics background
// worker.
//
// The worker runs the periodic jobs: rebuilding cohort summaries (cache
// warming plus a persisted snapshot) and the at-risk digest.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/academ-hub/gradebook-analytics/config"
	"github.com/academ-hub/gradebook-analytics/internal/application/query"
	"github.com/academ-hub/gradebook-analytics/internal/infrastructure/messaging"
	"github.com/academ-hub/gradebook-analytics/internal/infrastructure/persistence/postgres"
	"github.com/academ-hub/gradebook-analytics/internal/infrastructure/persistence/redis"
	"github.com/academ-hub/gradebook-analytics/internal/infrastructure/scheduler"
	"github.com/academ-hub/gradebook-analytics/internal/infrastructure/scheduler/jobs"
	"github.com/academ-hub/gradebook-analytics/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	policy, err := config.LoadGradingPolicy(cfg.Grading.PolicyPath)
	if err != nil {
		return fmt.Errorf("failed to load grading policy: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Logging
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Environment: string(cfg.App.Environment),
		Debug:       cfg.App.Debug,
	})
	log.Info("starting gradebook analytics worker",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbCfg := postgres.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	dbCfg.MaxConns = cfg.Database.MaxConns
	dbCfg.MinConns = cfg.Database.MinConns
	dbCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	dbCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime
	dbCfg.ConnectAttempts = cfg.Database.ConnectAttempts

	dbConn, err := postgres.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	// The API is responsible for migrations; the worker only verifies that
	// the schema is reachable.
	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	recordRepo := postgres.NewStudentRecordRepository(dbConn)
	snapshotRepo := postgres.NewSnapshotRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Redis (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var resultCache query.ResultCache

	if !cfg.Redis.Disabled && cfg.Features.SummaryCache {
		log.Info("connecting to Redis...")
		cache, err := redis.NewCache(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn("failed to connect to Redis, cache warming disabled", "error", err)
		} else {
			defer cache.Close()
			resultCache = cache
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Event bus
	// ─────────────────────────────────────────────────────────────────────────
	eventBus := messaging.NewInMemoryEventBus(log)
	defer func() { _ = eventBus.Close() }()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. Scheduler and jobs
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(log)

	rebuildCfg := jobs.DefaultRebuildSummariesConfig()
	rebuildCfg.CacheTTL = cfg.Redis.SummaryTTL
	rebuildCfg.SnapshotRetention = cfg.Scheduler.SnapshotRetention

	rebuildJob := jobs.NewRebuildSummariesJob(
		recordRepo, snapshotRepo, resultCache, eventBus, policy, log, rebuildCfg)
	if err := sched.Register(rebuildJob,
		scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildSummariesInterval)); err != nil {
		return fmt.Errorf("failed to register rebuild job: %w", err)
	}

	if cfg.Features.AtRiskDigest {
		digestJob := jobs.NewAtRiskDigestJob(recordRepo, eventBus, policy, log)
		if err := sched.Register(digestJob,
			scheduler.NewIntervalSchedule(cfg.Scheduler.AtRiskDigestInterval)); err != nil {
			return fmt.Errorf("failed to register at-risk digest job: %w", err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Warm caches immediately instead of waiting a full interval.
	if _, err := sched.RunNow(ctx, rebuildJob.Name()); err != nil {
		log.Warn("initial summary rebuild failed", "error", err)
	}

	log.Info("worker is running",
		"rebuild_interval", cfg.Scheduler.RebuildSummariesInterval.String(),
		"at_risk_digest", cfg.Features.AtRiskDigest,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	if err := sched.Stop(); err != nil {
		return fmt.Errorf("scheduler shutdown failed: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}
