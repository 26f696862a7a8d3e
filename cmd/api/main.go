// Package main is the entry point of the gradebook analytics API server.
//
// The API exposes roster import, grade recompute, cohort statistics,
// student profiles, and instructor management over REST, backed by
// PostgreSQL for storage and Redis for query-result caching.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/academ-hub/gradebook-analytics/config"
	"github.com/academ-hub/gradebook-analytics/internal/application/command"
	"github.com/academ-hub/gradebook-analytics/internal/application/eventhandler"
	"github.com/academ-hub/gradebook-analytics/internal/application/query"
	"github.com/academ-hub/gradebook-analytics/internal/infrastructure/messaging"
	"github.com/academ-hub/gradebook-analytics/internal/infrastructure/persistence/postgres"
	"github.com/academ-hub/gradebook-analytics/internal/infrastructure/persistence/redis"
	httpapi "github.com/academ-hub/gradebook-analytics/internal/interface/http"
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
	_ = godotenv.Load() // .env is optional; real deployments use the environment

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
	log.Info("starting gradebook analytics API",
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

	log.Info("running database migrations...")
	if err := postgres.NewMigrator(dbConn).Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	recordRepo := postgres.NewStudentRecordRepository(dbConn)
	instructorRepo := postgres.NewInstructorRepository(dbConn)
	snapshotRepo := postgres.NewSnapshotRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Redis (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var resultCache query.ResultCache
	var cachePinger httpapi.Pinger

	if !cfg.Redis.Disabled && cfg.Features.SummaryCache {
		log.Info("connecting to Redis...")
		cache, err := redis.NewCache(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
		} else {
			defer cache.Close()
			resultCache = cache
			cachePinger = cache
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Event bus and subscribers
	// ─────────────────────────────────────────────────────────────────────────
	eventBus := messaging.NewInMemoryEventBus(log)
	defer func() { _ = eventBus.Close() }()

	if resultCache != nil {
		eventhandler.NewCacheInvalidator(resultCache, log).Register(eventBus)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. Application handlers
	// ─────────────────────────────────────────────────────────────────────────
	ttl := cfg.Redis.SummaryTTL

	deps := httpapi.Dependencies{
		ImportRoster:     command.NewImportRosterHandler(recordRepo, eventBus, policy, log),
		RecomputeGrades:  command.NewRecomputeGradesHandler(recordRepo, eventBus, policy, log),
		CreateInstructor: command.NewCreateInstructorHandler(instructorRepo, log),

		CohortSummary:     query.NewGetCohortSummaryHandler(recordRepo, resultCache, ttl, log),
		CohortSnapshot:    query.NewGetCohortSnapshotHandler(snapshotRepo, log),
		SectionComparison: query.NewGetSectionComparisonHandler(recordRepo, resultCache, ttl, log),
		TopPerformers:     query.NewGetTopPerformersHandler(recordRepo, resultCache, ttl, log),
		AtRisk:            query.NewGetAtRiskHandler(recordRepo, policy, log),
		StudentProfile:    query.NewGetStudentProfileHandler(recordRepo, log),

		Instructors: instructorRepo,
		Database:    dbConn,
		Cache:       cachePinger,
		Logger:      log,
		Metrics:     httpapi.NewMetrics(prometheus.DefaultRegisterer),
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP server
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpapi.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.APIKeyHeader = cfg.HTTP.APIKeyHeader
	serverCfg.AdminBootstrapKey = cfg.HTTP.AdminBootstrapKey
	serverCfg.TopPerformersDefault = cfg.HTTP.TopPerformersDefault
	serverCfg.EnablePprof = cfg.Features.Pprof

	server := httpapi.NewServer(serverCfg, deps)
	errCh := server.StartAsync()

	log.Info("gradebook analytics API is running", "address", server.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 8. Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}
