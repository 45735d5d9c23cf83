// Package bootstrap builds the logger, snapshot backend and services from
// the environment, for the server, the CLI and the seed script.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/rlbelief/internal/config"
	"github.com/Harshitk-cp/rlbelief/internal/domain"
	"github.com/Harshitk-cp/rlbelief/internal/service"
	"github.com/Harshitk-cp/rlbelief/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a development logger for debug, production otherwise.
func NewLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// Backend is an opened snapshot store plus what the server needs around it.
type Backend struct {
	Store domain.SnapshotStore
	Kind  string
	Ping  func(ctx context.Context) error
	Close func()
}

// OpenBackend opens the store SNAPSHOT_BACKEND selects.
func OpenBackend(ctx context.Context, logger *zap.Logger) (*Backend, error) {
	switch kind := config.SnapshotBackend(); kind {
	case config.BackendPostgres:
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres backend")
		}
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		pg := store.NewPGSnapshotStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("connected to database")
		return &Backend{Store: pg, Kind: kind, Ping: pool.Ping, Close: pool.Close}, nil

	default:
		dir := config.DataDir()
		fs, err := store.NewFileSnapshotStore(dir, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("using file snapshots", zap.String("dir", dir))
		return &Backend{Store: fs, Kind: kind, Close: func() {}}, nil
	}
}

// RankingConfig reads the ranking defaults from the environment.
func RankingConfig() service.RankingConfig {
	return service.RankingConfig{
		Coverage:   config.IntervalCoverage(),
		Thresholds: config.Thresholds(),
		Samples:    config.CompareSamples(),
		Seed:       config.CompareSeed(),
		TopK:       config.SummaryTopK(),
	}
}

// Services builds both services over one backend.
func Services(b *Backend, logger *zap.Logger) (*service.BeliefService, *service.RankingService) {
	beliefs := service.NewBeliefService(b.Store, logger)
	return beliefs, service.NewRankingService(beliefs, RankingConfig())
}
