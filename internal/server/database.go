package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	repo "github.com/joseph-ayodele/contacts-extractor/internal/repository"
)

// ConnectDB opens the run store described by cfg, migrates it and pings it.
func ConnectDB(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*repo.Store, error) {
	store, err := repo.Open(ctx, repo.Config{
		Driver:          cfg.Driver,
		DSN:             cfg.DSN,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
		DialTimeout:     cfg.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "driver", cfg.Driver, "error", err)
		return nil, err
	}
	if err := PingDB(ctx, store, logger, 5*time.Second); err != nil {
		store.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, store *repo.Store, logger *slog.Logger, timeout time.Duration) error {
	if err := store.HealthCheck(ctx, timeout); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	return nil
}
