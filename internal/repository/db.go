package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver          string // "sqlite" (default) | "postgres"
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// Store persists extraction runs and their contacts.
type Store struct {
	db      *sql.DB
	drv     *entsql.Driver
	dialect string
	pool    *pgxpool.Pool // nil for sqlite
	logger  *slog.Logger
}

// Open connects to the configured database. Postgres goes through a pgx pool
// wrapped as *sql.DB; SQLite uses the pure-Go driver with a single writer.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}

	switch cfg.Driver {
	case "", DriverSQLite:
		logger.Info("opening sqlite database", "dsn", cfg.DSN)
		db, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			logger.Error("failed to open sqlite database", "error", err)
			return nil, err
		}
		db.SetMaxOpenConns(1)
		s := newStore(db, dialect.SQLite, nil, logger)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
		return s, nil

	case DriverPostgres:
		logger.Info("connecting to database", "driver", cfg.Driver)
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			logger.Error("failed to parse database dsn", "error", err)
			return nil, err
		}
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		pc.MinConns = cfg.MinConns
		if cfg.MaxConnLifetime > 0 {
			pc.MaxConnLifetime = cfg.MaxConnLifetime
		}
		if cfg.MaxConnIdleTime > 0 {
			pc.MaxConnIdleTime = cfg.MaxConnIdleTime
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "contacts-extractor"

		dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
		pool, err := pgxpool.NewWithConfig(dialCtx, pc)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, err
		}

		// Wrap pool as *sql.DB for the ent SQL driver
		db := stdlib.OpenDBFromPool(pool)
		logger.Info("successfully connected to database")
		return newStore(db, dialect.Postgres, pool, logger), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func newStore(db *sql.DB, d string, pool *pgxpool.Pool, logger *slog.Logger) *Store {
	return &Store{
		db:      db,
		drv:     entsql.OpenDB(d, db),
		dialect: d,
		pool:    pool,
		logger:  logger,
	}
}

// Close closes the database connections gracefully
func (s *Store) Close() {
	s.logger.Info("closing database connections")
	if err := s.drv.Close(); err != nil {
		s.logger.Error("failed to close database", "error", err)
	}
	if s.pool != nil {
		s.pool.Close()
	}
	s.logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration) error {
	s.logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if s.pool != nil {
		if err := s.pool.Ping(ctx); err != nil {
			return err
		}
	} else if err := s.db.PingContext(ctx); err != nil {
		return err
	}
	s.logger.Debug("database ping successful")
	return nil
}

// Dialect reports the SQL dialect in use.
func (s *Store) Dialect() string { return s.dialect }

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}
