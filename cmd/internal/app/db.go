package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"filefly/cmd/accounts"
)

// NewDBPool builds a pgxpool with sane defaults and validates connectivity.
func NewDBPool(ctx context.Context, cfg StorageConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns >= 0 {
		pcfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	if err := PingDB(ctx, pool, 3*time.Second); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// PingDB checks if we can acquire a connection within timeout.
func PingDB(parent context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn.Release()
	return nil
}

// openBackend opens the configured account backend. release frees resources the
// backend borrows (the Postgres pool) and runs after the backend is closed.
func openBackend(ctx context.Context, cfg StorageConfig, log *slog.Logger) (b accounts.Backend, release func(), err error) {
	release = func() {}

	switch cfg.Driver {
	case DriverMemory:
		log.Warn("storage.memory", "notice", "accounts are not persisted")
		return accounts.NewMemoryBackend(), release, nil

	case DriverSQLite:
		sb, err := accounts.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
		}
		log.Info("storage.sqlite", "path", cfg.Path)
		return sb, release, nil

	case DriverPostgres:
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		var opts []accounts.PostgresOption
		if cfg.Schema != "" {
			opts = append(opts, accounts.WithSchema(cfg.Schema))
		}
		pb, err := accounts.NewPostgresBackend(ctx, pool, opts...)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("storage.postgres", "schema", cfg.Schema)
		return pb, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
