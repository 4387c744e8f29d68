package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"alert-registry/internal/models"
)

// MemoryDSN selects the in-process store instead of PostgreSQL.
const MemoryDSN = "memory://"

type DB struct {
	Pool *pgxpool.Pool
}

// New opens a connection pool and verifies the server is reachable.
func New(ctx context.Context, dsn string, maxConns int32) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Ping checks connectivity with the database.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", models.ErrStorageUnavailable, err)
	}
	return nil
}

func (d *DB) Close() {
	d.Pool.Close()
}
