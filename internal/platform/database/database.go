// Package database opens the PostgreSQL pool behind the audit log. The LMS
// data itself lives in the backend; this pool only ever holds audit events.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-lms/internal/platform/config"
)

// probeTimeout bounds the connect ping and every readiness probe.
const probeTimeout = 3 * time.Second

// DB is the audit pool. Pool is exported for audit.NewPostgresLogger.
type DB struct {
	Pool *pgxpool.Pool
}

// ParseURL checks an LMS_DATABASE_URL value.
func ParseURL(url string) (*pgxpool.Config, error) {
	if url == "" {
		return nil, fmt.Errorf("audit database URL is empty")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse audit database URL: %w", err)
	}
	return cfg, nil
}

// PoolConfig sizes the pool from LMS_DATABASE_MAX_CONNS and
// LMS_DATABASE_MIN_CONNS. A non-positive maximum, or a minimum above the
// maximum, keeps the pgx default.
func PoolConfig(c config.DatabaseConfig) (*pgxpool.Config, error) {
	cfg, err := ParseURL(c.URL)
	if err != nil {
		return nil, err
	}
	if c.MaxConns > 0 {
		cfg.MaxConns = int32(c.MaxConns)
	}
	if c.MinConns > 0 && c.MinConns <= c.MaxConns {
		cfg.MinConns = int32(c.MinConns)
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	return cfg, nil
}

// Open builds the pool and pings it. An unreachable database is an error.
func Open(ctx context.Context, c config.DatabaseConfig) (*DB, error) {
	cfg, err := PoolConfig(c)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	db := &DB{Pool: pool}
	if err := db.HealthCheck(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("audit database connected",
		"host", cfg.ConnConfig.Host,
		"database", cfg.ConnConfig.Database,
		"max_conns", cfg.MaxConns,
	)
	return db, nil
}

// Close releases every pooled connection.
func (db *DB) Close() {
	db.Pool.Close()
}

// HealthCheck pings within probeTimeout. It serves as the "database"
// readiness check of the view server.
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping audit database: %w", err)
	}
	return nil
}
