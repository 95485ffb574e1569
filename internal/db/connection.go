// Package db opens and pools the PostgreSQL connection the storage
// adapter runs against.
package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/caldera-energy/pricefeed/internal/errs"
)

// PoolConfig tunes the connection pool. Mirrors the knobs exposed by
// database/sql; defaults favor a low-throughput batch workload over a
// high-concurrency request path.
type PoolConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
}

// DefaultPoolConfig returns the defaults used when a storage.dsn is
// configured but no pool overrides are given.
func DefaultPoolConfig(dsn string) PoolConfig {
	return PoolConfig{
		DSN:             dsn,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		QueryTimeout:    30 * time.Second,
	}
}

// Manager owns the pooled *sqlx.DB and a health check.
type Manager struct {
	DB     *sqlx.DB
	config PoolConfig
}

// Open connects, configures the pool, and pings before returning.
func Open(ctx context.Context, cfg PoolConfig) (*Manager, error) {
	if cfg.DSN == "" {
		return nil, errs.New(errs.Config, "db", "dsn is required", nil)
	}

	conn, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, errs.New(errs.Storage, "db", "open connection", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, errs.New(errs.Storage, "db", "ping database", err)
	}

	return &Manager{DB: conn, config: cfg}, nil
}

// Close releases the pool.
func (m *Manager) Close() error {
	return m.DB.Close()
}

// Health pings the database within the configured query timeout.
func (m *Manager) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.config.QueryTimeout)
	defer cancel()
	if err := m.DB.PingContext(ctx); err != nil {
		return errs.New(errs.Storage, "db", "health check", err)
	}
	return nil
}
