package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"coindeck/internal/config"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrNotFound indicates the record does not exist in its collection.
	ErrNotFound = errors.New("storage: record not found")
)

// NewPool configures a PostgreSQL connection pool from runtime settings.
// The pool is the single explicit connection object for the process; it is
// opened by the composition root and injected into whatever needs it.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	return pool, nil
}

// Store aggregates access to the user-record collections.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id            TEXT PRIMARY KEY,
        email         TEXT NOT NULL UNIQUE,
        name          TEXT NOT NULL DEFAULT '',
        password_hash TEXT NOT NULL,
        created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
    );`,
	`CREATE TABLE IF NOT EXISTS holdings (
        id             TEXT PRIMARY KEY,
        user_id        TEXT NOT NULL,
        coin_id        TEXT NOT NULL,
        name           TEXT NOT NULL DEFAULT '',
        symbol         TEXT NOT NULL DEFAULT '',
        amount         NUMERIC NOT NULL,
        purchase_price NUMERIC NOT NULL,
        purchase_date  TIMESTAMPTZ NOT NULL,
        image_url      TEXT NOT NULL DEFAULT '',
        created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
    );`,
	`CREATE INDEX IF NOT EXISTS idx_holdings_user ON holdings (user_id);`,
	`CREATE TABLE IF NOT EXISTS watchlist_entries (
        id         TEXT PRIMARY KEY,
        user_id    TEXT NOT NULL,
        coin_id    TEXT NOT NULL,
        name       TEXT NOT NULL DEFAULT '',
        symbol     TEXT NOT NULL DEFAULT '',
        image_url  TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        UNIQUE (user_id, coin_id)
    );`,
	`CREATE TABLE IF NOT EXISTS alert_rules (
        id           TEXT PRIMARY KEY,
        user_id      TEXT NOT NULL,
        coin_id      TEXT NOT NULL,
        name         TEXT NOT NULL DEFAULT '',
        symbol       TEXT NOT NULL DEFAULT '',
        target_price NUMERIC NOT NULL,
        condition    TEXT NOT NULL,
        is_active    BOOLEAN NOT NULL DEFAULT TRUE,
        created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
    );`,
	`CREATE INDEX IF NOT EXISTS idx_alert_rules_active ON alert_rules (is_active);`,
	`CREATE TABLE IF NOT EXISTS portfolio_history (
        id          TEXT PRIMARY KEY,
        user_id     TEXT NOT NULL,
        currency    TEXT NOT NULL,
        total_value NUMERIC NOT NULL,
        recorded_at TIMESTAMPTZ NOT NULL
    );`,
	`CREATE INDEX IF NOT EXISTS idx_portfolio_history_user_time ON portfolio_history (user_id, recorded_at);`,
	`CREATE TABLE IF NOT EXISTS alert_events (
        id            TEXT PRIMARY KEY,
        rule_id       TEXT NOT NULL,
        user_id       TEXT NOT NULL,
        coin_id       TEXT NOT NULL,
        condition     TEXT NOT NULL,
        target_price  NUMERIC NOT NULL,
        current_price NUMERIC NOT NULL,
        currency      TEXT NOT NULL,
        created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
    );`,
}

// Init creates the collection tables when they do not exist yet.
func (s *Store) Init(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

var idCounter atomic.Uint64

// newID assigns an opaque storage id. Nanosecond timestamp plus a process
// counter keeps ids unique across fast successive inserts.
func newID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + strconv.FormatUint(idCounter.Add(1), 36)
}
