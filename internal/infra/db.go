package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDBPool initializes a pgx connection pool for the run history and makes
// sure the runs table exists.
func NewDBPool(ctx context.Context, cfg *Config) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = 5
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return pool, nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
    id              UUID PRIMARY KEY,
    file_name       TEXT NOT NULL,
    raw_rows        INTEGER NOT NULL,
    series_points   INTEGER NOT NULL,
    order_p         INTEGER NOT NULL,
    order_d         INTEGER NOT NULL,
    order_q         INTEGER NOT NULL,
    horizon         INTEGER NOT NULL,
    status          TEXT NOT NULL,
    fit_error       TEXT NOT NULL DEFAULT '',
    log_likelihood  DOUBLE PRECISION NOT NULL DEFAULT 0,
    aic             DOUBLE PRECISION NOT NULL DEFAULT 0,
    history_key     TEXT NOT NULL DEFAULT '',
    forecast_key    TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS analysis_runs_created_at_idx ON analysis_runs (created_at DESC);
`
