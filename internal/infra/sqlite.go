package infra

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens (creating if needed) the SQLite run history at path.
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		path = "data/trafficcast.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: ensure directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return db, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
    id             TEXT PRIMARY KEY,
    file_name      TEXT NOT NULL,
    raw_rows       INTEGER NOT NULL,
    series_points  INTEGER NOT NULL,
    order_p        INTEGER NOT NULL,
    order_d        INTEGER NOT NULL,
    order_q        INTEGER NOT NULL,
    horizon        INTEGER NOT NULL,
    status         TEXT NOT NULL,
    fit_error      TEXT NOT NULL DEFAULT '',
    log_likelihood REAL NOT NULL DEFAULT 0,
    aic            REAL NOT NULL DEFAULT 0,
    history_key    TEXT NOT NULL DEFAULT '',
    forecast_key   TEXT NOT NULL DEFAULT '',
    created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS analysis_runs_created_at_idx ON analysis_runs (created_at);
`
