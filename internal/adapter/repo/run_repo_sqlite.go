package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"trafficcast/internal/domain"
	"trafficcast/internal/sqlinline"
)

// RunRepositorySQLite implements domain.RunRepository on a local SQLite file.
type RunRepositorySQLite struct {
	db *sql.DB
}

// NewRunRepositorySQLite wraps an opened database; see infra.OpenSQLite.
func NewRunRepositorySQLite(db *sql.DB) *RunRepositorySQLite {
	return &RunRepositorySQLite{db: db}
}

// Create inserts a run summary inside a transaction.
func (r *RunRepositorySQLite) Create(ctx context.Context, run *domain.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	_, err = tx.ExecContext(ctx, sqlinline.QInsertRunSQLite,
		run.ID, run.FileName, run.RawRows, run.SeriesPoints,
		run.Order.P, run.Order.D, run.Order.Q, run.Horizon,
		string(run.Status), run.FitError, run.LogLikelihood, run.AIC,
		run.HistoryKey, run.ForecastKey, run.CreatedAt.UnixMilli(),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert run: %w", err)
	}
	return tx.Commit()
}

// ListRecent returns the newest runs first.
func (r *RunRepositorySQLite) ListRecent(ctx context.Context, limit int) ([]domain.Run, error) {
	rows, err := r.db.QueryContext(ctx, sqlinline.QListRecentRunsSQLite, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.Run
	for rows.Next() {
		var run domain.Run
		var status string
		var createdAt int64
		if err := rows.Scan(
			&run.ID, &run.FileName, &run.RawRows, &run.SeriesPoints,
			&run.Order.P, &run.Order.D, &run.Order.Q, &run.Horizon,
			&status, &run.FitError, &run.LogLikelihood, &run.AIC,
			&run.HistoryKey, &run.ForecastKey, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = domain.RunStatus(status)
		run.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, run)
	}
	return out, rows.Err()
}

var _ domain.RunRepository = (*RunRepositorySQLite)(nil)
