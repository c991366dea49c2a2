package repo

import (
	"context"
	"fmt"
	"time"

	"trafficcast/internal/domain"
	"trafficcast/internal/infra"
	"trafficcast/internal/sqlinline"
)

// RunRepositoryPG implements domain.RunRepository on PostgreSQL.
type RunRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewRunRepository creates a run repository on top of a marked-query executor.
func NewRunRepository(sql infra.SQLExecutor) *RunRepositoryPG {
	return &RunRepositoryPG{sql: sql}
}

// Create inserts a run summary.
func (r *RunRepositoryPG) Create(ctx context.Context, run *domain.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertRun,
		run.ID,
		run.FileName,
		run.RawRows,
		run.SeriesPoints,
		run.Order.P,
		run.Order.D,
		run.Order.Q,
		run.Horizon,
		string(run.Status),
		run.FitError,
		run.LogLikelihood,
		run.AIC,
		run.HistoryKey,
		run.ForecastKey,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRecent returns the newest runs first.
func (r *RunRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.Run, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListRecentRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.Run
	for rows.Next() {
		var run domain.Run
		var status string
		if err := rows.Scan(
			&run.ID,
			&run.FileName,
			&run.RawRows,
			&run.SeriesPoints,
			&run.Order.P,
			&run.Order.D,
			&run.Order.Q,
			&run.Horizon,
			&status,
			&run.FitError,
			&run.LogLikelihood,
			&run.AIC,
			&run.HistoryKey,
			&run.ForecastKey,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = domain.RunStatus(status)
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

var _ domain.RunRepository = (*RunRepositoryPG)(nil)
