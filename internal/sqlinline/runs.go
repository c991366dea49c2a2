// Package sqlinline holds the SQL statements for the run history. Every
// statement starts with a "--sql <uuid>" marker that the SQL runner logs and
// the sqllint tool enforces.
package sqlinline

const QInsertRun = `--sql 3c9a1f0e-52b4-4d8e-a7c1-6e2f90b4d5a3
insert into analysis_runs (
    id, file_name, raw_rows, series_points,
    order_p, order_d, order_q, horizon,
    status, fit_error, log_likelihood, aic,
    history_key, forecast_key, created_at
) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
`

const QListRecentRuns = `--sql 8e41d7b2-0c6f-4a95-b3d8-f27a1c5e9064
select id::text, file_name, raw_rows, series_points,
       order_p, order_d, order_q, horizon,
       status, fit_error, log_likelihood, aic,
       history_key, forecast_key, created_at
from analysis_runs
order by created_at desc
limit $1;
`

// SQLite variants use positional ? parameters and store created_at as unix
// milliseconds.

const QInsertRunSQLite = `--sql 5f7d2c81-9a3e-4b6f-8c10-d4e2a7b93f15
INSERT INTO analysis_runs (
    id, file_name, raw_rows, series_points,
    order_p, order_d, order_q, horizon,
    status, fit_error, log_likelihood, aic,
    history_key, forecast_key, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`

const QListRecentRunsSQLite = `--sql b2c6e094-3d71-4f58-a9e2-71f0c8d45a6b
SELECT id, file_name, raw_rows, series_points,
       order_p, order_d, order_q, horizon,
       status, fit_error, log_likelihood, aic,
       history_key, forecast_key, created_at
FROM analysis_runs
ORDER BY created_at DESC
LIMIT ?;
`
