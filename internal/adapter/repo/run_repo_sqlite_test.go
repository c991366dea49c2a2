package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"trafficcast/internal/domain"
)

var runColumns = []string{
	"id", "file_name", "raw_rows", "series_points",
	"order_p", "order_d", "order_q", "horizon",
	"status", "fit_error", "log_likelihood", "aic",
	"history_key", "forecast_key", "created_at",
}

func TestRunRepositorySQLiteCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	run := &domain.Run{
		ID:            "run-1",
		FileName:      "traffic.csv",
		RawRows:       20,
		SeriesPoints:  18,
		Order:         domain.DefaultOrder,
		Horizon:       5,
		Status:        domain.RunStatusForecasted,
		LogLikelihood: -101.5,
		AIC:           209,
		CreatedAt:     created,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO analysis_runs").
		WithArgs("run-1", "traffic.csv", 20, 18, 1, 1, 1, 5, "forecasted", "", -101.5, 209.0, "", "", created.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := NewRunRepositorySQLite(db).Create(context.Background(), run); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunRepositorySQLiteCreateRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	boom := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO analysis_runs").WillReturnError(boom)
	mock.ExpectRollback()

	err = NewRunRepositorySQLite(db).Create(context.Background(), &domain.Run{ID: "run-2"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunRepositorySQLiteListRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(runColumns).
		AddRow("run-1", "traffic.csv", 20, 18, 1, 1, 1, 5, "forecasted", "", -101.5, 209.0, "history.png", "forecast.png", created.UnixMilli()).
		AddRow("run-0", "tiny.csv", 2, 2, 1, 1, 1, 5, "fit_failed", "fit: insufficient_data", 0.0, 0.0, "", "", created.Add(-time.Minute).UnixMilli())
	mock.ExpectQuery("SELECT .* FROM analysis_runs").WithArgs(10).WillReturnRows(rows)

	runs, err := NewRunRepositorySQLite(db).ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent returned error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Order != domain.DefaultOrder || runs[0].HistoryKey != "history.png" {
		t.Fatalf("unexpected first run: %+v", runs[0])
	}
	if !runs[0].CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt = %s, want %s", runs[0].CreatedAt, created)
	}
	if runs[1].Status != domain.RunStatusFitFailed {
		t.Fatalf("status = %q", runs[1].Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
