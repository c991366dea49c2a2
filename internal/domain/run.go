package domain

import "time"

// RunStatus enumerates the outcome of one analysis.
type RunStatus string

const (
	RunStatusForecasted RunStatus = "forecasted"
	RunStatusFitFailed  RunStatus = "fit_failed"
)

// Run summarizes an analysis for the history view. It never holds uploaded
// rows.
type Run struct {
	ID            string
	FileName      string
	RawRows       int
	SeriesPoints  int
	Order         Order
	Horizon       int
	Status        RunStatus
	FitError      string
	LogLikelihood float64
	AIC           float64
	HistoryKey    string
	ForecastKey   string
	CreatedAt     time.Time
}
