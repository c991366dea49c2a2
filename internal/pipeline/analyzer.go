// Package pipeline runs one uploaded file through parsing, aggregation,
// forecasting and chart rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trafficcast/internal/aggregate"
	"trafficcast/internal/chart"
	"trafficcast/internal/domain"
	"trafficcast/internal/forecast"
	"trafficcast/internal/ingest"
	"trafficcast/internal/metrics"
	"trafficcast/internal/storage"
)

// Report is everything the display surface renders for one upload. Forecast
// and ForecastPNG are nil when FitErr is set.
type Report struct {
	RunID           string
	FileName        string
	Header          []string
	TimestampColumn int
	BytesColumn     int
	Records         []domain.TrafficRecord
	Series          domain.AggregatedSeries
	Forecast        *forecast.Result
	FitErr          *domain.FitError
	HistoryPNG      []byte
	ForecastPNG     []byte
	HistoryKey      string
	ForecastKey     string
	Options         forecast.Options
	CreatedAt       time.Time
}

// Deps are the optional collaborators of an Analyzer. Nil members are
// skipped.
type Deps struct {
	Runs      domain.RunRepository
	Artifacts storage.Store
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// Analyzer holds configuration only; every Analyze call is independent.
type Analyzer struct {
	opts      forecast.Options
	runs      domain.RunRepository
	artifacts storage.Store
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAnalyzer returns an Analyzer forecasting with opts unless a call
// overrides them.
func NewAnalyzer(opts forecast.Options, deps Deps) *Analyzer {
	return &Analyzer{
		opts:      opts,
		runs:      deps.Runs,
		artifacts: deps.Artifacts,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// Options returns the default forecast options.
func (a *Analyzer) Options() forecast.Options {
	return a.opts
}

// Analyze runs the pipeline with the default options.
func (a *Analyzer) Analyze(ctx context.Context, name string, r io.Reader) (*Report, error) {
	return a.AnalyzeWith(ctx, name, r, a.opts)
}

// AnalyzeWith runs the pipeline with opts. A *domain.InputError aborts the
// run and is returned. A *domain.FitError is kept on the report, which is
// still returned with the raw rows, the series and the history chart.
func (a *Analyzer) AnalyzeWith(ctx context.Context, name string, r io.Reader, opts forecast.Options) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep := &Report{
		RunID:     uuid.NewString(),
		FileName:  name,
		Options:   opts,
		CreatedAt: a.now().UTC(),
	}
	logger := a.logger.With().Str("run_id", rep.RunID).Str("file", name).Logger()

	start := time.Now()
	table, err := ingest.ReadTable(r)
	a.metrics.ObserveStage("ingest", start)
	if err != nil {
		return nil, a.rejectInput(logger, err)
	}
	rep.Header = table.Header
	rep.TimestampColumn = table.TimestampIndex
	rep.BytesColumn = table.BytesIndex
	rep.Records = table.Records

	start = time.Now()
	series, err := aggregate.Aggregate(table.Records)
	a.metrics.ObserveStage("aggregate", start)
	if err != nil {
		return nil, a.rejectInput(logger, err)
	}
	rep.Series = series
	a.metrics.Ingested(len(table.Records), series.Len())
	logger.Debug().Int("records", len(table.Records)).Int("points", series.Len()).Msg("series aggregated")

	start = time.Now()
	res, err := forecast.Forecast(series, opts)
	a.metrics.ObserveStage("forecast", start)
	if err != nil {
		var fitErr *domain.FitError
		if !errors.As(err, &fitErr) {
			return nil, fmt.Errorf("forecast: %w", err)
		}
		rep.FitErr = fitErr
		a.metrics.Analysis(metrics.OutcomeFitFailed)
		a.metrics.FitFailure(string(fitErr.Reason))
		logger.Warn().Err(fitErr).Str("reason", string(fitErr.Reason)).Msg("forecast failed")
	} else {
		rep.Forecast = res
		a.metrics.Analysis(metrics.OutcomeForecasted)
		logger.Info().
			Str("order", res.Order.String()).
			Int("horizon", len(res.Points)).
			Float64("aic", res.AIC).
			Msg("forecast complete")
	}

	a.renderCharts(ctx, logger, rep)
	a.saveRun(ctx, logger, rep)
	return rep, nil
}

func (a *Analyzer) rejectInput(logger zerolog.Logger, err error) error {
	var inErr *domain.InputError
	if errors.As(err, &inErr) {
		a.metrics.InputError(string(inErr.Reason))
	}
	a.metrics.Analysis(metrics.OutcomeBadInput)
	logger.Info().Err(err).Msg("upload rejected")
	return err
}

func (a *Analyzer) renderCharts(ctx context.Context, logger zerolog.Logger, rep *Report) {
	start := time.Now()
	defer a.metrics.ObserveStage("chart", start)

	img, err := chart.History(rep.Series)
	if err != nil {
		logger.Error().Err(err).Msg("render history chart")
		return
	}
	rep.HistoryPNG = img
	rep.HistoryKey = a.storeArtifact(ctx, logger, rep.RunID, "history.png", img)

	if rep.Forecast == nil {
		return
	}
	img, err = chart.Overlay(rep.Series, rep.Forecast.Points)
	if err != nil {
		logger.Error().Err(err).Msg("render forecast chart")
		return
	}
	rep.ForecastPNG = img
	rep.ForecastKey = a.storeArtifact(ctx, logger, rep.RunID, "forecast.png", img)
}

func (a *Analyzer) storeArtifact(ctx context.Context, logger zerolog.Logger, runID, name string, data []byte) string {
	if a.artifacts == nil {
		return ""
	}
	key, err := a.artifacts.Put(ctx, path.Join("runs", runID, name), data, "image/png")
	if err != nil {
		logger.Warn().Err(err).Str("artifact", name).Msg("store artifact")
		return ""
	}
	return key
}

func (a *Analyzer) saveRun(ctx context.Context, logger zerolog.Logger, rep *Report) {
	if a.runs == nil {
		return
	}
	run := RunSummary(rep)
	if err := a.runs.Create(ctx, &run); err != nil {
		logger.Warn().Err(err).Msg("save run summary")
	}
}

// RunSummary condenses a report into the persisted run record.
func RunSummary(rep *Report) domain.Run {
	run := domain.Run{
		ID:           rep.RunID,
		FileName:     rep.FileName,
		RawRows:      len(rep.Records),
		SeriesPoints: rep.Series.Len(),
		Order:        rep.Options.Order,
		Horizon:      rep.Options.Horizon,
		HistoryKey:   rep.HistoryKey,
		ForecastKey:  rep.ForecastKey,
		CreatedAt:    rep.CreatedAt,
	}
	if rep.FitErr != nil {
		run.Status = domain.RunStatusFitFailed
		run.FitError = rep.FitErr.Error()
		return run
	}
	run.Status = domain.RunStatusForecasted
	if rep.Forecast != nil {
		run.LogLikelihood = rep.Forecast.LogLikelihood
		run.AIC = rep.Forecast.AIC
	}
	return run
}

// RawCells returns rec's cells in header order, with the timestamp and byte
// columns rendered by formatTime and formatBytes.
func (rep *Report) RawCells(rec domain.TrafficRecord, formatTime func(time.Time) string, formatBytes func(float64) string) []string {
	cells := make([]string, len(rep.Header))
	copy(cells, rec.Fields)
	if rep.TimestampColumn >= 0 && rep.TimestampColumn < len(cells) {
		cells[rep.TimestampColumn] = formatTime(rec.Timestamp)
	}
	if rep.BytesColumn >= 0 && rep.BytesColumn < len(cells) {
		cells[rep.BytesColumn] = formatBytes(rec.BytesTransferred)
	}
	return cells
}
