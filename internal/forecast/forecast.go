// Package forecast projects an aggregated traffic series forward with a
// fixed-order ARIMA model.
package forecast

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"trafficcast/internal/arima"
	"trafficcast/internal/domain"
)

// StepMode selects how forecast timestamps are spaced.
type StepMode string

const (
	// StepFixed spaces forecasts by Options.Step regardless of the data.
	StepFixed StepMode = "fixed"
	// StepMedian spaces forecasts by the median interval of the history,
	// falling back to Options.Step when the history has a single point.
	StepMedian StepMode = "median"
)

// Options configures a forecast run.
type Options struct {
	Order      domain.Order
	Horizon    int
	Step       time.Duration
	StepMode   StepMode
	Confidence float64
}

// DefaultOptions is ARIMA(1,1,1), five one-minute steps, 95% intervals.
func DefaultOptions() Options {
	return Options{
		Order:      domain.DefaultOrder,
		Horizon:    5,
		Step:       time.Minute,
		StepMode:   StepFixed,
		Confidence: 0.95,
	}
}

// Validate checks the options before any fitting happens.
func (o Options) Validate() error {
	if err := o.Order.Validate(); err != nil {
		return err
	}
	if o.Horizon < 1 {
		return &domain.FitError{Reason: domain.FitInvalidOrder, Msg: fmt.Sprintf("horizon must be at least 1, got %d", o.Horizon)}
	}
	if o.Step <= 0 {
		return &domain.FitError{Reason: domain.FitInvalidOrder, Msg: fmt.Sprintf("step must be positive, got %s", o.Step)}
	}
	switch o.StepMode {
	case "", StepFixed, StepMedian:
	default:
		return &domain.FitError{Reason: domain.FitInvalidOrder, Msg: fmt.Sprintf("unknown step mode %q", o.StepMode)}
	}
	if o.Confidence <= 0 || o.Confidence >= 1 {
		return &domain.FitError{Reason: domain.FitInvalidOrder, Msg: fmt.Sprintf("confidence must be in (0,1), got %g", o.Confidence)}
	}
	return nil
}

// Result is a successful forecast plus the fitted model summary.
type Result struct {
	Points        []domain.ForecastPoint
	Order         domain.Order
	Step          time.Duration
	AR            []float64
	MA            []float64
	Sigma2        float64
	LogLikelihood float64
	AIC           float64
}

// Forecast fits opts.Order to the series values and returns exactly
// opts.Horizon points. Every failure is a *domain.FitError.
func Forecast(series domain.AggregatedSeries, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if series.Len() == 0 {
		return nil, &domain.FitError{Reason: domain.FitInsufficientData, Msg: "series is empty"}
	}

	model, err := arima.Fit(series.Values(), opts.Order)
	if err != nil {
		return nil, fitError(err)
	}
	est, err := model.Forecast(opts.Horizon)
	if err != nil {
		return nil, fitError(err)
	}

	step := opts.Step
	if opts.StepMode == StepMedian {
		if s, ok := MedianInterval(series); ok {
			step = s
		}
	}

	z := distuv.UnitNormal.Quantile(0.5 + opts.Confidence/2)
	stamps := Timestamps(series.Last().Timestamp, opts.Horizon, step)
	points := make([]domain.ForecastPoint, opts.Horizon)
	for i, e := range est {
		points[i] = domain.ForecastPoint{
			Timestamp:      stamps[i],
			PredictedBytes: e.Mean,
			Lower:          e.Mean - z*e.StdErr,
			Upper:          e.Mean + z*e.StdErr,
		}
	}

	return &Result{
		Points:        points,
		Order:         opts.Order,
		Step:          step,
		AR:            model.AR,
		MA:            model.MA,
		Sigma2:        model.Sigma2,
		LogLikelihood: model.LogLikelihood,
		AIC:           model.AIC,
	}, nil
}

// Timestamps returns last+step, last+2*step, ..., last+h*step. Each stamp is
// stepped from the previous one so large steps cannot overflow a Duration.
func Timestamps(last time.Time, h int, step time.Duration) []time.Time {
	out := make([]time.Time, h)
	t := last
	for i := range out {
		t = t.Add(step)
		out[i] = t
	}
	return out
}

// MedianInterval is the median gap between consecutive series timestamps.
func MedianInterval(series domain.AggregatedSeries) (time.Duration, bool) {
	if series.Len() < 2 {
		return 0, false
	}
	gaps := make([]time.Duration, 0, series.Len()-1)
	for i := 1; i < series.Len(); i++ {
		gaps = append(gaps, series[i].Timestamp.Sub(series[i-1].Timestamp))
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	mid := len(gaps) / 2
	if len(gaps)%2 == 1 {
		return gaps[mid], true
	}
	return gaps[mid-1] + (gaps[mid]-gaps[mid-1])/2, true
}

func fitError(err error) *domain.FitError {
	reason := domain.FitNonConvergence
	switch {
	case errors.Is(err, arima.ErrInsufficientData):
		reason = domain.FitInsufficientData
	case errors.Is(err, arima.ErrSingular):
		reason = domain.FitSingular
	case errors.Is(err, arima.ErrInvalidOrder):
		reason = domain.FitInvalidOrder
	}
	return &domain.FitError{Reason: reason, Err: err}
}
