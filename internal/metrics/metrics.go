// Package metrics exposes pipeline counters in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis outcomes.
const (
	OutcomeForecasted = "forecasted"
	OutcomeFitFailed  = "fit_failed"
	OutcomeBadInput   = "bad_input"
)

// Metrics groups the collectors recorded by the analysis pipeline. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	analyses     *prometheus.CounterVec
	fitFailures  *prometheus.CounterVec
	inputErrors  *prometheus.CounterVec
	rows         prometheus.Counter
	seriesPoints prometheus.Histogram
	duration     *prometheus.HistogramVec
}

// New registers the pipeline collectors on a fresh registry, together with
// the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trafficcast_analyses_total",
			Help: "Analyses processed, by outcome.",
		}, []string{"outcome"}),
		fitFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trafficcast_fit_failures_total",
			Help: "ARIMA fit failures, by reason.",
		}, []string{"reason"}),
		inputErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trafficcast_input_errors_total",
			Help: "Rejected uploads, by reason.",
		}, []string{"reason"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trafficcast_records_ingested_total",
			Help: "Traffic records parsed from uploads.",
		}),
		seriesPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trafficcast_series_points",
			Help:    "Length of the aggregated series per analysis.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trafficcast_stage_duration_seconds",
			Help:    "Time spent per pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	m.registry.MustRegister(
		m.analyses,
		m.fitFailures,
		m.inputErrors,
		m.rows,
		m.seriesPoints,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Analysis(outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FitFailure(reason string) {
	if m == nil {
		return
	}
	m.fitFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) InputError(reason string) {
	if m == nil {
		return
	}
	m.inputErrors.WithLabelValues(reason).Inc()
}

func (m *Metrics) Ingested(records, points int) {
	if m == nil {
		return
	}
	m.rows.Add(float64(records))
	m.seriesPoints.Observe(float64(points))
}

// ObserveStage records how long stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
