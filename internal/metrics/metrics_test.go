package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Analysis(OutcomeForecasted)
	m.FitFailure("singular")
	m.InputError("bad_timestamp")
	m.Ingested(3, 2)
	m.ObserveStage("fit", time.Now())
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Analysis(OutcomeForecasted)
	m.Analysis(OutcomeFitFailed)
	m.FitFailure("insufficient_data")
	m.Ingested(20, 18)
	m.ObserveStage("aggregate", time.Now())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`trafficcast_analyses_total{outcome="forecasted"} 1`,
		`trafficcast_analyses_total{outcome="fit_failed"} 1`,
		`trafficcast_fit_failures_total{reason="insufficient_data"} 1`,
		`trafficcast_records_ingested_total 20`,
		`trafficcast_stage_duration_seconds_count{stage="aggregate"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
