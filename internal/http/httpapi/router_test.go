package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"trafficcast/internal/forecast"
	"trafficcast/internal/http/handlers"
	"trafficcast/internal/infra"
	"trafficcast/internal/metrics"
	"trafficcast/internal/pipeline"
)

func newTestRouter(rateLimit int) http.Handler {
	m := metrics.New()
	analyzer := pipeline.NewAnalyzer(forecast.DefaultOptions(), pipeline.Deps{Metrics: m, Logger: zerolog.Nop()})
	app := handlers.NewApp(analyzer, nil, zerolog.Nop(), 1<<20)
	cfg := &infra.Config{DefaultLocale: "en", RateLimitPerMin: rateLimit}
	return NewRouter(app, cfg, m.Handler())
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(10)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{method: http.MethodGet, path: "/", status: http.StatusOK},
		{method: http.MethodGet, path: "/v1/healthz", status: http.StatusOK},
		{method: http.MethodGet, path: "/metrics", status: http.StatusOK},
		{method: http.MethodGet, path: "/v1/runs", status: http.StatusServiceUnavailable},
		{method: http.MethodPost, path: "/v1/analyses", body: "timestamp,bytes_transferred\n2024-03-01 09:00:00,1\n", status: http.StatusOK},
		{method: http.MethodGet, path: "/v1/analyses", status: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/missing", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			if rr.Header().Get("X-Request-ID") == "" {
				t.Fatalf("missing X-Request-ID header")
			}
		})
	}
}

func TestUploadsAreRateLimited(t *testing.T) {
	router := newTestRouter(1)
	body := "timestamp,bytes_transferred\n2024-03-01 09:00:00,1\n"

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/v1/analyses", strings.NewReader(body)))
	if first.Code != http.StatusOK {
		t.Fatalf("first upload status = %d", first.Code)
	}
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/v1/analyses", strings.NewReader(body)))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload status = %d, want 429", second.Code)
	}

	health := httptest.NewRecorder()
	router.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("health should not be rate limited, got %d", health.Code)
	}
}
