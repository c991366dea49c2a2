package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"trafficcast/internal/http/handlers"
	"trafficcast/internal/infra"
	"trafficcast/internal/middleware"
)

// NewRouter wires the display surface. metricsHandler may be nil.
func NewRouter(app *handlers.App, cfg *infra.Config, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(app.Logger),
		chimw.Recoverer,
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.I18N(cfg.DefaultLocale),
	)

	r.Get("/", app.Index)
	r.Get("/v1/healthz", app.Health)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	// Uploads run the model fit, so only they are rate limited.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
		r.Post("/analyze", app.AnalyzeHTML)
		r.Post("/v1/analyses", app.CreateAnalysis)
	})

	r.Get("/v1/runs", app.ListRuns)

	return r
}
