package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trafficcast/internal/domain"
	"trafficcast/internal/forecast"
	"trafficcast/internal/pipeline"
)

const (
	maxHorizon       = 1000
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

type rawRowResponse struct {
	Row              int               `json:"row"`
	Timestamp        time.Time         `json:"timestamp"`
	BytesTransferred float64           `json:"bytes_transferred"`
	Fields           []string          `json:"fields"`
	Extra            map[string]string `json:"extra,omitempty"`
}

type modelResponse struct {
	Order         domain.Order `json:"order"`
	Horizon       int          `json:"horizon"`
	Step          string       `json:"step"`
	AR            []float64    `json:"ar"`
	MA            []float64    `json:"ma"`
	Sigma2        float64      `json:"sigma2"`
	LogLikelihood float64      `json:"log_likelihood"`
	AIC           float64      `json:"aic"`
}

type fitErrorResponse struct {
	Reason  domain.FitReason `json:"reason"`
	Message string           `json:"message"`
}

type chartsResponse struct {
	History  string `json:"history_png,omitempty"`
	Forecast string `json:"forecast_png,omitempty"`
}

type analysisResponse struct {
	RunID     string                  `json:"run_id"`
	FileName  string                  `json:"file_name"`
	Columns   []string                `json:"columns"`
	RawRows   []rawRowResponse        `json:"raw_rows"`
	Series    domain.AggregatedSeries `json:"series"`
	Forecast  []domain.ForecastPoint  `json:"forecast"`
	Model     *modelResponse          `json:"model,omitempty"`
	FitError  *fitErrorResponse       `json:"fit_error,omitempty"`
	Charts    *chartsResponse         `json:"charts,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

type runResponse struct {
	ID            string           `json:"id"`
	FileName      string           `json:"file_name"`
	RawRows       int              `json:"raw_rows"`
	SeriesPoints  int              `json:"series_points"`
	Order         domain.Order     `json:"order"`
	Horizon       int              `json:"horizon"`
	Status        domain.RunStatus `json:"status"`
	FitError      string           `json:"fit_error,omitempty"`
	LogLikelihood float64          `json:"log_likelihood"`
	AIC           float64          `json:"aic"`
	HistoryKey    string           `json:"history_key,omitempty"`
	ForecastKey   string           `json:"forecast_key,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// CreateAnalysis accepts a CSV upload and returns the tables, the forecast
// and optionally the charts as base64 PNGs, or a zip bundle with
// ?format=zip. A fit failure is reported in fit_error with status 200;
// invalid input is a 422.
func (a *App) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	opts, err := parseOptions(r.URL.Query(), a.Analyzer.Options())
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	up, err := a.readUpload(w, r)
	if err != nil {
		a.uploadError(w, r, err)
		return
	}
	defer up.Close()

	rep, err := a.Analyzer.AnalyzeWith(r.Context(), up.name, up.body, opts)
	if err != nil {
		a.uploadError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "zip" {
		a.writeBundle(w, r, rep)
		return
	}
	withCharts, _ := strconv.ParseBool(r.URL.Query().Get("charts"))
	a.json(w, http.StatusOK, newAnalysisResponse(rep, withCharts))
}

// ListRuns returns the most recent run summaries.
func (a *App) ListRuns(w http.ResponseWriter, r *http.Request) {
	if a.Runs == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "run history is not configured")
		return
	}
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunsLimit)
	}
	runs, err := a.Runs.ListRecent(r.Context(), limit)
	if err != nil {
		a.logger(r).Error().Err(err).Msg("list runs")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load runs")
		return
	}
	items := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		items = append(items, runResponse{
			ID:            run.ID,
			FileName:      run.FileName,
			RawRows:       run.RawRows,
			SeriesPoints:  run.SeriesPoints,
			Order:         run.Order,
			Horizon:       run.Horizon,
			Status:        run.Status,
			FitError:      run.FitError,
			LogLikelihood: run.LogLikelihood,
			AIC:           run.AIC,
			HistoryKey:    run.HistoryKey,
			ForecastKey:   run.ForecastKey,
			CreatedAt:     run.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// parseOptions applies the horizon, step and step_mode query overrides.
func parseOptions(q url.Values, opts forecast.Options) (forecast.Options, error) {
	if raw := strings.TrimSpace(q.Get("horizon")); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil || h < 1 || h > maxHorizon {
			return opts, fmt.Errorf("horizon must be an integer between 1 and %d", maxHorizon)
		}
		opts.Horizon = h
	}
	if raw := strings.TrimSpace(q.Get("step")); raw != "" {
		step, err := time.ParseDuration(raw)
		if err != nil || step <= 0 {
			return opts, fmt.Errorf("step must be a positive duration such as 1m or 30s")
		}
		opts.Step = step
	}
	if raw := strings.TrimSpace(q.Get("step_mode")); raw != "" {
		mode := forecast.StepMode(strings.ToLower(raw))
		if mode != forecast.StepFixed && mode != forecast.StepMedian {
			return opts, fmt.Errorf("step_mode must be %q or %q", forecast.StepFixed, forecast.StepMedian)
		}
		opts.StepMode = mode
	}
	return opts, nil
}

func newAnalysisResponse(rep *pipeline.Report, withCharts bool) analysisResponse {
	resp := analysisResponse{
		RunID:     rep.RunID,
		FileName:  rep.FileName,
		Columns:   rep.Header,
		RawRows:   make([]rawRowResponse, 0, len(rep.Records)),
		Series:    rep.Series,
		Forecast:  []domain.ForecastPoint{},
		CreatedAt: rep.CreatedAt,
	}
	for _, rec := range rep.Records {
		resp.RawRows = append(resp.RawRows, rawRowResponse{
			Row:              rec.Row,
			Timestamp:        rec.Timestamp,
			BytesTransferred: rec.BytesTransferred,
			Fields:           rec.Fields,
			Extra:            rec.Extra,
		})
	}
	if rep.FitErr != nil {
		resp.FitError = &fitErrorResponse{Reason: rep.FitErr.Reason, Message: rep.FitErr.Error()}
	}
	if res := rep.Forecast; res != nil {
		resp.Forecast = res.Points
		resp.Model = &modelResponse{
			Order:         res.Order,
			Horizon:       len(res.Points),
			Step:          res.Step.String(),
			AR:            res.AR,
			MA:            res.MA,
			Sigma2:        res.Sigma2,
			LogLikelihood: res.LogLikelihood,
			AIC:           res.AIC,
		}
	}
	if withCharts {
		resp.Charts = &chartsResponse{
			History:  encodePNG(rep.HistoryPNG),
			Forecast: encodePNG(rep.ForecastPNG),
		}
	}
	return resp
}

func encodePNG(img []byte) string {
	if len(img) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(img)
}
