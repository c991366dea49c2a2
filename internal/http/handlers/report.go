package handlers

import (
	"embed"
	"encoding/base64"
	"errors"
	"html/template"
	"net/http"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"trafficcast/internal/chart"
	"trafficcast/internal/domain"
	"trafficcast/internal/middleware"
	"trafficcast/internal/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const displayTime = "2006-01-02 15:04:05"

type tableView struct {
	Columns []string
	Rows    [][]string
}

type pageView struct {
	Lang          string
	Error         string
	FileName      string
	Raw           tableView
	Series        tableView
	Forecast      tableView
	FitError      string
	Model         string
	HistoryTitle  string
	ForecastTitle string
	HistoryPNG    template.URL
	ForecastPNG   template.URL
}

// Index serves the upload form.
func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	tag := middleware.LocaleFromContext(r.Context())
	a.render(w, r, http.StatusOK, "index", pageView{Lang: tag.String()})
}

// AnalyzeHTML renders the report page for a multipart upload. Invalid input
// re-renders the form with the error; a fit failure still shows the raw and
// aggregated tables and the history chart.
func (a *App) AnalyzeHTML(w http.ResponseWriter, r *http.Request) {
	tag := middleware.LocaleFromContext(r.Context())
	up, err := a.readUpload(w, r)
	if err != nil {
		a.renderUploadError(w, r, tag, err)
		return
	}
	defer up.Close()

	rep, err := a.Analyzer.Analyze(r.Context(), up.name, up.body)
	if err != nil {
		a.renderUploadError(w, r, tag, err)
		return
	}
	a.render(w, r, http.StatusOK, "report", newPageView(rep, tag))
}

func (a *App) renderUploadError(w http.ResponseWriter, r *http.Request, tag language.Tag, err error) {
	view := pageView{Lang: tag.String()}
	var maxErr *http.MaxBytesError
	var inErr *domain.InputError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &maxErr):
		status = http.StatusRequestEntityTooLarge
		view.Error = "The file is too large."
	case errors.Is(err, errNoFile), errors.Is(err, errBadForm):
		status = http.StatusBadRequest
		view.Error = "Please choose a CSV file to upload."
	case errors.As(err, &inErr):
		status = http.StatusUnprocessableEntity
		view.Error = inErr.Error()
	default:
		a.logger(r).Error().Err(err).Msg("analysis failed")
		view.Error = "The upload could not be analyzed."
	}
	a.render(w, r, status, "index", view)
}

func (a *App) render(w http.ResponseWriter, r *http.Request, status int, name string, view pageView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, view); err != nil {
		a.logger(r).Error().Err(err).Str("template", name).Msg("render page")
	}
}

func newPageView(rep *pipeline.Report, tag language.Tag) pageView {
	p := message.NewPrinter(tag)
	view := pageView{
		Lang:          tag.String(),
		FileName:      rep.FileName,
		HistoryTitle:  chart.HistoryTitle,
		ForecastTitle: chart.ForecastTitle,
		HistoryPNG:    dataURL(rep.HistoryPNG),
		ForecastPNG:   dataURL(rep.ForecastPNG),
	}

	view.Raw.Columns = rep.Header
	bytesCell := func(v float64) string { return formatBytes(p, v) }
	for _, rec := range rep.Records {
		view.Raw.Rows = append(view.Raw.Rows, rep.RawCells(rec, formatTime, bytesCell))
	}

	view.Series.Columns = []string{"timestamp", "bytes_transferred"}
	for _, pt := range rep.Series {
		view.Series.Rows = append(view.Series.Rows, []string{formatTime(pt.Timestamp), formatBytes(p, pt.TotalBytes)})
	}

	if rep.FitErr != nil {
		view.FitError = rep.FitErr.Error()
	}
	if res := rep.Forecast; res != nil {
		view.Model = p.Sprintf("ARIMA%s, AIC %.2f", res.Order, res.AIC)
		view.Forecast.Columns = []string{"timestamp", "forecasted_bytes", "lower", "upper"}
		for _, fp := range res.Points {
			view.Forecast.Rows = append(view.Forecast.Rows, []string{
				formatTime(fp.Timestamp),
				formatBytes(p, fp.PredictedBytes),
				formatBytes(p, fp.Lower),
				formatBytes(p, fp.Upper),
			})
		}
	}
	return view
}

// formatBytes groups digits for the printer's locale and never switches to
// scientific notation.
func formatBytes(p *message.Printer, v float64) string {
	return p.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(displayTime)
}

func dataURL(img []byte) template.URL {
	if len(img) == 0 {
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img))
}
