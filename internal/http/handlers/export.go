package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"trafficcast/internal/pipeline"
	"trafficcast/pkg/zip"
)

// writeBundle sends the report as a zip of CSV tables and PNG charts.
func (a *App) writeBundle(w http.ResponseWriter, r *http.Request, rep *pipeline.Report) {
	entries := []zip.Entry{
		{Filename: "series.csv", Data: seriesCSV(rep)},
		{Filename: "forecast.csv", Data: forecastCSV(rep)},
		{Filename: "history.png", Data: rep.HistoryPNG},
		{Filename: "forecast.png", Data: rep.ForecastPNG},
	}
	if rep.FitErr != nil {
		entries = append(entries, zip.Entry{Filename: "fit_error.txt", Data: []byte(rep.FitErr.Error() + "\n")})
	}
	data, err := zip.Archive(entries, rep.CreatedAt)
	if err != nil {
		a.logger(r).Error().Err(err).Msg("build bundle")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build bundle")
		return
	}
	base := strings.TrimSuffix(path.Base(rep.FileName), path.Ext(rep.FileName))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"-forecast.zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func seriesCSV(rep *pipeline.Report) []byte {
	rows := [][]string{{"timestamp", "bytes_transferred"}}
	for _, pt := range rep.Series {
		rows = append(rows, []string{formatTime(pt.Timestamp), strconv.FormatFloat(pt.TotalBytes, 'f', -1, 64)})
	}
	return encodeCSV(rows)
}

func forecastCSV(rep *pipeline.Report) []byte {
	if rep.Forecast == nil {
		return nil
	}
	rows := [][]string{{"timestamp", "forecasted_bytes", "lower", "upper"}}
	for _, fp := range rep.Forecast.Points {
		rows = append(rows, []string{
			formatTime(fp.Timestamp),
			strconv.FormatFloat(fp.PredictedBytes, 'f', 4, 64),
			strconv.FormatFloat(fp.Lower, 'f', 4, 64),
			strconv.FormatFloat(fp.Upper, 'f', 4, 64),
		})
	}
	return encodeCSV(rows)
}

func encodeCSV(rows [][]string) []byte {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.WriteAll(rows)
	return buf.Bytes()
}
