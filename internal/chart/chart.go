// Package chart renders the history and forecast line charts as PNG images.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"trafficcast/internal/domain"
)

const (
	HistoryTitle  = "Bytes Transferred Over Time"
	ForecastTitle = "ARIMA Forecast of Bytes Transferred"

	width  = 10 * vg.Inch
	height = 6 * vg.Inch

	timeFormat = "01-02 15:04"
)

var (
	ErrEmptySeries = errors.New("chart: series is empty")

	forecastColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	historyColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

// History draws the aggregated series with point markers.
func History(series domain.AggregatedSeries) ([]byte, error) {
	if series.Len() == 0 {
		return nil, ErrEmptySeries
	}
	p := newPlot(HistoryTitle)
	line, points, err := historyLayer(series)
	if err != nil {
		return nil, err
	}
	p.Add(line, points)
	return render(p)
}

// Overlay draws the history together with the forecast as a dashed red line
// with cross markers. An empty forecast yields the history chart with the
// forecast title.
func Overlay(series domain.AggregatedSeries, forecast []domain.ForecastPoint) ([]byte, error) {
	if series.Len() == 0 {
		return nil, ErrEmptySeries
	}
	p := newPlot(ForecastTitle)
	line, points, err := historyLayer(series)
	if err != nil {
		return nil, err
	}
	p.Add(line, points)
	p.Legend.Add("Historical Data", line, points)

	if len(forecast) > 0 {
		xys := make(plotter.XYs, len(forecast))
		for i, f := range forecast {
			xys[i].X = float64(f.Timestamp.Unix())
			xys[i].Y = f.PredictedBytes
		}
		fl, fp, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("chart: forecast layer: %w", err)
		}
		fl.LineStyle.Color = forecastColor
		fl.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		fp.Color = forecastColor
		fp.Shape = draw.CrossGlyph{}
		fp.Radius = vg.Points(4)
		p.Add(fl, fp)
		p.Legend.Add("Forecast", fl, fp)
	}
	p.Legend.Top = true
	return render(p)
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Timestamp"
	p.Y.Label.Text = "Bytes Transferred"
	p.X.Tick.Marker = plot.TimeTicks{Format: timeFormat}
	p.Add(plotter.NewGrid())
	return p
}

func historyLayer(series domain.AggregatedSeries) (*plotter.Line, *plotter.Scatter, error) {
	xys := make(plotter.XYs, series.Len())
	for i, pt := range series {
		xys[i].X = float64(pt.Timestamp.Unix())
		xys[i].Y = pt.TotalBytes
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return nil, nil, fmt.Errorf("chart: history layer: %w", err)
	}
	line.LineStyle.Color = historyColor
	points.Color = historyColor
	points.Shape = draw.CircleGlyph{}
	points.Radius = vg.Points(3)
	return line, points, nil
}

func render(p *plot.Plot) ([]byte, error) {
	w, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("chart: writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
