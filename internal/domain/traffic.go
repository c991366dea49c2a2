package domain

import (
	"fmt"
	"time"
)

// TrafficRecord is one uploaded row. Columns other than the timestamp and
// byte count are carried in Extra and ignored by aggregation. Fields holds
// every cell in upload column order, so repeated column names keep their
// own values.
type TrafficRecord struct {
	Row              int
	RawTimestamp     string
	Timestamp        time.Time
	BytesTransferred float64
	Fields           []string
	Extra            map[string]string
}

// SeriesPoint is the total byte count observed at a single timestamp.
type SeriesPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	TotalBytes float64   `json:"total_bytes"`
}

// AggregatedSeries is ordered strictly ascending by timestamp with no
// duplicate timestamps.
type AggregatedSeries []SeriesPoint

// Len returns the number of points.
func (s AggregatedSeries) Len() int { return len(s) }

// Values returns the byte totals in series order.
func (s AggregatedSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.TotalBytes
	}
	return out
}

// Last returns the most recent point. It panics on an empty series.
func (s AggregatedSeries) Last() SeriesPoint {
	return s[len(s)-1]
}

// ForecastPoint is a model prediction at a synthesized timestamp. Lower and
// Upper bound the prediction interval; PredictedBytes may be negative.
type ForecastPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	PredictedBytes float64   `json:"forecasted_bytes"`
	Lower          float64   `json:"lower"`
	Upper          float64   `json:"upper"`
}

// Order is the (p, d, q) order of an ARIMA model.
type Order struct {
	P int `json:"p" toml:"p"`
	D int `json:"d" toml:"d"`
	Q int `json:"q" toml:"q"`
}

// DefaultOrder is ARIMA(1,1,1).
var DefaultOrder = Order{P: 1, D: 1, Q: 1}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// MinObservations is the smallest series length the order can be fit to.
func (o Order) MinObservations() int {
	n := o.P + o.D + o.Q
	if n < o.D+1 {
		n = o.D + 1
	}
	return n
}

// Validate rejects negative components.
func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		return &FitError{Reason: FitInvalidOrder, Msg: fmt.Sprintf("order %s has negative terms", o)}
	}
	return nil
}
