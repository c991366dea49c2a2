// Package aggregate folds traffic records into a per-timestamp byte series.
package aggregate

import (
	"sort"
	"time"

	"trafficcast/internal/domain"
)

// Aggregate groups records by exact timestamp, sums bytes_transferred per
// group and returns the groups in ascending timestamp order.
func Aggregate(records []domain.TrafficRecord) (domain.AggregatedSeries, error) {
	if len(records) == 0 {
		return nil, &domain.InputError{Reason: domain.InputEmpty, Msg: "no records to aggregate"}
	}

	groups := make(map[instant][]float64, len(records))
	stamps := make(map[instant]time.Time, len(records))
	for _, rec := range records {
		key := instantOf(rec.Timestamp)
		if _, ok := stamps[key]; !ok {
			stamps[key] = rec.Timestamp.UTC().Round(0)
		}
		groups[key] = append(groups[key], rec.BytesTransferred)
	}

	keys := make([]instant, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return stamps[keys[i]].Before(stamps[keys[j]]) })

	series := make(domain.AggregatedSeries, 0, len(keys))
	for _, k := range keys {
		series = append(series, domain.SeriesPoint{
			Timestamp:  stamps[k],
			TotalBytes: sum(groups[k]),
		})
	}
	return series, nil
}

// instant identifies a point in time for any year time.Time can hold.
type instant struct {
	sec  int64
	nsec int
}

func instantOf(t time.Time) instant {
	return instant{sec: t.Unix(), nsec: t.Nanosecond()}
}

// sum adds the values in ascending order so the total does not depend on the
// upload's row order.
func sum(values []float64) float64 {
	sort.Float64s(values)
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
