package ingest

import (
	"errors"
	"time"

	"github.com/araddon/dateparse"
)

var errEmptyTimestamp = errors.New("empty timestamp")

// ParseTimestamp accepts the usual date/time layouts (ISO 8601, RFC 3339,
// "2006-01-02 15:04:05", US and textual dates, unix epochs). Values without a
// zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errEmptyTimestamp
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
