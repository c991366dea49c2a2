package domain

import (
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"
)

func TestInputErrorMessageAndMatching(t *testing.T) {
	cause := &time.ParseError{Value: "not a date"}
	err := fmt.Errorf("read upload: %w", &InputError{
		Reason: InputBadTimestamp,
		Row:    3,
		Column: "timestamp",
		Msg:    "cannot parse timestamp",
		Err:    cause,
	})

	if !errors.Is(err, ErrInput) {
		t.Fatalf("expected errors.Is(err, ErrInput)")
	}
	if errors.Is(err, ErrFit) {
		t.Fatalf("input error must not match ErrFit")
	}
	var ie *InputError
	if !errors.As(err, &ie) || ie.Reason != InputBadTimestamp {
		t.Fatalf("expected *InputError with bad_timestamp, got %v", err)
	}
	var pe *time.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected the parse error to unwrap")
	}
	if got := ie.Error(); got != "input: row 3: cannot parse timestamp: "+cause.Error() {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestFitErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *FitError
		want string
	}{
		{name: "reason only", err: &FitError{Reason: FitSingular}, want: "fit: singular"},
		{name: "message", err: &FitError{Reason: FitInsufficientData, Msg: "need 3 observations, have 2"}, want: "fit: need 3 observations, have 2"},
		{name: "wrapped", err: &FitError{Reason: FitNonConvergence, Msg: "optimizer stopped", Err: strconv.ErrRange}, want: "fit: optimizer stopped: " + strconv.ErrRange.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, ErrFit) || errors.Is(tt.err, ErrInput) {
				t.Fatalf("sentinel matching is wrong for %v", tt.err)
			}
		})
	}
}

func TestOrderValidateAndMinObservations(t *testing.T) {
	if err := DefaultOrder.Validate(); err != nil {
		t.Fatalf("default order rejected: %v", err)
	}
	if DefaultOrder.String() != "(1,1,1)" {
		t.Fatalf("String() = %q", DefaultOrder.String())
	}
	if got := DefaultOrder.MinObservations(); got != 3 {
		t.Fatalf("MinObservations() = %d, want 3", got)
	}
	if got := (Order{D: 1}).MinObservations(); got != 2 {
		t.Fatalf("MinObservations() for (0,1,0) = %d, want 2", got)
	}
	err := Order{P: -1, D: 1, Q: 1}.Validate()
	var fe *FitError
	if !errors.As(err, &fe) || fe.Reason != FitInvalidOrder {
		t.Fatalf("expected invalid_order, got %v", err)
	}
}

func TestAggregatedSeriesHelpers(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s := AggregatedSeries{
		{Timestamp: base, TotalBytes: 150},
		{Timestamp: base.Add(5 * time.Minute), TotalBytes: 200},
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d", s.Len())
	}
	vals := s.Values()
	if len(vals) != 2 || vals[0] != 150 || vals[1] != 200 {
		t.Fatalf("Values() = %v", vals)
	}
	if !s.Last().Timestamp.Equal(base.Add(5 * time.Minute)) {
		t.Fatalf("Last() = %v", s.Last())
	}
}
