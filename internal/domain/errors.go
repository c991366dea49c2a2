package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrInput matches every *InputError via errors.Is.
	ErrInput = errors.New("invalid input")
	// ErrFit matches every *FitError via errors.Is.
	ErrFit = errors.New("model fit failed")
)

// InputReason classifies why an upload was rejected.
type InputReason string

const (
	InputEmpty         InputReason = "empty_input"
	InputMissingColumn InputReason = "missing_column"
	InputBadTimestamp  InputReason = "bad_timestamp"
	InputBadBytes      InputReason = "bad_bytes"
	InputMalformed     InputReason = "malformed_csv"
)

// InputError aborts an analysis before aggregation runs.
type InputError struct {
	Reason InputReason
	Row    int
	Column string
	Msg    string
	Err    error
}

func (e *InputError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Reason)
	}
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("input: %s: %v", msg, e.Err)
	}
	return "input: " + msg
}

func (e *InputError) Unwrap() error { return e.Err }

func (e *InputError) Is(target error) bool { return target == ErrInput }

// FitReason classifies a forecasting failure.
type FitReason string

const (
	FitInsufficientData FitReason = "insufficient_data"
	FitSingular         FitReason = "singular"
	FitNonConvergence   FitReason = "non_convergence"
	FitInvalidOrder     FitReason = "invalid_order"
)

// FitError aborts forecasting only; the historical series is still usable.
type FitError struct {
	Reason FitReason
	Msg    string
	Err    error
}

func (e *FitError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("fit: %s: %v", msg, e.Err)
	}
	return "fit: " + msg
}

func (e *FitError) Unwrap() error { return e.Err }

func (e *FitError) Is(target error) bool { return target == ErrFit }
