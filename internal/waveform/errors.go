package waveform

import (
	"errors"
	"fmt"
)

// ErrInvalid is the sentinel all waveform validation failures wrap.
//
// Use errors.Is(err, waveform.ErrInvalid) to detect any construction or
// parse failure; inspect the *ValidationError for field-level detail:
//
//	var verr *waveform.ValidationError
//	if errors.As(err, &verr) {
//	    // verr.Field, verr.Value
//	}
var ErrInvalid = errors.New("waveform: invalid")

// ValidationError describes a single invalid field in a waveform
// description. It identifies the offending field and the value supplied so
// callers can surface the problem to the user.
type ValidationError struct {
	// Field is the JSON field name (e.g. "length", "cycle", "sub_signals").
	Field string

	// Value is the offending value as supplied.
	Value any

	// Reason explains why the value was rejected.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("waveform: invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalid.
func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// invalidf builds a ValidationError for a field.
func invalidf(field string, value any, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}
