package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is wrapped by every ParseError.
	ErrParse = errors.New("parse error")

	// ErrInsufficientData is returned when a statistic is requested on fewer
	// valid observations than it needs.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDivideByZero is returned by the return-period estimator when no
	// qualifying events exist.
	ErrDivideByZero = errors.New("division by zero")

	// ErrUnordered is returned when a series is not strictly ordered by year.
	ErrUnordered = errors.New("series not ordered by year")

	// ErrInvalidLevel is returned for a confidence level outside (0, 1).
	ErrInvalidLevel = errors.New("confidence level must be in (0, 1)")
)

// ParseError describes a malformed input table or row.
// Line is the 1-based line number in the source, or 0 for header problems.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line == 0 && e.Column != "":
		return fmt.Sprintf("parse header: column %q: %v", e.Column, e.Err)
	case e.Column != "":
		return fmt.Sprintf("parse line %d: column %q value %q: %v", e.Line, e.Column, e.Value, e.Err)
	default:
		return fmt.Sprintf("parse line %d: %v", e.Line, e.Err)
	}
}

// Unwrap exposes both ErrParse and the underlying cause to errors.Is.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

func insufficient(what string, need, got int) error {
	return fmt.Errorf("%w: %s needs at least %d valid observations, got %d", ErrInsufficientData, what, need, got)
}

func checkLevel(level float64) error {
	if !(level > 0 && level < 1) {
		return fmt.Errorf("%w: got %g", ErrInvalidLevel, level)
	}
	return nil
}
