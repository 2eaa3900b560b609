package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
	ErrRowNotFound     = fmt.Errorf("%w: row", ErrNotFound)

	// Calculation errors
	ErrUnsupportedConfidenceLevel = errors.New("unsupported confidence level")
	ErrUnknownColumn              = errors.New("unknown column")
	ErrInsufficientData           = errors.New("insufficient data for analysis")
	ErrMissingGammaTarget         = errors.New("gamma target is undefined")
	ErrUnknownMethod              = errors.New("unknown SPC method")
	ErrDegenerateDistribution     = errors.New("degenerate distribution")
)

// Error constructors with context
func NewUnknownColumnError(column string) error {
	return fmt.Errorf("%w %q", ErrUnknownColumn, column)
}

func NewInsufficientDataError(column string, valid int) error {
	return fmt.Errorf("%w: column %q has %d valid observations, need at least 2", ErrInsufficientData, column, valid)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCalculationError reports whether err belongs to the control-limit
// calculation taxonomy. These are fatal to a single request and never retried.
func IsCalculationError(err error) bool {
	return errors.Is(err, ErrUnsupportedConfidenceLevel) ||
		errors.Is(err, ErrUnknownColumn) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrMissingGammaTarget) ||
		errors.Is(err, ErrUnknownMethod) ||
		errors.Is(err, ErrDegenerateDistribution)
}
