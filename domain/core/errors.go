package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors, detected once before any trial runs
	ErrInvalidParameter = errors.New("invalid parameter")

	// A generated sample cannot support the statistic (zero variance, all ties, ...)
	ErrDegenerateSample = errors.New("degenerate sample")

	// Aggregation attempted over zero trials
	ErrEmptyResult = errors.New("empty result")
)

// Error constructors with context
func NewInvalidParameterError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidParameter, field, reason)
}

func NewDegenerateSampleError(test string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrDegenerateSample, test, reason)
}

func NewEmptyResultError(reason string) error {
	return fmt.Errorf("%w: %s", ErrEmptyResult, reason)
}

// Error checking helpers
func IsInvalidParameter(err error) bool {
	return errors.Is(err, ErrInvalidParameter)
}

func IsDegenerateSample(err error) bool {
	return errors.Is(err, ErrDegenerateSample)
}

func IsEmptyResult(err error) bool {
	return errors.Is(err, ErrEmptyResult)
}

// IsSimulationError reports whether err belongs to the simulation error taxonomy.
// None of these are transient; callers must not retry.
func IsSimulationError(err error) bool {
	return IsInvalidParameter(err) || IsDegenerateSample(err) || IsEmptyResult(err)
}
