package domain

import (
	"errors"
	"fmt"
)

// ExhaustedError reports that a list has no available prompts left.
// It is an expected condition, not a fault.
type ExhaustedError struct {
	ListID string
}

func (e *ExhaustedError) Error() string {
	return "No more prompts!"
}

// NoHistoryError reports an undo on a list with nothing dispensed.
type NoHistoryError struct {
	ListID string
}

func (e *NoHistoryError) Error() string {
	return "No previous prompt to go back to"
}

// ValidationError rejects an empty name or an empty prompt set.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsExhausted reports whether err is, or wraps, an ExhaustedError.
func IsExhausted(err error) bool {
	var target *ExhaustedError
	return errors.As(err, &target)
}

// IsNoHistory reports whether err is, or wraps, a NoHistoryError.
func IsNoHistory(err error) bool {
	var target *NoHistoryError
	return errors.As(err, &target)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
