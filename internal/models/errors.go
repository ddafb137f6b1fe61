package models

import (
	"errors"
	"strings"
)

var (
	ErrNotFound        = errors.New("event not found")
	ErrInvalidID       = errors.New("invalid event id")
	ErrReminderRunning = errors.New("reminder run already in progress")
)

// ValidationError reports request fields that failed validation. It never
// wraps a storage error, so callers can map it straight to a 400.
type ValidationError struct {
	Problems []string
}

func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "validation failed"
	}
	return strings.Join(e.Problems, "; ")
}
