package domain

import "errors"

// Sentinel errors for the core. Check with errors.Is:
// errors.Is(err, domain.ErrValidation)
var (
	// ErrValidation marks bad caller input (empty card text, quality out of
	// range). Surfaced to the caller, never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an unknown card or user.
	ErrNotFound = errors.New("not found")
)
