package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidAccuracy is returned when an accuracy score cannot be parsed.
	// Scores outside 0-100 are clamped rather than rejected.
	ErrInvalidAccuracy = errors.New("invalid accuracy score")
)
