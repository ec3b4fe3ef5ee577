package service

import "errors"

// Sentinel errors mapped to HTTP responses by the API layer.
var (
	ErrPersonaNotFound = errors.New("persona not found")

	// ErrInsufficientHistory rejects an analysis request before any
	// external call is made.
	ErrInsufficientHistory = errors.New("analysis requires at least two user messages")
)
