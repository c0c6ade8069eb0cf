package model

import (
	"errors"
)

// Error taxonomy for the chat pipeline. Handlers map these onto HTTP
// statuses; the turn path additionally swallows ErrPersistence after logging
// so a durability failure never blocks the streamed reply.
var (
	// ErrUnauthorized: identity required but absent.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation: malformed or missing request fields.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence: durable store unreachable or constraint violation.
	ErrPersistence = errors.New("persistence failed")

	// ErrGeneration: the completion engine failed or timed out mid-stream.
	ErrGeneration = errors.New("generation failed")
)
