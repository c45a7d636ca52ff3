package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrWriteFailed is returned when a document could not be written to
	// durable storage.
	ErrWriteFailed = errors.New("persistence: write failed")
	// ErrCorrupt is returned when a stored document cannot be decoded.
	ErrCorrupt = errors.New("persistence: corrupt document")
)
