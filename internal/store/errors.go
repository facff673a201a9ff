package store

import "errors"

var (
	// ErrNotFound is returned when a mutation or lookup targets an identifier
	// that is not in the registry. The document is left untouched.
	ErrNotFound = errors.New("store: not found")

	// ErrMalformedState is returned by Load when the persisted document
	// cannot be decoded. The stored blob is left as-is so the caller can
	// decide between reseeding and aborting.
	ErrMalformedState = errors.New("store: malformed persisted state")

	// ErrInvalidDocument is returned by Import when the payload is not a
	// registry document.
	ErrInvalidDocument = errors.New("store: invalid document")
)
