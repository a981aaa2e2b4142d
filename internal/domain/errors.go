package domain

import "errors"

var (
	// ErrRecordNotFound signals a missing business record. This is a normal
	// business outcome, not an infrastructure failure.
	ErrRecordNotFound = errors.New("record not found")
	// ErrCollectionNotFound signals a missing chunk collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrProviderUnavailable signals an embedding/generation provider failure
	// or timeout. Recovered locally via fallback strategies.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrStoreUnavailable signals that the record store or vector index is
	// unreachable. Not recoverable locally.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidInput signals a request the transport layer must reject.
	ErrInvalidInput = errors.New("invalid input")
)
