package restriction

import "errors"

var (
	// ErrInvalidIdentifier means the raw identifier could not be parsed;
	// nothing is cached or persisted on this failure.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrNotFound means the referenced record no longer exists in the
	// store. Concurrent admin actions make this an expected soft outcome.
	ErrNotFound = errors.New("restriction not found")

	// ErrStoreUnavailable wraps transient store I/O failures.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrAlreadyRestricted rejects a create for an identifier that is
	// already actively restricted.
	ErrAlreadyRestricted = errors.New("identifier already restricted")
)
