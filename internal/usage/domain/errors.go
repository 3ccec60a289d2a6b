package usage

import "errors"

var (
	// ErrNotFound signals a missing user or resource.
	ErrNotFound = errors.New("usage: not found")
	// ErrUnauthorized signals a caller without a valid identity.
	ErrUnauthorized = errors.New("usage: unauthorized")
	// ErrStoreUnavailable signals a failed backing store operation.
	ErrStoreUnavailable = errors.New("usage: store unavailable")
	// ErrInvalidInput signals a rejected request payload.
	ErrInvalidInput = errors.New("usage: invalid input")
)
