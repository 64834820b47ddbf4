package domain

import "errors"

// Sentinel errors for the service layer. Handlers map these to HTTP status
// codes; anything else is an internal failure and is not exposed to clients.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("concurrent modification, retry")
)
