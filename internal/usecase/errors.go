package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrIdentifierMissing     = errors.New("match identifier missing")
	ErrMalformedRecord       = errors.New("malformed record")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
