package contract

import "errors"

var (
	// ErrTimeout marks an operation that exceeded its per-attempt budget.
	ErrTimeout = errors.New("operation timed out")
	// ErrUpstream marks a fault returned by an oracle or collaborator.
	ErrUpstream = errors.New("upstream fault")
	// ErrNotFound marks a valid request with no matching record.
	ErrNotFound = errors.New("not found")
	// ErrInvalid marks malformed input, e.g. an unreadable image.
	ErrInvalid = errors.New("invalid input")

	ErrValidation = errors.New("validation failed")
)
