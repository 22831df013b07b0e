package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by targeted lookups (entity network, named
	// collection) when the target does not exist. Plain read paths return
	// empty results instead.
	ErrNotFound = errors.New("not found")

	// ErrNoRetrievalSource is returned when a caller disables both the
	// graph and vector branches of a routed query.
	ErrNoRetrievalSource = errors.New("at least one of graph or vector retrieval must be enabled")
)

// ConnectionError indicates the backing store is unreachable or rejected
// credentials. Fatal to the calling operation; callers may retry.
type ConnectionError struct {
	Store string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s connection failed: %v", e.Store, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ValidationError indicates malformed input rejected before any I/O.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is match any ValidationError against another.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConnection reports whether err is (or wraps) a ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
