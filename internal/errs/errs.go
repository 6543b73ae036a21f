// Package errs defines the service's closed error taxonomy so callers can
// branch on error kind instead of matching strings.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	KindAdapter     Kind = "adapter"     // market source / network failures, retryable
	KindValidation  Kind = "validation"  // rejected orders, bad inputs inside a run
	KindConfig      Kind = "config"      // unknown adapter, invalid range or params
	KindStrategy    Kind = "strategy"    // strategy init/update failures, fatal to a run
	KindPersistence Kind = "persistence" // store failures
)

// Error couples a kind with an underlying error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a kinded error from a format string.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a kind to an existing error. A nil err returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the kind of an error, or "" when the error carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
