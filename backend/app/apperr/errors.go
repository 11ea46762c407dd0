// Package apperr holds the error kinds shared by the store, the services and
// the HTTP layer. Every error returned across those boundaries wraps exactly
// one of the sentinels below so callers can branch with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("invalid request")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage failure")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

var kinds = []error{ErrUnauthorized, ErrValidation, ErrNotFound, ErrConflict, ErrStorage}

// Storage wraps a driver error. A nil cause yields nil so repositories can
// return Storage(db.Error) unconditionally, and an already classified error
// (for example a NotFound raised inside a transaction) passes through.
func Storage(cause error) error {
	if cause == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(cause, k) {
			return cause
		}
	}
	return fmt.Errorf("%w: %w", ErrStorage, cause)
}

// Message strips the sentinel prefix so handlers can echo a readable reason.
func Message(err error) string {
	if err == nil {
		return ""
	}
	for _, s := range kinds[:4] {
		if errors.Is(err, s) {
			msg := err.Error()
			prefix := s.Error() + ": "
			if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
				return msg[len(prefix):]
			}
			return msg
		}
	}
	return err.Error()
}
