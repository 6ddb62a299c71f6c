package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error so callers can decide whether to
// retry, surface to the user, or treat it as fatal to the current operation.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindConflict
	KindInvalidInput
	KindTransient
	KindAuthDenied
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindTransient:
		return "transient"
	case KindAuthDenied:
		return "auth_denied"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a kind and the operation that
// produced it, so callers one level up can classify without string matching.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError constructs a kinded domain error for operation op.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Kind extracts the ErrorKind of err, or KindUnknown if err does not carry one.
func Kind(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err (or something it wraps) is a NotFound domain error.
func IsNotFound(err error) bool { return Kind(err) == KindNotFound }

// IsConflict reports whether err is a Conflict domain error.
func IsConflict(err error) bool { return Kind(err) == KindConflict }

// IsTransient reports whether err is a Transient domain error — the only
// kind the Persistence Gateway decorator retries.
func IsTransient(err error) bool { return Kind(err) == KindTransient }

// IsAuthDenied reports whether err is an AuthDenied domain error.
func IsAuthDenied(err error) bool { return Kind(err) == KindAuthDenied }

var (
	ErrVehicleNotFound  = errors.New("vehicle not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrNoKnownLocation  = errors.New("no known location encloses the reported position")
)
