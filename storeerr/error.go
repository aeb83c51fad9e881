// Package storeerr defines the error-kind vocabulary shared by the
// internal/core and storm packages: plain error kinds (not types), each
// surfaced via a single Error struct that carries the failing operation
// and an optional wrapped cause.
package storeerr

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// KindUnknown is the zero value; never returned by this module.
	KindUnknown Kind = iota
	// KindNotFound means an unknown StoreID was referenced.
	KindNotFound
	// KindClosed means an operation was attempted on a closed Store.
	KindClosed
	// KindInvalidArgument means a caller-supplied argument is invalid
	// (a zero-length allocation, an empty configuration string, a
	// non-positive size).
	KindInvalidArgument
	// KindInvalidState means a Buffer method was called in the wrong
	// Mode.
	KindInvalidState
	// KindIO means the underlying filesystem returned an error.
	KindIO
	// KindCorruption means an on-disk or in-memory invariant was found
	// broken: a description referencing a range beyond the data file,
	// overlapping free ranges, or similar.
	KindCorruption
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindClosed:
		return "closed"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInvalidState:
		return "invalid_state"
	case KindIO:
		return "io"
	case KindCorruption:
		return "corruption"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by this module's public
// operations. Op names the failing method (e.g. "Get" or
// "FileManager.WriteData"); Err, when
// non-nil, is the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storm: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("storm: %s: %s", e.Op, e.Kind)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error. err may be nil when the kind alone is sufficient
// context (e.g. KindNotFound).
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is, or wraps, an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
