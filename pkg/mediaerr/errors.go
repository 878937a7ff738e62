package mediaerr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrInvalidState is returned when an operation is attempted on a closed
	// Transport or flow, or on a Device that is not (or already) loaded.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnsupported is returned for direction mismatches, capability
	// mismatches and features the remote side did not negotiate.
	ErrUnsupported = errors.New("unsupported")

	// ErrInvalidArgument is returned for malformed or missing arguments.
	// These are always detected before any work is queued.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNegotiation is returned when capability input to the negotiator is
	// structurally invalid.
	ErrNegotiation = errors.New("negotiation failed")
)

// Error is a classified error. It unwraps to its kind and, if present, to the
// underlying cause.
type Error struct {
	kind  error
	msg   string
	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Kind returns the sentinel kind of the error.
func (e *Error) Kind() error {
	return e.kind
}

// Unwrap returns the kind and the cause for errors.Is/errors.As.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// InvalidState returns an ErrInvalidState error.
func InvalidState(format string, args ...any) error {
	return newError(ErrInvalidState, format, args...)
}

// Unsupported returns an ErrUnsupported error.
func Unsupported(format string, args ...any) error {
	return newError(ErrUnsupported, format, args...)
}

// InvalidArgument returns an ErrInvalidArgument error.
func InvalidArgument(format string, args ...any) error {
	return newError(ErrInvalidArgument, format, args...)
}

// Negotiation returns an ErrNegotiation error.
func Negotiation(format string, args ...any) error {
	return newError(ErrNegotiation, format, args...)
}

// WrapNegotiation classifies cause as a negotiation failure. A nil cause
// returns nil.
func WrapNegotiation(cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	e := newError(ErrNegotiation, format, args...)
	e.cause = cause
	return e
}

// IsInvalidState reports whether err is classified as ErrInvalidState.
func IsInvalidState(err error) bool { return errors.Is(err, ErrInvalidState) }

// IsUnsupported reports whether err is classified as ErrUnsupported.
func IsUnsupported(err error) bool { return errors.Is(err, ErrUnsupported) }

// IsInvalidArgument reports whether err is classified as ErrInvalidArgument.
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }
