package protocol

import (
	"errors"
	"fmt"

	"github.com/minerdash/minerdash/internal/levels"
)

// ErrorType represents the category of a dashboard channel error
type ErrorType int

const (
	// ErrTypeTransportUnavailable means no live-socket capability exists.
	// The channel degrades to a null transport and sends become no-ops.
	ErrTypeTransportUnavailable ErrorType = iota
	// ErrTypeConnectionClosed means the connection dropped; an explicit
	// reconnect is required
	ErrTypeConnectionClosed
	// ErrTypeOutOfRangeLevel means a level ordinal outside the known levels.
	// The whole settings batch is rejected.
	ErrTypeOutOfRangeLevel
	// ErrTypeOutOfRangePercent is informational only; percentages are clamped
	ErrTypeOutOfRangePercent
	// ErrTypeMalformed means a frame could not be decoded
	ErrTypeMalformed
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeTransportUnavailable:
		return "Transport Unavailable"
	case ErrTypeConnectionClosed:
		return "Connection Closed"
	case ErrTypeOutOfRangeLevel:
		return "Level Out Of Range"
	case ErrTypeOutOfRangePercent:
		return "Percent Out Of Range"
	case ErrTypeMalformed:
		return "Malformed Message"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is an error raised on the dashboard channel
type Error struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a channel error of the given type
func NewError(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// IsType reports whether err (or anything it wraps) is a channel error of type t
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// CheckValues validates a settings snapshot taken off the wire. A bad ordinal
// is OutOfRangeLevel; a wrong key set is Malformed. Either way the whole
// batch is refused.
func CheckValues(values levels.State) error {
	err := values.Validate()
	if err == nil {
		return nil
	}
	if errors.Is(err, levels.ErrOutOfRange) {
		return NewError(ErrTypeOutOfRangeLevel, "settings batch refused", err)
	}
	return NewError(ErrTypeMalformed, "settings batch refused", err)
}
