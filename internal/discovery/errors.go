package discovery

import (
	"errors"
	"fmt"
)

// ErrorType represents the stage of discovery that failed
type ErrorType int

const (
	// ErrTypeConfig indicates the scanner configuration is unusable
	ErrTypeConfig ErrorType = iota
	// ErrTypeBind indicates the local UDP socket could not be bound
	ErrTypeBind
	// ErrTypeBroadcastSend indicates the search probe could not be sent
	ErrTypeBroadcastSend
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConfig:
		return "Config Error"
	case ErrTypeBind:
		return "Bind Error"
	case ErrTypeBroadcastSend:
		return "Broadcast Send Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned when discovery cannot start. Failures while collecting
// replies are never returned; they only shorten the result.
type Error struct {
	Type    ErrorType // Stage that failed
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

// IsBindError checks if an error is a socket bind failure
func IsBindError(err error) bool {
	return hasType(err, ErrTypeBind)
}

// IsBroadcastSendError checks if an error is a probe send failure
func IsBroadcastSendError(err error) bool {
	return hasType(err, ErrTypeBroadcastSend)
}

func hasType(err error, t ErrorType) bool {
	var discErr *Error
	if errors.As(err, &discErr) {
		return discErr.Type == t
	}
	return false
}
