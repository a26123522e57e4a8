package control

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// Kind represents the category of transport failure
type Kind int

const (
	// ConnectFailed indicates the bulb could not be reached
	ConnectFailed Kind = iota
	// WriteFailed indicates the request could not be written
	WriteFailed
	// ReadFailed indicates the reply could not be read; the request was delivered
	ReadFailed
	// Timeout indicates a connect, write or read deadline expired
	Timeout
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case ConnectFailed:
		return "Connect Failed"
	case WriteFailed:
		return "Write Failed"
	case ReadFailed:
		return "Read Failed"
	case Timeout:
		return "Timeout"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Op names the exchange step a TransportError happened in
type Op string

const (
	OpConnect Op = "connect"
	OpWrite   Op = "write"
	OpRead    Op = "read"
)

var (
	// ErrSessionUsed is returned when a Session is run a second time
	ErrSessionUsed = errors.New("control session already used")

	// ErrNoAddress is returned when the target device has no control address
	ErrNoAddress = errors.New("device has no control address")
)

// TransportError represents a failed control exchange
type TransportError struct {
	Kind    Kind   // Category of failure
	Op      Op     // Step that failed
	Address string // Bulb control address (for context)
	Err     error  // Underlying error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Address, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Delivered reports whether the request reached the bulb before the failure
func (e *TransportError) Delivered() bool {
	return e.Op == OpRead
}

// classify wraps a network error from op, turning deadline expiry into Timeout
func classify(op Op, address string, err error) *TransportError {
	kind := ConnectFailed
	switch op {
	case OpWrite:
		kind = WriteFailed
	case OpRead:
		kind = ReadFailed
	}
	if os.IsTimeout(err) {
		kind = Timeout
	}
	return &TransportError{Kind: kind, Op: op, Address: address, Err: err}
}

// IsKind checks if err is a TransportError of the given kind
func IsKind(err error, kind Kind) bool {
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return tErr.Kind == kind
	}
	return false
}

// IsConnectionRefused checks if the bulb actively refused the connection
func IsConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

// Hint returns short troubleshooting advice for a control error
func Hint(err error) string {
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		return ""
	}
	switch {
	case tErr.Kind == Timeout && tErr.Op == OpConnect:
		return "The bulb did not accept a connection in time. Check that it is powered and on the same network."
	case tErr.Kind == Timeout:
		return "The bulb stopped responding. Try a longer --timeout."
	case IsConnectionRefused(err):
		return "The bulb refused the connection. Enable LAN control in the vendor app."
	case tErr.Kind == ReadFailed:
		return "The command was sent but no reply could be read."
	default:
		return "Check the bulb address and your network connection."
	}
}
