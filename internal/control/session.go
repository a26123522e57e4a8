package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bulbctl/bulbctl/internal/discovery"
	"github.com/bulbctl/bulbctl/internal/logging"
)

const (
	// DefaultTimeout bounds each of connect, write and read
	DefaultTimeout = 5 * time.Second

	// DefaultBufferSize is the size of the single reply read
	DefaultBufferSize = 2048
)

// State is the progress of a Session
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateSent
	StateDone
	StateFailed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateSent:
		return "sent"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Dialer opens the point-to-point connection; *net.Dialer satisfies it
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Client holds the settings shared by every Session it creates
type Client struct {
	// Timeout bounds connect, write and read individually (0 = no deadline)
	Timeout time.Duration

	// BufferSize is the maximum reply size read
	BufferSize int

	// Report receives the human-readable request and reply (nil = discard)
	Report io.Writer

	// Dialer opens connections (default: *net.Dialer)
	Dialer Dialer
}

// NewClient creates a new control client with default settings
func NewClient() *Client {
	return &Client{
		Timeout:    DefaultTimeout,
		BufferSize: DefaultBufferSize,
		Dialer:     &net.Dialer{},
	}
}

// NewSession creates a one-shot session addressed at device
func (c *Client) NewSession(device *discovery.Device) *Session {
	dialer := c.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	bufferSize := c.BufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	report := c.Report
	if report == nil {
		report = io.Discard
	}
	return &Session{
		device:     device,
		dialer:     dialer,
		timeout:    c.Timeout,
		bufferSize: bufferSize,
		report:     report,
	}
}

// Send delivers req to device in a fresh session and returns the reply.
// The envelope id is always the device ID.
func (c *Client) Send(ctx context.Context, device *discovery.Device, req Request) (*Response, error) {
	return c.NewSession(device).Run(ctx, req)
}

// Session is a single connect, write, read exchange with one bulb
type Session struct {
	device     *discovery.Device
	dialer     Dialer
	timeout    time.Duration
	bufferSize int
	report     io.Writer
	state      State
}

// State returns the current progress of the session
func (s *Session) State() State {
	return s.state
}

func (s *Session) transition(next State) {
	logging.Debug("Control session state",
		zap.String("address", s.device.Address),
		zap.Stringer("from", s.state),
		zap.Stringer("to", next),
	)
	s.state = next
}

func (s *Session) fail(err *TransportError) error {
	s.transition(StateFailed)
	logging.Error("Control exchange failed",
		zap.String("address", err.Address),
		zap.String("op", string(err.Op)),
		zap.Stringer("kind", err.Kind),
		zap.Error(err.Err),
	)
	return err
}

// Run performs the exchange. It may only be called once per session.
//
// The request is written with a single Write call. Any failure is
// terminal; a read failure still means the request was delivered.
func (s *Session) Run(ctx context.Context, req Request) (*Response, error) {
	if s.state != StateIdle {
		return nil, ErrSessionUsed
	}
	if s.device == nil || s.device.Address == "" {
		s.state = StateFailed
		return nil, ErrNoAddress
	}

	req.TargetID = s.device.ID
	frame := Frame(req)
	address := s.device.Address

	s.transition(StateConnecting)
	dialCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	conn, err := s.dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return nil, s.fail(classify(OpConnect, address, err))
	}
	defer conn.Close()
	s.transition(StateConnected)

	s.setDeadline(conn)
	// A short write is not retried
	if _, err := conn.Write(frame); err != nil {
		return nil, s.fail(classify(OpWrite, address, err))
	}
	s.transition(StateSent)
	logging.LogExchange(address, "sent", req.TargetID, frame)
	fmt.Fprintf(s.report, "The message sent to the bulb is: %s", frame)

	s.setDeadline(conn)
	buf := make([]byte, s.bufferSize)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, s.fail(classify(OpRead, address, err))
	}

	resp := &Response{Raw: buf[:n]}
	s.transition(StateDone)
	logging.LogExchange(address, "received", req.TargetID, resp.Raw)
	reply := resp.Text()
	if !strings.HasSuffix(reply, "\n") {
		reply += "\n"
	}
	fmt.Fprintf(s.report, "The bulb returns: %s", reply)

	return resp, nil
}

func (s *Session) setDeadline(conn net.Conn) {
	if s.timeout <= 0 {
		return
	}
	if err := conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		logging.Debug("Couldn't set connection deadline", zap.Error(err))
	}
}
