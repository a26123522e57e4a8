package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/bulbctl/bulbctl/internal/logging"
)

const (
	// DefaultMulticastGroup is the group bulbs listen on for search probes
	DefaultMulticastGroup = "239.255.255.250"

	// DefaultMulticastPort is the port bulbs listen on for search probes
	DefaultMulticastPort = 1982

	// DefaultBindPort is the local port replies are received on
	DefaultBindPort = 34254

	// DefaultServiceType is the search target bulbs answer to
	DefaultServiceType = "wifi_bulb"

	// DefaultWindow is how long replies are collected
	DefaultWindow = 1200 * time.Millisecond

	// DefaultPause throttles the receive loop between datagrams
	DefaultPause = 200 * time.Millisecond

	// DefaultBufferSize is the receive buffer size for one datagram
	DefaultBufferSize = 2048

	// DefaultNetwork is the UDP network used for discovery
	DefaultNetwork = "udp4"

	// recordQueue bounds how many parsed records wait for the collector
	recordQueue = 16
)

// Config holds the network endpoints and timings used by a Scanner
type Config struct {
	// MulticastGroup is the address the probe is sent to
	MulticastGroup string `yaml:"multicast_group"`

	// MulticastPort is the port the probe is sent to
	MulticastPort int `yaml:"multicast_port"`

	// BindPort is the local port to receive replies on (0 picks a free port)
	BindPort int `yaml:"bind_port"`

	// ServiceType is the ST token of the probe
	ServiceType string `yaml:"service_type"`

	// Window is how long replies are collected
	Window time.Duration `yaml:"window"`

	// Pause is the delay between two receives; must be shorter than Window
	Pause time.Duration `yaml:"pause"`

	// BufferSize is the maximum datagram size read
	BufferSize int `yaml:"buffer_size"`

	// Network is "udp4", "udp6" or "udp"
	Network string `yaml:"network"`
}

// DefaultConfig returns the configuration bulbs expect out of the box
func DefaultConfig() Config {
	return Config{
		MulticastGroup: DefaultMulticastGroup,
		MulticastPort:  DefaultMulticastPort,
		BindPort:       DefaultBindPort,
		ServiceType:    DefaultServiceType,
		Window:         DefaultWindow,
		Pause:          DefaultPause,
		BufferSize:     DefaultBufferSize,
		Network:        DefaultNetwork,
	}
}

// Validate checks the configuration for values discovery cannot work with
func (c Config) Validate() error {
	switch {
	case c.MulticastGroup == "":
		return &Error{Type: ErrTypeConfig, Message: "multicast group is empty"}
	case c.MulticastPort <= 0 || c.MulticastPort > 65535:
		return &Error{Type: ErrTypeConfig, Message: fmt.Sprintf("multicast port %d out of range", c.MulticastPort)}
	case c.BindPort < 0 || c.BindPort > 65535:
		return &Error{Type: ErrTypeConfig, Message: fmt.Sprintf("bind port %d out of range", c.BindPort)}
	case c.ServiceType == "":
		return &Error{Type: ErrTypeConfig, Message: "service type is empty"}
	case c.Window <= 0:
		return &Error{Type: ErrTypeConfig, Message: "collection window must be positive"}
	case c.Pause < 0 || c.Pause >= c.Window:
		return &Error{Type: ErrTypeConfig, Message: fmt.Sprintf("pause %v must be shorter than window %v (settings keys discovery.pause and discovery.window)", c.Pause, c.Window)}
	case c.BufferSize <= 0:
		return &Error{Type: ErrTypeConfig, Message: "buffer size must be positive"}
	}
	return nil
}

// FitPause scales Pause down with Window when Window no longer leaves room
// for it, keeping the default ratio between the two.
func (c *Config) FitPause() {
	if c.Window > 0 && c.Pause >= c.Window {
		c.Pause = c.Window / (DefaultWindow / DefaultPause)
	}
}

// GroupAddress returns the host:port the probe is sent to
func (c Config) GroupAddress() string {
	return net.JoinHostPort(c.MulticastGroup, strconv.Itoa(c.MulticastPort))
}

// Probe returns the search request datagram
func (c Config) Probe() []byte {
	return []byte("M-SEARCH * HTTP/1.1\r\n" +
		"HOST: " + c.GroupAddress() + "\r\n" +
		"MAN: \"ssdp:discover\"\r\n" +
		"ST: " + c.ServiceType + "\r\n")
}

func (c Config) network() string {
	if c.Network == "" {
		return DefaultNetwork
	}
	return c.Network
}

// Scanner handles probe-based bulb discovery
type Scanner struct {
	// Config holds endpoints and timings
	Config Config

	// Parser turns a reply into a Device (default: ParseDescriptor)
	Parser ParserFunc

	// Listen opens the discovery socket (default: net.ListenPacket)
	Listen func(network, address string) (net.PacketConn, error)
}

// NewScanner creates a new scanner with the given configuration
func NewScanner(cfg Config) *Scanner {
	return &Scanner{
		Config: cfg,
		Parser: ParseDescriptor,
		Listen: net.ListenPacket,
	}
}

// Discover sends one probe and returns the bulbs that answered within the
// collection window, one record per bulb ID in order of first reply.
//
// Only bind and probe failures are returned as errors. A receive error ends
// collection early and a cancelled ctx ends the window early; both still
// return whatever was collected.
func (s *Scanner) Discover(ctx context.Context) ([]*Device, error) {
	if err := s.Config.Validate(); err != nil {
		return nil, err
	}

	conn, err := s.bind()
	if err != nil {
		return nil, err
	}

	if err := s.sendProbe(conn); err != nil {
		conn.Close()
		return nil, err
	}

	done := make(chan struct{})
	records := make(chan *Device, recordQueue)
	go s.receive(conn, records, done)

	collected := s.collect(ctx, records)

	// Closing the socket unblocks ReadFrom and ends the receive goroutine
	close(done)
	conn.Close()

	collected = append(collected, drain(records)...)

	devices := Dedupe(collected)
	logging.Info("Discovery finished",
		zap.Int("replies", len(collected)),
		zap.Int("devices", len(devices)),
	)
	return devices, nil
}

func (s *Scanner) bind() (net.PacketConn, error) {
	listen := s.Listen
	if listen == nil {
		listen = net.ListenPacket
	}

	addr := net.JoinHostPort("", strconv.Itoa(s.Config.BindPort))
	conn, err := listen(s.Config.network(), addr)
	if err != nil {
		return nil, &Error{
			Type:    ErrTypeBind,
			Message: fmt.Sprintf("couldn't bind socket on port %d", s.Config.BindPort),
			Err:     err,
		}
	}
	logging.Debug("Discovery socket bound", zap.String("local_addr", conn.LocalAddr().String()))
	return conn, nil
}

func (s *Scanner) sendProbe(conn net.PacketConn) error {
	group, err := net.ResolveUDPAddr(s.Config.network(), s.Config.GroupAddress())
	if err != nil {
		return &Error{
			Type:    ErrTypeBroadcastSend,
			Message: fmt.Sprintf("couldn't resolve multicast group %s", s.Config.GroupAddress()),
			Err:     err,
		}
	}

	probe := s.Config.Probe()
	if _, err := conn.WriteTo(probe, group); err != nil {
		return &Error{
			Type:    ErrTypeBroadcastSend,
			Message: fmt.Sprintf("couldn't send probe to %s", group),
			Err:     err,
		}
	}
	logging.LogRawBytes("Search probe sent", probe)
	return nil
}

// receive is the only producer on records. It exits on the first receive
// error, which includes the socket being closed once the window is over.
func (s *Scanner) receive(conn net.PacketConn, records chan<- *Device, done <-chan struct{}) {
	defer close(records)

	parse := s.Parser
	if parse == nil {
		parse = ParseDescriptor
	}

	buf := make([]byte, s.Config.BufferSize)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				logging.Warn("Couldn't receive a datagram", zap.Error(err))
			}
			return
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		logging.LogDatagram(from.String(), payload)

		device, err := parse(payload)
		if err != nil {
			logging.Debug("Dropping discovery reply",
				zap.String("remote_addr", from.String()),
				zap.Error(err),
			)
		} else {
			select {
			case records <- device:
			case <-done:
				return
			}
		}

		if s.Config.Pause > 0 {
			select {
			case <-time.After(s.Config.Pause):
			case <-done:
				return
			}
		}
	}
}

// collect reads records until the window elapses, ctx is done or the
// producer stops.
func (s *Scanner) collect(ctx context.Context, records <-chan *Device) []*Device {
	timer := time.NewTimer(s.Config.Window)
	defer timer.Stop()

	var collected []*Device
	for {
		select {
		case device, ok := <-records:
			if !ok {
				return collected
			}
			collected = append(collected, device)
		case <-timer.C:
			return collected
		case <-ctx.Done():
			logging.Debug("Discovery window cut short", zap.Error(ctx.Err()))
			return collected
		}
	}
}

// drain empties whatever is already queued without blocking
func drain(records <-chan *Device) []*Device {
	var rest []*Device
	for {
		select {
		case device, ok := <-records:
			if !ok {
				return rest
			}
			rest = append(rest, device)
		default:
			return rest
		}
	}
}

// Discover is a convenience function to run one discovery round with cfg
func Discover(ctx context.Context, cfg Config) ([]*Device, error) {
	return NewScanner(cfg).Discover(ctx)
}
