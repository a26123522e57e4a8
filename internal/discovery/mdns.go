package discovery

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/bulbctl/bulbctl/internal/logging"
)

const (
	// MDNSServiceType is the mDNS service type bulbs advertise
	MDNSServiceType = "_miio._udp"

	// MDNSServiceDomain is the mDNS domain (typically "local.")
	MDNSServiceDomain = "local."

	// DefaultControlPort is the TCP control port of a bulb; mDNS does not advertise it
	DefaultControlPort = 55443
)

// miioPattern matches bulb instance names (e.g., "yeelink-light-color1_miio12345678")
var miioPattern = regexp.MustCompile(`^yeelink-light-([a-z0-9]+)_miio(\d+)`)

// MDNSScanner discovers bulbs through their mDNS advertisements
type MDNSScanner struct {
	// Window is how long to browse for advertisements
	Window time.Duration

	// ControlPort is the port used to build each Device.Address
	ControlPort int
}

// NewMDNSScanner creates a new mDNS scanner with default settings
func NewMDNSScanner() *MDNSScanner {
	return &MDNSScanner{
		Window:      DefaultWindow,
		ControlPort: DefaultControlPort,
	}
}

// Discover browses for bulbs for the scanner window and returns one record
// per bulb ID in order of first advertisement
func (s *MDNSScanner) Discover(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Window)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Device, recordQueue)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// The resolver closes entries once ctx is done, including when Browse
	// fails. Keep reading until then so it never blocks on a send.
	go func() {
		for entry := range entries {
			device := s.parseServiceEntry(entry)
			if device == nil {
				continue
			}
			select {
			case found <- device:
			case <-ctx.Done():
			}
		}
	}()

	if err := resolver.Browse(ctx, MDNSServiceType, MDNSServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	var devices []*Device
	for {
		select {
		case device := <-found:
			devices = append(devices, device)
		case <-ctx.Done():
			devices = append(devices, drain(found)...)
			return Dedupe(devices), nil
		}
	}
}

// parseServiceEntry converts a zeroconf service entry to a Device
// Returns nil if the entry is not a bulb
func (s *MDNSScanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	name := entry.Instance
	if !miioPattern.MatchString(name) {
		name = strings.TrimSuffix(entry.HostName, ".")
	}
	matches := miioPattern.FindStringSubmatch(name)
	if len(matches) < 3 {
		return nil
	}

	id, err := strconv.ParseUint(matches[2], 10, 64)
	if err != nil {
		return nil
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := s.ControlPort
	if port == 0 {
		port = DefaultControlPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	logging.Debug("mDNS bulb advertisement",
		zap.String("instance", entry.Instance),
		zap.String("ip", ip),
	)

	return &Device{
		ID:           id,
		Address:      net.JoinHostPort(ip, strconv.Itoa(port)),
		Model:        matches[1],
		Metadata:     metadata,
		Source:       SourceMDNS,
		DiscoveredAt: time.Now(),
	}
}
