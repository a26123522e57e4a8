package discovery

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDescriptor is returned when a discovery reply cannot be turned into a Device
var ErrInvalidDescriptor = errors.New("invalid device descriptor")

// ParserFunc turns one raw discovery reply into a Device
type ParserFunc func(payload []byte) (*Device, error)

// locationScheme is the URL scheme bulbs use in the Location header
const locationScheme = "yeelight"

// ParseDescriptor parses an SSDP-style discovery reply.
//
// The payload is either a search response ("HTTP/1.1 200 OK") or an
// unsolicited advertisement ("NOTIFY * HTTP/1.1"), followed by "Key: value"
// header lines. The "id" and "Location" headers are required.
func ParseDescriptor(payload []byte) (*Device, error) {
	text := strings.TrimRight(string(payload), "\x00")
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	start := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(start, "HTTP/1.1 200") && !strings.HasPrefix(start, "NOTIFY") {
		return nil, fmt.Errorf("%w: unexpected start line %q", ErrInvalidDescriptor, start)
	}

	headers := make(map[string]string)
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			// Header without a colon carries nothing usable
			continue
		}
		headers[strings.ToLower(strings.TrimSpace(parts[0]))] = strings.TrimSpace(parts[1])
	}

	rawID, ok := headers["id"]
	if !ok || rawID == "" {
		return nil, fmt.Errorf("%w: missing id header", ErrInvalidDescriptor)
	}
	id, err := ParseID(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	location, ok := headers["location"]
	if !ok || location == "" {
		return nil, fmt.Errorf("%w: missing location header", ErrInvalidDescriptor)
	}
	address, err := parseLocation(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	return &Device{
		ID:           id,
		Address:      address,
		Model:        headers["model"],
		Firmware:     headers["fw_ver"],
		Support:      strings.Fields(headers["support"]),
		Power:        headers["power"],
		Name:         headers["name"],
		Metadata:     headers,
		Source:       SourceSSDP,
		DiscoveredAt: time.Now(),
	}, nil
}

// ParseID parses a bulb ID written either as 0x-prefixed hex or as decimal
func ParseID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		id, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid id %q: %w", s, err)
		}
		return id, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

// parseLocation extracts host:port from "yeelight://host:port"
func parseLocation(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid location %q: %w", location, err)
	}
	if u.Scheme != locationScheme {
		return "", fmt.Errorf("unsupported location scheme %q", u.Scheme)
	}
	if u.Hostname() == "" || u.Port() == "" {
		return "", fmt.Errorf("location %q has no host:port", location)
	}
	return net.JoinHostPort(u.Hostname(), u.Port()), nil
}
