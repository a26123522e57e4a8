package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Source names the mechanism a Device was discovered through.
const (
	SourceSSDP = "ssdp"
	SourceMDNS = "mdns"
)

// Device represents a discovered bulb
type Device struct {
	// ID uniquely identifies the physical bulb (e.g., 0x000000000015243f)
	ID uint64 `json:"id"`

	// Address is the host:port of the bulb's control endpoint (e.g., "192.168.1.239:55443")
	Address string `json:"address"`

	// Model is the advertised model name (e.g., "color")
	Model string `json:"model,omitempty"`

	// Firmware is the advertised firmware version
	Firmware string `json:"firmware,omitempty"`

	// Support lists the control methods the bulb advertises
	Support []string `json:"support,omitempty"`

	// Power is the advertised power state ("on" or "off")
	Power string `json:"power,omitempty"`

	// Name is the user-assigned bulb name, often empty
	Name string `json:"name,omitempty"`

	// Metadata contains every descriptor header, keyed by lower-cased header name
	Metadata map[string]string `json:"metadata,omitempty"`

	// Source is how the bulb was found (SourceSSDP or SourceMDNS)
	Source string `json:"source"`

	// DiscoveredAt is when the reply was received
	DiscoveredAt time.Time `json:"discovered_at"`
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	if d.Model == "" {
		return fmt.Sprintf("Bulb %s at %s", d.HexID(), d.Address)
	}
	return fmt.Sprintf("Bulb %s (%s) at %s", d.HexID(), d.Model, d.Address)
}

// HexID returns the ID in the zero-padded hex form bulbs advertise
func (d *Device) HexID() string {
	return fmt.Sprintf("0x%016x", d.ID)
}

// Host returns the host part of Address, or Address itself if it has no port
func (d *Device) Host() string {
	host, _, err := net.SplitHostPort(d.Address)
	if err != nil {
		return d.Address
	}
	return host
}

// Port returns the port part of Address, or 0 if it cannot be parsed
func (d *Device) Port() int {
	_, port, err := net.SplitHostPort(d.Address)
	if err != nil {
		return 0
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}
	return p
}

// Supports reports whether the bulb advertises the given control method
func (d *Device) Supports(method string) bool {
	for _, m := range d.Support {
		if m == method {
			return true
		}
	}
	return false
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

// Dedupe returns devices with repeated IDs removed. The first record for each
// ID is kept and arrival order is preserved.
func Dedupe(devices []*Device) []*Device {
	seen := make(map[uint64]struct{}, len(devices))
	unique := make([]*Device, 0, len(devices))
	for _, device := range devices {
		if device == nil {
			continue
		}
		if _, ok := seen[device.ID]; ok {
			continue
		}
		seen[device.ID] = struct{}{}
		unique = append(unique, device)
	}
	return unique
}
