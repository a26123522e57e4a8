package discovery

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNoDevices is returned when there is nothing to select from
	ErrNoDevices = errors.New("no bulbs found")

	// ErrNoSuchDevice is returned when a numeric selector matches no position or ID
	ErrNoSuchDevice = errors.New("no such bulb")
)

// Select picks a device using a command-line selector.
//
// A selector that parses as a number is consumed: it picks the device at
// that position if in range, otherwise the device with that ID (decimal or
// 0x hex). Any other selector is not consumed and the first device is
// returned as the default.
func Select(devices []*Device, selector string) (device *Device, consumed bool, err error) {
	if len(devices) == 0 {
		return nil, false, ErrNoDevices
	}

	selector = strings.TrimSpace(selector)
	if selector == "" {
		return devices[0], false, nil
	}

	if pos, err := strconv.ParseUint(selector, 10, 64); err == nil {
		if pos < uint64(len(devices)) {
			return devices[pos], true, nil
		}
	}

	id, err := ParseID(selector)
	if err != nil {
		return devices[0], false, nil
	}

	for _, d := range devices {
		if d.ID == id {
			return d, true, nil
		}
	}
	return nil, true, fmt.Errorf("%w: %q matches no position (0-%d) or id", ErrNoSuchDevice, selector, len(devices)-1)
}
