// Package discovery finds smart bulbs on the local network segment.
//
// Bulbs answer an SSDP-style search probe sent to a multicast group. The
// Scanner binds a UDP socket, sends one probe, then collects replies for a
// fixed window while a single background goroutine reads datagrams and
// parses them into Device records.
//
// # Discovery Process
//
//  1. Bind a UDP socket to the configured local port on all interfaces
//  2. Send one M-SEARCH probe to the multicast group
//  3. Receive and parse replies in the background, pausing between reads
//  4. Collect parsed records for the collection window
//  5. Drop repeated replies so each bulb ID appears once, first sighting wins
//
// # Usage Example
//
//	scanner := discovery.NewScanner(discovery.DefaultConfig())
//	devices, err := scanner.Discover(ctx)
//	if err != nil {
//	    return err // bind or probe failure
//	}
//	for i, device := range devices {
//	    fmt.Printf("%d. %s\n", i, device)
//	}
//
// Finding no bulbs is not an error: Discover returns an empty slice and the
// caller decides whether that is fatal.
//
// # Network Requirements
//
//   - Multicast must be routed on the local interface
//   - The bind port (34254 by default) must be free
//   - Firewalls must allow UDP replies to the bind port
//
// An MDNSScanner is also provided for bulbs that advertise themselves over
// mDNS instead of answering the search probe.
package discovery
