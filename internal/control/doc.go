// Package control sends a single command to a bulb over its TCP control port.
//
// A command is framed as one JSON line:
//
//	{"id":3,"method":"set_power","params":["on"]}\r\n
//
// The method name and parameter text are inserted verbatim. Parameters are
// already-serialized JSON values; the package does not validate them and
// relies on the bulb to reject a bad command.
//
// # Exchange
//
// A Session performs exactly one connect, one write and one read:
//
//	Idle → Connecting → Connected → Sent → Done
//
// Any failure moves the session to Failed and is returned as a
// *TransportError. There are no retries.
//
// # Usage Example
//
//	client := control.NewClient()
//	client.Report = os.Stdout
//	req, err := control.Translate("pow", "on")
//	if err != nil {
//	    return err
//	}
//	resp, err := client.Send(ctx, device, req)
package control
