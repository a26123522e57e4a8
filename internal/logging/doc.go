// Package logging provides structured logging for bulbctl.
//
// This package wraps a global zap logger with convenience functions and a
// few protocol-specific helpers. Logging is silent unless a level is given
// on the command line or through the BULBCTL_LOG_LEVEL environment variable,
// so normal CLI output is never interleaved with log lines.
//
// # Log Levels
//
//   - Debug: datagram dumps, dropped replies, socket setup
//   - Info: discovery summary, control messages sent and received
//   - Warn: receive errors that end discovery early
//   - Error: failures reported to the user
//
// # Specialized Logging
//
//	logging.LogDatagram(from.String(), payload)
//	logging.LogExchange(address, "sent", id, frame)
//	logging.LogRawBytes("Search probe sent", probe)
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Log lines go to stderr in zap's console format.
package logging
