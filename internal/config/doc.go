// Package config manages the bulbctl settings file.
//
// Settings hold the network endpoints and timings for discovery and the
// control exchange. They are stored as YAML in an OS-appropriate location:
//
//   - Linux: $XDG_CONFIG_HOME/bulbctl/config.yaml or ~/.config/bulbctl/config.yaml
//   - macOS: ~/.config/bulbctl/config.yaml
//   - Windows: %LOCALAPPDATA%\bulbctl\config.yaml
//
// A missing file is not an error: Load returns the defaults. Keys missing
// from a file keep their default values, so a file only needs the settings
// it changes:
//
//	version: 1
//	discovery:
//	  window: 3s
//	control:
//	  timeout: 2s
//
// Durations use Go duration syntax ("1200ms", "5s").
//
// No device list is kept; every run discovers bulbs afresh.
package config
