// Package ui renders bulbctl terminal output.
//
// It uses Lipgloss for styling and Bubble Tea for the one interactive
// component, the bulb picker. Everything else renders once to a string:
//
//   - RenderDevices: bordered table of discovered bulbs
//   - Result: success/failure box shown after a command
//   - PickDevice: arrow-key bulb chooser, used with --pick on a terminal
//
// Callers decide whether to style output at all; IsTerminal reports
// whether a file is attached to a terminal.
package ui
