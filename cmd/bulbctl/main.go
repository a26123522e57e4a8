// Bulbctl discovers smart bulbs on the local network and sends them commands.
//
// It sends one multicast search probe, collects the replies for a short
// window, and then delivers a single command to the chosen bulb over its
// TCP control port.
//
// Usage:
//
//	bulbctl [device] <command> <state>
//	bulbctl scan
//	bulbctl send <device> <method> [params]
//
// The device is a position from 'bulbctl scan' or a bulb ID; it defaults
// to the first bulb found. See 'bulbctl --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/bulbctl/bulbctl/internal/control"
	"github.com/bulbctl/bulbctl/internal/logging"
	"github.com/bulbctl/bulbctl/internal/ui"
	"github.com/bulbctl/bulbctl/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// reportError prints err to stderr, as a styled box on a terminal
func reportError(err error) {
	hint := control.Hint(err)
	if ui.IsTerminal(os.Stderr) {
		fmt.Fprintln(os.Stderr, ui.NewFailureResult("Command failed", err, hint).Render())
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bulbctl [device] <command> <state>",
	Short: "Discover and control smart bulbs on the local network",
	Long: `Discover smart bulbs with a multicast search probe and send one command.

The optional device selector is a position from 'bulbctl scan' or a bulb ID
(decimal or 0x hex). Without it the first bulb found is used.

Commands:
  pow on|off    switch the bulb on or off`,
	Example: `  # Switch the first bulb on
  bulbctl pow on

  # Switch the bulb listed at position 1 off
  bulbctl 1 pow off

  # Address a bulb by its ID
  bulbctl 0x000000000015243f pow on`,
	Version:       version.Version,
	Args:          cobra.RangeArgs(2, 3),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	RunE: runControl,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print version information",
	PersistentPreRunE: skipSetup,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bulbctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
