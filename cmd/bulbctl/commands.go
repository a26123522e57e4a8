package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bulbctl/bulbctl/internal/config"
	"github.com/bulbctl/bulbctl/internal/control"
	"github.com/bulbctl/bulbctl/internal/discovery"
	"github.com/bulbctl/bulbctl/internal/logging"
	"github.com/bulbctl/bulbctl/internal/ui"
)

// Command flags
var (
	configPath   string
	logLevel     string
	window       time.Duration
	bindPort     int
	timeout      time.Duration
	useMDNS      bool
	pick         bool
	outputFormat string
	force        bool
)

// settings is loaded once per invocation by setup
var settings *config.Settings

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default: OS config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: silent)")
	rootCmd.PersistentFlags().DurationVar(&window, "window", discovery.DefaultWindow, "Discovery collection window")
	rootCmd.PersistentFlags().IntVar(&bindPort, "bind-port", discovery.DefaultBindPort, "Local UDP port for discovery replies (0 = any)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", control.DefaultTimeout, "Connect/write/read timeout for the control exchange (0 = none)")
	rootCmd.PersistentFlags().BoolVar(&useMDNS, "mdns", false, "Discover bulbs through mDNS instead of the search probe")
	rootCmd.Flags().BoolVar(&pick, "pick", false, "Choose the bulb interactively")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(configCmd)
}

// setup loads settings and applies flag overrides, then initializes logging
func setup(cmd *cobra.Command) error {
	s, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("window") {
		s.Discovery.Window = window
		s.Discovery.FitPause()
	}
	if flags.Changed("bind-port") {
		s.Discovery.BindPort = bindPort
	}
	if flags.Changed("timeout") {
		s.Control.Timeout = timeout
	}
	if flags.Changed("log-level") {
		s.LogLevel = logLevel
	}

	if err := s.Validate(); err != nil {
		return err
	}
	if os.Getenv(logging.LogLevelEnvVar) != "" && !flags.Changed("log-level") {
		s.LogLevel = ""
	}
	if err := logging.Initialize(s.LogLevel); err != nil {
		return err
	}

	settings = s
	return nil
}

// skipSetup stands in for setup on commands that must work without
// readable settings, such as replacing a broken settings file
func skipSetup(cmd *cobra.Command, args []string) error {
	return nil
}

// discover runs one discovery round with the loaded settings
func discover(ctx context.Context) ([]*discovery.Device, error) {
	if useMDNS {
		scanner := discovery.NewMDNSScanner()
		scanner.Window = settings.Discovery.Window
		return scanner.Discover(ctx)
	}
	return discovery.NewScanner(settings.Discovery).Discover(ctx)
}

// app wires discovery, selection and the control client for one command
type app struct {
	discover func(ctx context.Context) ([]*discovery.Device, error)
	pick     func(devices []*discovery.Device) (*discovery.Device, error)
	client   *control.Client
	out      io.Writer
}

func newApp(out io.Writer) *app {
	client := settings.NewControlClient()
	client.Report = out
	return &app{
		discover: discover,
		pick:     ui.PickDevice,
		client:   client,
		out:      out,
	}
}

func runControl(cmd *cobra.Command, args []string) error {
	a := newApp(cmd.OutOrStdout())
	if !pick {
		a.pick = nil
	} else if !ui.IsTerminal(os.Stdout) {
		return fmt.Errorf("--pick needs an interactive terminal")
	}
	return a.control(cmd.Context(), args)
}

// control discovers bulbs, selects one from args and sends the command
func (a *app) control(ctx context.Context, args []string) error {
	devices, err := a.discover(ctx)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	if len(devices) == 0 {
		fmt.Fprintln(a.out, "No bulbs found.")
		return discovery.ErrNoDevices
	}

	var device *discovery.Device
	rest := args
	if a.pick != nil {
		device, err = a.pick(devices)
		if err != nil {
			return err
		}
	} else {
		var consumed bool
		device, consumed, err = discovery.Select(devices, args[0])
		if err != nil {
			return err
		}
		if consumed {
			rest = args[1:]
		}
	}

	if len(rest) != 2 {
		return fmt.Errorf("expected <command> <state>, got %q", rest)
	}

	req, err := control.Translate(rest[0], rest[1])
	if err != nil {
		return err
	}

	_, err = a.client.Send(ctx, device, req)
	return err
}

// scanCmd discovers bulbs and lists them
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for bulbs on the network",
	Long: `Send one search probe and list every bulb that answers within the window.

The first column is the position to use as a device selector.`,
	Example: `  # Scan with the default 1.2s window
  bulbctl scan

  # Wait longer on a busy network
  bulbctl scan --window 5s

  # Machine-readable output
  bulbctl scan --format json`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format (table, json)")
}

func runScan(cmd *cobra.Command, args []string) error {
	devices, err := discover(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	return printDevices(cmd.OutOrStdout(), devices, outputFormat)
}

func printDevices(out io.Writer, devices []*discovery.Device, format string) error {
	switch format {
	case "json":
		if devices == nil {
			devices = []*discovery.Device{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(devices); err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return nil
	case "table":
		if len(devices) == 0 {
			fmt.Fprintln(out, "No bulbs found.")
			fmt.Fprintln(out, "\nTroubleshooting:")
			fmt.Fprintln(out, "  - Enable LAN control for the bulb in the vendor app")
			fmt.Fprintln(out, "  - Check that multicast is allowed on this network")
			fmt.Fprintln(out, "  - Try a longer --window")
			fmt.Fprintln(out, "  - Try --mdns if the bulb does not answer search probes")
			return nil
		}
		fmt.Fprintln(out, ui.TitleStyle.Render(fmt.Sprintf("Found %d bulb(s)", len(devices))))
		fmt.Fprintln(out, ui.RenderDevices(devices))
		return nil
	default:
		return fmt.Errorf("unknown format %q (use table or json)", format)
	}
}

// sendCmd sends a raw method to a bulb
var sendCmd = &cobra.Command{
	Use:   "send <device> <method> [params]",
	Short: "Send a raw method to a bulb",
	Long: `Send any method to a bulb. Params are inserted verbatim into the
request's params list, so strings must carry their own quotes.`,
	Example: `  # Same as 'bulbctl 0 pow on'
  bulbctl send 0 set_power '"on"'

  # Smooth transition over 500ms
  bulbctl send 0 set_power '"off","smooth",500'`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	a := newApp(cmd.OutOrStdout())
	return a.send(cmd.Context(), args)
}

// send delivers a raw request to the bulb selected by args[0]
func (a *app) send(ctx context.Context, args []string) error {
	devices, err := a.discover(ctx)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	device, consumed, err := discovery.Select(devices, args[0])
	if err != nil {
		return err
	}
	if !consumed {
		return fmt.Errorf("%w: %q is not a position or bulb id", discovery.ErrNoSuchDevice, args[0])
	}

	req := control.Request{Method: args[1]}
	if len(args) == 3 {
		req.Params = args[2]
	}

	_, err = a.client.Send(ctx, device, req)
	return err
}

// configCmd manages the settings file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the settings file",
}

var configInitCmd = &cobra.Command{
	Use:               "init",
	Short:             "Write a settings file with default values",
	Args:              cobra.NoArgs,
	PersistentPreRunE: skipSetup,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.GetConfigPath(); err != nil {
				return err
			}
		}
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.NewSettings().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := settings.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
