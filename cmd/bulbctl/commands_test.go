package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bulbctl/bulbctl/internal/config"
	"github.com/bulbctl/bulbctl/internal/control"
	"github.com/bulbctl/bulbctl/internal/discovery"
)

// fakeBulb accepts one connection, records the request line and replies "ok".
func fakeBulb(t *testing.T) (string, <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadString('\n')
		received <- line
		conn.Write([]byte("{\"id\":1,\"result\":[\"ok\"]}\r\n"))
	}()

	return ln.Addr().String(), received
}

func testApp(devices []*discovery.Device) (*app, *bytes.Buffer) {
	var out bytes.Buffer
	client := control.NewClient()
	client.Report = &out
	return &app{
		discover: func(ctx context.Context) ([]*discovery.Device, error) { return devices, nil },
		client:   client,
		out:      &out,
	}, &out
}

func TestApp_Control(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"by position", []string{"1", "pow", "on"}},
		{"by hex id", []string{"0x2", "pow", "on"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, received := fakeBulb(t)
			a, out := testApp([]*discovery.Device{
				{ID: 1, Address: "127.0.0.1:1"},
				{ID: 2, Address: addr},
			})

			if err := a.control(context.Background(), tt.args); err != nil {
				t.Fatalf("control() error = %v", err)
			}

			want := "{\"id\":2,\"method\":\"set_power\",\"params\":[\"on\"]}\r\n"
			if line := <-received; line != want {
				t.Errorf("bulb received %q, want %q", line, want)
			}
			if !strings.Contains(out.String(), "The bulb returns: ") {
				t.Errorf("output = %q, want reply line", out.String())
			}
		})
	}
}

func TestApp_Control_DefaultDevice(t *testing.T) {
	addr, received := fakeBulb(t)
	a, _ := testApp([]*discovery.Device{{ID: 9, Address: addr}})

	if err := a.control(context.Background(), []string{"pow", "off"}); err != nil {
		t.Fatalf("control() error = %v", err)
	}
	if line := <-received; !strings.Contains(line, `"params":["off"]`) || !strings.HasPrefix(line, `{"id":9,`) {
		t.Errorf("bulb received %q", line)
	}
}

func TestApp_Control_Errors(t *testing.T) {
	devices := []*discovery.Device{{ID: 1, Address: "127.0.0.1:1"}}

	tests := []struct {
		name    string
		devices []*discovery.Device
		args    []string
		wantErr error
	}{
		{"no bulbs", nil, []string{"pow", "on"}, discovery.ErrNoDevices},
		{"unknown command", devices, []string{"bright", "50"}, control.ErrUnsupportedMethod},
		{"no such bulb", devices, []string{"5", "pow", "on"}, discovery.ErrNoSuchDevice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := testApp(tt.devices)
			err := a.control(context.Background(), tt.args)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("control() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestApp_Control_NoBulbsMessage(t *testing.T) {
	a, out := testApp(nil)
	a.control(context.Background(), []string{"pow", "on"})
	if out.String() != "No bulbs found.\n" {
		t.Errorf("output = %q, want %q", out.String(), "No bulbs found.\n")
	}
}

func TestApp_Control_WrongArity(t *testing.T) {
	a, _ := testApp([]*discovery.Device{{ID: 1, Address: "127.0.0.1:1"}})
	if err := a.control(context.Background(), []string{"lamp", "pow", "on"}); err == nil {
		t.Error("control() should reject a non-numeric selector with three args")
	}
}

func TestApp_Control_Pick(t *testing.T) {
	addr, received := fakeBulb(t)
	devices := []*discovery.Device{{ID: 1, Address: "127.0.0.1:1"}, {ID: 2, Address: addr}}
	a, _ := testApp(devices)
	a.pick = func(d []*discovery.Device) (*discovery.Device, error) { return d[1], nil }

	if err := a.control(context.Background(), []string{"pow", "on"}); err != nil {
		t.Fatalf("control() error = %v", err)
	}
	if line := <-received; !strings.HasPrefix(line, `{"id":2,`) {
		t.Errorf("bulb received %q, want the picked bulb", line)
	}
}

func TestApp_Send(t *testing.T) {
	addr, received := fakeBulb(t)
	a, _ := testApp([]*discovery.Device{{ID: 4, Address: addr}})

	if err := a.send(context.Background(), []string{"0", "set_power", `"off","smooth",500`}); err != nil {
		t.Fatalf("send() error = %v", err)
	}
	want := "{\"id\":4,\"method\":\"set_power\",\"params\":[\"off\",\"smooth\",500]}\r\n"
	if line := <-received; line != want {
		t.Errorf("bulb received %q, want %q", line, want)
	}
}

func TestApp_Send_RequiresSelector(t *testing.T) {
	a, _ := testApp([]*discovery.Device{{ID: 4, Address: "127.0.0.1:1"}})
	if err := a.send(context.Background(), []string{"set_power", `"on"`}); !errors.Is(err, discovery.ErrNoSuchDevice) {
		t.Errorf("send() error = %v, want ErrNoSuchDevice", err)
	}
}

func TestPrintDevices(t *testing.T) {
	devices := []*discovery.Device{{ID: 0x10, Address: "10.0.0.1:55443", Model: "color"}}

	var table bytes.Buffer
	if err := printDevices(&table, devices, "table"); err != nil {
		t.Fatalf("printDevices(table) error = %v", err)
	}
	if !strings.Contains(table.String(), "0x0000000000000010") {
		t.Errorf("table output missing id:\n%s", table.String())
	}

	var js bytes.Buffer
	if err := printDevices(&js, devices, "json"); err != nil {
		t.Fatalf("printDevices(json) error = %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("json output invalid: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["address"] != "10.0.0.1:55443" {
		t.Errorf("json output = %s", js.String())
	}

	var empty bytes.Buffer
	printDevices(&empty, nil, "table")
	if !strings.HasPrefix(empty.String(), "No bulbs found.") {
		t.Errorf("empty table output = %q", empty.String())
	}

	if err := printDevices(&empty, devices, "xml"); err == nil {
		t.Error("printDevices() should reject unknown formats")
	}
}

// executeRoot runs the real command tree and restores flag state afterwards
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
		settings = nil
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// writeInvalidSettings writes a file whose window leaves no room for the pause
func writeInvalidSettings(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("discovery: {window: 100ms}\n"), 0644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("Load() should reject the settings file")
	}
	return path
}

func TestRootCmd_ConfigInitReplacesInvalidFile(t *testing.T) {
	path := writeInvalidSettings(t)

	out, err := executeRoot(t, "config", "init", "--force", "--config", path)
	if err != nil {
		t.Fatalf("config init --force error = %v", err)
	}
	if !strings.Contains(out, "Wrote "+path) {
		t.Errorf("output = %q, want it to name %s", out, path)
	}

	s, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() after init error = %v", err)
	}
	if s.Discovery.Window != discovery.DefaultWindow {
		t.Errorf("Window = %v, want %v", s.Discovery.Window, discovery.DefaultWindow)
	}
}

func TestRootCmd_ConfigInitKeepsFileWithoutForce(t *testing.T) {
	path := writeInvalidSettings(t)

	if _, err := executeRoot(t, "config", "init", "--config", path); err == nil {
		t.Error("config init without --force should refuse to overwrite")
	}
}

func TestRootCmd_VersionIgnoresSettings(t *testing.T) {
	path := writeInvalidSettings(t)

	out, err := executeRoot(t, "--config", path, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "bulbctl ") {
		t.Errorf("output = %q, want version line", out)
	}
}

func TestRootCmd_WindowOverrideScalesPause(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	out, err := executeRoot(t, "config", "show", "--config", path, "--window", "150ms")
	if err != nil {
		t.Fatalf("config show --window 150ms error = %v", err)
	}
	if settings.Discovery.Window != 150*time.Millisecond {
		t.Errorf("Window = %v, want 150ms", settings.Discovery.Window)
	}
	if settings.Discovery.Pause != 25*time.Millisecond {
		t.Errorf("Pause = %v, want 25ms", settings.Discovery.Pause)
	}
	if !strings.Contains(out, "pause: 25ms") {
		t.Errorf("output = %q, want scaled pause", out)
	}
}

func TestRootCmd_InvalidSettingsNamesKeys(t *testing.T) {
	path := writeInvalidSettings(t)

	_, err := executeRoot(t, "config", "show", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "discovery.pause") {
		t.Errorf("config show error = %v, want it to name discovery.pause", err)
	}
}
