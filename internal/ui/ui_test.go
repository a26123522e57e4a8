package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bulbctl/bulbctl/internal/discovery"
)

var testDevices = []*discovery.Device{
	{ID: 0x15243f, Address: "192.168.1.239:55443", Model: "color", Power: "on", Source: discovery.SourceSSDP},
	{ID: 0x2, Address: "192.168.1.240:55443", Source: discovery.SourceMDNS},
}

func TestDeviceRows(t *testing.T) {
	rows := DeviceRows(testDevices)

	if len(rows) != 2 {
		t.Fatalf("DeviceRows() returned %d rows, want 2", len(rows))
	}
	want := []string{"0", "0x000000000015243f", "192.168.1.239:55443", "color", "on", "-", "ssdp"}
	for i, cell := range want {
		if rows[0][i] != cell {
			t.Errorf("rows[0][%d] = %q, want %q", i, rows[0][i], cell)
		}
	}
	if rows[1][0] != "1" || rows[1][3] != "-" {
		t.Errorf("rows[1] = %v, want position 1 and dash for missing model", rows[1])
	}
}

func TestRenderDevices(t *testing.T) {
	out := RenderDevices(testDevices)

	for _, want := range []string{"ADDRESS", "0x000000000015243f", "192.168.1.240:55443", "mdns"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderDevices() missing %q in:\n%s", want, out)
		}
	}
}

func TestResult_Render(t *testing.T) {
	success := NewSuccessResult("Command sent").
		AddDetail("Bulb", "0x01").
		AddDetail("Reply", "ok").
		SetWidth(80).
		Render()
	if !strings.Contains(success, SuccessMarker) || !strings.Contains(success, "Command sent") {
		t.Errorf("success result missing title:\n%s", success)
	}
	if strings.Index(success, "Bulb:") > strings.Index(success, "Reply:") {
		t.Error("details should render in insertion order")
	}

	failure := NewFailureResult("Command failed", errors.New("connection refused"), "Check the bulb").SetWidth(10).Render()
	for _, want := range []string{FailureMarker, "connection refused", "Check the bulb"} {
		if !strings.Contains(failure, want) {
			t.Errorf("failure result missing %q:\n%s", want, failure)
		}
	}
}

func press(m PickerModel, msg tea.KeyMsg) (PickerModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(PickerModel), cmd
}

func TestPickerModel_Choose(t *testing.T) {
	m := NewPickerModel(testDevices)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown}) // already at the last row
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor)
	}
	if !strings.Contains(m.View(), SelectedMarker+" 1.") {
		t.Errorf("View() should highlight row 1:\n%s", m.View())
	}

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Error("choosing should quit the program")
	}
	if m.Chosen() != testDevices[1] {
		t.Errorf("Chosen() = %v, want %v", m.Chosen(), testDevices[1])
	}
	if m.View() != "" {
		t.Error("View() should be empty after quitting")
	}
}

func TestPickerModel_Quit(t *testing.T) {
	m := NewPickerModel(testDevices)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp}) // already at the first row
	if m.cursor != 0 {
		t.Fatalf("cursor = %d, want 0", m.cursor)
	}

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Error("q should quit the program")
	}
	if m.Chosen() != nil {
		t.Errorf("Chosen() = %v, want nil", m.Chosen())
	}
}

func TestPickDevice_NoDevices(t *testing.T) {
	if _, err := PickDevice(nil); !errors.Is(err, discovery.ErrNoDevices) {
		t.Errorf("PickDevice(nil) error = %v, want ErrNoDevices", err)
	}
}
