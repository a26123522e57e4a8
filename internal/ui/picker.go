package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bulbctl/bulbctl/internal/discovery"
)

// ErrPickCancelled is returned when the user leaves the picker without choosing
var ErrPickCancelled = errors.New("no bulb selected")

type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Quit   key.Binding
}

var pickerKeys = pickerKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Choose: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "choose"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// PickerModel is a Bubble Tea model that lets the user choose one bulb
type PickerModel struct {
	devices  []*discovery.Device
	cursor   int
	chosen   *discovery.Device
	quitting bool
}

// NewPickerModel creates a picker over devices
func NewPickerModel(devices []*discovery.Device) PickerModel {
	return PickerModel{devices: devices}
}

// Init implements tea.Model
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, pickerKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, pickerKeys.Down):
		if m.cursor < len(m.devices)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, pickerKeys.Choose):
		if len(m.devices) > 0 {
			m.chosen = m.devices[m.cursor]
		}
		m.quitting = true
		return m, tea.Quit
	case key.Matches(keyMsg, pickerKeys.Quit):
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model
func (m PickerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Choose a bulb (%d found)", len(m.devices))))
	b.WriteString("\n\n")
	for i, d := range m.devices {
		line := fmt.Sprintf("%d. %s", i, d)
		if i == m.cursor {
			b.WriteString(SelectedStyle.Render(SelectedMarker + " " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(MutedStyle.Render(fmt.Sprintf("%s • %s • %s • %s",
		helpText(pickerKeys.Up), helpText(pickerKeys.Down),
		helpText(pickerKeys.Choose), helpText(pickerKeys.Quit))))
	b.WriteString("\n")
	return b.String()
}

// Chosen returns the selected bulb, or nil if none was chosen
func (m PickerModel) Chosen() *discovery.Device {
	return m.chosen
}

func helpText(b key.Binding) string {
	h := b.Help()
	return h.Key + " " + h.Desc
}

// PickDevice runs the picker on the terminal and returns the chosen bulb
func PickDevice(devices []*discovery.Device) (*discovery.Device, error) {
	if len(devices) == 0 {
		return nil, discovery.ErrNoDevices
	}

	final, err := tea.NewProgram(NewPickerModel(devices)).Run()
	if err != nil {
		return nil, fmt.Errorf("picker error: %w", err)
	}

	picked, ok := final.(PickerModel)
	if !ok || picked.Chosen() == nil {
		return nil, ErrPickCancelled
	}
	return picked.Chosen(), nil
}
