package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bulbctl/bulbctl/internal/discovery"
)

// deviceColumns are the headers of the device table
var deviceColumns = []string{"#", "ID", "ADDRESS", "MODEL", "POWER", "NAME", "VIA"}

const powerColumn = 4

// DeviceRows returns one table row per device; the first column is the
// position usable as a device selector
func DeviceRows(devices []*discovery.Device) [][]string {
	rows := make([][]string, 0, len(devices))
	for i, d := range devices {
		rows = append(rows, []string{
			strconv.Itoa(i),
			d.HexID(),
			d.Address,
			orDash(d.Model),
			orDash(d.Power),
			orDash(d.Name),
			orDash(d.Source),
		})
	}
	return rows
}

// RenderDevices renders the devices as a bordered table
func RenderDevices(devices []*discovery.Device) string {
	rows := DeviceRows(devices)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			if col == powerColumn && row >= 0 && row < len(rows) && rows[row][col] == "on" {
				return PowerOnStyle
			}
			return TableCellStyle
		}).
		Headers(deviceColumns...).
		Rows(rows...)

	return t.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
