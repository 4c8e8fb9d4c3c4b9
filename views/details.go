package views

import (
	"net"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/ramborogers/hostaddr/ifaces"
)

// DetailsView shows every unicast entry of one interface
type DetailsView struct {
	styles        *Styles
	width         int
	height        int
	iface         ifaces.Interface
	selectedIndex int
	table         table.Model
}

// NewDetailsView creates a new details view
func NewDetailsView(styles *Styles) *DetailsView {
	return &DetailsView{
		styles: styles,
	}
}

// SetDimensions updates the view dimensions
func (v *DetailsView) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// SetInterface updates the interface being displayed
func (v *DetailsView) SetInterface(iface ifaces.Interface) {
	v.iface = iface
	v.selectedIndex = 0
}

// SetSelectedIndex moves the table cursor
func (v *DetailsView) SetSelectedIndex(index int) {
	v.selectedIndex = index
}

// Rows returns the table rows for the current interface
func (v *DetailsView) Rows() []table.Row {
	rows := make([]table.Row, 0, len(v.iface.Unicast))
	for _, a := range v.iface.Unicast {
		address := a.Address
		if a.Family == ifaces.FamilyPacket && v.iface.MAC != "" {
			address = ifaces.NormalizeMACAddress(v.iface.MAC)
		}
		rows = append(rows, table.Row{
			a.Family.String(),
			orDash(address),
			orDash(a.Netmask),
			orDash(a.Broadcast),
			a.Flags.String(),
		})
	}
	return rows
}

// Render generates the view
func (v *DetailsView) Render() string {
	rows := v.Rows()

	columns := []table.Column{
		{Title: "Family", Width: 7},
		{Title: "Address", Width: 28},
		{Title: "Netmask", Width: 24},
		{Title: "Broadcast", Width: 16},
		{Title: "Flags", Width: 36},
	}

	tableStyle := table.Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Align(lipgloss.Left),
		Selected: lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Align(lipgloss.Left),
		Cell: lipgloss.NewStyle().
			Foreground(secondaryColor).
			Align(lipgloss.Left),
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(len(rows)+1),
		table.WithStyles(tableStyle),
	)
	if v.selectedIndex >= 0 && v.selectedIndex < len(rows) {
		t.SetCursor(v.selectedIndex)
	}
	v.table = t

	title := v.styles.DialogText.Copy().
		Bold(true).
		Foreground(primaryColor).
		Render(v.iface.Name + " unicast entries")

	help := v.styles.Help.Render("↑↓ Select • Esc Back • q Quit")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		v.table.View(),
		help,
	)

	return lipgloss.Place(
		v.width,
		v.height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// maskOnes counts the prefix length of a dotted or IPv6 netmask
func maskOnes(netmask string) (int, bool) {
	ip := net.ParseIP(netmask)
	if ip == nil {
		return 0, false
	}
	if ip4 := ip.To4(); ip4 != nil && !strings.Contains(netmask, ":") {
		ip = ip4
	}
	ones, bits := net.IPMask(ip).Size()
	if bits == 0 {
		return 0, false
	}
	return ones, true
}
