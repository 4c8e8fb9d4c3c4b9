package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ramborogers/hostaddr/ifaces"
)

// InterfacesView lists the interface table with details of the selection
type InterfacesView struct {
	styles        *Styles
	width         int
	height        int
	snapshot      Snapshot
	selectedIndex int
}

// NewInterfacesView creates a new interfaces view
func NewInterfacesView(styles *Styles) *InterfacesView {
	return &InterfacesView{
		styles: styles,
	}
}

// SetDimensions updates the view dimensions
func (v *InterfacesView) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// SetSnapshot updates the table being listed
func (v *InterfacesView) SetSnapshot(s Snapshot) {
	v.snapshot = s
}

// SetSelectedIndex updates the selected interface index
func (v *InterfacesView) SetSelectedIndex(index int) {
	v.selectedIndex = index
}

// Render generates the view
func (v *InterfacesView) Render() string {
	banner := v.styles.RenderBanner()
	table := v.snapshot.Result.Interfaces

	title := v.styles.DialogText.Copy().
		Bold(true).
		Padding(0, 1).
		Foreground(primaryColor).
		Render("Network Interfaces")

	var listContent []string
	if len(table) == 0 {
		listContent = append(listContent, v.styles.Warning.Render("No interface table available"))
	}
	for i, iface := range table {
		item := fmt.Sprintf("%-12s %-4s %s", iface.Name, state(iface), strings.Join(ipv4Addresses(iface), ", "))
		if iface.Name == v.snapshot.GatewayInterface {
			item += "  (gateway)"
		}
		if i == v.selectedIndex {
			item = v.styles.Selected.Render("▶ " + item)
		} else {
			item = v.styles.DialogText.Render("  " + item)
		}
		listContent = append(listContent, item)
	}
	list := v.styles.DialogBox.Render(strings.Join(listContent, "\n"))

	var details string
	if v.selectedIndex >= 0 && v.selectedIndex < len(table) {
		details = v.renderDetails(table[v.selectedIndex])
	}

	help := v.styles.Help.Render("↑↓ Select • Enter Entries • Tab Summary • r Refresh • q Quit")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		banner,
		title,
		list,
		details,
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

func (v *InterfacesView) renderDetails(iface ifaces.Interface) string {
	mac := "Unknown"
	if iface.MAC != "" {
		mac = ifaces.NormalizeMACAddress(iface.MAC)
	}
	mtu := "Unknown"
	if iface.MTU > 0 {
		mtu = strconv.Itoa(iface.MTU)
	}
	var flags ifaces.Flags
	if len(iface.Unicast) > 0 {
		flags = iface.Unicast[0].Flags
	}
	addrs := ipv4Addresses(iface)
	if len(addrs) == 0 {
		addrs = []string{"None"}
	}

	return v.styles.Box.Copy().
		BorderForeground(mutedColor).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				v.styles.DialogText.Copy().Bold(true).Foreground(primaryColor).Render("Interface Details"),
				"",
				v.styles.infoLine("Name", iface.Name),
				v.styles.infoLine("Status", state(iface)),
				v.styles.infoLine("IPv4", strings.Join(addrs, ", ")),
				v.styles.infoLine("MAC Address", mac),
				v.styles.infoLine("MTU", mtu),
				v.styles.infoLine("Flags", flags.String()),
				v.styles.infoLine("Entries", strconv.Itoa(len(iface.Unicast))),
			),
		)
}

func state(iface ifaces.Interface) string {
	if iface.Up {
		return "UP"
	}
	return "DOWN"
}

// ipv4Addresses returns address/prefix for each inet entry
func ipv4Addresses(iface ifaces.Interface) []string {
	var out []string
	for _, a := range iface.Unicast {
		if a.Family != ifaces.FamilyInet || a.Address == "" {
			continue
		}
		out = append(out, a.Address+cidrSuffix(a.Netmask))
	}
	return out
}

func cidrSuffix(netmask string) string {
	ones, ok := maskOnes(netmask)
	if !ok {
		return ""
	}
	return "/" + strconv.Itoa(ones)
}
