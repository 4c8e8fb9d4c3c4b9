package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Core colors
var (
	primaryColor    = lipgloss.Color("#39ff14") // Bright digital green
	secondaryColor  = lipgloss.Color("#FFFFFF") // Pure white for labels
	accentColor     = lipgloss.Color("#39ff14")
	highlightColor  = lipgloss.Color("#39ff14")
	mutedColor      = lipgloss.Color("#444444")
	warnColor       = lipgloss.Color("#ffb000")
	backgroundColor = lipgloss.Color("#000000")
	boxBgColor      = lipgloss.Color("#000000")

	// Resolving bar gradient
	scanColors = []lipgloss.Color{
		lipgloss.Color("#001100"),
		lipgloss.Color("#002200"),
		lipgloss.Color("#003300"),
		lipgloss.Color("#39ff14"),
		lipgloss.Color("#39ff14"),
		lipgloss.Color("#39ff14"),
		lipgloss.Color("#003300"),
		lipgloss.Color("#002200"),
	}
)

// Styles holds all the application styles
type Styles struct {
	Banner     lipgloss.Style
	Box        lipgloss.Style
	Info       lipgloss.Style
	InfoLabel  lipgloss.Style
	Help       lipgloss.Style
	DialogBox  lipgloss.Style
	DialogText lipgloss.Style
	Selected   lipgloss.Style
	Warning    lipgloss.Style
}

// NewStyles creates a new Styles instance
func NewStyles() *Styles {
	s := &Styles{}

	s.Banner = lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		Background(backgroundColor)

	s.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(1, 2).
		Background(boxBgColor).
		Width(60)

	s.Info = lipgloss.NewStyle().
		Foreground(highlightColor).
		Bold(true)

	s.InfoLabel = lipgloss.NewStyle().
		Foreground(secondaryColor).
		Width(14).
		Align(lipgloss.Right)

	s.Help = lipgloss.NewStyle().
		Foreground(secondaryColor).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Background(boxBgColor).
		Padding(0, 2).
		Align(lipgloss.Center)

	s.DialogBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(1, 2).
		Background(boxBgColor).
		Width(60)

	s.DialogText = lipgloss.NewStyle().
		Foreground(secondaryColor).
		Background(boxBgColor)

	s.Selected = lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true)

	s.Warning = lipgloss.NewStyle().
		Foreground(warnColor).
		Bold(true)

	return s
}

// RenderBanner creates the standard banner
func (s *Styles) RenderBanner() string {
	banner := []string{
		"────────────────── hostaddr ──────────────────",
		lipgloss.NewStyle().Foreground(secondaryColor).Render("Host Address Discovery"),
		"──────────────────────────────────────────────",
	}

	bannerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		Background(backgroundColor).
		Width(50).
		Align(lipgloss.Center)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		bannerStyle.Render(banner[0]),
		bannerStyle.Render(banner[1]),
		bannerStyle.MarginBottom(1).Render(banner[2]),
	)
}

// infoLine renders "label  value" with the label right aligned
func (s *Styles) infoLine(label, value string) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		s.InfoLabel.Copy().Foreground(primaryColor).Render(label),
		"  ",
		s.DialogText.Render(value),
	)
}
