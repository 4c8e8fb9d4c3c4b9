package views

import (
	"runtime"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SummaryView shows the host addresses and how they were found
type SummaryView struct {
	styles   *Styles
	width    int
	height   int
	frame    int
	loading  bool
	err      error
	snapshot Snapshot
}

// NewSummaryView creates a new summary view
func NewSummaryView(styles *Styles) *SummaryView {
	return &SummaryView{
		styles:  styles,
		loading: true,
	}
}

// SetDimensions updates the view dimensions
func (v *SummaryView) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// SetFrame updates the animation frame
func (v *SummaryView) SetFrame(frame int) {
	v.frame = frame
}

// SetLoading shows the resolving bar instead of the results
func (v *SummaryView) SetLoading(loading bool) {
	v.loading = loading
}

// SetSnapshot updates the displayed result
func (v *SummaryView) SetSnapshot(s Snapshot) {
	v.snapshot = s
	v.loading = false
}

// SetError shows err above the results; nil clears it
func (v *SummaryView) SetError(err error) {
	v.err = err
}

// Render generates the view
func (v *SummaryView) Render() string {
	banner := v.styles.RenderBanner()

	var body string
	if v.loading {
		body = v.renderResolving()
	} else {
		body = v.renderResult()
	}

	sysInfo := []string{
		v.styles.infoLine("Version", v.snapshot.Version),
		v.styles.infoLine("OS", runtime.GOOS+"/"+runtime.GOARCH),
	}
	infoBox := v.styles.Box.Copy().
		BorderForeground(mutedColor).
		Padding(0, 2).
		Render(strings.Join(sysInfo, "\n"))

	help := v.styles.Help.Render("Tab Interfaces • r Refresh • q Quit")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		banner,
		body,
		infoBox,
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

func (v *SummaryView) renderResult() string {
	res := v.snapshot.Result
	var lines []string

	if v.err != nil {
		lines = append(lines, v.styles.Warning.Render(v.err.Error()), "")
	}

	lines = append(lines, v.styles.DialogText.Copy().Bold(true).Foreground(primaryColor).Render("Host Addresses"), "")
	for _, addr := range res.Addresses {
		lines = append(lines, v.styles.Info.Render(addr))
	}
	lines = append(lines, "")

	source := string(res.Source)
	if res.Fallback {
		source += " (reverse DNS fallback)"
	}
	lines = append(lines, v.styles.infoLine("Source", source))
	lines = append(lines, v.styles.infoLine("Interfaces", strconv.Itoa(len(res.Interfaces))))

	gateway := "Not detected"
	if v.snapshot.Gateway != "" {
		gateway = v.snapshot.Gateway
		if v.snapshot.GatewayInterface != "" {
			gateway += " via " + v.snapshot.GatewayInterface
		}
	}
	lines = append(lines, v.styles.infoLine("Gateway", gateway))

	return v.styles.DialogBox.Render(strings.Join(lines, "\n"))
}

// renderResolving draws a bar with rolling brightness
func (v *SummaryView) renderResolving() string {
	var coloredParts []string
	barWidth := 24
	peakPos := v.frame % barWidth

	for i := 0; i < barWidth; i++ {
		dist := abs(i - peakPos)
		if dist > barWidth/2 {
			dist = barWidth - dist
		}
		style := lipgloss.NewStyle().Foreground(scanColors[dist%len(scanColors)])
		coloredParts = append(coloredParts, style.Render("█"))
	}

	return v.styles.DialogBox.Copy().
		Align(lipgloss.Center).
		Render(
			v.styles.DialogText.Copy().Bold(true).Render("Resolving host addresses") + "\n" +
				strings.Join(coloredParts, ""),
		)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
