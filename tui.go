package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ramborogers/hostaddr/ifaces"
	"github.com/ramborogers/hostaddr/views"
)

// Screens
const (
	screenSummary    = "summary"
	screenInterfaces = "interfaces"
	screenDetails    = "details"
)

type snapshotMsg struct {
	snapshot views.Snapshot
	err      error
}

type tickMsg time.Time

// Model represents the application state
type Model struct {
	resolver      *ifaces.Resolver
	gateway       func(ifaces.Table) (string, string, error)
	currentScreen string
	snapshot      views.Snapshot
	loading       bool
	err           error
	selectedIndex int
	entryIndex    int
	width         int
	height        int
	frame         int

	styles         *views.Styles
	summaryView    *views.SummaryView
	interfacesView *views.InterfacesView
	detailsView    *views.DetailsView
}

func lookupGateway(t ifaces.Table) (string, string, error) {
	name, gw, err := ifaces.GatewayInterface(t)
	if gw == nil {
		return name, "", err
	}
	return name, gw.String(), err
}

func initialModel(resolver *ifaces.Resolver) *Model {
	styles := views.NewStyles()
	return &Model{
		resolver:       resolver,
		gateway:        lookupGateway,
		currentScreen:  screenSummary,
		loading:        true,
		styles:         styles,
		summaryView:    views.NewSummaryView(styles),
		interfacesView: views.NewInterfacesView(styles),
		detailsView:    views.NewDetailsView(styles),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// resolveCmd runs one query off the UI goroutine
func (m *Model) resolveCmd() tea.Cmd {
	resolver, gateway := m.resolver, m.gateway
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		res := resolver.Resolve(ctx)
		snap := views.Snapshot{Result: res, Version: version}
		var err error
		if res.Source == ifaces.SourceNone {
			err = ifaces.ErrUnavailable
		} else if gateway != nil {
			// A missing gateway is shown as not detected, not as an error
			snap.GatewayInterface, snap.Gateway, _ = gateway(res.Interfaces)
		}
		return snapshotMsg{snapshot: snap, err: err}
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.resolveCmd())
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !m.loading {
			return m, nil
		}
		m.frame++
		return m, tick()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case snapshotMsg:
		m.loading = false
		m.snapshot = msg.snapshot
		m.err = msg.err
		if m.selectedIndex >= len(m.snapshot.Result.Interfaces) {
			m.selectedIndex = 0
		}
		if m.currentScreen == screenDetails {
			m.currentScreen = screenInterfaces
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	table := m.snapshot.Result.Interfaces
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(tick(), m.resolveCmd())
	case "tab":
		if m.currentScreen == screenSummary {
			m.currentScreen = screenInterfaces
		} else {
			m.currentScreen = screenSummary
		}
	case "up", "k":
		if m.currentScreen == screenDetails {
			if m.entryIndex > 0 {
				m.entryIndex--
			}
		} else if m.selectedIndex > 0 {
			m.selectedIndex--
		}
	case "down", "j":
		if m.currentScreen == screenDetails {
			if m.selectedIndex < len(table) && m.entryIndex < len(table[m.selectedIndex].Unicast)-1 {
				m.entryIndex++
			}
		} else if m.selectedIndex < len(table)-1 {
			m.selectedIndex++
		}
	case "enter":
		switch m.currentScreen {
		case screenSummary:
			m.currentScreen = screenInterfaces
		case screenInterfaces:
			if len(table) > 0 {
				m.currentScreen = screenDetails
				m.entryIndex = 0
			}
		case screenDetails:
			m.currentScreen = screenInterfaces
		}
	case "esc":
		switch m.currentScreen {
		case screenDetails:
			m.currentScreen = screenInterfaces
		case screenInterfaces:
			m.currentScreen = screenSummary
		}
	}
	return m, nil
}

// View implements tea.Model
func (m *Model) View() string {
	switch m.currentScreen {
	case screenInterfaces:
		m.interfacesView.SetDimensions(m.width, m.height)
		m.interfacesView.SetSnapshot(m.snapshot)
		m.interfacesView.SetSelectedIndex(m.selectedIndex)
		return m.interfacesView.Render()
	case screenDetails:
		m.detailsView.SetDimensions(m.width, m.height)
		m.detailsView.SetInterface(m.snapshot.Result.Interfaces[m.selectedIndex])
		m.detailsView.SetSelectedIndex(m.entryIndex)
		return m.detailsView.Render()
	default:
		m.summaryView.SetDimensions(m.width, m.height)
		m.summaryView.SetFrame(m.frame)
		if m.loading {
			m.summaryView.SetLoading(true)
		} else {
			m.summaryView.SetSnapshot(m.snapshot)
			m.summaryView.SetError(m.err)
		}
		return m.summaryView.Render()
	}
}

func runTUI(resolver *ifaces.Resolver) error {
	p := tea.NewProgram(
		initialModel(resolver),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
