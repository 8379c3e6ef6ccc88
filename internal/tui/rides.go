package tui

import (
	"context"
	"fmt"

	"trainload/internal/analysis"
	"trainload/internal/service"
	"trainload/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const ridesListLimit = 100

// RidesModel is the ride list screen model
type RidesModel struct {
	rides    *service.RideService
	engine   *analysis.Engine
	units    Units
	list     []store.Ride
	cursor   int
	offset   int
	pageSize int
	confirm  bool
	loading  bool
	err      error
}

// NewRidesModel creates a new ride list model
func NewRidesModel(rides *service.RideService, engine *analysis.Engine, units Units) RidesModel {
	return RidesModel{
		rides:    rides,
		engine:   engine,
		units:    units,
		pageSize: 15,
		loading:  true,
	}
}

// Init initializes the ride list
func (m RidesModel) Init() tea.Cmd {
	return m.loadRides
}

type ridesLoadedMsg struct {
	rides []store.Ride
	err   error
}

type rideDeletedMsg struct {
	name string
	err  error
}

func (m RidesModel) loadRides() tea.Msg {
	rides, err := m.rides.Recent(context.Background(), ridesListLimit)
	return ridesLoadedMsg{rides: rides, err: err}
}

func (m RidesModel) deleteRide(r store.Ride) tea.Cmd {
	return func() tea.Msg {
		err := m.rides.Delete(context.Background(), r.ID)
		return rideDeletedMsg{name: r.Name, err: err}
	}
}

// Update handles messages
func (m RidesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ridesLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.list = msg.rides
		if m.cursor >= len(m.list) {
			m.cursor = max(len(m.list)-1, 0)
		}
		m.clampOffset()

	case rideDeletedMsg:
		m.loading = true
		return m, m.loadRides

	case tea.KeyMsg:
		if m.confirm {
			m.confirm = false
			if msg.String() == "y" && m.cursor < len(m.list) {
				return m, m.deleteRide(m.list[m.cursor])
			}
			return m, nil
		}

		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.list)-1 {
				m.cursor++
			}
		case "pgup":
			m.cursor = max(m.cursor-m.pageSize, 0)
		case "pgdown":
			m.cursor = min(m.cursor+m.pageSize, max(len(m.list)-1, 0))
		case "d":
			if len(m.list) > 0 {
				m.confirm = true
			}
		case "r":
			m.loading = true
			return m, m.loadRides
		}
		m.clampOffset()
	}
	return m, nil
}

// clampOffset keeps the cursor inside the visible page
func (m *RidesModel) clampOffset() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.pageSize {
		m.offset = m.cursor - m.pageSize + 1
	}
}

// View renders the ride list
func (m RidesModel) View() string {
	if m.loading {
		return "\n  Loading rides..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if len(m.list) == 0 {
		return "\n  No rides found. Press 's' to sync with Strava or add one through the API."
	}

	end := min(m.offset+m.pageSize, len(m.list))

	var sections []string
	sections = append(sections, cardTitleStyle.Render(fmt.Sprintf("Rides (%d-%d of %d)", m.offset+1, end, len(m.list))))
	sections = append(sections, tableHeaderStyle.Render(fmt.Sprintf("  %-10s  %-24s  %8s  %8s  %10s  %5s  %-10s  %-6s",
		"Date", "Name", "Dist", "Time", "Speed", "TSS", "Zone", "Source")))

	for i := m.offset; i < end; i++ {
		r := m.list[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		zone := r.Zone
		if zone == "" {
			zone = "-"
		}

		row := fmt.Sprintf("%s%-10s  %-24s  %8s  %8s  %10s  %5s  %-10s  %-6s",
			cursor,
			r.StartDateLocal.Format("2006-01-02"),
			truncateName(r.Name, 24),
			m.units.FormatDistance(r.Distance),
			formatDuration(r.MovingTime),
			m.units.FormatSpeed(r.MovingTime, r.Distance),
			formatTSS(m.engine, r),
			zone,
			r.Source,
		)

		if i == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	if sel := m.list[m.cursor]; sel.TrainingStressScore != nil {
		sections = append(sections, mutedStyle.Render(fmt.Sprintf("\n  %s: %s",
			truncateName(sel.Name, 40), analysis.StressDescription(*sel.TrainingStressScore))))
	}

	help := "\n  j/k: navigate  pgup/pgdn: page  d: delete  r: refresh"
	if m.confirm {
		help = "\n  Delete " + m.list[m.cursor].Name + "? y to confirm, any other key to cancel"
		sections = append(sections, warningStyle.Render(help))
	} else {
		sections = append(sections, statusStyle.Render(help))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
