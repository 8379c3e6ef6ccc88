package tui

import (
	"context"
	"fmt"
	"strings"

	"trainload/internal/service"
	"trainload/internal/store"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const historyDays = 90

// HistoryModel lists stored daily snapshots
type HistoryModel struct {
	snapshots *service.SnapshotService
	load      *service.LoadService
	viewport  viewport.Model
	ready     bool
	list      []store.Snapshot
	loading   bool
	message   string
	err       error
}

// NewHistoryModel creates a new history model
func NewHistoryModel(snapshots *service.SnapshotService, load *service.LoadService) HistoryModel {
	return HistoryModel{
		snapshots: snapshots,
		load:      load,
		loading:   true,
	}
}

// Init initializes the history screen
func (m HistoryModel) Init() tea.Cmd {
	return m.loadSnapshots
}

type snapshotsLoadedMsg struct {
	list []store.Snapshot
	err  error
}

type backfillDoneMsg struct {
	written int
	err     error
}

func (m HistoryModel) window() (from, to string) {
	today := m.load.Today()
	return today.AddDate(0, 0, -(historyDays - 1)).Format(store.DateLayout), today.Format(store.DateLayout)
}

func (m HistoryModel) loadSnapshots() tea.Msg {
	today := m.load.Today()
	list, err := m.snapshots.Between(context.Background(), today.AddDate(0, 0, -(historyDays-1)), today)
	return snapshotsLoadedMsg{list: list, err: err}
}

func (m HistoryModel) backfill() tea.Msg {
	today := m.load.Today()
	n, err := m.snapshots.Backfill(context.Background(), today.AddDate(0, 0, -(historyDays-1)), today)
	return backfillDoneMsg{written: n, err: err}
}

// Update handles messages
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-8)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 8
		}
		m.viewport.SetContent(m.renderTable())
		return m, nil

	case snapshotsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.list = msg.list
		if m.ready {
			m.viewport.SetContent(m.renderTable())
			m.viewport.GotoBottom()
		}
		return m, nil

	case backfillDoneMsg:
		if msg.err != nil {
			m.loading = false
			m.err = msg.err
			return m, nil
		}
		m.message = fmt.Sprintf("%d snapshots recomputed", msg.written)
		return m, m.loadSnapshots

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			m.message = ""
			return m, m.loadSnapshots
		case "b":
			m.loading = true
			m.err = nil
			return m, m.backfill
		}
	}

	var cmd tea.Cmd
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// View renders the history screen
func (m HistoryModel) View() string {
	from, to := m.window()
	title := cardTitleStyle.Render(fmt.Sprintf("Daily Snapshots %s to %s", from, to))

	if m.loading {
		return lipgloss.JoinVertical(lipgloss.Left, title, "  Loading snapshots...")
	}
	if m.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, title, errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
	}
	if len(m.list) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, "  No snapshots stored. Press 'b' to compute them from your rides.")
	}

	body := m.renderTable()
	if m.ready {
		body = m.viewport.View()
	}

	footer := "  j/k: scroll  b: recompute window  r: reload"
	if m.message != "" {
		footer = successStyle.Render("  "+m.message) + "\n" + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, body, statusStyle.Render(footer))
}

func (m HistoryModel) renderTable() string {
	var lines []string
	lines = append(lines, tableHeaderStyle.Render(fmt.Sprintf("%-10s  %5s  %5s  %5s  %6s  %6s  %8s  %6s  %-11s  %-14s",
		"Date", "TSS", "CTL", "ATL", "TSB", "Week", "Monotony", "Strain", "Form", "Balance")))

	for _, s := range m.list {
		row := fmt.Sprintf("%-10s  %5.0f  %5.0f  %5.0f  %+6.0f  %6.0f  %8.2f  %6.0f  %-11s  %-14s",
			s.Date.Format(store.DateLayout),
			s.TSS, s.CTL, s.ATL, s.TSB, s.WeeklyTSS, s.Monotony, s.Strain,
			s.FormStatus, s.TrainingBalance,
		)
		lines = append(lines, tableRowStyle.Render(row))
	}
	return strings.Join(lines, "\n")
}
