package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trainload/internal/service"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sony/gobreaker"
)

// SyncModel is the sync screen model
type SyncModel struct {
	syncService *service.SyncService
	strava      StravaStatus
	spinner     spinner.Model
	progress    service.SyncProgress
	cancel      context.CancelFunc
	pending     chan service.SyncProgress
	syncing     bool
	result      *service.SyncResult
	err         error
	done        bool
}

// NewSyncModel creates a new sync model; ss may be nil when Strava is not linked
func NewSyncModel(ss *service.SyncService, strava StravaStatus) SyncModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)
	return SyncModel{
		syncService: ss,
		strava:      strava,
		spinner:     s,
	}
}

// Init initializes the sync screen
func (m SyncModel) Init() tea.Cmd {
	return nil
}

// SyncDoneMsg is sent when sync finishes
type SyncDoneMsg struct {
	Result *service.SyncResult
	Err    error
}

type syncProgressMsg service.SyncProgress

func waitForProgress(ch <-chan service.SyncProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return syncProgressMsg(p)
	}
}

func (m SyncModel) runSync(ctx context.Context, ch chan service.SyncProgress) tea.Cmd {
	return func() tea.Msg {
		result, err := m.syncService.SyncAll(ctx, ch)
		return SyncDoneMsg{Result: result, Err: err}
	}
}

// Update handles messages
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncProgressMsg:
		m.progress = service.SyncProgress(msg)
		if m.pending == nil {
			return m, nil
		}
		return m, waitForProgress(m.pending)

	case SyncDoneMsg:
		m.syncing = false
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.pending = nil
		if msg.Err != nil {
			return m, nil
		}
		summary := m.summaryLine()
		return m, func() tea.Msg { return SyncCompleteMsg{Summary: summary} }

	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.syncing {
			if msg.String() == "esc" && m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		if m.syncService == nil {
			return m, nil
		}
		switch msg.String() {
		case "enter", "s":
			ctx, cancel := context.WithCancel(context.Background())
			ch := make(chan service.SyncProgress, 16)
			m.cancel = cancel
			m.pending = ch
			m.syncing = true
			m.done = false
			m.err = nil
			m.result = nil
			m.progress = service.SyncProgress{}
			return m, tea.Batch(m.spinner.Tick, m.runSync(ctx, ch), waitForProgress(ch))
		}
	}
	return m, nil
}

// View renders the sync screen
func (m SyncModel) View() string {
	sections := []string{cardTitleStyle.Render("Strava Sync")}

	switch {
	case m.syncService == nil:
		sections = append(sections, warningStyle.Render("\n  No Strava account linked. Run 'trainload auth' first."))
	case m.syncing:
		sections = append(sections, m.renderProgress())
	case m.err != nil:
		msg := fmt.Sprintf("\n  Error: %v", m.err)
		if errors.Is(m.err, context.Canceled) {
			msg = "\n  Sync cancelled"
		}
		sections = append(sections, errorStyle.Render(msg))
		sections = append(sections, "\n"+statusStyle.Render("  Press 's' or Enter to retry"))
	case m.done:
		sections = append(sections, successStyle.Render("\n  Sync complete!"), m.renderSummary())
	default:
		sections = append(sections, m.renderStartPrompt())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SyncModel) renderStartPrompt() string {
	lines := []string{
		"",
		"  This will:",
		"",
		"  1. Fetch new rides from Strava",
		"  2. Score each ride from power, heart rate or duration",
		"  3. Recompute daily load snapshots",
		"",
	}
	if m.strava != nil {
		short, daily := m.strava.RateLimitStatus()
		lines = append(lines, statusStyle.Render(fmt.Sprintf("  API requests left: %d (15min), %d (daily)", short, daily)))
		if m.strava.BreakerState() == gobreaker.StateOpen {
			lines = append(lines, warningStyle.Render("  Strava has been failing; requests are paused for a minute"))
		}
		lines = append(lines, "")
	}
	lines = append(lines, statusStyle.Render("  Press 's' or Enter to start sync"))
	return strings.Join(lines, "\n")
}

func (m SyncModel) renderProgress() string {
	p := m.progress
	phase := "Fetching rides"
	if p.Phase == service.PhaseSnapshots {
		phase = "Recomputing snapshots"
	}

	lines := []string{"", "  " + m.spinner.View() + " " + phase + "..."}
	if p.Total > 0 {
		lines = append(lines, fmt.Sprintf("  %s %d/%d", RenderProgressBar(float64(p.Completed)/float64(p.Total), 30), p.Completed, p.Total))
	} else if p.Completed > 0 {
		lines = append(lines, fmt.Sprintf("  %d done", p.Completed))
	}
	if p.CurrentRide != "" {
		lines = append(lines, mutedStyle.Render("  "+truncateName(p.CurrentRide, 50)))
	}
	lines = append(lines, "", statusStyle.Render("  esc: cancel"))
	return strings.Join(lines, "\n")
}

func (m SyncModel) summaryLine() string {
	if m.result == nil {
		return ""
	}
	r := m.result
	if r.RidesStored == 0 {
		return "Sync complete: no new rides"
	}
	return fmt.Sprintf("Sync complete: %d rides stored, %d snapshots updated", r.RidesStored, r.SnapshotsWritten)
}

func (m SyncModel) renderSummary() string {
	if m.result == nil {
		return ""
	}
	r := m.result
	lines := []string{""}

	if r.RidesStored > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d rides synced (%d with power, %d with heart rate)",
			r.RidesStored, r.RidesWithPower, r.RidesWithHR)))
	} else {
		lines = append(lines, statusStyle.Render("  No new rides"))
	}
	if r.Skipped > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %d non-cycling activities skipped", r.Skipped)))
	}
	if r.SnapshotsWritten > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d snapshots recomputed", r.SnapshotsWritten)))
	}
	if len(r.Errors) > 0 {
		lines = append(lines, "", warningStyle.Render(fmt.Sprintf("  %d errors occurred", len(r.Errors))))
	}
	return strings.Join(lines, "\n")
}
