package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	sections := []string{
		cardTitleStyle.Render("Keyboard Shortcuts"),
		m.renderSection("Navigation", []keyHelp{
			{"1", "Dashboard"},
			{"2", "Ride list"},
			{"3", "Snapshot history"},
			{"4 or s", "Sync screen"},
			{"?", "Help (this screen)"},
			{"q", "Quit"},
			{"esc", "Back / close help"},
		}),
		m.renderSection("Dashboard", []keyHelp{
			{"r", "Refresh"},
		}),
		m.renderSection("Ride List", []keyHelp{
			{"j / down", "Move cursor down"},
			{"k / up", "Move cursor up"},
			{"pgdn / pgup", "Page"},
			{"d", "Delete ride"},
			{"r", "Refresh list"},
		}),
		m.renderSection("History", []keyHelp{
			{"j / k", "Scroll"},
			{"b", "Recompute snapshots"},
			{"r", "Reload"},
		}),
		m.renderSection("Sync Screen", []keyHelp{
			{"s / enter", "Start sync"},
			{"esc", "Cancel running sync"},
		}),
		m.renderMetricsHelp(),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	lines := []string{"", sectionStyle.Render(title)}
	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}
	return strings.Join(lines, "\n")
}

func (m HelpModel) renderMetricsHelp() string {
	lines := []string{"", sectionStyle.Render("Metrics Explained"), ""}

	metrics := []struct {
		name string
		desc string
	}{
		{"TSS (Training Stress Score)", "Ride load. 100 is one hour at threshold; estimated from duration and climbing when unknown."},
		{"CTL (Fitness)", "Chronic training load, exponentially weighted over 42 days."},
		{"ATL (Fatigue)", "Acute training load, exponentially weighted over 7 days."},
		{"TSB (Form)", "CTL - ATL. Positive is fresh, below -10 is building, below -30 is overreached."},
		{"Monotony", "Mean daily load over its standard deviation for the last week. Above 2 is a warning."},
		{"Strain", "Weekly load times monotony."},
	}

	for _, metric := range metrics {
		lines = append(lines, "  "+helpKeyStyle.Render(metric.name), "  "+mutedStyle.Render(metric.desc), "")
	}
	return strings.Join(lines, "\n")
}
