package tui

import (
	"context"
	"fmt"
	"strings"

	"trainload/internal/analysis"
	"trainload/internal/service"
	"trainload/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	load    *service.LoadService
	rides   *service.RideService
	units   Units
	report  *service.LoadReport
	recent  []store.Ride
	loading bool
	err     error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(load *service.LoadService, rides *service.RideService, units Units) DashboardModel {
	return DashboardModel{
		load:    load,
		rides:   rides,
		units:   units,
		loading: true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

type dashboardDataMsg struct {
	report *service.LoadReport
	recent []store.Ride
	err    error
}

func (m DashboardModel) loadData() tea.Msg {
	ctx := context.Background()
	report, err := m.load.Report(ctx, m.load.Today())
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	recent, err := m.rides.Recent(ctx, 5)
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	return dashboardDataMsg{report: report, recent: recent}
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.report = msg.report
		m.recent = msg.recent
	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if m.report == nil {
		return "\n  No data available. Press 's' to sync with Strava."
	}

	var sections []string

	if m.report.Degraded {
		sections = append(sections, warningStyle.Render("  Ride history unavailable; figures below assume no rides."))
	}

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderFitnessCard(), "  ", m.renderLoadCard())
	sections = append(sections, topRow)

	if len(m.report.Trend) > 2 {
		sections = append(sections, m.renderChart())
	}

	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, m.renderZonesCard(), "  ", m.renderRecentRides()))
	sections = append(sections, statusStyle.Render("Press 'r' to refresh, 's' to sync, '2' for the ride list"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderFitnessCard() string {
	r := m.report
	title := cardTitleStyle.Render("Form - " + r.AsOf.Format("Mon Jan 02"))

	formStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(r.Form.Color))
	lines := []string{
		RenderMetric("Fitness (CTL)", fmt.Sprintf("%.0f", r.Metrics.CTL), ""),
		RenderMetric("Fatigue (ATL)", fmt.Sprintf("%.0f", r.Metrics.ATL), ""),
		RenderMetric("Form (TSB)", fmt.Sprintf("%+.0f", r.Metrics.TSB), trendArrow(r.Metrics.TSB)),
		"",
		formStyle.Render(strings.ToUpper(string(r.Form.Status))) + " " + r.Form.Message,
		mutedStyle.Render(r.Form.Recommendation),
	}

	return cardStyle.Width(46).Render(lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func (m DashboardModel) renderLoadCard() string {
	r := m.report
	title := cardTitleStyle.Render("Load")

	monotony := fmt.Sprintf("%.2f", r.Monotony)
	if r.MonotonyWarning {
		monotony = warningStyle.Render(monotony + " high")
	}

	lines := []string{
		RenderMetric("Today TSS", fmt.Sprintf("%.0f", r.TodayTSS), ""),
		RenderMetric("Week TSS", fmt.Sprintf("%.0f", r.Metrics.WeeklyTSS), ""),
		RenderMetric("30 day TSS", fmt.Sprintf("%.0f", r.Metrics.MonthlyTSS), ""),
		RenderMetric("Monotony", monotony, ""),
		RenderMetric("Strain", fmt.Sprintf("%.0f", r.Strain), ""),
		RenderMetric("Rides", fmt.Sprintf("%d", r.RideCount), ""),
	}

	return cardStyle.Width(36).Render(lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func (m DashboardModel) renderChart() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Fitness / Fatigue / Form - last %d days", len(m.report.Trend)))

	ctl := make([]float64, len(m.report.Trend))
	atl := make([]float64, len(m.report.Trend))
	tsb := make([]float64, len(m.report.Trend))
	for i, p := range m.report.Trend {
		ctl[i], atl[i], tsb[i] = p.CTL, p.ATL, p.TSB
	}

	graph := asciigraph.PlotMany([][]float64{ctl, atl, tsb},
		asciigraph.Height(10),
		asciigraph.Width(70),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red, asciigraph.Green),
	)
	legend := mutedStyle.Render("blue CTL  red ATL  green TSB")

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph, legend))
}

func (m DashboardModel) renderZonesCard() string {
	z := m.report.Zones
	title := cardTitleStyle.Render("Intensity - " + string(z.Balance))

	if z.Classified == 0 {
		return cardStyle.Width(46).Render(lipgloss.JoinVertical(lipgloss.Left, title, "No classified rides"))
	}

	var lines []string
	for _, zone := range analysis.Zones {
		share := z.Zones[zone]
		lines = append(lines, fmt.Sprintf("%-11s %s %3.0f%%",
			zone.Label(), RenderProgressBar(share.Percentage/100, 20), share.Percentage))
	}
	lines = append(lines, "",
		mutedStyle.Render(fmt.Sprintf("low %.0f%%  medium %.0f%%  high %.0f%%",
			z.LowIntensityPct, z.MediumIntensityPct, z.HighIntensityPct)))

	return cardStyle.Width(46).Render(lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func (m DashboardModel) renderRecentRides() string {
	title := cardTitleStyle.Render("Recent Rides")

	if len(m.recent) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No rides yet"))
	}

	rows := []string{tableHeaderStyle.Render(fmt.Sprintf("%-6s  %-18s  %8s  %4s", "Date", "Name", "Dist", "TSS"))}
	for _, r := range m.recent {
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-6s  %-18s  %8s  %4s",
			r.StartDateLocal.Format("Jan 02"),
			truncateName(r.Name, 18),
			m.units.FormatDistance(r.Distance),
			formatTSS(m.load.Engine(), r),
		)))
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func trendArrow(tsb float64) string {
	switch {
	case tsb > analysis.TSBBalancedMax:
		return "↑"
	case tsb <= analysis.TSBBuildingMax:
		return "↓"
	default:
		return ""
	}
}

// formatTSS shows the stored score, or the estimate marked with ~
func formatTSS(e *analysis.Engine, r store.Ride) string {
	if r.TrainingStressScore != nil {
		return fmt.Sprintf("%.0f", *r.TrainingStressScore)
	}
	// an unknown zone label does not affect the estimate
	sample, _ := service.ToSample(r)
	return fmt.Sprintf("~%.0f", e.EstimateTSS(sample))
}

func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func truncateName(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
