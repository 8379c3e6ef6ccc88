package tui

import (
	"trainload/internal/config"
	"trainload/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sony/gobreaker"
)

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenRides
	ScreenHistory
	ScreenSync
	ScreenHelp
)

// StravaStatus reports the API budget and circuit state of the Strava client
type StravaStatus interface {
	RateLimitStatus() (shortRemaining, dailyRemaining int)
	BreakerState() gobreaker.State
}

// Services are the application services the screens read from.
// Sync and Strava are nil when no Strava account is linked.
type Services struct {
	Load      *service.LoadService
	Rides     *service.RideService
	Snapshots *service.SnapshotService
	Sync      *service.SyncService
	Strava    StravaStatus
}

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	dashboard  DashboardModel
	rides      RidesModel
	history    HistoryModel
	syncScreen SyncModel
	help       HelpModel

	svc   Services
	units Units

	width  int
	height int

	status string
}

// NewApp creates a new App with all dependencies
func NewApp(svc Services, display config.DisplayConfig) *App {
	units := NewUnits(display)
	return &App{
		screen:     ScreenDashboard,
		svc:        svc,
		units:      units,
		dashboard:  NewDashboardModel(svc.Load, svc.Rides, units),
		rides:      NewRidesModel(svc.Rides, svc.Load.Engine(), units),
		history:    NewHistoryModel(svc.Snapshots, svc.Load),
		syncScreen: NewSyncModel(svc.Sync, svc.Strava),
		help:       NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.screen != ScreenSync || !a.syncScreen.syncing {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				a.screen = ScreenDashboard
				a.dashboard = NewDashboardModel(a.svc.Load, a.svc.Rides, a.units)
				return a, a.dashboard.Init()
			case "2":
				a.screen = ScreenRides
				return a, a.rides.Init()
			case "3":
				a.screen = ScreenHistory
				return a, a.history.Init()
			case "4", "s":
				if a.screen != ScreenSync {
					a.screen = ScreenSync
					return a, a.syncScreen.Init()
				}
			case "?":
				a.prevScreen = a.screen
				a.screen = ScreenHelp
				return a, nil
			case "esc":
				if a.screen == ScreenHelp {
					a.screen = a.prevScreen
					return a, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		var m tea.Model
		m, _ = a.history.Update(msg)
		a.history = m.(HistoryModel)

	case rideDeletedMsg:
		if msg.err != nil {
			a.status = "Delete failed: " + msg.err.Error()
		} else {
			a.status = "Deleted " + msg.name
		}

	case SyncCompleteMsg:
		a.status = msg.Summary
		a.screen = ScreenDashboard
		a.dashboard = NewDashboardModel(a.svc.Load, a.svc.Rides, a.units)
		return a, a.dashboard.Init()
	}

	var cmd tea.Cmd
	switch a.screen {
	case ScreenDashboard:
		var m tea.Model
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
	case ScreenRides:
		var m tea.Model
		m, cmd = a.rides.Update(msg)
		a.rides = m.(RidesModel)
	case ScreenHistory:
		var m tea.Model
		m, cmd = a.history.Update(msg)
		a.history = m.(HistoryModel)
	case ScreenSync:
		var m tea.Model
		m, cmd = a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	header := headerStyle.Render("Training Load")
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenRides:
		content = a.rides.View()
	case ScreenHistory:
		content = a.history.View()
	case ScreenSync:
		content = a.syncScreen.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content, a.renderFooter())
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "Rides", ScreenRides},
		{"3", "History", ScreenHistory},
		{"4", "Sync", ScreenSync},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}
		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}
	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

func (a *App) renderFooter() string {
	if a.status != "" {
		return statusStyle.Render(a.status)
	}
	return ""
}

// SyncCompleteMsg is sent when a sync finished and the dashboard should reload
type SyncCompleteMsg struct {
	Summary string
}
