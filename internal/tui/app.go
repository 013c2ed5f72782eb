package tui

import (
	"strings"

	"trailrunner/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenActivities
	ScreenActivityDetail
	ScreenWeekly
	ScreenPredictions
	ScreenRoute
	ScreenGoals
	ScreenSync
	ScreenHelp
)

// Services groups what the screens read from and write to
type Services struct {
	Query *service.QueryService
	Sync  *service.SyncService
	Route *service.RouteService
	Goals *service.GoalService
}

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	dashboard   DashboardModel
	activities  ActivitiesModel
	detail      ActivityDetailModel
	weekly      WeeklyModel
	predictions PredictionsModel
	routeScreen RouteModel
	goals       GoalsModel
	syncScreen  SyncModel
	help        HelpModel

	svc   Services
	units Units

	// Window dimensions
	width  int
	height int

	// Status message
	status string
}

// NewApp creates a new App with all dependencies
func NewApp(svc Services, units Units) *App {
	return &App{
		screen:      ScreenDashboard,
		svc:         svc,
		units:       units,
		dashboard:   NewDashboardModel(svc.Query, units, 0, 0),
		activities:  NewActivitiesModel(svc.Query, units),
		weekly:      NewWeeklyModel(svc.Query, units),
		predictions: NewPredictionsModel(svc.Query),
		routeScreen: NewRouteModel(svc.Route, units),
		goals:       NewGoalsModel(svc.Goals),
		syncScreen:  NewSyncModel(svc.Sync),
		help:        NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// capturing reports whether the current screen is reading free text, in
// which case digits and letters belong to it rather than to navigation.
func (a *App) capturing() bool {
	switch a.screen {
	case ScreenPredictions:
		return a.predictions.Capturing()
	case ScreenRoute:
		return a.routeScreen.Capturing()
	case ScreenGoals:
		return a.goals.Capturing()
	case ScreenSync:
		return a.syncScreen.syncing
	}
	return false
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.capturing() {
			switch msg.String() {
			case "q":
				return a, tea.Quit
			case "1":
				a.screen = ScreenDashboard
				a.dashboard = NewDashboardModel(a.svc.Query, a.units, a.width, a.height)
				return a, a.dashboard.Init()
			case "2":
				a.screen = ScreenActivities
				return a, a.activities.Init()
			case "3":
				a.screen = ScreenWeekly
				return a, a.weekly.Init()
			case "4":
				a.screen = ScreenPredictions
				return a, a.predictions.Init()
			case "5":
				a.screen = ScreenRoute
				return a, a.routeScreen.Init()
			case "6":
				a.screen = ScreenGoals
				return a, a.goals.Init()
			case "7", "s":
				if a.screen != ScreenSync {
					a.screen = ScreenSync
					return a, a.syncScreen.Init()
				}
				// Let 's' fall through to sync screen when already there
			case "?":
				if a.screen != ScreenHelp {
					a.prevScreen = a.screen
					a.screen = ScreenHelp
				}
				return a, nil
			case "esc":
				switch a.screen {
				case ScreenHelp:
					a.screen = a.prevScreen
					return a, nil
				case ScreenActivityDetail:
					a.screen = ScreenActivities
					return a, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case OpenActivityDetailMsg:
		a.screen = ScreenActivityDetail
		a.detail = NewActivityDetailModel(a.svc.Query, a.units, msg.ActivityID, a.width, a.height)
		return a, a.detail.Init()

	case SyncCompleteMsg:
		a.status = msg.Summary
		a.dashboard = NewDashboardModel(a.svc.Query, a.units, a.width, a.height)
		a.activities = NewActivitiesModel(a.svc.Query, a.units)
		a.weekly = NewWeeklyModel(a.svc.Query, a.units)
		var cmd tea.Cmd
		if a.screen == ScreenSync {
			cmd = a.forward(msg)
		}
		return a, cmd
	}

	return a, a.forward(msg)
}

// forward delegates a message to the current screen
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var m tea.Model
	var cmd tea.Cmd
	switch a.screen {
	case ScreenDashboard:
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
	case ScreenActivities:
		m, cmd = a.activities.Update(msg)
		a.activities = m.(ActivitiesModel)
	case ScreenActivityDetail:
		m, cmd = a.detail.Update(msg)
		a.detail = m.(ActivityDetailModel)
	case ScreenWeekly:
		m, cmd = a.weekly.Update(msg)
		a.weekly = m.(WeeklyModel)
	case ScreenPredictions:
		m, cmd = a.predictions.Update(msg)
		a.predictions = m.(PredictionsModel)
	case ScreenRoute:
		m, cmd = a.routeScreen.Update(msg)
		a.routeScreen = m.(RouteModel)
	case ScreenGoals:
		m, cmd = a.goals.Update(msg)
		a.goals = m.(GoalsModel)
	case ScreenSync:
		m, cmd = a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
	case ScreenHelp:
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}
	return cmd
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenActivities:
		content = a.activities.View()
	case ScreenActivityDetail:
		content = a.detail.View()
	case ScreenWeekly:
		content = a.weekly.View()
	case ScreenPredictions:
		content = a.predictions.View()
	case ScreenRoute:
		content = a.routeScreen.View()
	case ScreenGoals:
		content = a.goals.View()
	case ScreenSync:
		content = a.syncScreen.View()
	case ScreenHelp:
		content = a.help.View()
	}

	footer := a.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content, footer)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("Trail Runner Training Analyzer")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "Activities", ScreenActivities},
		{"3", "Weekly", ScreenWeekly},
		{"4", "Predictions", ScreenPredictions},
		{"5", "Route", ScreenRoute},
		{"6", "Goals", ScreenGoals},
		{"7", "Sync", ScreenSync},
		{"?", "Help", ScreenHelp},
	}

	parts := make([]string, 0, len(items)+1)
	for _, item := range items {
		label := "[" + item.key + "] " + item.label
		active := a.screen == item.screen ||
			(item.screen == ScreenActivities && a.screen == ScreenActivityDetail)
		if active {
			parts = append(parts, navActiveStyle.Render(label))
		} else {
			parts = append(parts, navInactiveStyle.Render(label))
		}
	}
	parts = append(parts, navInactiveStyle.Render("[q] Quit"))

	return navStyle.Render(strings.Join(parts, "  "))
}

func (a *App) renderFooter() string {
	if a.status != "" {
		return statusStyle.Render(a.status)
	}
	return ""
}

// SyncCompleteMsg is sent when sync finishes
type SyncCompleteMsg struct {
	Summary string
}

// OpenActivityDetailMsg asks the app to show one activity
type OpenActivityDetailMsg struct {
	ActivityID int64
}
