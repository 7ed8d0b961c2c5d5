package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/taskdash/internal/controller"
)

// Route names a screen
type Route string

const (
	RouteLogin     Route = "/login"
	RouteRegister  Route = "/register"
	RouteDashboard Route = "/dashboard"
)

type navigateMsg struct{ route Route }

func navigate(r Route) tea.Cmd {
	return func() tea.Msg { return navigateMsg{route: r} }
}

// SessionStore is what the router needs from the session
type SessionStore interface {
	TokenSaver
	Token() string
	OnClear(fn func())
}

// App bundles what the screens are built from
type App struct {
	Auth    Authenticator
	Session SessionStore
	// NewController builds a fresh task controller reporting to n; one is
	// created every time the dashboard is entered.
	NewController func(n controller.Notifier) *controller.Controller
	Timeout       time.Duration
}

// StartRoute is the dashboard when a token exists, the login screen otherwise
func (a App) StartRoute() Route {
	if a.Session.Token() != "" {
		return RouteDashboard
	}
	return RouteLogin
}

// Router owns the current screen and swaps it on navigation
type Router struct {
	app    App
	route  Route
	screen tea.Model
	ctrl   *controller.Controller
	size   *tea.WindowSizeMsg
}

// NewRouter creates a router showing start
func NewRouter(app App, start Route) Router {
	r := Router{app: app}
	r, _ = r.enter(start)
	return r
}

// Route returns the current route
func (r Router) Route() Route {
	return r.route
}

// Init initializes the current screen
func (r Router) Init() tea.Cmd {
	return r.screen.Init()
}

// Update handles navigation and forwards everything else to the screen
func (r Router) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case navigateMsg:
		var cmd tea.Cmd
		r, cmd = r.enter(msg.route)
		return r, cmd
	case tea.WindowSizeMsg:
		r.size = &msg
	}

	var cmd tea.Cmd
	r.screen, cmd = r.screen.Update(msg)
	return r, cmd
}

// View renders the current screen
func (r Router) View() string {
	return r.screen.View()
}

func (r Router) enter(route Route) (Router, tea.Cmd) {
	// whatever the old dashboard still has in flight is discarded
	if r.ctrl != nil {
		r.ctrl.Close()
		r.ctrl = nil
	}

	switch route {
	case RouteDashboard:
		queue := &controller.Queue{}
		r.ctrl = r.app.NewController(queue)
		r.screen = NewDashboardModel(r.ctrl, queue, r.app.Timeout)
	case RouteRegister:
		r.screen = NewAuthModel(r.app.Auth, r.app.Session, true, r.app.Timeout)
	default:
		route = RouteLogin
		r.screen = NewAuthModel(r.app.Auth, r.app.Session, false, r.app.Timeout)
	}
	r.route = route

	cmds := []tea.Cmd{r.screen.Init()}
	if r.size != nil {
		var cmd tea.Cmd
		r.screen, cmd = r.screen.Update(*r.size)
		cmds = append(cmds, cmd)
	}
	return r, tea.Batch(cmds...)
}
