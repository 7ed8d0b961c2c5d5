package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/taskdash/internal/api"
)

// registeredRedirectDelay is how long the register success banner stays
// before the login screen takes over
const registeredRedirectDelay = 2 * time.Second

// Authenticator is the part of the API client the auth screens use
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.AuthResult, error)
	Register(ctx context.Context, email, password string) (api.AuthResult, error)
}

// TokenSaver stores the token of a successful login
type TokenSaver interface {
	Save(token string) error
}

type authMode int

const (
	authLogin authMode = iota
	authRegister
)

type authResultMsg struct {
	mode  authMode
	token string
	err   error
}

// AuthModel is the login and register screen
type AuthModel struct {
	mode    authMode
	auth    Authenticator
	saver   TokenSaver
	timeout time.Duration

	email    textinput.Model
	password textinput.Model
	focus    int

	banner     string
	bannerOK   bool
	submitting bool

	width  int
	height int
}

// NewAuthModel creates the screen; register selects the register form
func NewAuthModel(auth Authenticator, saver TokenSaver, register bool, timeout time.Duration) AuthModel {
	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 254
	email.Width = 40
	email.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	email.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 128
	password.Width = 40
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	password.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))

	mode := authLogin
	if register {
		mode = authRegister
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return AuthModel{
		mode:     mode,
		auth:     auth,
		saver:    saver,
		timeout:  timeout,
		email:    email,
		password: password,
	}
}

// Init starts the cursor blinking
func (m AuthModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m AuthModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case authResultMsg:
		return m.handleResult(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+r":
			if m.mode != authRegister && !m.submitting {
				return m, navigate(RouteRegister)
			}
			return m, nil
		case "ctrl+l":
			if m.mode != authLogin && !m.submitting {
				return m, navigate(RouteLogin)
			}
			return m, nil
		}

		if m.submitting {
			return m, nil
		}

		switch msg.String() {
		case "tab", "down", "shift+tab", "up":
			m = m.toggleFocus()
			return m, textinput.Blink
		case "enter":
			if m.focus == 0 {
				m = m.toggleFocus()
				return m, textinput.Blink
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m AuthModel) toggleFocus() AuthModel {
	if m.focus == 0 {
		m.focus = 1
		m.email.Blur()
		m.password.Focus()
	} else {
		m.focus = 0
		m.password.Blur()
		m.email.Focus()
	}
	return m
}

func (m AuthModel) submit() (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()
	if email == "" || password == "" {
		m.banner = "Oops! Email and password are required"
		m.bannerOK = false
		return m, nil
	}

	m.submitting = true
	m.banner = ""
	auth, mode, timeout := m.auth, m.mode, m.timeout

	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if mode == authRegister {
			_, err := auth.Register(ctx, email, password)
			return authResultMsg{mode: mode, err: err}
		}
		res, err := auth.Login(ctx, email, password)
		return authResultMsg{mode: mode, token: res.Token, err: err}
	}
}

func (m AuthModel) handleResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	m.submitting = false

	if msg.err != nil {
		m.bannerOK = false
		if re, ok := api.IsRejected(msg.err); ok {
			m.banner = "Oops! " + re.Message
		} else {
			m.banner = "Oops! " + describeAuthError(msg.err)
		}
		return m, nil
	}

	if msg.mode == authRegister {
		m.banner = "Congratulations! your account has been registered successfully."
		m.bannerOK = true
		m.submitting = true
		return m, tea.Tick(registeredRedirectDelay, func(time.Time) tea.Msg {
			return navigateMsg{route: RouteLogin}
		})
	}

	if err := m.saver.Save(msg.token); err != nil {
		m.banner = "Oops! " + err.Error()
		m.bannerOK = false
		return m, nil
	}
	return m, navigate(RouteDashboard)
}

func describeAuthError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "the server did not answer in time"
	}
	if errors.Is(err, api.ErrTransport) {
		return "could not reach the server"
	}
	return err.Error()
}

// View renders the screen
func (m AuthModel) View() string {
	title := "Login"
	button := "[enter] Login"
	switchHint := "Don't have an account? ctrl+r to register"
	if m.mode == authRegister {
		title = "Register"
		button = "[enter] Register"
		switchHint = "Already have an account? ctrl+l to login"
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccentBright)).
		Render(title))
	b.WriteString("\n\n")

	if m.banner != "" {
		color := ColorError
		if m.bannerOK {
			color = ColorSuccess
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Width(44).Render(m.banner))
		b.WriteString("\n\n")
	}

	b.WriteString(m.fieldLabel("Email", 0))
	b.WriteString("\n")
	b.WriteString(m.email.View())
	b.WriteString("\n\n")
	b.WriteString(m.fieldLabel("Password", 1))
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	buttonStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Background(lipgloss.Color(ColorInfo)).
		Padding(0, 2)
	if m.submitting {
		button = "Please wait..."
		buttonStyle = buttonStyle.Background(lipgloss.Color(ColorDisabledText))
	}
	b.WriteString(buttonStyle.Render(button))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Italic(true).Render(switchHint + " · esc quit"))

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Padding(1, 3).
		Render(b.String())

	if m.width == 0 || m.height == 0 {
		return card
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, card)
}

func (m AuthModel) fieldLabel(text string, field int) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	if m.focus == field {
		style = style.Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
	}
	return style.Render(text)
}
