package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/taskdash/internal/models"
)

// ErrFormCancelled is returned by RunTaskForm when the user dismisses the form
var ErrFormCancelled = errors.New("cancelled")

// RunApp starts the full screen client at start
func RunApp(app App, start Route) error {
	p := tea.NewProgram(NewRouter(app, start), tea.WithAltScreen())

	// Clear can be triggered from inside a command; Send must not block it
	app.Session.OnClear(func() {
		go p.Send(navigateMsg{route: RouteLogin})
	})

	_, err := p.Run()
	return err
}

// formProgram runs a TaskForm on its own and quits with the result
type formProgram struct {
	form      TaskForm
	draft     models.Draft
	submitted bool
}

func (m formProgram) Init() tea.Cmd {
	return m.form.Init()
}

func (m formProgram) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.form.SetWidth(msg.Width - 10)
		return m, nil
	case formSubmitMsg:
		m.draft = msg.draft
		m.submitted = true
		return m, tea.Quit
	case formCancelMsg:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m formProgram) View() string {
	return m.form.View()
}

// RunTaskForm shows the task form inline, pre-filled from initial when it is
// not nil, and returns the validated draft
func RunTaskForm(initial *models.Task) (models.Draft, error) {
	form := NewTaskForm()
	if initial != nil {
		form = NewEditForm(*initial)
	}

	final, err := tea.NewProgram(formProgram{form: form}).Run()
	if err != nil {
		return models.Draft{}, err
	}

	m, ok := final.(formProgram)
	if !ok || !m.submitted {
		return models.Draft{}, ErrFormCancelled
	}
	return m.draft, nil
}
