package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/taskdash/internal/models"
	"github.com/balkashynov/taskdash/internal/parser"
	"github.com/balkashynov/taskdash/internal/validate"
)

// formField is the focused input of a TaskForm
type formField int

const (
	fieldTitle formField = iota
	fieldDescription
	fieldStatus
	fieldCount
)

// formSubmitMsg carries a draft that passed validation
type formSubmitMsg struct {
	taskID string // empty for a new task
	draft  models.Draft
}

// formCancelMsg is sent when the form is dismissed
type formCancelMsg struct{}

// TaskForm is the create/edit modal. It owns the draft until it is
// submitted or cancelled, and keeps validation errors to itself.
type TaskForm struct {
	taskID string
	focus  formField

	title       textinput.Model
	description textarea.Model
	status      string

	errors     validate.Errors
	submitting bool
	width      int
}

// NewTaskForm creates an empty form for a new task
func NewTaskForm() TaskForm {
	title := textinput.New()
	title.Placeholder = "Enter task title... (required)"
	title.CharLimit = 200
	title.Width = 50
	title.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	title.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
	title.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	title.Focus()

	desc := textarea.New()
	desc.Placeholder = "What needs to be done? (required)"
	desc.ShowLineNumbers = false
	desc.CharLimit = 1000
	desc.SetWidth(50)
	desc.SetHeight(4)

	return TaskForm{
		focus:       fieldTitle,
		title:       title,
		description: desc,
		errors:      validate.Errors{},
		width:       50,
	}
}

// NewEditForm creates a form pre-filled from task
func NewEditForm(task models.Task) TaskForm {
	f := NewTaskForm()
	f.taskID = task.ID
	draft := models.DraftFrom(task)
	f.title.SetValue(draft.Title)
	f.description.SetValue(draft.Description)
	f.status = draft.Status
	return f
}

// Init starts the cursor blinking
func (f TaskForm) Init() tea.Cmd {
	return textinput.Blink
}

// Draft returns the current field values
func (f TaskForm) Draft() models.Draft {
	return models.Draft{
		Title:       f.title.Value(),
		Description: f.description.Value(),
		Status:      f.status,
	}
}

// Editing reports whether the form edits an existing task
func (f TaskForm) Editing() bool {
	return f.taskID != ""
}

// SetWidth resizes the inputs
func (f *TaskForm) SetWidth(w int) {
	if w < 30 {
		w = 30
	}
	if w > 80 {
		w = 80
	}
	f.width = w
	f.title.Width = w
	f.description.SetWidth(w)
}

// SetSubmitting marks the form as waiting on the network
func (f *TaskForm) SetSubmitting(v bool) {
	f.submitting = v
}

// SetErrors shows field errors coming back from a submission attempt
func (f *TaskForm) SetErrors(errs validate.Errors) {
	f.errors = errs
	f.submitting = false
}

// Update handles keys while the form is open
func (f TaskForm) Update(msg tea.Msg) (TaskForm, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if f.submitting {
			return f, nil
		}

		switch key.String() {
		case "esc":
			return f, func() tea.Msg { return formCancelMsg{} }

		case "ctrl+s":
			return f.submit()

		case "tab":
			return f.moveFocus(1)

		case "shift+tab":
			return f.moveFocus(-1)

		case "enter":
			switch f.focus {
			case fieldTitle:
				return f.moveFocus(1)
			case fieldStatus:
				return f.submit()
			}

		case "left", "h":
			if f.focus == fieldStatus {
				f.status = parser.PrevStatus(f.status)
				return f, nil
			}

		case "right", "l", " ":
			if f.focus == fieldStatus {
				f.status = parser.NextStatus(f.status)
				return f, nil
			}
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldDescription:
		f.description, cmd = f.description.Update(msg)
	}
	return f, cmd
}

// submit validates locally; only a clean draft leaves the form
func (f TaskForm) submit() (TaskForm, tea.Cmd) {
	draft := f.Draft()
	f.errors = validate.Draft(draft)
	if len(f.errors) > 0 {
		return f, nil
	}

	f.submitting = true
	id := f.taskID
	return f, func() tea.Msg { return formSubmitMsg{taskID: id, draft: draft} }
}

func (f TaskForm) moveFocus(delta int) (TaskForm, tea.Cmd) {
	f.focus = formField((int(f.focus) + delta + int(fieldCount)) % int(fieldCount))

	f.title.Blur()
	f.description.Blur()

	switch f.focus {
	case fieldTitle:
		return f, f.title.Focus()
	case fieldDescription:
		return f, f.description.Focus()
	}
	return f, nil
}

// View renders the modal
func (f TaskForm) View() string {
	var b strings.Builder

	heading := "📝 Add New Task"
	if f.Editing() {
		heading = "📝 Edit Task"
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright)).Render(heading))
	b.WriteString("\n\n")

	b.WriteString(f.label("Title", fieldTitle))
	b.WriteString("\n")
	b.WriteString(f.title.View())
	b.WriteString(f.fieldError(validate.FieldTitle))
	b.WriteString("\n")

	b.WriteString(f.label("Description", fieldDescription))
	b.WriteString("\n")
	b.WriteString(f.description.View())
	b.WriteString(f.fieldError(validate.FieldDescription))
	b.WriteString("\n")

	b.WriteString(f.label("Status", fieldStatus))
	b.WriteString("\n")
	b.WriteString(f.statusSelector())
	b.WriteString(f.fieldError(validate.FieldStatus))
	b.WriteString("\n\n")

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Italic(true)
	if f.submitting {
		b.WriteString(helpStyle.Render("Saving..."))
	} else {
		action := "Add Task"
		if f.Editing() {
			action = "Update"
		}
		b.WriteString(helpStyle.Render(fmt.Sprintf("Tab: next field · ←/→: status · Ctrl+S: %s · Esc: Cancel", action)))
	}

	borderColor := ColorBorder
	if len(f.errors) > 0 {
		borderColor = ColorError
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Padding(1, 2).
		Width(f.width + 6).
		Render(b.String())
}

func (f TaskForm) label(text string, field formField) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	if f.focus == field {
		style = style.Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
		text = "▶ " + text
	}
	if _, bad := f.errors[fieldKey(field)]; bad {
		style = style.Foreground(lipgloss.Color(ColorError))
	}
	return style.Render(text)
}

func (f TaskForm) fieldError(key string) string {
	msg, ok := f.errors[key]
	if !ok {
		return ""
	}
	return "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render(msg)
}

func (f TaskForm) statusSelector() string {
	options := []string{"Select Status"}
	values := []string{""}
	for _, s := range models.Statuses {
		options = append(options, string(s))
		values = append(values, string(s))
	}

	parts := make([]string, len(options))
	for i, opt := range options {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText)).Padding(0, 1)
		if values[i] == f.status {
			style = style.Foreground(lipgloss.Color(ColorPrimaryText)).Background(lipgloss.Color(ColorAccentMain)).Bold(true)
		}
		parts[i] = style.Render(opt)
	}
	return strings.Join(parts, " ")
}

func fieldKey(field formField) string {
	switch field {
	case fieldTitle:
		return validate.FieldTitle
	case fieldDescription:
		return validate.FieldDescription
	default:
		return validate.FieldStatus
	}
}
