package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/taskdash/internal/controller"
	"github.com/balkashynov/taskdash/internal/models"
	"github.com/balkashynov/taskdash/internal/validate"
)

// dashboardMode is what has the keyboard
type dashboardMode int

const (
	modeBrowse dashboardMode = iota
	modeForm
	modeConfirmDelete
)

// opRefresh tags a manual re-fetch in opDoneMsg
const opRefresh controller.Op = "refresh"

// mountedMsg reports the end of the initial load
type mountedMsg struct{ err error }

// opDoneMsg reports the end of a mutation or refresh
type opDoneMsg struct {
	op     controller.Op
	errs   validate.Errors
	err    error
	taskID string
}

// DashboardModel lists the actor's tasks and dispatches intents to the controller
type DashboardModel struct {
	ctrl    *controller.Controller
	queue   *controller.Queue
	timeout time.Duration

	width  int
	height int

	tasks        []models.Task
	selectedTask int
	currentPage  int
	tasksPerPage int

	mode       dashboardMode
	form       TaskForm
	deleteID   string
	loading    bool
	refreshing bool

	toast toast
}

// NewDashboardModel creates the dashboard over ctrl; queue must be the
// notifier ctrl was built with
func NewDashboardModel(ctrl *controller.Controller, queue *controller.Queue, timeout time.Duration) DashboardModel {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return DashboardModel{
		ctrl:         ctrl,
		queue:        queue,
		timeout:      timeout,
		tasksPerPage: 10,
		loading:      true,
	}
}

// Init mounts the controller
func (m DashboardModel) Init() tea.Cmd {
	ctrl, timeout := m.ctrl, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return mountedMsg{err: ctrl.Mount(ctx)}
	}
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// header(3) + toast(3) + help(2) + borders(4)
		available := m.height - 12
		if available < 3 {
			available = 3
		}
		m.tasksPerPage = available
		m.currentPage = m.selectedTask / m.tasksPerPage
		if last := m.pageCount() - 1; m.currentPage > last && last >= 0 {
			m.currentPage = last
		}

		// the zero form has no textarea to resize
		if m.mode == modeForm {
			m.form.SetWidth(m.width/2 - 8)
		}
		return m, nil

	case mountedMsg:
		m.loading = false
		m.syncTasks()
		return m, m.toast.showAll(m.queue.Drain())

	case opDoneMsg:
		return m.handleOpDone(msg)

	case toastExpiredMsg:
		m.toast.expire(msg)
		return m, nil

	case formCancelMsg:
		m.mode = modeBrowse
		return m, nil

	case formSubmitMsg:
		return m, m.submit(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeForm:
			var cmd tea.Cmd
			m.form, cmd = m.form.Update(msg)
			return m, cmd
		case modeConfirmDelete:
			return m.handleConfirmKeys(msg)
		default:
			return m.handleBrowseKeys(msg)
		}
	}

	if m.mode == modeForm {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m DashboardModel) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		if msg.String() == "q" || msg.String() == "esc" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit

	case "up", "k":
		return m.moveSelectionUp(), nil

	case "down", "j":
		return m.moveSelectionDown(), nil

	case "left", "h":
		return m.prevPage(), nil

	case "right", "l":
		return m.nextPage(), nil

	case "n":
		m.form = NewTaskForm()
		m.form.SetWidth(m.width/2 - 8)
		m.mode = modeForm
		return m, m.form.Init()

	case "e", "enter":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.form = NewEditForm(task)
		m.form.SetWidth(m.width/2 - 8)
		m.mode = modeForm
		return m, m.form.Init()

	case "d", "delete":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.deleteID = task.ID
		m.mode = modeConfirmDelete
		return m, nil

	case "r":
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		return m, m.run(opRefresh, "", func(ctx context.Context) (validate.Errors, error) {
			return nil, m.ctrl.Refresh(ctx)
		})

	case "L":
		ctrl := m.ctrl
		// Clear runs the session listeners, which navigate to the login screen
		return m, func() tea.Msg {
			ctrl.Logout()
			return nil
		}
	}
	return m, nil
}

func (m DashboardModel) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		id := m.deleteID
		m.mode = modeBrowse
		m.deleteID = ""
		return m, m.run(controller.OpDelete, id, func(ctx context.Context) (validate.Errors, error) {
			return nil, m.ctrl.Delete(ctx, id)
		})
	case "n", "N", "esc":
		m.mode = modeBrowse
		m.deleteID = ""
	}
	return m, nil
}

// submit hands a validated draft to the controller
func (m DashboardModel) submit(msg formSubmitMsg) tea.Cmd {
	if msg.taskID == "" {
		return m.run(controller.OpCreate, "", func(ctx context.Context) (validate.Errors, error) {
			return m.ctrl.Create(ctx, msg.draft)
		})
	}
	id := msg.taskID
	return m.run(controller.OpUpdate, id, func(ctx context.Context) (validate.Errors, error) {
		return m.ctrl.Update(ctx, id, msg.draft)
	})
}

// run executes fn off the event loop and reports back with opDoneMsg
func (m DashboardModel) run(op controller.Op, taskID string, fn func(context.Context) (validate.Errors, error)) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		errs, err := fn(ctx)
		return opDoneMsg{op: op, errs: errs, err: err, taskID: taskID}
	}
}

func (m DashboardModel) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, controller.ErrClosed) {
		return m, nil
	}

	m.syncTasks()
	cmd := m.toast.showAll(m.queue.Drain())

	switch msg.op {
	case controller.OpCreate, controller.OpUpdate:
		if m.mode != modeForm {
			break
		}
		switch {
		case len(msg.errs) > 0:
			m.form.SetErrors(msg.errs)
		case msg.err == nil, errors.Is(msg.err, controller.ErrResync):
			// the mutation landed; the draft is done with
			m.mode = modeBrowse
		default:
			m.form.SetSubmitting(false)
		}
	case opRefresh:
		m.refreshing = false
	}

	return m, cmd
}

// syncTasks copies the controller's list and keeps the selection in range
func (m *DashboardModel) syncTasks() {
	m.tasks = m.ctrl.Tasks()
	if m.selectedTask >= len(m.tasks) {
		m.selectedTask = len(m.tasks) - 1
	}
	if m.selectedTask < 0 {
		m.selectedTask = 0
	}
	if m.tasksPerPage > 0 {
		m.currentPage = m.selectedTask / m.tasksPerPage
	}
}

func (m DashboardModel) selected() (models.Task, bool) {
	if len(m.tasks) == 0 || m.selectedTask >= len(m.tasks) {
		return models.Task{}, false
	}
	return m.tasks[m.selectedTask], true
}

// moveSelectionUp moves the selection up
func (m DashboardModel) moveSelectionUp() DashboardModel {
	if m.selectedTask > 0 {
		m.selectedTask--
		// Auto-pagination: if we scrolled above current page, go to previous page
		if m.selectedTask < m.currentPage*m.tasksPerPage && m.currentPage > 0 {
			m.currentPage--
		}
	}
	return m
}

// moveSelectionDown moves the selection down
func (m DashboardModel) moveSelectionDown() DashboardModel {
	if m.selectedTask < len(m.tasks)-1 {
		m.selectedTask++
		if m.selectedTask >= (m.currentPage+1)*m.tasksPerPage && m.currentPage < m.pageCount()-1 {
			m.currentPage++
		}
	}
	return m
}

// prevPage goes to previous page and selects its first task
func (m DashboardModel) prevPage() DashboardModel {
	if m.currentPage > 0 {
		m.currentPage--
		m.selectedTask = m.currentPage * m.tasksPerPage
	}
	return m
}

// nextPage goes to next page and selects its first task
func (m DashboardModel) nextPage() DashboardModel {
	if m.currentPage < m.pageCount()-1 {
		m.currentPage++
		m.selectedTask = m.currentPage * m.tasksPerPage
	}
	return m
}

func (m DashboardModel) pageCount() int {
	if m.tasksPerPage <= 0 {
		return 1
	}
	return (len(m.tasks) + m.tasksPerPage - 1) / m.tasksPerPage
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.width == 0 || m.height == 0 || m.loading {
		return "Loading..."
	}

	header := m.renderHeader()
	toastView := m.toast.view(m.width)

	var body string
	switch m.mode {
	case modeForm:
		body = lipgloss.Place(m.width, m.height-8, lipgloss.Center, lipgloss.Center, m.form.View())
	case modeConfirmDelete:
		body = lipgloss.Place(m.width, m.height-8, lipgloss.Center, lipgloss.Center, m.renderConfirm())
	default:
		leftWidth := m.width * 55 / 100
		rightWidth := m.width - leftWidth - 5
		body = lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.renderTaskTable(leftWidth),
			" ",
			m.renderTaskCard(rightWidth),
		)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		toastView,
		body,
		"",
		m.renderHelpBar(),
	)
}

func (m DashboardModel) renderHeader() string {
	brand := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccentMain)).
		Render("TASK MANAGER")

	greeting := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorInfo)).
		Underline(true).
		Render("Hi there! Logout (L)")

	gap := m.width - lipgloss.Width(brand) - lipgloss.Width(greeting) - 2
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Width(m.width).
		Render(" " + brand + strings.Repeat(" ", gap) + greeting)
}

// renderTaskTable renders the left panel with the task list
func (m DashboardModel) renderTaskTable(width int) string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccentBright))
	b.WriteString(headerStyle.Render("📋 Tasks"))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText)).
			Italic(true)
		b.WriteString(emptyStyle.Render("No tasks yet. Press n to create one."))
	} else {
		statusWidth := 14
		titleWidth := width - statusWidth - 8
		if titleWidth < 20 {
			titleWidth = 20
		}

		start := m.currentPage * m.tasksPerPage
		end := min(start+m.tasksPerPage, len(m.tasks))

		for i := start; i < end; i++ {
			task := m.tasks[i]

			title := truncate(task.Title, titleWidth)
			status := lipgloss.NewStyle().
				Foreground(statusColor(task.Status)).
				Render(fmt.Sprintf("%s %s", statusIcon(task.Status), task.Status))

			row := fmt.Sprintf("%-*s %s", titleWidth, title, status)
			if i == m.selectedTask {
				b.WriteString(lipgloss.NewStyle().
					Foreground(lipgloss.Color(ColorPrimaryText)).
					Background(lipgloss.Color(ColorCardBackground)).
					Bold(true).
					Render("▶ " + row))
			} else {
				b.WriteString("  " + row)
			}
			b.WriteString("\n")
		}

		if m.pageCount() > 1 {
			pageInfo := fmt.Sprintf("Page %d/%d (%d tasks)", m.currentPage+1, m.pageCount(), len(m.tasks))
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorHelpText)).
				MarginTop(1).
				Render(pageInfo))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Width(width).
		Render(b.String())
}

// renderTaskCard renders the right panel with the selected task
func (m DashboardModel) renderTaskCard(width int) string {
	var b strings.Builder

	task, ok := m.selected()
	if !ok {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText)).
			Italic(true).
			Render("Select a task to view details"))
	} else {
		b.WriteString(lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorPrimaryText)).
			Width(width - 2).
			Render(task.Title))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText)).
			Width(width - 2).
			Render(task.Description))
		b.WriteString("\n\n")

		b.WriteString("Status: ")
		b.WriteString(lipgloss.NewStyle().Foreground(statusColor(task.Status)).Bold(true).Render(task.Status.Label()))
		b.WriteString("\n")
		b.WriteString("Created At: " + formatTimestamp(task.CreatedAt) + "\n")
		b.WriteString("Updated At: " + formatTimestamp(task.UpdatedAt))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(0, 1).
		Width(width).
		Render(b.String())
}

func (m DashboardModel) renderConfirm() string {
	title := ""
	for _, t := range m.tasks {
		if t.ID == m.deleteID {
			title = t.Title
			break
		}
	}

	var b strings.Builder
	b.WriteString("Are you sure you want to delete this task?\n")
	if title != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true).Render(title))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorInfo)).Bold(true).Render("[y] Yes"))
	b.WriteString("   ")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Bold(true).Render("[n] No"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorError)).
		Padding(1, 3).
		Render(b.String())
}

// renderHelpBar renders the help bar with hotkey hints
func (m DashboardModel) renderHelpBar() string {
	helpText := "↑/↓ nav · ←/→ page · n new · e edit · d delete · r refresh · L logout · q quit"
	if m.refreshing {
		helpText = "Refreshing..."
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width).
		Render(helpText)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02 Jan 2006, 15:04:05")
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
