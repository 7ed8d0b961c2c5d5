package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/taskdash/internal/controller"
)

// toastDuration is how long a toast stays on screen
const toastDuration = 3 * time.Second

type toastExpiredMsg struct{ id int }

// toast shows one notification at a time; a newer one replaces the older
type toast struct {
	current *controller.Notification
	id      int
}

// show displays n and schedules its removal
func (t *toast) show(n controller.Notification) tea.Cmd {
	t.id++
	t.current = &n
	id := t.id
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// expire clears the toast if msg belongs to the one on screen
func (t *toast) expire(msg toastExpiredMsg) {
	if msg.id == t.id {
		t.current = nil
	}
}

// showAll displays the last of ns; earlier ones were already superseded
func (t *toast) showAll(ns []controller.Notification) tea.Cmd {
	if len(ns) == 0 {
		return nil
	}
	return t.show(ns[len(ns)-1])
}

func (t toast) view(width int) string {
	if t.current == nil {
		return ""
	}

	color, icon := ColorSuccess, "✅"
	if t.current.Level == controller.LevelFailure {
		color, icon = ColorError, "❌"
	}

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(color)).
		Padding(0, 2)

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(icon+" "+t.current.Message))
}
