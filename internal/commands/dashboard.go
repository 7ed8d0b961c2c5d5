package commands

import (
	"github.com/spf13/cobra"

	"github.com/balkashynov/taskdash/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"ui"},
	Short:   "Open the interactive dashboard",
	Long: `Open the full screen client.

Starts on the dashboard when a session token is stored, on the login
screen otherwise.

Quick actions:
  ↑/↓ j/k       Navigate tasks
  ←/→ h/l       Change page
  n             New task
  e / enter     Edit selected task
  d             Delete selected task
  r             Refresh
  L             Logout
  q / esc       Quit`,
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		app := tuiApp(e)
		return tui.RunApp(app, app.StartRoute())
	}),
}
