package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help",
	Short: "Show comprehensive help for taskdash",
	Long:  `Display detailed help for all taskdash commands and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			if sub, _, err := rootCmd.Find(args); err == nil && sub != rootCmd {
				sub.Help()
				return
			}
		}
		showCustomHelp()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(stdout(), "taskdash %s (commit %s, built %s)\n", version, commit, date)
	},
}

func showCustomHelp() {
	fmt.Fprint(stdout(), `
taskdash - terminal client for your task API

COMMANDS:

  login                   Sign in (opens the login screen without --email)
    --email               Account email
    --password            Account password
    --password-stdin      Read the password from stdin

  register                Create an account (same flags as login)
  logout                  Remove the stored session token
  whoami                  Show the account of the stored token

  dashboard               Open the interactive dashboard (alias: ui)

    Quick actions:
      ↑/↓           Navigate tasks
      n             New task
      e             Edit selected task
      d             Delete selected task
      r             Refresh
      L             Logout
      esc/q         Quit

  ls                      List tasks
    -s, --status          Filter by status: pending|in_progress|done
    --json                JSON output

  add <title>             Create a new task with smart parsing
    -d, --description     Task description
    -s, --status          Task status
    --no-ui               Never open the form

    Smart syntax:
      +status       Set status (pending, wip, done, ...)
      // text       Description

    Example:
      taskdash add "Write report +wip // numbers for Q3"

  edit <id>               Edit an existing task (form, or -t/-d/-s)
  done <id>               Mark task as done
  undone <id>             Mark task as pending
  rm <id>                 Delete a task
    -y, --yes             Skip the confirmation

  serve-dev               Run an in-memory task API
    --addr                Listen address
    --user                Seed an account (email:password)

  config init             Write the default config file
  config show             Print the effective configuration
  version                 Print version information
  help                    Show this help

GLOBAL FLAGS:
  --config                Config file (default ~/.taskdash/config.yaml)
  --base-url              Task API base URL

Task IDs may be shortened to any unique prefix.

`)
}
