package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/taskdash/internal/config"
	"github.com/balkashynov/taskdash/internal/devserver"
	"github.com/balkashynov/taskdash/internal/logging"
)

var serveDevCmd = &cobra.Command{
	Use:   "serve-dev",
	Short: "Run an in-memory task API for local development",
	Long: `Run an in-memory implementation of the task API.

Accounts and tasks live only as long as the process. Seed accounts with
--user email:password (repeatable).

Usage:
  taskdash serve-dev
  taskdash serve-dev --addr :4000 --user demo@example.com:demo`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.DevServer.Addr
		}

		// the server owns the terminal, so its log goes to stderr
		logger := logging.New(os.Stderr, cfg.Log.Level)
		srv := devserver.New(cfg.DevServer.JWTSecret, cfg.DevServer.TokenTTL, devserver.WithLogger(logger))

		users, _ := cmd.Flags().GetStringArray("user")
		for _, u := range users {
			email, password, ok := strings.Cut(u, ":")
			if !ok || email == "" || password == "" {
				return fmt.Errorf("invalid --user %q, expected email:password", u)
			}
			if err := srv.AddUser(email, password); err != nil {
				return fmt.Errorf("seed user %s: %w", email, err)
			}
			fmt.Fprintf(stdout(), "👤 Seeded %s\n", email)
		}

		fmt.Fprintf(stdout(), "🚀 Task API listening on %s (Ctrl+C to stop)\n", addr)
		return srv.Run(cmd.Context(), addr)
	},
}

func init() {
	serveDevCmd.Flags().String("addr", "", "listen address (default from config, :3000)")
	serveDevCmd.Flags().StringArray("user", nil, "seed an account as email:password")
}
