package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/balkashynov/taskdash/internal/api"
	"github.com/balkashynov/taskdash/internal/config"
	"github.com/balkashynov/taskdash/internal/controller"
	"github.com/balkashynov/taskdash/internal/db"
	"github.com/balkashynov/taskdash/internal/logging"
	"github.com/balkashynov/taskdash/internal/session"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile     string
	baseURLFlag string
)

var errNotLoggedIn = errors.New("not logged in, run 'taskdash login' first")

var rootCmd = &cobra.Command{
	Use:   "taskdash",
	Short: "A terminal client for your task API",
	Long: `taskdash signs you in to a task API and lets you manage your tasks
from the terminal, either through the dashboard or with one-shot commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// env is everything a command needs to talk to the API
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *gorm.DB
	session *session.Session
	client  *api.Client
	closers []io.Closer
}

// setup loads config and opens the log file and the cookie database
func setup() (*env, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if baseURLFlag != "" {
		cfg.BaseURL = strings.TrimRight(baseURLFlag, "/")
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, logCloser, err := logging.Open(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	conn, err := db.Open(cfg.DatabasePath())
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	sess := session.New(db.NewCookieJar(conn), logger)
	client := api.NewClient(cfg.BaseURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(logger),
	)

	return &env{
		cfg:     cfg,
		logger:  logger,
		db:      conn,
		session: sess,
		client:  client,
		closers: []io.Closer{logCloser},
	}, nil
}

// controller builds a task controller reporting to n
func (e *env) controller(n controller.Notifier) *controller.Controller {
	return controller.New(e.client, e.session, n, e.logger, controller.Options{
		NotifyAllErrors: e.cfg.UI.NotifyAllErrors,
		GuardInFlight:   e.cfg.UI.GuardInFlight,
	})
}

func (e *env) close() {
	if err := db.Close(e.db); err != nil {
		e.logger.Warn("failed to close database", "error", err)
	}
	for _, c := range e.closers {
		c.Close()
	}
}

// withEnv wraps a command function to set up the environment first
func withEnv(fn func(*cobra.Command, []string, *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()
		return fn(cmd, args, e)
	}
}

// mountList loads the task list for a one-shot command
func mountList(cmd *cobra.Command, e *env, n controller.Notifier) (*controller.Controller, error) {
	ctrl := e.controller(n)
	if err := ctrl.Mount(cmd.Context()); err != nil {
		if errors.Is(err, controller.ErrLoggedOut) {
			return nil, errNotLoggedIn
		}
		return nil, err
	}
	if msg := ctrl.LastError(); msg != "" {
		return nil, fmt.Errorf("fetching tasks: %s", msg)
	}
	return ctrl, nil
}

// requireLogin fails fast when there is no session token
func requireLogin(e *env) error {
	if e.session.Token() == "" {
		return errNotLoggedIn
	}
	return nil
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command; an interrupt cancels the command context
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func stdout() io.Writer {
	return rootCmd.OutOrStdout()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.taskdash/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "task API base URL (overrides config)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(undoneCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(serveDevCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.AddCommand(versionCmd)
}
