package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/balkashynov/taskdash/internal/api"
	"github.com/balkashynov/taskdash/internal/tui"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	Long: `Sign in to the task API.

Without --email the login screen opens and continues to the dashboard.
With --email the password is taken from --password or read from stdin.

Usage:
  taskdash login
  taskdash login --email me@example.com --password secret
  echo secret | taskdash login --email me@example.com --password-stdin`,
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			return tui.RunApp(tuiApp(e), tui.RouteLogin)
		}

		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		res, err := e.client.Login(cmd.Context(), email, password)
		if err != nil {
			return authFailure(err)
		}
		if err := e.session.Save(res.Token); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		fmt.Fprintf(stdout(), "✅ Logged in as %s\n", email)
		return nil
	}),
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account on the task API.

Without --email the register screen opens and continues to login.`,
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			return tui.RunApp(tuiApp(e), tui.RouteRegister)
		}

		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		if _, err := e.client.Register(cmd.Context(), email, password); err != nil {
			return authFailure(err)
		}

		fmt.Fprintln(stdout(), "✅ Congratulations! your account has been registered successfully.")
		fmt.Fprintln(stdout(), "Run 'taskdash login' to sign in.")
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session token",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		e.session.Clear()
		fmt.Fprintln(stdout(), "👋 Logged out.")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show who the stored token belongs to",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		token := e.session.Token()
		if token == "" {
			fmt.Fprintln(stdout(), "Not logged in.")
			return nil
		}

		fmt.Fprintf(stdout(), "Server:  %s\n", e.cfg.BaseURL)
		fmt.Fprintf(stdout(), "Account: %s\n", tokenSubject(token))
		return nil
	}),
}

// tokenSubject reads the email (or subject) claim without verifying the
// signature; the API is the one that checks it.
func tokenSubject(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "unknown"
	}
	if email, ok := claims["email"].(string); ok && email != "" {
		return email
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub
	}
	return "unknown"
}

// authFailure turns a refused login/register into the message the server gave
func authFailure(err error) error {
	if re, ok := api.IsRejected(err); ok {
		fmt.Fprintf(stdout(), "❌ Oops! %s\n", re.Message)
		return re
	}
	return err
}

func readPassword(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	fromStdin, _ := cmd.Flags().GetBool("password-stdin")

	if password != "" && fromStdin {
		return "", errors.New("--password and --password-stdin are mutually exclusive")
	}
	if fromStdin || password == "" {
		return readLine(cmd.InOrStdin())
	}
	return password, nil
}

func readLine(r io.Reader) (string, error) {
	if r == os.Stdin {
		fmt.Fprint(os.Stderr, "Password: ")
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password must not be empty")
	}
	return line, nil
}

func tuiApp(e *env) tui.App {
	return tui.App{
		Auth:          e.client,
		Session:       e.session,
		NewController: e.controller,
		Timeout:       e.cfg.RequestTimeout * 3,
	}
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().String("email", "", "account email")
		c.Flags().String("password", "", "account password")
		c.Flags().Bool("password-stdin", false, "read the password from stdin")
	}
}
