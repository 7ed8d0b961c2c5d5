package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/balkashynov/taskdash/internal/devserver"
	"github.com/balkashynov/taskdash/internal/logging"
)

func TestTokenSubject(t *testing.T) {
	withEmail, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "ann@example.com",
		"sub":   "u-1",
	}).SignedString([]byte("whatever"))
	require.NoError(t, err)

	subjectOnly, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-2",
	}).SignedString([]byte("whatever"))
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", tokenSubject(withEmail))
	assert.Equal(t, "u-2", tokenSubject(subjectOnly))
	assert.Equal(t, "unknown", tokenSubject("opaque-session-token"))
}

func TestReadLine(t *testing.T) {
	got, err := readLine(strings.NewReader("s3cret\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	got, err = readLine(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", got)

	_, err = readLine(strings.NewReader("\n"))
	assert.Error(t, err)
}

// run executes the root command with args and returns what it printed
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands_EndToEnd(t *testing.T) {
	srv := devserver.New("test-secret", time.Hour,
		devserver.WithBcryptCost(bcrypt.MinCost),
		devserver.WithLogger(logging.Discard()),
	)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfgYAML := fmt.Sprintf("base_url: %s\ndata_dir: %s\nlog:\n  file: %s\n", ts.URL, dir, filepath.Join(dir, "taskdash.log"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0644))
	t.Cleanup(func() {
		cfgFile = ""
		baseURLFlag = ""
	})

	out, err := run(t, "--config", cfgPath, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")

	out, err = run(t, "--config", cfgPath, "register", "--email", "ann@example.com", "--password", "s3cret")
	require.NoError(t, err)
	assert.Contains(t, out, "Congratulations! your account has been registered successfully.")

	out, err = run(t, "--config", cfgPath, "login", "--email", "ann@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, out, "Oops! Invalid credentials")

	out, err = run(t, "--config", cfgPath, "login", "--email", "ann@example.com", "--password", "s3cret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ann@example.com")

	out, err = run(t, "--config", cfgPath, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Account: ann@example.com")

	out, err = run(t, "--config", cfgPath, "add", "Buy milk +wip // 2 litres", "--no-ui")
	require.NoError(t, err)
	assert.Contains(t, out, "New task has been added successfully.")
	assert.Equal(t, 1, srv.Hits("POST /tasks"))
	assert.Equal(t, 1, srv.Hits("GET /tasks"), "add only fetches to resync")

	out, err = run(t, "--config", cfgPath, "add", "No description", "--no-ui")
	require.Error(t, err)
	assert.Contains(t, out, "Description is required")
	assert.Equal(t, 1, srv.Hits("POST /tasks"), "invalid drafts never reach the API")

	// a broken list does not block creating
	srv.FailNext("GET /tasks", 503)
	out, err = run(t, "--config", cfgPath, "add", "Call mum", "-d", "sunday", "-s", "todo", "--no-ui")
	require.NoError(t, err)
	assert.Contains(t, out, "New task has been added successfully.")
	assert.Contains(t, out, "⚠️")
	assert.Equal(t, 2, srv.Hits("POST /tasks"))

	out, err = run(t, "--config", cfgPath, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "in_progress")

	out, err = run(t, "--config", cfgPath, "ls", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Buy milk"`)

	out, err = run(t, "--config", cfgPath, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	_, err = run(t, "--config", cfgPath, "ls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	// an incomplete draft would open the form; the login check comes first
	_, err = run(t, "--config", cfgPath, "add", "Half a task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
	assert.Equal(t, 2, srv.Hits("POST /tasks"))
}
