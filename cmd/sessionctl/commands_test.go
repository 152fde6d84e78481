package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/visitor-session/internal/config"
	"github.com/jrsteele09/visitor-session/mockapi"
	"github.com/jrsteele09/visitor-session/users"
	fakeuserrepo "github.com/jrsteele09/visitor-session/users/repofake"
)

type testFixture struct {
	sessionFile string
	metricsFile string
}

// setupTestFixture points sessionctl at an in-process mock API and a temp session file.
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	logger := log.Logger
	log.Logger = zerolog.Nop()
	t.Cleanup(func() { log.Logger = logger })

	repo := fakeuserrepo.NewFakeUserRepo()
	require.NoError(t, mockapi.SeedDemoAccounts(repo, time.Now()))
	backend, err := mockapi.NewBackend(repo, "test-secret", time.Hour)
	require.NoError(t, err)
	api, err := mockapi.New(config.New(), backend, mockapi.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	f := &testFixture{
		sessionFile: filepath.Join(dir, "session.json"),
		metricsFile: filepath.Join(dir, "session.prom"),
	}
	t.Setenv("SESSION_STORE", config.StoreFile)
	t.Setenv("SESSION_FILE", f.sessionFile)
	t.Setenv("AUTH_PROVIDER", config.AuthProviderAPI)
	t.Setenv("DASHBOARD_API_URL", srv.URL)
	t.Setenv("LOGOUT_REDIRECT_DELAY", "10ms")
	t.Setenv("SESSION_METRICS_TEXTFILE", f.metricsFile)
	return f
}

func (f *testFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), config.New(), args, &out)
	return out.String(), err
}

func TestSessionLifecycle(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, "whoami")
	require.ErrorIs(t, err, errCommandFailed)
	require.Equal(t, "not logged in\n", out)

	out, err = f.run(t, "login", "-email", "frontdesk@school.com", "-password", "frontdesk123")
	require.NoError(t, err)
	var u users.User
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	require.Equal(t, users.RoleFrontDesk, u.Role)

	// a new invocation revalidates the persisted session and keeps it
	out, err = f.run(t, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, `"email": "frontdesk@school.com"`)

	out, err = f.run(t, "can", "-role", "admin,frontdesk")
	require.NoError(t, err)
	require.Equal(t, "allowed\n", out)

	out, err = f.run(t, "can", "-role", "security")
	require.ErrorIs(t, err, errCommandFailed)
	require.Equal(t, "denied\n", out)

	out, err = f.run(t, "update-profile", "-phone", "555-0000")
	require.NoError(t, err)
	require.Contains(t, out, `"phone": "555-0000"`)

	out, err = f.run(t, "logout")
	require.NoError(t, err)
	require.Equal(t, "logged out\n", out)

	raw, err := os.ReadFile(f.sessionFile)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(raw))

	metrics, err := os.ReadFile(f.metricsFile)
	require.NoError(t, err)
	require.Contains(t, string(metrics), `visitor_session_events_total{kind="logged_out"} 1`)
}

func TestLoginRejected(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.run(t, "login", "-email", "admin@school.com", "-password", "nope")
	require.ErrorIs(t, err, errCommandFailed)

	_, err = f.run(t, "whoami")
	require.ErrorIs(t, err, errCommandFailed)
}

func TestUsageErrors(t *testing.T) {
	f := setupTestFixture(t)

	for _, args := range [][]string{
		{"dance"},
		{"login", "-email", "admin@school.com"},
		{"update-profile"},
		{"login", "-bogus"},
	} {
		_, err := f.run(t, args...)
		require.ErrorIs(t, err, errUsage, "%v", args)
	}

	_, err := f.run(t, "can", "-role", "janitor")
	require.Error(t, err)
}

func TestCorruptSessionFile(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, os.WriteFile(f.sessionFile, []byte("{truncated"), 0o600))

	out, err := f.run(t, "whoami")
	require.ErrorIs(t, err, errCommandFailed)
	require.Equal(t, "not logged in\n", out)

	_, err = f.run(t, "login", "-email", "admin@school.com", "-password", "admin123")
	require.NoError(t, err)
}

func TestUnknownBackends(t *testing.T) {
	setupTestFixture(t)

	t.Setenv("SESSION_STORE", "floppy")
	err := run(context.Background(), config.New(), []string{"whoami"}, &bytes.Buffer{})
	require.ErrorContains(t, err, "floppy")

	t.Setenv("SESSION_STORE", config.StoreMemory)
	t.Setenv("AUTH_PROVIDER", "carrier-pigeon")
	err = run(context.Background(), config.New(), []string{"whoami"}, &bytes.Buffer{})
	require.ErrorContains(t, err, "carrier-pigeon")
}

func TestPatchFromFlags(t *testing.T) {
	fs := flag.NewFlagSet("update-profile", flag.ContinueOnError)
	fs.String("first-name", "", "")
	fs.String("last-name", "", "")
	fs.String("phone", "", "")
	fs.String("avatar", "", "")
	require.NoError(t, fs.Parse([]string{"-first-name", "Sam", "-avatar", ""}))

	patch := patchFromFlags(fs)
	require.Equal(t, "Sam", *patch.FirstName)
	require.Equal(t, "", *patch.Avatar)
	require.Nil(t, patch.LastName)
	require.Nil(t, patch.Phone)
}

func TestParseRoles(t *testing.T) {
	roles, err := parseRoles("admin, Security,")
	require.NoError(t, err)
	require.Equal(t, []users.RoleType{users.RoleAdmin, users.RoleSecurity}, roles)

	roles, err = parseRoles("")
	require.NoError(t, err)
	require.Empty(t, roles)

	_, err = parseRoles("admin,janitor")
	require.Error(t, err)
}
