package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/isdelr/datingapp-be/internal/api"
	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/database"
	"github.com/isdelr/datingapp-be/internal/services"
	"github.com/isdelr/datingapp-be/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	signing, err := auth.NewSigningConfig([]byte("cli test signing key"), "datingapp", auth.DefaultTokenTTL)
	require.NoError(t, err)

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	events := services.NewEventService(db, hub)
	users := services.NewUserService(services.NewSQLCredentialStore(db), auth.HashParams{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32}, events)
	require.NoError(t, users.EnsureAdmin(ctx, "admin", "admin-password"))

	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Guard:         auth.NewGuard(auth.NewValidator(signing), nil),
		Issuer:        auth.NewIssuer(signing),
		Users:         users,
		Photos:        services.NewPhotoService(db, nil, events),
		Events:        events,
		Hub:           hub,
		DB:            db,
		RatePerSecond: 1000,
		RateBurst:     1000,
	}))
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	t       *testing.T
	apiURL  string
	session string
}

func (h *harness) run(password string, args ...string) (int, string, string) {
	h.t.Helper()
	readPassword = func() ([]byte, error) { return []byte(password), nil }

	var stdout, stderr bytes.Buffer
	full := append([]string{"-api", h.apiURL + "/api", "-session", h.session}, args...)
	code := run(context.Background(), full, strings.NewReader("Alice\n"), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLIFlow(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	h := &harness{t: t, apiURL: newBackend(t).URL, session: filepath.Join(t.TempDir(), "session")}

	code, out, _ := h.run("password", "register")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Registered alice")

	code, _, errOut := h.run("password", "register")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "username already exists")

	code, _, errOut = h.run("nope", "login")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid username or password")

	code, _, errOut = h.run("", "whoami")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not logged in")

	code, out, _ = h.run("password", "login")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Logged in as alice")

	code, out, _ = h.run("", "whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "roles=Member")

	code, out, errOut = h.run("", "open", "members")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Members (page 1 of 1, 1 total)")
	assert.Contains(t, out, "admin")
	assert.Empty(t, errOut)

	code, out, errOut = h.run("", "open", "admin")
	require.Equal(t, 0, code)
	assert.Contains(t, errOut, "You are not authorized to access this area")
	assert.Contains(t, out, "Home")

	code, out, _ = h.run("", "open", "member/edit")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "alice (")

	code, _, _ = h.run("", "logout")
	require.Equal(t, 0, code)

	code, out, errOut = h.run("", "open", "members")
	require.Equal(t, 0, code)
	assert.Contains(t, errOut, "log in")
	assert.Contains(t, out, "Home")
}

func TestCLIUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), nil, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: datingctl")

	stderr.Reset()
	assert.Equal(t, 2, run(context.Background(), []string{"frobnicate"}, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "frobnicate"`)
}
