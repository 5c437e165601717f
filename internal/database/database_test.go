package database

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	lite := &DB{Driver: DriverSQLite}
	pg := &DB{Driver: DriverPostgres}

	q := "SELECT id FROM users WHERE username = ? AND id <> ?"
	assert.Equal(t, q, lite.Rebind(q))
	assert.Equal(t, "SELECT id FROM users WHERE username = $1 AND id <> $2", pg.Rebind(q))
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New("mysql", "whatever")
	require.Error(t, err)
}

func TestMigrate_CreatesSchema(t *testing.T) {
	db, err := New(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	// Idempotent.
	require.NoError(t, db.Migrate(context.Background()))

	for _, table := range []string{"users", "user_roles", "events", "photos"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db, err := New(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	insert := "INSERT INTO users (id, username, password_hash, password_salt, created_at, last_active) VALUES (?, ?, 'h', 's', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)"
	_, err = db.Exec(insert, "1", "alice")
	require.NoError(t, err)
	_, err = db.Exec(insert, "2", "alice")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestMigrate_LogsThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = orig })

	db, err := New(DriverSQLite, filepath.Join(t.TempDir(), "log.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"component":"migrations"`)
	assert.Contains(t, out, "00001_create_users.sql")
}
