package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/database"
	"github.com/stretchr/testify/require"
)

var cheapHash = auth.HashParams{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}
