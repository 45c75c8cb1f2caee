package db

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazuma11121125/rt-bot/db"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunMigrateUnknownCommand(t *testing.T) {
	err := RunMigrate(nil, "unused.db", nil, "invalid", nil)
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRunMigrateForceRequiresVersion(t *testing.T) {
	err := RunMigrate(nil, "unused.db", nil, "force", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version number")
}

func TestRunMigrateUpAndDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rtbot.db")
	log := discardLogger()

	require.NoError(t, RunMigrate(log, path, db.Migrations(), "up", nil))
	// A second up is a no-op.
	require.NoError(t, RunMigrate(log, path, db.Migrations(), "up", nil))
	require.NoError(t, RunMigrate(log, path, db.Migrations(), "version", nil))

	sqlDB, err := Open(context.Background(), path)
	require.NoError(t, err)
	var name string
	err = sqlDB.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'channel_status'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "channel_status", name)
	require.NoError(t, sqlDB.Close())

	require.NoError(t, RunMigrate(log, path, db.Migrations(), "down", nil))

	sqlDB, err = Open(context.Background(), path)
	require.NoError(t, err)
	defer sqlDB.Close()
	var count int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'channel_status'`).Scan(&count))
	assert.Zero(t, count)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "data/rt.db?"+pragmas, DSN("data/./rt.db"))
}
