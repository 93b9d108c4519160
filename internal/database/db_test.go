// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database_test

import (
	"os"
	"testing"

	"codeberg.org/cyberguard-ng/cyberguard/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_InMemory(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, ":memory:")

	require.NoError(t, err)
	require.NotNil(t, db)

	err = db.Close()
	require.NoError(t, err)
}

func TestOpen_DefaultDSN(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	_ = os.Chdir(tmpDir)
	defer func() {
		_ = os.Chdir(oldWd)
	}()

	db, err := database.Open("", "")

	require.NoError(t, err)
	require.NotNil(t, db)

	defer func() {
		_ = db.Close()
	}()
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := database.Open("oracle", "whatever")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpenPostgres_RequiresDSN(t *testing.T) {
	_, err := database.Open(database.DriverPostgres, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres DSN is required")
}

func TestOpen_MigrationsApplied(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	for _, table := range []string{"users", "sessions", "otps", "reset_tokens", "payments"} {
		var count int64
		err = db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", table)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, table)
	}

	version, err := database.MigrationVersion(db.DB, database.DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)
}

func TestMigrateDownAndReset(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	require.NoError(t, database.MigrateDown(db.DB, database.DriverSQLite))

	var count int64
	err = db.Get(&count, "SELECT count(*) FROM pragma_table_info('otps') WHERE name='attempts'")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, database.MigrateDown(db.DB, database.DriverSQLite))
	err = db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name='payments'")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, database.MigrateReset(db.DB, database.DriverSQLite))

	err = db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name='users'")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestOpen_WithExistingParams(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, ":memory:?cache=shared")

	require.NoError(t, err)
	require.NotNil(t, db)

	defer func() {
		_ = db.Close()
	}()
}

func TestOpen_PragmasApplied(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	var journalMode string
	err = db.Get(&journalMode, "PRAGMA journal_mode")
	require.NoError(t, err)
	// In memory mode, WAL might not be applied, but this shouldn't error
	assert.NotEmpty(t, journalMode)

	var synchronous int
	err = db.Get(&synchronous, "PRAGMA synchronous")
	require.NoError(t, err)
	assert.NotZero(t, synchronous)
}

func TestOpen_FileDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := tmpDir + "/subdir/test.db"

	db, err := database.Open(database.DriverSQLite, dbPath)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	var count int64
	err = db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name='users'")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestConnect_LeavesSchemaAlone(t *testing.T) {
	db, err := database.Connect(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	var count int64
	err = db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name='users'")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, database.RunMigrations(db.DB, database.DriverSQLite))
	require.NoError(t, database.MigrateStatus(db.DB, database.DriverSQLite))
}
