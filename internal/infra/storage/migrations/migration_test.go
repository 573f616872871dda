package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApplySQLiteMigrations(t *testing.T) {
	db := setupTestDB(t)
	runner := NewMigrationRunner(db, "sqlite")
	ctx := context.Background()

	n, err := runner.ApplyMigrations(ctx, GetSQLiteMigrations())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, table := range []string{"schema_migrations", "journal", "capture_timestamps"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table)
	}

	n, err = runner.ApplyMigrations(ctx, GetSQLiteMigrations())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMigrationStatus(t *testing.T) {
	db := setupTestDB(t)
	runner := NewMigrationRunner(db, "sqlite")
	ctx := context.Background()

	all := GetSQLiteMigrations()
	_, err := runner.ApplyMigrations(ctx, all[:1])
	require.NoError(t, err)

	status, err := runner.GetMigrationStatus(ctx, []Migration{all[1], all[0]})
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.Equal(t, "001", status[0].Version)
	assert.True(t, status[0].Applied)
	assert.False(t, status[1].Applied)
}

func TestFailedMigrationRollsBack(t *testing.T) {
	db := setupTestDB(t)
	runner := NewMigrationRunner(db, "sqlite")
	ctx := context.Background()

	broken := Migration{Version: "001", Description: "broken", UpSQL: "CREATE TABLE"}
	_, err := runner.ApplyMigrations(ctx, []Migration{broken})
	require.Error(t, err)

	applied, err := runner.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestUnsupportedDialect(t *testing.T) {
	err := NewMigrationRunner(setupTestDB(t), "mysql").EnsureMigrationTable(context.Background())
	assert.EqualError(t, err, "unsupported dialect: mysql")
}
