package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "test.db"),
		Profile: ProfileLedger,
		Name:    "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func TestNew_SQLiteMigrates(t *testing.T) {
	db := newTestDB(t)
	assert.Equal(t, DriverSQLite, db.Driver())

	for _, table := range []string{"securities", "observations", "acquisition_runs"} {
		var name string
		err := db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}

	// Running migrations twice is harmless
	require.NoError(t, db.Migrate())
	require.NoError(t, db.HealthCheck(context.Background()))
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(Config{Driver: "mysql", Name: "test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestNew_PostgresRequiresURL(t *testing.T) {
	_, err := New(Config{Driver: DriverPostgres, Name: "test"})
	require.Error(t, err)
}

func TestBuildConnectionString(t *testing.T) {
	connStr := buildConnectionString("/tmp/x.db", ProfileStandard)
	assert.Contains(t, connStr, "journal_mode(WAL)")
	assert.Contains(t, connStr, "busy_timeout(5000)")
	assert.Contains(t, connStr, "synchronous(NORMAL)")

	connStr = buildConnectionString("/tmp/x.db", ProfileLedger)
	assert.Contains(t, connStr, "synchronous(FULL)")
}

func TestRebind(t *testing.T) {
	tests := []struct {
		driver string
		in     string
		want   string
	}{
		{DriverSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{DriverPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{DriverPostgres, "SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
		{DriverPostgres, "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Rebind(tt.driver, tt.in))
	}
}

func TestWithTransaction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insert := func(tx *sql.Tx, symbol string) error {
		_, err := tx.Exec("INSERT INTO securities (symbol, name, created_at) VALUES (?, ?, 0)", symbol, symbol)
		return err
	}

	require.NoError(t, WithTransaction(ctx, db.Conn(), func(tx *sql.Tx) error {
		return insert(tx, "INFY")
	}))

	err := WithTransaction(ctx, db.Conn(), func(tx *sql.Tx) error {
		if err := insert(tx, "TCS"); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	err = WithTransaction(ctx, db.Conn(), func(tx *sql.Tx) error {
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM securities").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSnapshot(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Conn().Exec("INSERT INTO securities (symbol, name, created_at) VALUES ('ITC', 'ITC Ltd', 0)")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, db.Snapshot(context.Background(), dest))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	copyDB, err := New(Config{Path: dest, Name: "copy"})
	require.NoError(t, err)
	defer copyDB.Close()

	var symbol string
	require.NoError(t, copyDB.Conn().QueryRow("SELECT symbol FROM securities").Scan(&symbol))
	assert.Equal(t, "ITC", symbol)
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)
	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Positive(t, stats.PageCount)
	assert.Positive(t, stats.PageSize)
}
