package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// createTestDB opens a fresh file-backed database that is closed when the
// test ends.
func createTestDB(t *testing.T, opts ...Option) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func mustExec(t *testing.T, d *DB, query string, args ...any) {
	t.Helper()
	_, err := d.ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}

func countRows(t *testing.T, d *DB, table string) int {
	t.Helper()
	var n int
	err := d.Query(context.Background(), "SELECT COUNT(*) FROM "+table, nil, func(rows *sql.Rows) error {
		return rows.Scan(&n)
	})
	require.NoError(t, err)
	return n
}
