package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/strata/internal/store"
)

// OpenDB opens a fresh file-backed database in t's temp dir and closes it
// when the test ends.
func OpenDB(t testing.TB, opts ...store.Option) *store.DB {
	t.Helper()
	return OpenDBAt(t, filepath.Join(t.TempDir(), "test.db"), opts...)
}

// OpenDBAt opens the database at path and closes it when the test ends.
func OpenDBAt(t testing.TB, path string, opts ...store.Option) *store.DB {
	t.Helper()
	db, err := store.Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// Exec runs statements in order, failing the test on the first error.
func Exec(t testing.TB, db *store.DB, statements ...string) {
	t.Helper()
	for _, s := range statements {
		_, err := db.ExecContext(context.Background(), s)
		require.NoError(t, err, s)
	}
}

// Columns returns the column names of table in declaration order.
func Columns(t testing.TB, db *store.DB, table string) []string {
	t.Helper()
	var cols []string
	err := db.Query(context.Background(), "SELECT name FROM pragma_table_info(?) ORDER BY cid", []any{table},
		func(rows *sql.Rows) error {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			cols = append(cols, name)
			return nil
		})
	require.NoError(t, err)
	return cols
}

// Count returns SELECT COUNT(*) FROM table.
func Count(t testing.TB, db *store.DB, table string) int {
	t.Helper()
	var n int
	err := db.Query(context.Background(), `SELECT COUNT(*) FROM "`+table+`"`, nil, func(rows *sql.Rows) error {
		return rows.Scan(&n)
	})
	require.NoError(t, err)
	return n
}
