package migrate

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strata/internal/schema"
	"github.com/roach88/strata/internal/store"
	strtest "github.com/roach88/strata/internal/testutil"
	"github.com/roach88/strata/internal/value"
)

// columnsAt opens path, reads the columns of table and closes it again.
func columnsAt(t *testing.T, path, table string) []string {
	t.Helper()
	db, err := store.Open(path)
	require.NoError(t, err)
	defer db.Close()
	return strtest.Columns(t, db, table)
}

func seeded(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	_, err := MigrateFile(context.Background(), path, New(people()))
	require.NoError(t, err)
	return path
}

func TestMigrateFile_InPlace(t *testing.T) {
	path := seeded(t)

	steps, err := MigrateFile(context.Background(), path, New(people(), addAge()))
	require.NoError(t, err)
	assert.Equal(t, []StepKind{StepSkip, StepApply}, kinds(steps))
	assert.Equal(t, []string{"id", "name", "age"}, columnsAt(t, path, "people"))
}

func TestMigrateFileUsingTemp_Replaces(t *testing.T) {
	path := seeded(t)
	temp := filepath.Join(t.TempDir(), "scratch.db")

	_, err := MigrateFileUsingTemp(context.Background(), path, temp, New(people(), addAge()))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "age"}, columnsAt(t, path, "people"))
	assert.NoFileExists(t, temp)
}

func TestMigrateFileUsingTemp_FailureLeavesOriginal(t *testing.T) {
	path := seeded(t)
	temp := filepath.Join(t.TempDir(), "scratch.db")

	broken := schema.NewChangeSet("broken",
		schema.Alter("people").AddColumn(schema.NewColumn("age", value.Optional(value.Int64))),
		schema.ExecuteSQL("NOT SQL"),
	)
	_, err := MigrateFileUsingTemp(context.Background(), path, temp, New(people(), broken))
	require.Error(t, err)

	assert.Equal(t, []string{"id", "name"}, columnsAt(t, path, "people"))
	require.FileExists(t, temp)
	assert.Equal(t, []string{"id", "name", "age"}, columnsAt(t, temp, "people"))
}

func TestMigrateFileUsingTemp_ReplacesStaleScratch(t *testing.T) {
	path := seeded(t)
	temp := filepath.Join(t.TempDir(), "scratch.db")
	require.NoError(t, os.WriteFile(temp, []byte("leftover"), 0o600))

	_, err := MigrateFileUsingTemp(context.Background(), path, temp, New(people(), addAge()))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "age"}, columnsAt(t, path, "people"))
}

func TestDryRun_NeverReplaces(t *testing.T) {
	path := seeded(t)
	temp := filepath.Join(t.TempDir(), "scratch.db")

	steps, err := DryRun(context.Background(), path, temp, New(people(), addAge()))
	require.NoError(t, err)
	assert.Equal(t, []StepKind{StepSkip, StepApply}, kinds(steps))

	assert.Equal(t, []string{"id", "name"}, columnsAt(t, path, "people"))
	assert.NoFileExists(t, temp)

	db, err := store.Open(path)
	require.NoError(t, err)
	defer db.Close()
	log, err := ReadLog(context.Background(), db)
	require.NoError(t, err)
	assert.Len(t, log, 1)
}

func TestDryRun_FailureKeepsScratch(t *testing.T) {
	path := seeded(t)
	temp := filepath.Join(t.TempDir(), "scratch.db")

	_, err := DryRun(context.Background(), path, temp, New(changeSet("other")))
	require.Error(t, err)
	assert.True(t, IsOrderMismatch(err))
	assert.FileExists(t, temp)
}

// journalMode reads the journal mode recorded in the file at path without
// changing it.
func journalMode(t *testing.T, path string) string {
	t.Helper()
	db, err := store.Open(path, store.WithPragmas())
	require.NoError(t, err)
	defer db.Close()

	var mode string
	err = db.Query(context.Background(), "PRAGMA journal_mode", nil, func(rows *sql.Rows) error {
		return rows.Scan(&mode)
	})
	require.NoError(t, err)
	return mode
}

func TestCopyModes_LeaveSourceJournalMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := store.Open(path, store.WithPragmas("PRAGMA journal_mode = DELETE"))
	require.NoError(t, err)
	strtest.Exec(t, db, "CREATE TABLE keep (x INTEGER)")
	require.NoError(t, db.Close())
	require.Equal(t, "delete", journalMode(t, path))

	temp := filepath.Join(t.TempDir(), "scratch.db")
	_, err = DryRun(context.Background(), path, temp, New(people()))
	require.NoError(t, err)
	assert.Equal(t, "delete", journalMode(t, path))

	_, err = MigrateFileUsingTemp(context.Background(), path, temp, New(people(), schema.NewChangeSet("broken", schema.ExecuteSQL("NOT SQL"))))
	require.Error(t, err)
	assert.Equal(t, "delete", journalMode(t, path))
	assert.Equal(t, []string{"x"}, columnsAt(t, path, "keep"))
}

func TestCopyModes_MissingSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.db")
	temp := filepath.Join(dir, "scratch.db")

	_, err := DryRun(context.Background(), path, temp, New(people()))
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.NoFileExists(t, path)

	_, err = MigrateFileUsingTemp(context.Background(), path, temp, New(people()))
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, temp)
}
