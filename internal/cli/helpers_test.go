package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/strata/internal/migrate"
	"github.com/roach88/strata/internal/testutil"
)

const libraryManifest = `changesets:
  - id: init
    changes:
      - create_table:
          name: author
          columns:
            - {name: id, type: integer, primary_key: true}
            - {name: name, type: text}
      - create_index: {name: author_name, table: author, columns: [name], unique: true}
  - id: books
    changes:
      - create_table:
          name: book
          columns:
            - {name: id, type: integer, primary_key: true}
            - {name: author_id, type: integer, references: {table: author, column: id, on_delete: cascade}}
            - {name: title, type: text, optional: true}
  - id: touch
    always_run: true
    changes:
      - sql: "UPDATE author SET name = name"
`

const invalidManifest = `changesets:
  - id: broken
    changes:
      - create_table:
          name: t
          columns:
            - {name: a, type: integer}
            - {name: a, type: text}
`

// workspace moves the test into an empty directory that stops config
// discovery, and returns it.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// decode unmarshals a JSON response whose data is decoded into data.
func decode(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data), string(raw.Data))
	}
	return CLIResponse{Status: raw.Status, Data: data, Error: raw.Error}
}

// migrated returns a database with libraryManifest applied.
func migrated(t *testing.T, dir string) (db, manifest string) {
	t.Helper()
	manifest = writeFile(t, dir, "schema.yaml", libraryManifest)
	db = filepath.Join(dir, "app.db")
	_, _, err := execute(t, "migrate", manifest, "--db", db)
	require.NoError(t, err)
	return db, manifest
}

// seed creates the database at path with statements applied and closes it.
func seed(t *testing.T, path string, statements ...string) {
	t.Helper()
	db := testutil.OpenDBAt(t, path)
	testutil.Exec(t, db, statements...)
	require.NoError(t, db.Close())
}

func readLog(t *testing.T, path string) []migrate.LogEntry {
	t.Helper()
	db := testutil.OpenDBAt(t, path)
	entries, err := migrate.ReadLog(context.Background(), db)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	return entries
}
