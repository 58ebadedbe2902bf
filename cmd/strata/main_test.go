package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strata/internal/cli"
)

const manifest = `changesets:
  - id: init
    changes:
      - create_table:
          name: note
          columns:
            - {name: id, type: integer, primary_key: true}
            - {name: body, type: text}
`

func TestRunMigrate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	t.Chdir(dir)
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := run([]string{"strata", "--format", "json", "migrate", path, "--db", filepath.Join(dir, "app.db")}, stdout, stderr)
	require.Equal(t, cli.ExitSuccess, code, stderr.String())

	var resp cli.CLIResponse
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRunExitCodes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	t.Chdir(dir)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"help", []string{"strata", "--help"}, cli.ExitSuccess},
		{"unknown command", []string{"strata", "frobnicate"}, cli.ExitCommandError},
		{"missing manifest", []string{"strata", "validate", filepath.Join(dir, "nope.yaml")}, cli.ExitCommandError},
		{"bad format", []string{"strata", "--format", "xml", "validate", "x.yaml"}, cli.ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
			assert.Equal(t, tt.want, run(tt.args, stdout, stderr))
		})
	}
}

func TestRunReportsUnhandledErrors(t *testing.T) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := run([]string{"strata", "frobnicate"}, stdout, stderr)
	assert.Equal(t, cli.ExitCommandError, code)
	assert.Contains(t, stderr.String(), `unknown command "frobnicate"`)
}
