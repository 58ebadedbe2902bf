package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strata/internal/migrate"
	"github.com/roach88/strata/internal/testutil"
	"github.com/roach88/strata/internal/validate"
)

func load(t *testing.T, path string) migrate.Migration {
	t.Helper()
	m, err := Load(path)
	require.NoError(t, err)
	mig, err := m.Migration()
	require.NoError(t, err)
	return mig
}

func statements(m migrate.Migration) [][]string {
	var out [][]string
	for _, cs := range m.ChangeSets() {
		out = append(out, cs.Statements())
	}
	return out
}

func TestLoad_YAMLAndCUEAgree(t *testing.T) {
	y := load(t, "testdata/library.yaml")
	c := load(t, "testdata/library.cue")

	assert.Equal(t, statements(y), statements(c))

	sets := y.ChangeSets()
	require.Len(t, sets, 3)
	assert.Equal(t, "init", sets[0].ID())
	assert.False(t, sets[0].IsAlwaysRun())
	assert.True(t, sets[2].IsAlwaysRun())
	for i := range sets {
		assert.Equal(t, migrate.Checksum(sets[i]), migrate.Checksum(c.ChangeSets()[i]))
	}
}

func TestLoad_Applies(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()

	m := load(t, "testdata/library.yaml")
	assert.False(t, validate.Run(m).HasErrors())

	steps, err := m.Apply(ctx, db)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, []string{"author_id", "seq", "title", "pages", "rating"}, testutil.Columns(t, db, "book"))
	assert.Equal(t, 1, testutil.Count(t, db, "author"))

	// Cascade from the column reference.
	testutil.Exec(t, db,
		`INSERT INTO book (author_id, seq, pages) VALUES (1, 1, 10)`,
		`DELETE FROM author`,
	)
	assert.Equal(t, 0, testutil.Count(t, db, "book"))
}

func TestParse_EmptyDocument(t *testing.T) {
	m, err := Parse("empty.yaml", nil, FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, m.ChangeSets)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		doc    string
		want   string
	}{
		{
			"unknown yaml key",
			FormatYAML,
			"changesets:\n  - id: a\n    changez: []\n",
			"field changez not found",
		},
		{
			"cue syntax",
			FormatCUE,
			`changesets: [`,
			"compile cue",
		},
		{
			"cue conflict",
			FormatCUE,
			`changesets: [{id: "a", changes: []}] & [{id: "b", changes: []}]`,
			"conflicting values",
		},
		{
			"cue incomplete",
			FormatCUE,
			`changesets: [{id: string, changes: []}]`,
			"validate cue",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("doc", []byte(tt.doc), tt.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMigration_ShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
		msg  string
	}{
		{
			"no operation",
			"changesets:\n  - id: a\n    changes:\n      - {}\n",
			"changesets[0].changes[0]",
			"no operation",
		},
		{
			"two operations",
			"changesets:\n  - id: a\n    changes:\n      - {sql: 'SELECT 1', drop_table: {name: t}}\n",
			"changesets[0].changes[0]",
			"more than one operation (drop_table, sql)",
		},
		{
			"unknown type",
			"changesets:\n  - id: a\n    changes:\n      - sql: 'SELECT 1'\n      - create_table: {name: t, columns: [{name: c, type: money}]}\n",
			"changesets[0].changes[1].create_table.columns[0].type",
			`unknown value kind "money"`,
		},
		{
			"unknown action",
			"changesets:\n  - id: a\n    changes:\n      - add_column: {table: t, column: {name: c, type: integer, references: {table: u, on_delete: explode}}}\n",
			"changesets[0].changes[0].add_column.column.references.on_delete",
			`unknown action "explode"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse("doc.yaml", []byte(tt.doc), FormatYAML)
			require.NoError(t, err)
			_, err = m.Migration()
			var me *Error
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.path, me.Path)
			assert.Equal(t, tt.msg, me.Message)
		})
	}
}

func TestParseAction(t *testing.T) {
	for in, want := range map[string]string{
		"":             "",
		"cascade":      "CASCADE",
		"set_null":     "SET NULL",
		"Set  Default": "SET DEFAULT",
		"NO ACTION":    "NO ACTION",
		"restrict":     "RESTRICT",
	} {
		got, err := parseAction("p", in)
		require.NoError(t, err, in)
		assert.Equal(t, want, string(got), in)
	}
}

func TestLoad_Extension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported manifest extension")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read manifest")

	f, err := FormatOf("a.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
}
