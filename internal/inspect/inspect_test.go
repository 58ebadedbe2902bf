package inspect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strata/internal/schema"
	"github.com/roach88/strata/internal/testutil"
	"github.com/roach88/strata/internal/value"
)

func TestTables_RoundTrip(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()

	require.NoError(t, schema.NewChangeSet("init",
		schema.NewTable("author",
			schema.NewColumn("id", value.Integer).PrimaryKey(),
			schema.NewColumn("name", value.Text),
		),
		schema.NewTable("book",
			schema.NewColumn("author_id", value.Integer).References("author", "id"),
			schema.NewColumn("seq", value.Integer),
			schema.NewColumn("title", value.Optional(value.String)),
			schema.NewColumn("kind", value.Text).Default("'novel'"),
		).Constraint(schema.TablePrimaryKey{Columns: []string{"author_id", "seq"}}),
		schema.NewIndex("book_title", "book", "title").Unique(),
	).Apply(ctx, db))

	tables, err := Tables(ctx, db)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "author", tables[0].Name)

	book := tables[1]
	assert.Equal(t, "book", book.Name)
	assert.Equal(t, []string{"author_id", "seq", "title", "kind"}, book.ColumnNames())
	assert.Equal(t, []string{"author_id", "seq"}, book.PrimaryKey)

	title, ok := book.Column("title")
	require.True(t, ok)
	assert.True(t, title.Nullable)
	assert.Equal(t, "TEXT", title.Type)
	assert.False(t, title.PrimaryKey)

	seq, ok := book.Column("seq")
	require.True(t, ok)
	assert.False(t, seq.Nullable)
	assert.True(t, seq.PrimaryKey)
	assert.Equal(t, "INTEGER", seq.Type)

	kind, _ := book.Column("kind")
	assert.Contains(t, kind.Default, "novel")

	_, ok = book.Column("missing")
	assert.False(t, ok)

	require.Len(t, book.Indexes, 1)
	assert.Equal(t, Index{Name: "book_title", Unique: true, Columns: []string{"title"}}, book.Indexes[0])

	require.Len(t, book.ForeignKeys, 1)
	assert.Equal(t, []string{"author_id"}, book.ForeignKeys[0].Columns)
	assert.Equal(t, "author", book.ForeignKeys[0].RefTable)
	assert.Equal(t, []string{"id"}, book.ForeignKeys[0].RefColumns)
}

func TestTables_Filter(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	testutil.Exec(t, db,
		`CREATE TABLE a (x INTEGER PRIMARY KEY AUTOINCREMENT)`,
		`CREATE TABLE b (y TEXT)`,
		`INSERT INTO a DEFAULT VALUES`,
	)

	tables, err := Tables(ctx, db)
	require.NoError(t, err)
	names := make([]string, len(tables))
	for i, tb := range tables {
		names[i] = tb.Name
	}
	// sqlite_sequence exists because of AUTOINCREMENT.
	assert.Equal(t, []string{"a", "b"}, names)

	b, err := Lookup(ctx, db, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, b.ColumnNames())

	_, err = Lookup(ctx, db, "nope")
	assert.ErrorContains(t, err, `table "nope" does not exist`)
}
