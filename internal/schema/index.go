package schema

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/validate"
)

// CreateIndex is CREATE INDEX.
type CreateIndex struct {
	name        string
	schema      string
	table       string
	columns     []string
	unique      bool
	ifNotExists bool
	where       string
}

// NewIndex starts a CREATE INDEX name ON table(columns) in DefaultSchema.
func NewIndex(name, table string, columns ...string) CreateIndex {
	return CreateIndex{
		name:    name,
		schema:  DefaultSchema,
		table:   table,
		columns: slices.Clone(columns),
	}
}

func (CreateIndex) isChange() {}

// Name returns the index name.
func (i CreateIndex) Name() string { return i.name }

// Table returns the indexed table.
func (i CreateIndex) Table() string { return i.table }

// InSchema sets the schema of the index and its table.
func (i CreateIndex) InSchema(schema string) CreateIndex {
	i.schema = schema
	return i
}

// Unique makes the index UNIQUE.
func (i CreateIndex) Unique() CreateIndex {
	i.unique = true
	return i
}

// IfNotExists adds IF NOT EXISTS.
func (i CreateIndex) IfNotExists() CreateIndex {
	i.ifNotExists = true
	return i
}

// Where makes a partial index. expr is spliced verbatim.
func (i CreateIndex) Where(expr string) CreateIndex {
	i.where = expr
	return i
}

// Append renders the statement. SQLite qualifies the index name, not the
// table.
func (i CreateIndex) Append(b *sqlbuild.Builder) {
	b.Append("CREATE")
	if i.unique {
		b.Append("UNIQUE")
	}
	b.Append("INDEX")
	if i.ifNotExists {
		b.Append("IF NOT EXISTS")
	}
	b.Append(qualify(i.schema, i.name), "ON", sqlbuild.Quote(i.table), "("+sqlbuild.QuoteList(i.columns)+")")
	if i.where != "" {
		b.Append("WHERE", i.where)
	}
}

// Apply executes the statement.
func (i CreateIndex) Apply(ctx context.Context, ex sqlbuild.Executor) error {
	return apply(ctx, ex, i)
}

// Describe implements Change.
func (i CreateIndex) Describe() string {
	return fmt.Sprintf("create index %s", sqlbuild.Quote(i.name))
}

// Validate implements Change.
func (i CreateIndex) Validate(v validate.Validation) {
	v = v.With(validate.Index(i.name))
	if strings.TrimSpace(i.name) == "" {
		v.Error(validate.EmptyIndexName)
	}
	checkTableName(v, i.table)
	checkSchemaName(v, i.schema)

	if len(i.columns) == 0 {
		v.Error(validate.IndexNoColumns)
	}
	seen := make(map[string]bool, len(i.columns))
	for n, c := range i.columns {
		switch {
		case strings.TrimSpace(c) == "":
			v.Error(validate.EmptyColumnName, validate.InfoColumnIndex, validate.Position(n))
		case seen[c]:
			v.Error(validate.DuplicateKeyColumn,
				validate.InfoColumnIndex, validate.Position(n),
				validate.InfoColumn, c)
		}
		seen[c] = true
	}
}

// DropIndex is DROP INDEX.
type DropIndex struct {
	name     string
	schema   string
	ifExists bool
}

// DropIndexNamed starts a DROP INDEX for name in DefaultSchema.
func DropIndexNamed(name string) DropIndex {
	return DropIndex{name: name, schema: DefaultSchema}
}

func (DropIndex) isChange() {}

// InSchema sets the schema.
func (d DropIndex) InSchema(schema string) DropIndex {
	d.schema = schema
	return d
}

// IfExists adds IF EXISTS.
func (d DropIndex) IfExists() DropIndex {
	d.ifExists = true
	return d
}

// Append renders the statement.
func (d DropIndex) Append(b *sqlbuild.Builder) {
	b.Append("DROP INDEX")
	if d.ifExists {
		b.Append("IF EXISTS")
	}
	b.Append(qualify(d.schema, d.name))
}

// Apply executes the statement.
func (d DropIndex) Apply(ctx context.Context, ex sqlbuild.Executor) error {
	return apply(ctx, ex, d)
}

// Describe implements Change.
func (d DropIndex) Describe() string {
	return fmt.Sprintf("drop index %s", sqlbuild.Quote(d.name))
}

// Validate implements Change.
func (d DropIndex) Validate(v validate.Validation) {
	v = v.With(validate.Index(d.name)).With(validate.Operation("drop index"))
	if strings.TrimSpace(d.name) == "" {
		v.Error(validate.EmptyIndexName)
	}
	checkSchemaName(v, d.schema)
}
