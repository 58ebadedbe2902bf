package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/validate"
)

// AlterTable names the table an ALTER TABLE variant operates on.
type AlterTable struct {
	table  string
	schema string
}

// Alter starts an ALTER TABLE on table in DefaultSchema.
func Alter(table string) AlterTable {
	return AlterTable{table: table, schema: DefaultSchema}
}

// InSchema sets the schema.
func (a AlterTable) InSchema(schema string) AlterTable {
	a.schema = schema
	return a
}

// Table returns the table name.
func (a AlterTable) Table() string { return a.table }

// Schema returns the schema name.
func (a AlterTable) Schema() string { return a.schema }

// RenameTo renames the table.
func (a AlterTable) RenameTo(name string) RenameTable {
	return RenameTable{base: a, to: name}
}

// RenameColumn renames a column.
func (a AlterTable) RenameColumn(from, to string) RenameColumn {
	return RenameColumn{base: a, from: from, to: to}
}

// AddColumn adds a column.
func (a AlterTable) AddColumn(c Column) AddColumn {
	return AddColumn{base: a, column: c}
}

// DropColumn drops a column.
func (a AlterTable) DropColumn(name string) DropColumn {
	return DropColumn{base: a, column: name}
}

func (a AlterTable) prefix(b *sqlbuild.Builder) {
	b.Append("ALTER TABLE", qualify(a.schema, a.table))
}

// validate returns the Validation for an operation on the base table after
// checking the base names.
func (a AlterTable) validate(v validate.Validation, op string) validate.Validation {
	v = v.With(validate.Table(a.table))
	checkTableName(v, a.table)
	checkSchemaName(v, a.schema)
	return v.With(validate.Operation(op))
}

// RenameTable is ALTER TABLE ... RENAME TO.
type RenameTable struct {
	base AlterTable
	to   string
}

func (RenameTable) isChange() {}

// Base returns the altered table.
func (r RenameTable) Base() AlterTable { return r.base }

// To returns the new name.
func (r RenameTable) To() string { return r.to }

// Append renders the statement. The new name is never qualified.
func (r RenameTable) Append(b *sqlbuild.Builder) {
	r.base.prefix(b)
	b.Append("RENAME TO", sqlbuild.Quote(r.to))
}

// Apply executes the statement.
func (r RenameTable) Apply(ctx context.Context, ex sqlbuild.Executor) error {
	return apply(ctx, ex, r)
}

// Describe implements Change.
func (r RenameTable) Describe() string {
	return fmt.Sprintf("rename table %s to %s", sqlbuild.Quote(r.base.table), sqlbuild.Quote(r.to))
}

// Validate implements Change.
func (r RenameTable) Validate(v validate.Validation) {
	v = r.base.validate(v, "rename table")
	switch {
	case strings.TrimSpace(r.to) == "":
		v.Error(validate.EmptyNewName)
	case r.to == r.base.table:
		v.Warning(validate.RenameToSameName)
	case strings.HasPrefix(strings.ToLower(r.to), "sqlite_"):
		v.Error(validate.ReservedTableName)
	}
}

// RenameColumn is ALTER TABLE ... RENAME COLUMN.
type RenameColumn struct {
	base AlterTable
	from string
	to   string
}

func (RenameColumn) isChange() {}

// Base returns the altered table.
func (r RenameColumn) Base() AlterTable { return r.base }

// Append renders the statement.
func (r RenameColumn) Append(b *sqlbuild.Builder) {
	r.base.prefix(b)
	b.Append("RENAME COLUMN", sqlbuild.Quote(r.from), "TO", sqlbuild.Quote(r.to))
}

// Apply executes the statement.
func (r RenameColumn) Apply(ctx context.Context, ex sqlbuild.Executor) error {
	return apply(ctx, ex, r)
}

// Describe implements Change.
func (r RenameColumn) Describe() string {
	return fmt.Sprintf("rename column %s.%s to %s",
		sqlbuild.Quote(r.base.table), sqlbuild.Quote(r.from), sqlbuild.Quote(r.to))
}

// Validate implements Change.
func (r RenameColumn) Validate(v validate.Validation) {
	v = r.base.validate(v, "rename column").With(validate.Column(r.from))
	if strings.TrimSpace(r.from) == "" {
		v.Error(validate.EmptyColumnName)
	}
	switch {
	case strings.TrimSpace(r.to) == "":
		v.Error(validate.EmptyNewName)
	case r.to == r.from:
		v.Warning(validate.RenameToSameName)
	}
}

// AddColumn is ALTER TABLE ... ADD COLUMN.
type AddColumn struct {
	base   AlterTable
	column Column
}

func (AddColumn) isChange() {}

// Base returns the altered table.
func (a AddColumn) Base() AlterTable { return a.base }

// Column returns the added column.
func (a AddColumn) Column() Column { return a.column }

// Append renders the statement.
func (a AddColumn) Append(b *sqlbuild.Builder) {
	a.base.prefix(b)
	b.Append("ADD COLUMN", a.column.SQL())
}

// Apply executes the statement.
func (a AddColumn) Apply(ctx context.Context, ex sqlbuild.Executor) error {
	return apply(ctx, ex, a)
}

// Describe implements Change.
func (a AddColumn) Describe() string {
	return fmt.Sprintf("add column %s.%s", sqlbuild.Quote(a.base.table), sqlbuild.Quote(a.column.name))
}

// Validate checks the column and SQLite's ADD COLUMN restrictions.
func (a AddColumn) Validate(v validate.Validation) {
	v = a.base.validate(v, "add column").With(validate.Column(a.column.name))
	a.column.Validate(v)

	if a.column.has(kindPrimaryKey) {
		v.Error(validate.AddColumnPrimaryKey)
	}
	if a.column.has(kindUnique) {
		v.Error(validate.AddColumnUnique)
	}
	if a.column.has(kindNotNull) {
		d, ok := a.column.find(kindDefault).(Default)
		if !ok || d.isNull() {
			v.Error(validate.AddColumnNotNullNoDefault)
		}
	}
}

// DropColumn is ALTER TABLE ... DROP COLUMN.
type DropColumn struct {
	base   AlterTable
	column string
}

func (DropColumn) isChange() {}

// Base returns the altered table.
func (d DropColumn) Base() AlterTable { return d.base }

// Append renders the statement.
func (d DropColumn) Append(b *sqlbuild.Builder) {
	d.base.prefix(b)
	b.Append("DROP COLUMN", sqlbuild.Quote(d.column))
}

// Apply executes the statement.
func (d DropColumn) Apply(ctx context.Context, ex sqlbuild.Executor) error {
	return apply(ctx, ex, d)
}

// Describe implements Change.
func (d DropColumn) Describe() string {
	return fmt.Sprintf("drop column %s.%s", sqlbuild.Quote(d.base.table), sqlbuild.Quote(d.column))
}

// Validate implements Change.
func (d DropColumn) Validate(v validate.Validation) {
	v = d.base.validate(v, "drop column").With(validate.Column(d.column))
	if strings.TrimSpace(d.column) == "" {
		v.Error(validate.EmptyColumnName)
	}
}
