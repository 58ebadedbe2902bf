package schema

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/validate"
)

// CreateTable is CREATE TABLE.
type CreateTable struct {
	name         string
	schema       string
	columns      []Column
	constraints  []TableConstraint
	temporary    bool
	ifNotExists  bool
	withoutRowID bool
	strict       bool
}

// NewTable starts a CREATE TABLE for name in DefaultSchema.
func NewTable(name string, columns ...Column) CreateTable {
	return CreateTable{
		name:    name,
		schema:  DefaultSchema,
		columns: slices.Clone(columns),
	}
}

func (CreateTable) isChange() {}

// Name returns the table name.
func (t CreateTable) Name() string { return t.name }

// Schema returns the schema name.
func (t CreateTable) Schema() string { return t.schema }

// Columns returns the columns in declaration order.
func (t CreateTable) Columns() []Column { return slices.Clone(t.columns) }

// TableConstraints returns the table constraints in declaration order.
func (t CreateTable) TableConstraints() []TableConstraint { return slices.Clone(t.constraints) }

// IsTemporary reports whether the table is TEMPORARY.
func (t CreateTable) IsTemporary() bool { return t.temporary }

// IsStrict reports whether the table is STRICT.
func (t CreateTable) IsStrict() bool { return t.strict }

// IsWithoutRowID reports whether the table is WITHOUT ROWID.
func (t CreateTable) IsWithoutRowID() bool { return t.withoutRowID }

// InSchema sets the schema.
func (t CreateTable) InSchema(schema string) CreateTable {
	t.schema = schema
	return t
}

// Column appends columns.
func (t CreateTable) Column(columns ...Column) CreateTable {
	t.columns = append(slices.Clone(t.columns), columns...)
	return t
}

// Constraint appends table constraints.
func (t CreateTable) Constraint(constraints ...TableConstraint) CreateTable {
	t.constraints = append(slices.Clone(t.constraints), constraints...)
	return t
}

// Temporary makes the table TEMPORARY. Temporary tables are not qualified
// with a schema.
func (t CreateTable) Temporary() CreateTable {
	t.temporary = true
	return t
}

// IfNotExists adds IF NOT EXISTS.
func (t CreateTable) IfNotExists() CreateTable {
	t.ifNotExists = true
	return t
}

// WithoutRowID adds the WITHOUT ROWID option.
func (t CreateTable) WithoutRowID() CreateTable {
	t.withoutRowID = true
	return t
}

// Strict adds the STRICT option.
func (t CreateTable) Strict() CreateTable {
	t.strict = true
	return t
}

// Append renders the statement. Body entries are each placed on their own
// line with a four-space indent, columns first.
func (t CreateTable) Append(b *sqlbuild.Builder) {
	b.Append("CREATE")
	if t.temporary {
		b.Append("TEMPORARY")
	}
	b.Append("TABLE")
	if t.ifNotExists {
		b.Append("IF NOT EXISTS")
	}
	b.Append(t.qualifiedName())

	entries := make([]string, 0, len(t.columns)+len(t.constraints))
	for _, c := range t.columns {
		entries = append(entries, c.SQL())
	}
	for _, c := range t.constraints {
		entries = append(entries, c.sql())
	}

	var body strings.Builder
	body.WriteString("(")
	for i, e := range entries {
		if i > 0 {
			body.WriteString(",")
		}
		body.WriteString("\n    ")
		body.WriteString(e)
	}
	body.WriteString("\n)")
	b.Append(body.String())

	var options []string
	if t.withoutRowID {
		options = append(options, "WITHOUT ROWID")
	}
	if t.strict {
		options = append(options, "STRICT")
	}
	if len(options) > 0 {
		b.Append(strings.Join(options, ", "))
	}
}

func (t CreateTable) qualifiedName() string {
	if t.temporary {
		return sqlbuild.Quote(t.name)
	}
	return qualify(t.schema, t.name)
}

// Apply executes the statement.
func (t CreateTable) Apply(ctx context.Context, ex sqlbuild.Executor) error {
	return apply(ctx, ex, t)
}

// Describe implements Change.
func (t CreateTable) Describe() string {
	return fmt.Sprintf("create table %s", sqlbuild.Quote(t.name))
}

// hasColumn reports whether name is declared.
func (t CreateTable) hasColumn(name string) bool {
	return slices.ContainsFunc(t.columns, func(c Column) bool { return c.name == name })
}

// Validate checks names, column uniqueness, key rules and table-level
// constraint references.
func (t CreateTable) Validate(v validate.Validation) {
	v = v.With(validate.Table(t.name))

	checkTableName(v, t.name)
	if t.temporary {
		if t.schema != DefaultSchema && t.schema != "temp" {
			v.Error(validate.TemporaryInSchema)
		}
	} else {
		checkSchemaName(v, t.schema)
	}

	if len(t.columns) == 0 {
		v.Error(validate.NoColumns)
	}

	seen := make(map[string]int, len(t.columns))
	primaryKeys := 0
	for i, c := range t.columns {
		cv := v.With(validate.Column(c.name))
		c.Validate(cv)

		if first, dup := seen[c.name]; dup && c.name != "" {
			cv.Error(validate.DuplicateColumn,
				validate.InfoColumnIndex, validate.Position(i),
				validate.InfoFirstIndex, validate.Position(first))
		} else {
			seen[c.name] = i
		}

		if t.strict && !c.storage.StrictAllowed() {
			cv.Error(validate.StrictStorageType, validate.InfoStorage, c.storage.SQL())
		}

		if pk, ok := c.primaryKey(); ok {
			primaryKeys++
			if pk.Autoincrement && t.withoutRowID {
				cv.Error(validate.AutoincrementWithoutRow)
			}
		}
	}

	for i, c := range t.constraints {
		cv := v.With(validate.Constraint(c.constraintName(), c.kind().String())).
			WithInfo(validate.InfoConstraintIndex, validate.Position(i))
		c.validate(cv, t)
		if c.kind() == kindPrimaryKey {
			primaryKeys++
		}
	}

	if primaryKeys > 1 {
		v.Error(validate.MultiplePrimaryKeys)
	}
	if t.withoutRowID && primaryKeys == 0 {
		v.Error(validate.WithoutRowIDNoPrimaryKey)
	}
}
