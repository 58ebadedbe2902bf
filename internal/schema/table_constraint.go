package schema

import (
	"strings"

	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/validate"
)

// TableConstraint is a constraint in the CREATE TABLE body that may span
// several columns.
type TableConstraint interface {
	kind() constraintKind
	constraintName() string
	sql() string
	validate(v validate.Validation, t CreateTable)
}

// checkColumns validates a key column list against the table: it must be
// non-empty, every column must be declared and none may repeat. Each
// offending position is reported with its column index.
func checkColumns(v validate.Validation, t CreateTable, columns []string) {
	if len(columns) == 0 {
		v.Error(validate.EmptyKeyColumns)
		return
	}
	seen := make(map[string]bool, len(columns))
	for i, name := range columns {
		switch {
		case strings.TrimSpace(name) == "":
			v.Error(validate.EmptyColumnName, validate.InfoColumnIndex, validate.Position(i))
		case !t.hasColumn(name):
			v.Error(validate.UnknownColumn,
				validate.InfoColumnIndex, validate.Position(i),
				validate.InfoColumn, name)
		case seen[name]:
			v.Error(validate.DuplicateKeyColumn,
				validate.InfoColumnIndex, validate.Position(i),
				validate.InfoColumn, name)
		}
		seen[name] = true
	}
}

// TablePrimaryKey is a (possibly composite) PRIMARY KEY.
type TablePrimaryKey struct {
	Name       string
	Columns    []string
	OnConflict Conflict
}

func (TablePrimaryKey) kind() constraintKind     { return kindPrimaryKey }
func (c TablePrimaryKey) constraintName() string { return c.Name }

func (c TablePrimaryKey) sql() string {
	return join(named(c.Name), "PRIMARY KEY ("+sqlbuild.QuoteList(c.Columns)+")", c.OnConflict.clause())
}

func (c TablePrimaryKey) validate(v validate.Validation, t CreateTable) {
	checkName(v, c.Name)
	checkColumns(v, t, c.Columns)
}

// TableUnique is a (possibly composite) UNIQUE constraint.
type TableUnique struct {
	Name       string
	Columns    []string
	OnConflict Conflict
}

func (TableUnique) kind() constraintKind     { return kindUnique }
func (c TableUnique) constraintName() string { return c.Name }

func (c TableUnique) sql() string {
	return join(named(c.Name), "UNIQUE ("+sqlbuild.QuoteList(c.Columns)+")", c.OnConflict.clause())
}

func (c TableUnique) validate(v validate.Validation, t CreateTable) {
	checkName(v, c.Name)
	checkColumns(v, t, c.Columns)
}

// TableForeignKey is FOREIGN KEY (columns) REFERENCES table (refColumns).
// An empty RefColumns references the target's primary key.
type TableForeignKey struct {
	Name       string
	Columns    []string
	Table      string
	RefColumns []string
	OnDelete   Action
	OnUpdate   Action
	Deferrable Deferral
}

func (TableForeignKey) kind() constraintKind     { return kindForeignKey }
func (c TableForeignKey) constraintName() string { return c.Name }

func (c TableForeignKey) sql() string {
	return join(named(c.Name),
		"FOREIGN KEY ("+sqlbuild.QuoteList(c.Columns)+")",
		referencesClause(c.Table, c.RefColumns, c.OnDelete, c.OnUpdate, c.Deferrable))
}

func (c TableForeignKey) validate(v validate.Validation, t CreateTable) {
	checkName(v, c.Name)
	checkColumns(v, t, c.Columns)
	if strings.TrimSpace(c.Table) == "" {
		v.Error(validate.EmptyReferenceTable)
	}
	if len(c.RefColumns) > 0 && len(c.RefColumns) != len(c.Columns) {
		v.Error(validate.ForeignKeyCountMismatch,
			"columns", validate.Position(len(c.Columns)),
			"referenced columns", validate.Position(len(c.RefColumns)))
	}
	for i, name := range c.RefColumns {
		if strings.TrimSpace(name) == "" {
			v.Error(validate.EmptyColumnName, "referenced column index", validate.Position(i))
		}
	}
}

// TableCheck is a table-level CHECK expression.
type TableCheck struct {
	Name string
	Expr string
}

func (TableCheck) kind() constraintKind     { return kindCheck }
func (c TableCheck) constraintName() string { return c.Name }

func (c TableCheck) sql() string {
	return join(named(c.Name), "CHECK ("+c.Expr+")")
}

func (c TableCheck) validate(v validate.Validation, _ CreateTable) {
	checkName(v, c.Name)
	if strings.TrimSpace(c.Expr) == "" {
		v.Error(validate.EmptyCheckExpression)
	}
}
