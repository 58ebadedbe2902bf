package schema

import (
	"strings"

	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/validate"
	"github.com/roach88/strata/internal/value"
)

// Conflict is an ON CONFLICT resolution.
type Conflict string

const (
	ConflictDefault  Conflict = ""
	ConflictRollback Conflict = "ROLLBACK"
	ConflictAbort    Conflict = "ABORT"
	ConflictFail     Conflict = "FAIL"
	ConflictIgnore   Conflict = "IGNORE"
	ConflictReplace  Conflict = "REPLACE"
)

func (c Conflict) clause() string {
	if c == ConflictDefault {
		return ""
	}
	return "ON CONFLICT " + string(c)
}

// Order is a primary key sort order.
type Order string

const (
	OrderDefault Order = ""
	Asc          Order = "ASC"
	Desc         Order = "DESC"
)

// Action is a foreign key ON DELETE / ON UPDATE action.
type Action string

const (
	ActionDefault Action = ""
	NoAction      Action = "NO ACTION"
	Restrict      Action = "RESTRICT"
	SetNull       Action = "SET NULL"
	SetDefault    Action = "SET DEFAULT"
	Cascade       Action = "CASCADE"
)

// Deferral is a foreign key deferrable clause.
type Deferral int

const (
	NotDeferred Deferral = iota
	InitiallyDeferred
	InitiallyImmediate
)

func (d Deferral) clause() string {
	switch d {
	case InitiallyDeferred:
		return "DEFERRABLE INITIALLY DEFERRED"
	case InitiallyImmediate:
		return "DEFERRABLE INITIALLY IMMEDIATE"
	}
	return ""
}

// constraintKind tags constraint variants. Replacing kinds keep at most one
// instance per column.
type constraintKind int

const (
	kindPrimaryKey constraintKind = iota + 1
	kindUnique
	kindForeignKey
	kindNotNull
	kindDefault
	kindCheck
	kindCollate
)

var constraintTypes = map[constraintKind]string{
	kindPrimaryKey: "PRIMARY KEY",
	kindUnique:     "UNIQUE",
	kindForeignKey: "FOREIGN KEY",
	kindNotNull:    "NOT NULL",
	kindDefault:    "DEFAULT",
	kindCheck:      "CHECK",
	kindCollate:    "COLLATE",
}

func (k constraintKind) String() string {
	return constraintTypes[k]
}

func (k constraintKind) replaces() bool {
	switch k {
	case kindPrimaryKey, kindNotNull, kindDefault, kindCollate:
		return true
	}
	return false
}

// ColumnConstraint is a constraint attached to one column.
type ColumnConstraint interface {
	kind() constraintKind
	constraintName() string
	sql() string
	validate(v validate.Validation, col Column)
}

// join renders non-empty parts separated by spaces.
func join(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

func named(name string) string {
	if name == "" {
		return ""
	}
	return "CONSTRAINT " + sqlbuild.Quote(name)
}

// checkName reports a name that was given but is blank.
func checkName(v validate.Validation, name string) {
	if name != "" && strings.TrimSpace(name) == "" {
		v.Error(validate.EmptyConstraintName)
	}
}

// PrimaryKey marks a column as the primary key.
type PrimaryKey struct {
	Name          string
	Order         Order
	OnConflict    Conflict
	Autoincrement bool
}

func (PrimaryKey) kind() constraintKind     { return kindPrimaryKey }
func (c PrimaryKey) constraintName() string { return c.Name }

func (c PrimaryKey) sql() string {
	auto := ""
	if c.Autoincrement {
		auto = "AUTOINCREMENT"
	}
	return join(named(c.Name), "PRIMARY KEY", string(c.Order), c.OnConflict.clause(), auto)
}

func (c PrimaryKey) validate(v validate.Validation, col Column) {
	checkName(v, c.Name)
	if c.Autoincrement && !col.storage.IsInteger() {
		v.Warning(validate.AutoincrementNonInteger, validate.InfoStorage, col.storage.SQL())
	}
}

// Unique marks a column unique.
type Unique struct {
	Name       string
	OnConflict Conflict
}

func (Unique) kind() constraintKind     { return kindUnique }
func (c Unique) constraintName() string { return c.Name }

func (c Unique) sql() string {
	return join(named(c.Name), "UNIQUE", c.OnConflict.clause())
}

func (c Unique) validate(v validate.Validation, _ Column) {
	checkName(v, c.Name)
}

// References is a column-level foreign key. Column may be empty to reference
// the target table's primary key.
type References struct {
	Name       string
	Table      string
	Column     string
	OnDelete   Action
	OnUpdate   Action
	Deferrable Deferral
}

func (References) kind() constraintKind     { return kindForeignKey }
func (c References) constraintName() string { return c.Name }

func (c References) sql() string {
	return join(named(c.Name), referencesClause(c.Table, optional(c.Column), c.OnDelete, c.OnUpdate, c.Deferrable))
}

func (c References) validate(v validate.Validation, _ Column) {
	checkName(v, c.Name)
	if strings.TrimSpace(c.Table) == "" {
		v.Error(validate.EmptyReferenceTable)
	}
}

func optional(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func referencesClause(table string, columns []string, onDelete, onUpdate Action, d Deferral) string {
	cols := ""
	if len(columns) > 0 {
		cols = "(" + sqlbuild.QuoteList(columns) + ")"
	}
	var del, upd string
	if onDelete != ActionDefault {
		del = "ON DELETE " + string(onDelete)
	}
	if onUpdate != ActionDefault {
		upd = "ON UPDATE " + string(onUpdate)
	}
	return join("REFERENCES", sqlbuild.Quote(table), cols, del, upd, d.clause())
}

// NotNull forbids NULL.
type NotNull struct {
	Name       string
	OnConflict Conflict
}

func (NotNull) kind() constraintKind     { return kindNotNull }
func (c NotNull) constraintName() string { return c.Name }

func (c NotNull) sql() string {
	return join(named(c.Name), "NOT NULL", c.OnConflict.clause())
}

func (c NotNull) validate(v validate.Validation, col Column) {
	checkName(v, c.Name)
	if col.typ.Optional {
		v.Warning(validate.NotNullOnOptional)
	}
}

// Default sets a raw default expression. Expr is spliced verbatim; wrap
// non-literal expressions in parentheses.
type Default struct {
	Name string
	Expr string
}

// DefaultValue renders v as a literal default.
func DefaultValue(v any) (Default, error) {
	lit, err := value.Literal(v)
	if err != nil {
		return Default{}, err
	}
	return Default{Expr: lit}, nil
}

func (Default) kind() constraintKind     { return kindDefault }
func (c Default) constraintName() string { return c.Name }

func (c Default) sql() string {
	return join(named(c.Name), "DEFAULT", c.Expr)
}

func (c Default) validate(v validate.Validation, _ Column) {
	checkName(v, c.Name)
	if strings.TrimSpace(c.Expr) == "" {
		v.Error(validate.EmptyDefaultExpression)
	}
}

// isNull reports whether the default is the NULL literal.
func (c Default) isNull() bool {
	return strings.EqualFold(strings.TrimSpace(c.Expr), "NULL")
}

// Check is a raw CHECK expression.
type Check struct {
	Name string
	Expr string
}

func (Check) kind() constraintKind     { return kindCheck }
func (c Check) constraintName() string { return c.Name }

func (c Check) sql() string {
	return join(named(c.Name), "CHECK ("+c.Expr+")")
}

func (c Check) validate(v validate.Validation, _ Column) {
	checkName(v, c.Name)
	if strings.TrimSpace(c.Expr) == "" {
		v.Error(validate.EmptyCheckExpression)
	}
}

// Collate sets the column collation.
type Collate struct {
	Collation string
}

func (Collate) kind() constraintKind   { return kindCollate }
func (Collate) constraintName() string { return "" }

func (c Collate) sql() string {
	return "COLLATE " + sqlbuild.Quote(c.Collation)
}

func (c Collate) validate(v validate.Validation, _ Column) {
	if strings.TrimSpace(c.Collation) == "" {
		v.Error(validate.EmptyCollation)
	}
}
