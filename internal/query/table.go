package query

import (
	"context"
	"database/sql"
	"slices"

	"github.com/roach88/strata/internal/schema"
	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/store"
	"github.com/roach88/strata/internal/value"
)

// Conn runs writes and reports the rows they change. store.DB implements
// it.
type Conn interface {
	sqlbuild.Executor
	Mutate(ctx context.Context, change store.Change, query string, args ...any) (sql.Result, error)
}

// Column is the type-erased view of a Field.
type Column[R any] interface {
	Name() string
	Type() value.Type
	IsKey() bool
	Insertable() bool
	Updatable() bool

	// addr returns a pointer to the column's value in r, for decoding.
	addr(r *R) any
	// get returns the column's value in r, for binding.
	get(r *R) any
}

// Field describes one column of row type R holding a V.
type Field[R, V any] struct {
	name     string
	typ      value.Type
	ptr      func(*R) *V
	key      bool
	noInsert bool
	noUpdate bool
}

// NewField declares a column. ptr returns the address of the column's
// value inside a row.
func NewField[R, V any](name string, t value.Type, ptr func(*R) *V) Field[R, V] {
	return Field[R, V]{name: name, typ: t, ptr: ptr}
}

// Key marks the field as part of the primary key.
func (f Field[R, V]) Key() Field[R, V] {
	f.key = true
	return f
}

// NoInsert leaves the column out of INSERT, e.g. for a rowid key the
// database assigns.
func (f Field[R, V]) NoInsert() Field[R, V] {
	f.noInsert = true
	return f
}

// NoUpdate leaves the column out of row updates and upsert SET clauses.
func (f Field[R, V]) NoUpdate() Field[R, V] {
	f.noUpdate = true
	return f
}

func (f Field[R, V]) Name() string     { return f.name }
func (f Field[R, V]) Type() value.Type { return f.typ }
func (f Field[R, V]) IsKey() bool      { return f.key }
func (f Field[R, V]) Insertable() bool { return !f.noInsert }
func (f Field[R, V]) Updatable() bool  { return !f.noUpdate }
func (f Field[R, V]) addr(r *R) any    { return f.ptr(r) }
func (f Field[R, V]) get(r *R) any     { return *f.ptr(r) }

// Col returns an unqualified reference to the column.
func (f Field[R, V]) Col() Col[V] {
	return ColOf[V](TableRef{}, f.name)
}

// Of returns a reference to the column qualified by ref.
func (f Field[R, V]) Of(ref TableRef) Col[V] {
	return ColOf[V](ref, f.name)
}

// Value returns the field's value in r.
func (f Field[R, V]) Value(r R) V {
	return *f.ptr(&r)
}

// TableRef names a table in a statement, optionally under an alias.
type TableRef struct {
	Name  string
	Alias string
}

// SQL renders the FROM item.
func (r TableRef) SQL() string {
	if r.Alias == "" {
		return sqlbuild.Quote(r.Name)
	}
	return sqlbuild.Quote(r.Name) + " AS " + sqlbuild.Quote(r.Alias)
}

// qualifier is what column references are prefixed with, if anything.
func (r TableRef) qualifier() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Name
}

// Table is the descriptor of a table whose rows decode into R.
type Table[R any] struct {
	ref     TableRef
	columns []Column[R]
}

// NewTable registers the columns of table name, in declaration order.
func NewTable[R any](name string, columns ...Column[R]) *Table[R] {
	return &Table[R]{ref: TableRef{Name: name}, columns: slices.Clone(columns)}
}

// Name returns the table name.
func (t *Table[R]) Name() string { return t.ref.Name }

// Ref returns the table reference statements select from.
func (t *Table[R]) Ref() TableRef { return t.ref }

// As returns a copy of the descriptor selecting under alias.
func (t *Table[R]) As(alias string) *Table[R] {
	c := *t
	c.ref.Alias = alias
	return &c
}

// Columns returns the columns in declaration order.
func (t *Table[R]) Columns() []Column[R] { return slices.Clone(t.columns) }

// Keys returns the primary key columns in declaration order.
func (t *Table[R]) Keys() []Column[R] {
	return t.filter(func(c Column[R]) bool { return c.IsKey() })
}

func (t *Table[R]) filter(keep func(Column[R]) bool) []Column[R] {
	var out []Column[R]
	for _, c := range t.columns {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// column qualifies a column name for this table's statements. Single-table
// statements without an alias leave names unqualified.
func (t *Table[R]) column(name string) string {
	if t.ref.Alias == "" {
		return sqlbuild.Quote(name)
	}
	return sqlbuild.Quote(t.ref.Alias) + "." + sqlbuild.Quote(name)
}

// keyCondition matches r's primary key.
func (t *Table[R]) keyCondition(r *R) (Condition, error) {
	keys := t.Keys()
	if len(keys) == 0 {
		return Condition{}, ErrNoKey
	}
	conds := make([]Condition, len(keys))
	for i, k := range keys {
		conds[i] = Condition{sql: t.column(k.Name()) + " = ?", bind: bindValue(k.get(r))}
	}
	return And(conds...), nil
}

// CreateTable derives the DDL of the descriptor. A single key column gets a
// column-level PRIMARY KEY, a composite key a table-level one.
func (t *Table[R]) CreateTable() schema.CreateTable {
	cols := make([]schema.Column, len(t.columns))
	keys := t.Keys()
	for i, c := range t.columns {
		col := schema.NewColumn(c.Name(), c.Type())
		if len(keys) == 1 && c.IsKey() {
			col = col.PrimaryKey()
		}
		cols[i] = col
	}

	ct := schema.NewTable(t.ref.Name, cols...)
	if len(keys) > 1 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.Name()
		}
		ct = ct.Constraint(schema.TablePrimaryKey{Columns: names})
	}
	return ct
}
