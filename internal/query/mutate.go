package query

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/store"
)

// Insert writes row. Columns marked NoInsert are left to the database.
func (t *Table[R]) Insert(ctx context.Context, conn Conn, row R) (sql.Result, error) {
	b := t.insert(&row)
	return t.mutate(ctx, conn, "insert", store.Create, b)
}

func (t *Table[R]) insert(r *R) *sqlbuild.Builder {
	cols := t.filter(func(c Column[R]) bool { return c.Insertable() })
	b := sqlbuild.New("INSERT INTO", sqlbuild.Quote(t.ref.Name))
	if len(cols) == 0 {
		return b.Append("DEFAULT VALUES")
	}

	names := make([]string, len(cols))
	vals := make([]sqlbuild.Binder, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
		vals[i] = bindValue(c.get(r))
	}
	return b.Append("("+sqlbuild.QuoteList(names)+")", "VALUES").
		AppendBound("("+sqlbuild.Placeholders(len(cols))+")", sqlbuild.Chain(vals...))
}

// Upsert inserts row or, when its primary key already exists, updates
// every updatable non-key column from it. Every key column must be
// insertable; otherwise an *UpsertError is returned and nothing runs.
func (t *Table[R]) Upsert(ctx context.Context, conn Conn, row R) (sql.Result, error) {
	b, err := t.upsert(&row)
	if err != nil {
		return nil, err
	}
	return t.mutate(ctx, conn, "upsert", store.Create|store.Update, b)
}

func (t *Table[R]) upsert(r *R) (*sqlbuild.Builder, error) {
	keys := t.Keys()
	if len(keys) == 0 {
		return nil, &UpsertError{Table: t.Name(), Reason: "table has no primary key"}
	}
	var blocked []string
	for _, k := range keys {
		if !k.Insertable() {
			blocked = append(blocked, k.Name())
		}
	}
	if len(blocked) > 0 {
		return nil, &UpsertError{Table: t.Name(), Reason: "primary key columns are not insertable", Columns: blocked}
	}

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Name()
	}
	b := t.insert(r).Append("ON CONFLICT", "("+sqlbuild.QuoteList(names)+")")

	sets := t.filter(func(c Column[R]) bool {
		return !c.IsKey() && c.Insertable() && c.Updatable()
	})
	if len(sets) == 0 {
		return b.Append("DO NOTHING"), nil
	}
	terms := make([]string, len(sets))
	for i, c := range sets {
		q := sqlbuild.Quote(c.Name())
		terms[i] = q + " = excluded." + q
	}
	return b.Append("DO UPDATE SET", strings.Join(terms, ", ")), nil
}

// Update is an UPDATE over the table. Builder methods return modified
// copies.
type Update[R any] struct {
	table *Table[R]
	sets  []Assignment
	where Condition
}

// Update starts an UPDATE of every row. Assignments should use unqualified
// columns (Field.Col).
func (t *Table[R]) Update(sets ...Assignment) Update[R] {
	return Update[R]{table: t, sets: slices.Clone(sets)}
}

// Set adds assignments.
func (u Update[R]) Set(sets ...Assignment) Update[R] {
	u.sets = append(slices.Clone(u.sets), sets...)
	return u
}

// Where narrows the update. Conditions from every call are ANDed.
func (u Update[R]) Where(conds ...Condition) Update[R] {
	u.where = And(append([]Condition{u.where}, conds...)...)
	return u
}

// Build renders the statement, or returns ErrEmptyUpdate when nothing is
// assigned.
func (u Update[R]) Build() (*sqlbuild.Builder, error) {
	if len(u.sets) == 0 {
		return nil, ErrEmptyUpdate
	}
	terms := make([]string, len(u.sets))
	binders := make([]sqlbuild.Binder, len(u.sets))
	for i, s := range u.sets {
		terms[i] = s.column + " = ?"
		binders[i] = s.bind
	}
	b := sqlbuild.New("UPDATE", u.table.ref.SQL(), "SET").
		AppendBound(strings.Join(terms, ", "), sqlbuild.Chain(binders...))
	appendWhere(b, u.where)
	return b, nil
}

// Exec runs the update and returns the number of rows changed.
func (u Update[R]) Exec(ctx context.Context, conn Conn) (int64, error) {
	b, err := u.Build()
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", u.table.Name(), err)
	}
	return rowsAffected(u.table.mutate(ctx, conn, "update", store.Update, b))
}

// UpdateRow writes every updatable non-key column of row to the row with
// the same primary key.
func (t *Table[R]) UpdateRow(ctx context.Context, conn Conn, row R) (int64, error) {
	cols := t.filter(func(c Column[R]) bool { return !c.IsKey() && c.Updatable() })
	return t.UpdateRowColumns(ctx, conn, row, cols...)
}

// UpdateRowColumns writes cols of row to the row with the same primary
// key.
func (t *Table[R]) UpdateRowColumns(ctx context.Context, conn Conn, row R, cols ...Column[R]) (int64, error) {
	where, err := t.keyCondition(&row)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", t.Name(), err)
	}
	sets := make([]Assignment, len(cols))
	for i, c := range cols {
		sets[i] = Assignment{column: sqlbuild.Quote(c.Name()), bind: bindValue(c.get(&row))}
	}
	return t.Update(sets...).Where(where).Exec(ctx, conn)
}

// Delete is a DELETE over the table.
type Delete[R any] struct {
	table *Table[R]
	where Condition
}

// Delete starts a DELETE of every row.
func (t *Table[R]) Delete() Delete[R] {
	return Delete[R]{table: t}
}

// Where narrows the delete. Conditions from every call are ANDed.
func (d Delete[R]) Where(conds ...Condition) Delete[R] {
	d.where = And(append([]Condition{d.where}, conds...)...)
	return d
}

// Build renders the statement.
func (d Delete[R]) Build() *sqlbuild.Builder {
	b := sqlbuild.New("DELETE FROM", d.table.ref.SQL())
	appendWhere(b, d.where)
	return b
}

// Exec runs the delete and returns the number of rows removed.
func (d Delete[R]) Exec(ctx context.Context, conn Conn) (int64, error) {
	return rowsAffected(d.table.mutate(ctx, conn, "delete", store.Delete, d.Build()))
}

// DeleteRow removes the row with row's primary key.
func (t *Table[R]) DeleteRow(ctx context.Context, conn Conn, row R) (int64, error) {
	where, err := t.keyCondition(&row)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", t.Name(), err)
	}
	return t.Delete().Where(where).Exec(ctx, conn)
}

// mutate runs b through conn, reporting a change of typ to the table.
func (t *Table[R]) mutate(ctx context.Context, conn Conn, op string, typ store.ChangeType, b *sqlbuild.Builder) (sql.Result, error) {
	args, err := b.Args()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, t.Name(), err)
	}
	res, err := conn.Mutate(ctx, store.Change{Table: t.Name(), Type: typ}, b.Statement(), args...)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, t.Name(), err)
	}
	return res, nil
}

func rowsAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
