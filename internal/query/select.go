package query

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/value"
)

// columnExpr is a bare column reference.
type columnExpr string

func (c columnExpr) SQL() string             { return string(c) }
func (c columnExpr) Binder() sqlbuild.Binder { return nil }

// Select is a SELECT over one table. Builder methods return modified
// copies.
type Select[R any] struct {
	table  *Table[R]
	where  Condition
	order  []Ordering
	limit  int
	offset int
}

// Select starts a query over every row of t.
func (t *Table[R]) Select() Select[R] {
	return Select[R]{table: t, limit: -1}
}

// Where narrows the query. Conditions from every call are ANDed.
func (s Select[R]) Where(conds ...Condition) Select[R] {
	s.where = And(append([]Condition{s.where}, conds...)...)
	return s
}

// OrderBy appends ORDER BY terms.
func (s Select[R]) OrderBy(terms ...Ordering) Select[R] {
	s.order = append(slices.Clone(s.order), terms...)
	return s
}

// Limit caps the number of rows. A negative n removes the cap.
func (s Select[R]) Limit(n int) Select[R] {
	s.limit = n
	return s
}

// Offset skips the first n rows.
func (s Select[R]) Offset(n int) Select[R] {
	s.offset = n
	return s
}

func (s Select[R]) rowColumns() []Expression {
	cols := make([]Expression, len(s.table.columns))
	for i, c := range s.table.columns {
		cols[i] = columnExpr(s.table.column(c.Name()))
	}
	return cols
}

// build renders SELECT cols FROM ... with the filter, ordering and window.
func (s Select[R]) build(cols []Expression, window bool) *sqlbuild.Builder {
	list := make([]string, len(cols))
	binders := make([]sqlbuild.Binder, len(cols))
	for i, c := range cols {
		list[i] = c.SQL()
		binders[i] = c.Binder()
	}

	b := sqlbuild.New("SELECT").
		AppendBound(strings.Join(list, ", "), sqlbuild.Chain(binders...)).
		Append("FROM", s.table.ref.SQL())
	appendWhere(b, s.where)
	if !window {
		return b
	}

	if len(s.order) > 0 {
		terms := make([]string, len(s.order))
		ob := make([]sqlbuild.Binder, len(s.order))
		for i, o := range s.order {
			terms[i] = o.sql()
			ob[i] = o.expr.Binder()
		}
		b.Append("ORDER BY").AppendBound(strings.Join(terms, ", "), sqlbuild.Chain(ob...))
	}
	switch {
	case s.limit >= 0:
		b.Append("LIMIT", strconv.Itoa(s.limit))
	case s.offset > 0:
		b.Append("LIMIT -1")
	}
	if s.offset > 0 {
		b.Append("OFFSET", strconv.Itoa(s.offset))
	}
	return b
}

func appendWhere(b *sqlbuild.Builder, where Condition) {
	if where.IsZero() {
		return
	}
	b.Append("WHERE").AppendBound(where.sql, where.bind)
}

// Build renders the full-row query.
func (s Select[R]) Build() *sqlbuild.Builder {
	return s.build(s.rowColumns(), true)
}

// All runs the query and decodes every row.
func (s Select[R]) All(ctx context.Context, ex sqlbuild.Executor) ([]R, error) {
	out := []R{}
	for r, err := range s.Iter(ctx, ex) {
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Iter runs the query when ranged over and yields rows as it decodes them.
// Each range runs the query again. Rows are fetched in full before the
// first yield, so the loop body may use ex.
func (s Select[R]) Iter(ctx context.Context, ex sqlbuild.Executor) iter.Seq2[R, error] {
	return func(yield func(R, error) bool) {
		raw, err := fetch(ctx, ex, s.Build(), len(s.table.columns))
		if err != nil {
			var zero R
			yield(zero, err)
			return
		}
		for _, vals := range raw {
			r, err := s.table.decode(vals)
			if !yield(r, err) || err != nil {
				return
			}
		}
	}
}

// First returns the first row, or a *NotFoundError.
func (s Select[R]) First(ctx context.Context, ex sqlbuild.Executor) (R, error) {
	rows, err := s.Limit(1).All(ctx, ex)
	if err != nil {
		var zero R
		return zero, err
	}
	if len(rows) == 0 {
		var zero R
		return zero, &NotFoundError{Table: s.table.Name()}
	}
	return rows[0], nil
}

// Count returns COUNT(*) of the filtered rows. Ordering, limit and offset
// are ignored.
func (s Select[R]) Count(ctx context.Context, ex sqlbuild.Executor) (int64, error) {
	return s.count(ctx, ex, columnExpr("COUNT(*)"))
}

// CountDistinct returns COUNT(DISTINCT c) of the filtered rows.
func CountDistinct[R, V any](ctx context.Context, ex sqlbuild.Executor, s Select[R], c Col[V]) (int64, error) {
	return s.count(ctx, ex, Col[V]{expr: "COUNT(DISTINCT " + c.expr + ")", bind: c.bind})
}

func (s Select[R]) count(ctx context.Context, ex sqlbuild.Executor, expr Expression) (int64, error) {
	var n int64
	err := s.build([]Expression{expr}, false).Query(ctx, ex, func(rows *sql.Rows) error {
		return rows.Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table.Name(), err)
	}
	return n, nil
}

// Pluck runs the query projected onto c.
func Pluck[R, V any](ctx context.Context, ex sqlbuild.Executor, s Select[R], c Col[V]) ([]V, error) {
	return Project(ctx, ex, s, []Expression{c}, func(vals []any) (V, error) {
		v, err := value.Decode[V](vals[0])
		if err != nil {
			return v, &DecodeError{Table: s.table.Name(), Column: c.expr, Err: err}
		}
		return v, nil
	})
}

// Project runs the query projected onto cols and maps each row's raw
// values, in column order, through fn.
func Project[R, T any](ctx context.Context, ex sqlbuild.Executor, s Select[R], cols []Expression, fn func(vals []any) (T, error)) ([]T, error) {
	raw, err := fetch(ctx, ex, s.build(cols, true), len(cols))
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, vals := range raw {
		v, err := fn(vals)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Find returns the row whose key columns equal key, in key declaration
// order.
func (t *Table[R]) Find(ctx context.Context, ex sqlbuild.Executor, key ...any) (R, error) {
	var zero R
	keys := t.Keys()
	if len(keys) == 0 {
		return zero, ErrNoKey
	}
	if len(key) != len(keys) {
		return zero, fmt.Errorf("find %s: got %d key values for %d key columns", t.Name(), len(key), len(keys))
	}

	conds := make([]Condition, len(keys))
	for i, k := range keys {
		conds[i] = Condition{sql: t.column(k.Name()) + " = ?", bind: bindValue(key[i])}
	}
	r, err := t.Select().Where(conds...).First(ctx, ex)
	if IsNotFound(err) {
		return zero, &NotFoundError{Table: t.Name(), Key: key}
	}
	return r, err
}

// fetch runs b and returns the raw values of each row.
func fetch(ctx context.Context, ex sqlbuild.Executor, b *sqlbuild.Builder, n int) ([][]any, error) {
	var out [][]any
	err := b.Query(ctx, ex, func(rows *sql.Rows) error {
		vals := make([]any, n)
		ptrs := make([]any, n)
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		out = append(out, vals)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// decode assigns raw column values to a new row.
func (t *Table[R]) decode(vals []any) (R, error) {
	var r R
	for i, c := range t.columns {
		if err := value.Assign(c.addr(&r), vals[i]); err != nil {
			return r, &DecodeError{Table: t.Name(), Column: c.Name(), Err: err}
		}
	}
	return r, nil
}
