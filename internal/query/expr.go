package query

import (
	"strings"

	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/value"
)

// Expression is an SQL expression with the binder for its placeholders.
type Expression interface {
	SQL() string
	Binder() sqlbuild.Binder
}

// Col is a typed column reference or expression of type V.
type Col[V any] struct {
	expr string
	bind sqlbuild.Binder
}

// ColOf references column name of ref. A zero ref leaves the name
// unqualified.
func ColOf[V any](ref TableRef, name string) Col[V] {
	q := ref.qualifier()
	if q == "" {
		return Col[V]{expr: sqlbuild.Quote(name)}
	}
	return Col[V]{expr: sqlbuild.Quote(q) + "." + sqlbuild.Quote(name)}
}

// SQL returns the rendered expression.
func (c Col[V]) SQL() string { return c.expr }

// Binder returns the binder of the expression's own placeholders, if any.
func (c Col[V]) Binder() sqlbuild.Binder { return c.bind }

// IfNull is IFNULL(c, fallback).
func IfNull[V any](c Col[V], fallback V) Col[V] {
	return Col[V]{
		expr: "IFNULL(" + c.expr + ", ?)",
		bind: sqlbuild.Chain(c.bind, bindValue(fallback)),
	}
}

func bindValue(v any) sqlbuild.Binder {
	return sqlbuild.Value(value.Bind(v))
}

func (c Col[V]) compare(op string, v V) Condition {
	return Condition{
		sql:  c.expr + " " + op + " ?",
		bind: sqlbuild.Chain(c.bind, bindValue(v)),
	}
}

// Eq is c = v.
func (c Col[V]) Eq(v V) Condition { return c.compare("=", v) }

// Ne is c <> v.
func (c Col[V]) Ne(v V) Condition { return c.compare("<>", v) }

// Lt is c < v.
func (c Col[V]) Lt(v V) Condition { return c.compare("<", v) }

// Le is c <= v.
func (c Col[V]) Le(v V) Condition { return c.compare("<=", v) }

// Gt is c > v.
func (c Col[V]) Gt(v V) Condition { return c.compare(">", v) }

// Ge is c >= v.
func (c Col[V]) Ge(v V) Condition { return c.compare(">=", v) }

// Is is c IS v, which treats NULLs as equal.
func (c Col[V]) Is(v V) Condition { return c.compare("IS", v) }

// Like is c LIKE pattern.
func (c Col[V]) Like(pattern string) Condition {
	return Condition{
		sql:  c.expr + " LIKE ?",
		bind: sqlbuild.Chain(c.bind, sqlbuild.Value(pattern)),
	}
}

// Between is c BETWEEN lo AND hi.
func (c Col[V]) Between(lo, hi V) Condition {
	return Condition{
		sql:  c.expr + " BETWEEN ? AND ?",
		bind: sqlbuild.Chain(c.bind, bindValue(lo), bindValue(hi)),
	}
}

// In is c IN (vs...). An empty list matches nothing.
func (c Col[V]) In(vs ...V) Condition { return c.in("IN", vs) }

// NotIn is c NOT IN (vs...). An empty list matches everything.
func (c Col[V]) NotIn(vs ...V) Condition { return c.in("NOT IN", vs) }

func (c Col[V]) in(op string, vs []V) Condition {
	binders := make([]sqlbuild.Binder, 0, len(vs)+1)
	binders = append(binders, c.bind)
	for _, v := range vs {
		binders = append(binders, bindValue(v))
	}
	return Condition{
		sql:  c.expr + " " + op + " (" + sqlbuild.Placeholders(len(vs)) + ")",
		bind: sqlbuild.Chain(binders...),
	}
}

// IsNull is c IS NULL.
func (c Col[V]) IsNull() Condition {
	return Condition{sql: c.expr + " IS NULL", bind: c.bind}
}

// IsNotNull is c IS NOT NULL.
func (c Col[V]) IsNotNull() Condition {
	return Condition{sql: c.expr + " IS NOT NULL", bind: c.bind}
}

// EqCol is c = other.
func (c Col[V]) EqCol(other Col[V]) Condition {
	return Condition{
		sql:  c.expr + " = " + other.expr,
		bind: sqlbuild.Chain(c.bind, other.bind),
	}
}

// Set assigns v to the column in an UPDATE.
func (c Col[V]) Set(v V) Assignment {
	return Assignment{column: c.expr, bind: bindValue(v)}
}

// SetNull assigns NULL to the column in an UPDATE.
func (c Col[V]) SetNull() Assignment {
	return Assignment{column: c.expr, bind: sqlbuild.Value(nil)}
}

// Asc orders by c ascending.
func (c Col[V]) Asc() Ordering { return Ordering{expr: c, dir: "ASC"} }

// Desc orders by c descending.
func (c Col[V]) Desc() Ordering { return Ordering{expr: c, dir: "DESC"} }

// Condition is an SQL boolean fragment with the binder for its
// placeholders.
type Condition struct {
	sql      string
	bind     sqlbuild.Binder
	compound bool
}

// Raw splices fragment verbatim, binding args to its placeholders in
// order.
func Raw(fragment string, args ...any) Condition {
	bound := make([]any, len(args))
	for i, a := range args {
		bound[i] = value.Bind(a)
	}
	return Condition{sql: fragment, bind: sqlbuild.Values(bound...), compound: true}
}

// SQL returns the rendered fragment.
func (c Condition) SQL() string { return c.sql }

// Binder returns the fragment's binder.
func (c Condition) Binder() sqlbuild.Binder { return c.bind }

// IsZero reports whether c is the empty condition.
func (c Condition) IsZero() bool { return c.sql == "" }

func (c Condition) operand() string {
	if c.compound {
		return "(" + c.sql + ")"
	}
	return c.sql
}

func combine(op string, conds []Condition) Condition {
	parts := make([]string, 0, len(conds))
	binders := make([]sqlbuild.Binder, 0, len(conds))
	for _, c := range conds {
		if c.IsZero() {
			continue
		}
		parts = append(parts, c.operand())
		binders = append(binders, c.bind)
	}
	switch len(parts) {
	case 0:
		return Condition{}
	case 1:
		for _, c := range conds {
			if !c.IsZero() {
				return c
			}
		}
	}
	return Condition{
		sql:      strings.Join(parts, " "+op+" "),
		bind:     sqlbuild.Chain(binders...),
		compound: true,
	}
}

// And is the conjunction of conds. Empty conditions are ignored.
func And(conds ...Condition) Condition { return combine("AND", conds) }

// Or is the disjunction of conds. Empty conditions are ignored.
func Or(conds ...Condition) Condition { return combine("OR", conds) }

// Not negates c.
func Not(c Condition) Condition {
	if c.IsZero() {
		return c
	}
	return Condition{sql: "NOT (" + c.sql + ")", bind: c.bind}
}

// Assignment is one column = value pair of an UPDATE.
type Assignment struct {
	column string
	bind   sqlbuild.Binder
}

// Nulls places NULLs in an ordering.
type Nulls int

const (
	NullsDefault Nulls = iota
	NullsFirst
	NullsLast
)

// Ordering is one ORDER BY term.
type Ordering struct {
	expr  Expression
	dir   string
	nulls Nulls
}

// NullsFirst sorts NULLs before other values.
func (o Ordering) NullsFirst() Ordering {
	o.nulls = NullsFirst
	return o
}

// NullsLast sorts NULLs after other values.
func (o Ordering) NullsLast() Ordering {
	o.nulls = NullsLast
	return o
}

func (o Ordering) sql() string {
	s := o.expr.SQL() + " " + o.dir
	switch o.nulls {
	case NullsFirst:
		s += " NULLS FIRST"
	case NullsLast:
		s += " NULLS LAST"
	}
	return s
}
