package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strata/internal/sqlbuild"
)

func args(t *testing.T, b sqlbuild.Binder) []any {
	t.Helper()
	var a sqlbuild.Args
	require.NoError(t, sqlbuild.Chain(b)(&a))
	return a.Values()
}

func TestCondition_Render(t *testing.T) {
	name, age := personName.Col(), personAge.Col()

	tests := []struct {
		name string
		cond Condition
		sql  string
		args []any
	}{
		{"eq", name.Eq("ada"), `"name" = ?`, []any{"ada"}},
		{"ne", name.Ne("ada"), `"name" <> ?`, []any{"ada"}},
		{"optional value", age.Eq(ptr(int64(3))), `"age" = ?`, []any{int64(3)}},
		{"nil optional", age.Is(nil), `"age" IS ?`, []any{nil}},
		{"like", name.Like("a%"), `"name" LIKE ?`, []any{"a%"}},
		{"between", personID.Col().Between(1, 9), `"id" BETWEEN ? AND ?`, []any{int64(1), int64(9)}},
		{"in", personID.Col().In(1, 2, 3), `"id" IN (?, ?, ?)`, []any{int64(1), int64(2), int64(3)}},
		{"not in", name.NotIn("x"), `"name" NOT IN (?)`, []any{"x"}},
		{"is null", age.IsNull(), `"age" IS NULL`, nil},
		{"is not null", age.IsNotNull(), `"age" IS NOT NULL`, nil},
		{
			"and nests or",
			And(name.Eq("a"), Or(age.Gt(ptr(int64(1))), age.IsNull())),
			`"name" = ? AND ("age" > ? OR "age" IS NULL)`,
			[]any{"a", int64(1)},
		},
		{"and skips empty", And(Condition{}, name.Eq("a"), Condition{}), `"name" = ?`, []any{"a"}},
		{"empty and", And(), "", nil},
		{"not", Not(And(name.Eq("a"), name.Ne("b"))), `NOT ("name" = ? AND "name" <> ?)`, []any{"a", "b"}},
		{"raw", Raw("length(name) > ?", 3), "length(name) > ?", []any{int64(3)}},
		{"raw in and", And(Raw("a OR b"), name.Eq("x")), `(a OR b) AND "name" = ?`, []any{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sql, tt.cond.SQL())
			assert.Equal(t, tt.args, args(t, tt.cond.Binder()))
		})
	}
}

func TestCol_Qualified(t *testing.T) {
	p := people.As("p")
	assert.Equal(t, `"p"."name"`, personName.Of(p.Ref()).SQL())
	assert.Equal(t, `"person"."name"`, personName.Of(people.Ref()).SQL())
	assert.Equal(t, `"name"`, personName.Col().SQL())
	assert.Equal(t, `"person" AS "p"`, p.Ref().SQL())
}

func TestIfNull(t *testing.T) {
	c := IfNull(personAge.Col(), ptr(int64(0)))
	assert.Equal(t, `IFNULL("age", ?)`, c.SQL())
	assert.Equal(t, []any{int64(0)}, args(t, c.Binder()))

	cond := c.Gt(ptr(int64(5)))
	assert.Equal(t, `IFNULL("age", ?) > ?`, cond.SQL())
	assert.Equal(t, []any{int64(0), int64(5)}, args(t, cond.Binder()))
}

func TestOrdering(t *testing.T) {
	assert.Equal(t, `"name" ASC`, personName.Col().Asc().sql())
	assert.Equal(t, `"age" DESC NULLS LAST`, personAge.Col().Desc().NullsLast().sql())
	assert.Equal(t, `"age" ASC NULLS FIRST`, personAge.Col().Asc().NullsFirst().sql())
}
