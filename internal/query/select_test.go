package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strata/internal/testutil"
	"github.com/roach88/strata/internal/value"
)

func TestSelect_Build(t *testing.T) {
	tests := []struct {
		name string
		sel  Select[person]
		sql  string
		args []any
	}{
		{
			"all rows",
			people.Select(),
			`SELECT "id", "name", "age" FROM "person"`,
			nil,
		},
		{
			"where accumulates",
			people.Select().Where(personName.Col().Eq("a")).Where(personID.Col().Gt(1)),
			`SELECT "id", "name", "age" FROM "person" WHERE "name" = ? AND "id" > ?`,
			[]any{"a", int64(1)},
		},
		{
			"order and window",
			people.Select().OrderBy(personAge.Col().Desc().NullsLast(), personName.Col().Asc()).Limit(10).Offset(5),
			`SELECT "id", "name", "age" FROM "person" ORDER BY "age" DESC NULLS LAST, "name" ASC LIMIT 10 OFFSET 5`,
			nil,
		},
		{
			"offset without limit",
			people.Select().Offset(3),
			`SELECT "id", "name", "age" FROM "person" LIMIT -1 OFFSET 3`,
			nil,
		},
		{
			"alias",
			people.As("p").Select().Where(personName.Of(TableRef{Alias: "p"}).Eq("a")),
			`SELECT "p"."id", "p"."name", "p"."age" FROM "person" AS "p" WHERE "p"."name" = ?`,
			[]any{"a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.sel.Build()
			assert.Equal(t, tt.sql, b.Statement())
			got, err := b.Args()
			require.NoError(t, err)
			assert.Equal(t, tt.args, got)
		})
	}
}

func TestSelect_BuilderIsValue(t *testing.T) {
	base := people.Select().OrderBy(personName.Col().Asc())
	a := base.OrderBy(personID.Col().Asc())
	b := base.OrderBy(personAge.Col().Desc())

	assert.Contains(t, a.Build().Statement(), `ORDER BY "name" ASC, "id" ASC`)
	assert.Contains(t, b.Build().Statement(), `ORDER BY "name" ASC, "age" DESC`)
	assert.NotContains(t, base.Build().Statement(), `"id" ASC`)
}

func TestSelect_AllAndFirst(t *testing.T) {
	db := openPeople(t)
	ctx := context.Background()
	insertPeople(t, db,
		person{Name: "ada", Age: ptr(int64(36))},
		person{Name: "bob"},
		person{Name: "cy", Age: ptr(int64(17))},
	)

	all, err := people.Select().OrderBy(personID.Col().Asc()).All(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []person{
		{ID: 1, Name: "ada", Age: ptr(int64(36))},
		{ID: 2, Name: "bob"},
		{ID: 3, Name: "cy", Age: ptr(int64(17))},
	}, all)

	adults, err := people.Select().Where(personAge.Col().Ge(ptr(int64(18)))).All(ctx, db)
	require.NoError(t, err)
	require.Len(t, adults, 1)
	assert.Equal(t, "ada", adults[0].Name)

	none, err := people.Select().Where(personName.Col().Eq("zed")).All(ctx, db)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	first, err := people.Select().OrderBy(personName.Col().Desc()).First(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "cy", first.Name)

	_, err = people.Select().Where(personName.Col().Eq("zed")).First(ctx, db)
	assert.True(t, IsNotFound(err))
}

func TestSelect_NullsOrdering(t *testing.T) {
	db := openPeople(t)
	ctx := context.Background()
	insertPeople(t, db,
		person{Name: "a", Age: ptr(int64(2))},
		person{Name: "b"},
		person{Name: "c", Age: ptr(int64(1))},
	)

	names := func(s Select[person]) []string {
		got, err := Pluck(ctx, db, s, personName.Col())
		require.NoError(t, err)
		return got
	}
	assert.Equal(t, []string{"b", "c", "a"}, names(people.Select().OrderBy(personAge.Col().Asc().NullsFirst())))
	assert.Equal(t, []string{"c", "a", "b"}, names(people.Select().OrderBy(personAge.Col().Asc().NullsLast())))
	assert.Equal(t, []string{"a", "c", "b"}, names(people.Select().OrderBy(personAge.Col().Desc().NullsLast())))
}

func TestSelect_LimitOffset(t *testing.T) {
	db := openPeople(t)
	ctx := context.Background()
	for _, n := range []string{"a", "b", "c", "d"} {
		insertPeople(t, db, person{Name: n})
	}

	page, err := Pluck(ctx, db, people.Select().OrderBy(personName.Col().Asc()).Limit(2).Offset(1), personName.Col())
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, page)

	rest, err := Pluck(ctx, db, people.Select().OrderBy(personName.Col().Asc()).Offset(3), personName.Col())
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, rest)
}

func TestSelect_IterStopsEarlyAndReruns(t *testing.T) {
	db := openPeople(t)
	ctx := context.Background()
	insertPeople(t, db, person{Name: "a"}, person{Name: "b"}, person{Name: "c"})

	seq := people.Select().OrderBy(personName.Col().Asc()).Iter(ctx, db)

	var seen []string
	for p, err := range seq {
		require.NoError(t, err)
		seen = append(seen, p.Name)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)

	// The loop body may write through the same database.
	insertPeople(t, db, person{Name: "d"})
	seen = nil
	for p, err := range seq {
		require.NoError(t, err)
		seen = append(seen, p.Name)
		if p.Name == "a" {
			insertPeople(t, db, person{Name: "e"})
		}
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, seen)
}

func TestSelect_DecodeError(t *testing.T) {
	db := openPeople(t)
	ctx := context.Background()
	testutil.Exec(t, db, `INSERT INTO person (name, age) VALUES ('a', 1)`)

	// Reads the nullable age column into a non-optional field.
	type strictPerson struct {
		Name string
		Age  int64
	}
	strict := NewTable[strictPerson]("person",
		NewField("name", value.Text, func(p *strictPerson) *string { return &p.Name }),
		NewField("age", value.Integer, func(p *strictPerson) *int64 { return &p.Age }),
	)
	_, err := strict.Select().Where(personName.Col().Eq("a")).All(ctx, db)
	require.NoError(t, err)

	testutil.Exec(t, db, `INSERT INTO person (name) VALUES ('b')`)
	_, err = strict.Select().All(ctx, db)
	require.Error(t, err)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "person", de.Table)
	assert.Equal(t, "age", de.Column)
	assert.True(t, errors.Is(err, value.ErrNull))

	var got []error
	for _, err := range strict.Select().OrderBy(personName.Col().Asc()).Iter(ctx, db) {
		got = append(got, err)
	}
	require.Len(t, got, 2)
	assert.NoError(t, got[0])
	assert.ErrorIs(t, got[1], value.ErrNull)
}

func TestSelect_Count(t *testing.T) {
	db := openPeople(t)
	ctx := context.Background()
	insertPeople(t, db,
		person{Name: "a", Age: ptr(int64(30))},
		person{Name: "b", Age: ptr(int64(30))},
		person{Name: "c"},
		person{Name: "d"},
	)

	n, err := people.Select().Count(ctx, db)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	n, err = people.Select().Where(personAge.Col().IsNotNull()).Limit(1).Count(ctx, db)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = CountDistinct(ctx, db, people.Select(), personAge.Col())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = CountDistinct(ctx, db, people.Select(), IfNull(personAge.Col(), ptr(int64(-1))))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestSelect_Project(t *testing.T) {
	db := openPeople(t)
	ctx := context.Background()
	insertPeople(t, db, person{Name: "a", Age: ptr(int64(3))}, person{Name: "b"})

	type summary struct {
		Name string
		Age  int64
	}
	got, err := Project(ctx, db,
		people.Select().OrderBy(personName.Col().Asc()),
		[]Expression{personName.Col(), IfNull(personAge.Col(), ptr(int64(0)))},
		func(vals []any) (summary, error) {
			var s summary
			if err := value.Assign(&s.Name, vals[0]); err != nil {
				return s, err
			}
			return s, value.Assign(&s.Age, vals[1])
		})
	require.NoError(t, err)
	assert.Equal(t, []summary{{"a", 3}, {"b", 0}}, got)
}

func TestSelect_ProjectionBindsBeforeWhere(t *testing.T) {
	s := people.Select().Where(personName.Col().Eq("a"))
	b := s.build([]Expression{IfNull(personAge.Col(), ptr(int64(7)))}, true)
	assert.Equal(t, `SELECT IFNULL("age", ?) FROM "person" WHERE "name" = ?`, b.Statement())
	got, err := b.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7), "a"}, got)
}

func TestTable_Find(t *testing.T) {
	db := openPeople(t)
	ctx := context.Background()
	insertPeople(t, db, person{Name: "a"}, person{Name: "b"})

	p, err := people.Find(ctx, db, 2)
	require.NoError(t, err)
	assert.Equal(t, person{ID: 2, Name: "b"}, p)

	_, err = people.Find(ctx, db, 9)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []any{9}, nf.Key)
	assert.True(t, IsNotFound(err))

	_, err = people.Find(ctx, db, 1, 2)
	assert.Error(t, err)

	keyless := NewTable[person]("person", personName)
	_, err = keyless.Find(ctx, db, "a")
	assert.ErrorIs(t, err, ErrNoKey)
}
