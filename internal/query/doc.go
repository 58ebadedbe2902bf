// Package query builds and runs typed statements over table descriptors.
//
// A descriptor is registered by hand: each Field names a column, its
// logical type and how to reach the column's value inside the row struct.
//
//	type Person struct {
//		ID   int64
//		Name string
//		Age  *int64
//	}
//
//	var (
//		personID   = query.NewField("id", value.Integer, func(p *Person) *int64 { return &p.ID }).Key()
//		personName = query.NewField("name", value.Text, func(p *Person) *string { return &p.Name })
//		personAge  = query.NewField("age", value.Optional(value.Int64), func(p *Person) **int64 { return &p.Age })
//		people     = query.NewTable[Person]("people", personID, personName, personAge)
//	)
//
//	adults, err := people.Select().
//		Where(personAge.Col().Ge(18)).
//		OrderBy(personName.Col().Asc()).
//		All(ctx, db)
//
// Writes go through Conn.Mutate so commit listeners see them. Placeholders
// are bound in the order they appear in the rendered SQL: SET values, then
// VALUES, then WHERE.
package query
