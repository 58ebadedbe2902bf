package schema

import (
	"slices"
	"strings"

	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/validate"
	"github.com/roach88/strata/internal/value"
)

// Column is a column definition.
type Column struct {
	name        string
	typ         value.Type
	storage     StorageType
	constraints []ColumnConstraint
	nullable    bool
}

// NewColumn declares a column of logical type t with t's default storage.
// A non-optional t carries NOT NULL until Nullable is called.
func NewColumn(name string, t value.Type) Column {
	c := Column{
		name:    name,
		typ:     t,
		storage: DefaultStorage(t),
	}
	if !t.Optional {
		c.constraints = []ColumnConstraint{NotNull{}}
	}
	return c
}

// Name returns the column name.
func (c Column) Name() string { return c.name }

// Type returns the logical type.
func (c Column) Type() value.Type { return c.typ }

// Storage returns the declared storage type.
func (c Column) Storage() StorageType { return c.storage }

// Constraints returns the constraints in declaration order.
func (c Column) Constraints() []ColumnConstraint {
	return slices.Clone(c.constraints)
}

// As overrides the storage type.
func (c Column) As(s StorageType) Column {
	c.storage = s
	return c
}

// With adds constraints. A constraint of a replacing kind (PRIMARY KEY, NOT
// NULL, DEFAULT, COLLATE) supersedes the existing instance of that kind in
// place; other kinds are appended.
func (c Column) With(constraints ...ColumnConstraint) Column {
	out := slices.Clone(c.constraints)

	// Latest instance per replacing kind.
	slot := make(map[constraintKind]int, len(out))
	for i, cc := range out {
		if cc.kind().replaces() {
			slot[cc.kind()] = i
		}
	}

	for _, cc := range constraints {
		k := cc.kind()
		if k == kindNotNull {
			c.nullable = false
		}
		if i, ok := slot[k]; ok && k.replaces() {
			out[i] = cc
			continue
		}
		if k.replaces() {
			slot[k] = len(out)
		}
		out = append(out, cc)
	}

	c.constraints = out
	return c
}

// Nullable removes NOT NULL, overriding the logical type's optionality.
func (c Column) Nullable() Column {
	c.constraints = slices.DeleteFunc(slices.Clone(c.constraints), func(cc ColumnConstraint) bool {
		return cc.kind() == kindNotNull
	})
	c.nullable = true
	return c
}

// PrimaryKey adds PRIMARY KEY.
func (c Column) PrimaryKey() Column {
	return c.With(PrimaryKey{})
}

// Autoincrement adds PRIMARY KEY AUTOINCREMENT.
func (c Column) Autoincrement() Column {
	return c.With(PrimaryKey{Autoincrement: true})
}

// Unique adds UNIQUE.
func (c Column) Unique() Column {
	return c.With(Unique{})
}

// References adds a foreign key to table(column).
func (c Column) References(table, column string) Column {
	return c.With(References{Table: table, Column: column})
}

// Default sets a raw default expression.
func (c Column) Default(expr string) Column {
	return c.With(Default{Expr: expr})
}

// Check adds a CHECK expression.
func (c Column) Check(expr string) Column {
	return c.With(Check{Expr: expr})
}

// Collate sets the collation.
func (c Column) Collate(collation string) Column {
	return c.With(Collate{Collation: collation})
}

// has reports whether a constraint of kind k is present.
func (c Column) has(k constraintKind) bool {
	return c.find(k) != nil
}

func (c Column) find(k constraintKind) ColumnConstraint {
	for _, cc := range c.constraints {
		if cc.kind() == k {
			return cc
		}
	}
	return nil
}

// primaryKey returns the column's PRIMARY KEY constraint, if any.
func (c Column) primaryKey() (PrimaryKey, bool) {
	pk, ok := c.find(kindPrimaryKey).(PrimaryKey)
	return pk, ok
}

// IsPrimaryKey reports whether the column carries PRIMARY KEY.
func (c Column) IsPrimaryKey() bool {
	return c.has(kindPrimaryKey)
}

// IsNotNull reports whether the column carries NOT NULL.
func (c Column) IsNotNull() bool {
	return c.has(kindNotNull)
}

// SQL renders the column definition.
func (c Column) SQL() string {
	parts := []string{sqlbuild.Quote(c.name), c.storage.SQL()}
	for _, cc := range c.constraints {
		parts = append(parts, cc.sql())
	}
	return join(parts...)
}

// Validate checks the column at v, which should already point at it.
func (c Column) Validate(v validate.Validation) {
	if strings.TrimSpace(c.name) == "" {
		v.Error(validate.EmptyColumnName)
	}
	c.storage.validate(v)

	if c.nullable && !c.typ.Optional {
		v.Info(validate.NullableNonOptional)
	}

	for i, cc := range c.constraints {
		cv := v.With(validate.Constraint(cc.constraintName(), cc.kind().String())).
			WithInfo(validate.InfoConstraintIndex, validate.Position(i))
		cc.validate(cv, c)
	}
}
