package schema

import (
	"context"
	"fmt"

	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/validate"
)

// DropTable is DROP TABLE.
type DropTable struct {
	name     string
	schema   string
	ifExists bool
}

// Drop starts a DROP TABLE for name in DefaultSchema.
func Drop(name string) DropTable {
	return DropTable{name: name, schema: DefaultSchema}
}

func (DropTable) isChange() {}

// Name returns the table name.
func (d DropTable) Name() string { return d.name }

// InSchema sets the schema.
func (d DropTable) InSchema(schema string) DropTable {
	d.schema = schema
	return d
}

// IfExists adds IF EXISTS.
func (d DropTable) IfExists() DropTable {
	d.ifExists = true
	return d
}

// Append renders the statement.
func (d DropTable) Append(b *sqlbuild.Builder) {
	b.Append("DROP TABLE")
	if d.ifExists {
		b.Append("IF EXISTS")
	}
	b.Append(qualify(d.schema, d.name))
}

// Apply executes the statement.
func (d DropTable) Apply(ctx context.Context, ex sqlbuild.Executor) error {
	return apply(ctx, ex, d)
}

// Describe implements Change.
func (d DropTable) Describe() string {
	return fmt.Sprintf("drop table %s", sqlbuild.Quote(d.name))
}

// Validate implements Change.
func (d DropTable) Validate(v validate.Validation) {
	v = v.With(validate.Table(d.name)).With(validate.Operation("drop table"))
	checkTableName(v, d.name)
	checkSchemaName(v, d.schema)
}
