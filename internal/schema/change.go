package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/validate"
)

// DefaultSchema is the schema changes target unless told otherwise.
const DefaultSchema = "main"

// Change is one schema mutation.
type Change interface {
	validate.Validatable

	// Append renders the change into b.
	Append(b *sqlbuild.Builder)

	// Apply renders the change and executes it against ex.
	Apply(ctx context.Context, ex sqlbuild.Executor) error

	// Describe is a short human description, e.g. `create table "t"`.
	Describe() string

	isChange()
}

// Render returns the SQL text of c.
func Render(c Change) string {
	b := sqlbuild.New()
	c.Append(b)
	return b.Statement()
}

// apply executes the rendered change, wrapping failures with its description.
func apply(ctx context.Context, ex sqlbuild.Executor, c Change) error {
	b := sqlbuild.New()
	c.Append(b)
	if _, err := b.Execute(ctx, ex); err != nil {
		return fmt.Errorf("%s: %w", c.Describe(), err)
	}
	return nil
}

// qualify quotes name within schema.
func qualify(schema, name string) string {
	return sqlbuild.QuoteQualified(schema, name)
}

// checkTableName records empty or reserved table names.
func checkTableName(v validate.Validation, name string) {
	switch {
	case strings.TrimSpace(name) == "":
		v.Error(validate.EmptyTableName)
	case strings.HasPrefix(strings.ToLower(name), "sqlite_"):
		v.Error(validate.ReservedTableName)
	}
}

func checkSchemaName(v validate.Validation, schema string) {
	if strings.TrimSpace(schema) == "" {
		v.Error(validate.EmptySchemaName)
	}
}

// Execute is an opaque step: either a raw SQL statement or a Go function.
// Neither is inspected by validation.
type Execute struct {
	name      string
	statement string
	fn        func(ctx context.Context, ex sqlbuild.Executor) error
}

// ExecuteSQL runs statement verbatim.
func ExecuteSQL(statement string) Execute {
	return Execute{statement: statement}
}

// ExecuteFunc runs fn. name identifies the step in rendered output and
// checksums, so changing what fn does without renaming it goes unnoticed.
func ExecuteFunc(name string, fn func(ctx context.Context, ex sqlbuild.Executor) error) Execute {
	return Execute{name: name, fn: fn}
}

func (Execute) isChange() {}

// Statement returns the raw SQL, empty for function steps.
func (e Execute) Statement() string { return e.statement }

// Append renders the statement, or a comment naming the function step.
func (e Execute) Append(b *sqlbuild.Builder) {
	if e.fn != nil {
		b.Append("-- execute " + e.name)
		return
	}
	b.Append(e.statement)
}

// Apply runs the step.
func (e Execute) Apply(ctx context.Context, ex sqlbuild.Executor) error {
	if e.fn != nil {
		if err := e.fn(ctx, ex); err != nil {
			return fmt.Errorf("%s: %w", e.Describe(), err)
		}
		return nil
	}
	if _, err := ex.ExecContext(ctx, e.statement); err != nil {
		return fmt.Errorf("%s: %w", e.Describe(), err)
	}
	return nil
}

// Validate does nothing: opaque steps are not checked.
func (Execute) Validate(validate.Validation) {}

// Describe implements Change.
func (e Execute) Describe() string {
	if e.fn != nil {
		return fmt.Sprintf("execute %q", e.name)
	}
	return "execute sql"
}
