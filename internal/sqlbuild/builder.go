package sqlbuild

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Executor is the statement execution primitive everything in this module
// runs on. store.DB implements it; so does any wrapper that funnels to one.
type Executor interface {
	// ExecContext runs a statement that returns no rows.
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)

	// Query runs a statement and calls step once per result row. The rows
	// are only valid for the duration of the call.
	Query(ctx context.Context, query string, args []any, step func(*sql.Rows) error) error
}

// Args is the placeholder cursor handed to binders.
type Args struct {
	values []any
}

// Add binds v to the next placeholder and advances the cursor.
func (a *Args) Add(v ...any) {
	a.values = append(a.values, v...)
}

// Index returns the 1-based index of the next placeholder to bind.
func (a *Args) Index() int {
	return len(a.values) + 1
}

// Values returns the bound values in placeholder order.
func (a *Args) Values() []any {
	return a.values
}

// Binder binds the placeholders of one SQL fragment.
type Binder func(*Args) error

// Value returns a Binder binding a single value.
func Value(v any) Binder {
	return func(a *Args) error {
		a.Add(v)
		return nil
	}
}

// Values returns a Binder binding vs in order.
func Values(vs ...any) Binder {
	return func(a *Args) error {
		a.Add(vs...)
		return nil
	}
}

// Chain composes binders left to right. Nil binders are skipped.
func Chain(binders ...Binder) Binder {
	return func(a *Args) error {
		for _, b := range binders {
			if b == nil {
				continue
			}
			if err := b(a); err != nil {
				return err
			}
		}
		return nil
	}
}

// Builder accumulates SQL tokens and binders.
// The zero value is ready to use.
type Builder struct {
	tokens  []string
	binders []Binder
}

// New returns a builder seeded with tokens.
func New(tokens ...string) *Builder {
	b := &Builder{}
	return b.Append(tokens...)
}

// Append adds tokens to the statement. Empty tokens are ignored so callers
// can pass optional clauses unconditionally.
func (b *Builder) Append(tokens ...string) *Builder {
	for _, t := range tokens {
		if t != "" {
			b.tokens = append(b.tokens, t)
		}
	}
	return b
}

// Bind adds binders after those already accumulated.
func (b *Builder) Bind(binders ...Binder) *Builder {
	for _, bd := range binders {
		if bd != nil {
			b.binders = append(b.binders, bd)
		}
	}
	return b
}

// AppendBound adds a fragment together with the binder for its placeholders.
func (b *Builder) AppendBound(fragment string, binder Binder) *Builder {
	return b.Append(fragment).Bind(binder)
}

// Merge appends another builder's tokens and binders.
func (b *Builder) Merge(other *Builder) *Builder {
	if other == nil {
		return b
	}
	b.tokens = append(b.tokens, other.tokens...)
	b.binders = append(b.binders, other.binders...)
	return b
}

// Len returns the number of accumulated tokens.
func (b *Builder) Len() int {
	return len(b.tokens)
}

// Statement renders the SQL text.
func (b *Builder) Statement() string {
	return strings.Join(b.tokens, " ")
}

// String implements fmt.Stringer.
func (b *Builder) String() string {
	return b.Statement()
}

// Binder returns a single binder running every accumulated binder in order.
func (b *Builder) Binder() Binder {
	binders := make([]Binder, len(b.binders))
	copy(binders, b.binders)
	return Chain(binders...)
}

// Args evaluates the composed binder.
func (b *Builder) Args() ([]any, error) {
	var args Args
	if err := b.Binder()(&args); err != nil {
		return nil, fmt.Errorf("bind: %w", err)
	}
	return args.Values(), nil
}

// Execute renders, binds and runs the statement.
func (b *Builder) Execute(ctx context.Context, ex Executor) (sql.Result, error) {
	args, err := b.Args()
	if err != nil {
		return nil, err
	}
	return ex.ExecContext(ctx, b.Statement(), args...)
}

// Query renders, binds and runs the statement, stepping each row.
func (b *Builder) Query(ctx context.Context, ex Executor, step func(*sql.Rows) error) error {
	args, err := b.Args()
	if err != nil {
		return err
	}
	return ex.Query(ctx, b.Statement(), args, step)
}
