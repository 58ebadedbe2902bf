package schema

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/validate"
)

// ChangeSet is a named, ordered group of changes: the unit of migration
// bookkeeping.
type ChangeSet struct {
	id        string
	changes   []Change
	alwaysRun bool
}

// NewChangeSet groups changes under id.
func NewChangeSet(id string, changes ...Change) ChangeSet {
	return ChangeSet{id: id, changes: slices.Clone(changes)}
}

func (ChangeSet) isChange() {}

// ID returns the change-set id.
func (c ChangeSet) ID() string { return c.id }

// Changes returns the children in declaration order.
func (c ChangeSet) Changes() []Change { return slices.Clone(c.changes) }

// IsAlwaysRun reports whether the set runs on every migration.
func (c ChangeSet) IsAlwaysRun() bool { return c.alwaysRun }

// Add appends changes.
func (c ChangeSet) Add(changes ...Change) ChangeSet {
	c.changes = append(slices.Clone(c.changes), changes...)
	return c
}

// AlwaysRun marks the set to run on every migration without being logged.
func (c ChangeSet) AlwaysRun() ChangeSet {
	c.alwaysRun = true
	return c
}

// Statements renders each leaf change, descending into nested sets.
func (c ChangeSet) Statements() []string {
	var out []string
	for _, ch := range c.changes {
		if nested, ok := ch.(ChangeSet); ok {
			out = append(out, nested.Statements()...)
			continue
		}
		out = append(out, Render(ch))
	}
	return out
}

// Append renders every statement, each terminated by a semicolon, one per
// line.
func (c ChangeSet) Append(b *sqlbuild.Builder) {
	stmts := c.Statements()
	if len(stmts) == 0 {
		return
	}
	b.Append(strings.Join(stmts, ";\n") + ";")
}

// Apply applies each change in order. Each statement commits on its own
// unless the caller wraps the call in a transaction; a failure leaves the
// earlier changes applied.
func (c ChangeSet) Apply(ctx context.Context, ex sqlbuild.Executor) error {
	for _, ch := range c.changes {
		if err := ch.Apply(ctx, ex); err != nil {
			return fmt.Errorf("change-set %q: %w", c.id, err)
		}
	}
	return nil
}

// Describe implements Change.
func (c ChangeSet) Describe() string {
	return fmt.Sprintf("change-set %q", c.id)
}

// Validate checks the id and every child in declaration order.
func (c ChangeSet) Validate(v validate.Validation) {
	v = v.With(validate.ChangeSet(c.id))
	if strings.TrimSpace(c.id) == "" {
		v.Error(validate.EmptyChangeSetID)
	}
	if len(c.changes) == 0 {
		v.Warning(validate.EmptyChangeSet)
	}
	for i, ch := range c.changes {
		ch.Validate(v.WithInfo(validate.InfoChangeIndex, validate.Position(i)))
	}
}
