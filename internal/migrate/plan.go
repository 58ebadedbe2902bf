package migrate

import (
	"context"
	"fmt"

	"github.com/roach88/strata/internal/schema"
	"github.com/roach88/strata/internal/sqlbuild"
)

// StepKind is what a run does with one change-set.
type StepKind string

const (
	// StepApply applies the change-set and logs it.
	StepApply StepKind = "apply"

	// StepSkip leaves an already logged change-set alone.
	StepSkip StepKind = "skip"

	// StepAlwaysRun applies the change-set without logging it.
	StepAlwaysRun StepKind = "always_run"
)

// Step is the reconciled action for one declared change-set. Order is the
// log order the change-set has or will get; it is -1 for StepAlwaysRun.
type Step struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     StepKind `json:"kind" yaml:"kind"`
	Order    int64    `json:"order" yaml:"order"`
	Checksum string   `json:"checksum" yaml:"checksum"`

	changeSet schema.ChangeSet
}

// ChangeSet returns the change-set the step acts on.
func (s Step) ChangeSet() schema.ChangeSet { return s.changeSet }

// reconcile matches the declared change-sets against the log, position by
// position. Logged entries are consumed in order; a logged id that differs
// from the declared id at that position is an order mismatch, and entries
// left over once every change-set is matched are extra.
func reconcile(sets []schema.ChangeSet, log []LogEntry) ([]Step, error) {
	steps := make([]Step, 0, len(sets))
	var next int64
	i := 0

	for _, cs := range sets {
		step := Step{ID: cs.ID(), Checksum: Checksum(cs), changeSet: cs}

		switch {
		case cs.IsAlwaysRun():
			step.Kind = StepAlwaysRun
			step.Order = -1

		case i < len(log):
			entry := log[i]
			i++
			if entry.ID != cs.ID() {
				return nil, newError(ErrCodeOrderMismatch, map[string]string{
					"expected": cs.ID(),
					"found":    entry.ID,
					"order":    fmt.Sprint(entry.Order),
				}, "expected change-set %q but the log has %q at order %d", cs.ID(), entry.ID, entry.Order)
			}
			step.Kind = StepSkip
			step.Order = entry.Order
			next = entry.Order + 1

		default:
			step.Kind = StepApply
			step.Order = next
			next++
		}

		steps = append(steps, step)
	}

	if i < len(log) {
		extra := make([]string, 0, len(log)-i)
		for _, e := range log[i:] {
			extra = append(extra, e.ID)
		}
		return nil, newError(ErrCodeExtraLogEntries, map[string]string{
			"count": fmt.Sprint(len(extra)),
			"first": extra[0],
		}, "log has %d entries not in the migration, starting with %q", len(extra), extra[0])
	}

	return steps, nil
}

// Plan reconciles m against the log in ex without changing anything.
func (m Migration) Plan(ctx context.Context, ex sqlbuild.Executor) ([]Step, error) {
	if err := m.checkUnique(); err != nil {
		return nil, err
	}
	log, err := ReadLog(ctx, ex)
	if err != nil {
		return nil, err
	}
	return reconcile(m.changeSets, log)
}
