package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/strata/internal/metrics"
	"github.com/roach88/strata/internal/sqlbuild"
	"github.com/roach88/strata/internal/store"
)

// Transactor runs fn in a transaction; calls made with fn's context join
// it. store.DB implements it.
type Transactor interface {
	Txn(ctx context.Context, kind store.TxKind, fn func(ctx context.Context) error) error
}

// ErrNoTransactor is returned when change-set transactions are requested
// on an executor that cannot open transactions.
var ErrNoTransactor = errors.New("executor does not support transactions")

// Apply runs the migration against ex and returns the steps it took, in
// order. On failure the steps completed before it are returned with the
// error; their effects stay committed.
func (m Migration) Apply(ctx context.Context, ex sqlbuild.Executor, opts ...Option) ([]Step, error) {
	o := newOptions(opts)

	if err := m.checkUnique(); err != nil {
		return nil, err
	}

	tx, canTx := ex.(Transactor)
	if o.transactions && !canTx {
		return nil, ErrNoTransactor
	}
	if o.statements != nil {
		ex = statementLog{Executor: ex, w: o.statements}
	}

	if err := ensureLog(ctx, ex, o.verify); err != nil {
		return nil, err
	}
	log, err := ReadLog(ctx, ex)
	if err != nil {
		return nil, err
	}
	steps, err := reconcile(m.changeSets, log)
	if err != nil {
		return nil, err
	}

	var sums map[string]string
	if o.verify {
		if sums, err = readChecksums(ctx, ex); err != nil {
			return nil, err
		}
	}

	r := runner{ex: ex, opts: o, sums: sums}
	done := make([]Step, 0, len(steps))
	for _, step := range steps {
		run := func(ctx context.Context) error { return r.step(ctx, step) }
		if o.transactions && step.Kind != StepSkip {
			err = tx.Txn(ctx, store.Immediate, run)
		} else {
			err = run(ctx)
		}
		if err != nil {
			o.metrics.ChangeSet(metrics.ChangeSetFailed)
			slog.Warn("change-set failed", "id", step.ID, "error", err)
			return done, err
		}
		done = append(done, step)
	}
	return done, nil
}

type runner struct {
	ex   sqlbuild.Executor
	opts *options
	sums map[string]string
}

func (r runner) step(ctx context.Context, step Step) error {
	switch step.Kind {
	case StepSkip:
		if err := r.verify(ctx, step); err != nil {
			return err
		}
		r.opts.metrics.ChangeSet(metrics.ChangeSetSkipped)
		slog.Debug("change-set already applied", "id", step.ID, "order", step.Order)
		return nil

	case StepAlwaysRun:
		if err := step.changeSet.Apply(ctx, r.ex); err != nil {
			return err
		}
		r.opts.metrics.ChangeSet(metrics.ChangeSetAlwaysRun)
		slog.Info("change-set run", "id", step.ID, "always_run", true)
		return nil
	}

	started := r.opts.clock.Now().UTC()
	if err := step.changeSet.Apply(ctx, r.ex); err != nil {
		return err
	}
	completed := r.opts.clock.Now().UTC()

	if err := insertLog(ctx, r.ex, LogEntry{
		ID:          step.ID,
		Order:       step.Order,
		StartedAt:   started,
		CompletedAt: completed,
	}); err != nil {
		return err
	}
	if r.opts.verify {
		if err := writeChecksum(ctx, r.ex, step.ID, step.Checksum); err != nil {
			return err
		}
	}

	r.opts.metrics.ChangeSet(metrics.ChangeSetApplied)
	slog.Info("change-set applied", "id", step.ID, "order", step.Order)
	return nil
}

// verify compares a skipped change-set against its recorded checksum. A
// change-set logged before verification was enabled has none yet and gets
// its current checksum recorded.
func (r runner) verify(ctx context.Context, step Step) error {
	if !r.opts.verify {
		return nil
	}
	recorded, ok := r.sums[step.ID]
	if !ok {
		return writeChecksum(ctx, r.ex, step.ID, step.Checksum)
	}
	if recorded != step.Checksum {
		return newError(ErrCodeChecksumMismatch, map[string]string{
			"id":       step.ID,
			"recorded": recorded,
			"current":  step.Checksum,
		}, "change-set %q was modified after it was applied", step.ID)
	}
	return nil
}

// statementLog echoes statements to w before running them.
type statementLog struct {
	sqlbuild.Executor
	w io.Writer
}

func (s statementLog) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	fmt.Fprintf(s.w, "%s;\n", query)
	return s.Executor.ExecContext(ctx, query, args...)
}
