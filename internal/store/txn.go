package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// TxKind selects SQLite's lock acquisition strategy for BEGIN.
type TxKind int

const (
	Deferred TxKind = iota
	Immediate
	Exclusive
)

func (k TxKind) String() string {
	switch k {
	case Immediate:
		return "IMMEDIATE"
	case Exclusive:
		return "EXCLUSIVE"
	default:
		return "DEFERRED"
	}
}

// txState accumulates the changes of an open transaction.
type txState struct {
	changes []Change
}

func (t *txState) record(c Change) {
	t.changes = append(t.changes, c)
}

// Txn runs fn inside BEGIN/COMMIT on the worker. If fn returns an error or
// panics the transaction is rolled back and the original failure returned
// (or re-panicked). Calls made with fn's context run inline in the same
// transaction; a Txn call with that context does not open a new one.
//
// Changes recorded by Mutate inside fn are published once, after COMMIT.
func (d *DB) Txn(ctx context.Context, kind TxKind, fn func(ctx context.Context) error) error {
	return d.Do(ctx, func(ctx context.Context, conn *sql.Conn) error {
		st := d.state(ctx)
		if st.tx != nil {
			return fn(ctx)
		}
		return d.runTxn(ctx, st, kind, fn)
	})
}

func (d *DB) runTxn(ctx context.Context, st *workerState, kind TxKind, fn func(ctx context.Context) error) (err error) {
	if _, err := st.conn.ExecContext(ctx, "BEGIN "+kind.String()); err != nil {
		return fmt.Errorf("begin: %w", MapError(err))
	}

	tx := &txState{}
	st.tx = tx
	committed := false

	defer func() {
		st.tx = nil
		if committed {
			return
		}
		d.rollback(st.conn)
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		return err
	}

	if _, err := st.conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit: %w", MapError(err))
	}
	committed = true
	st.tx = nil

	d.publish(ctx, coalesce(tx.changes))
	return nil
}

// rollback aborts the open transaction. Errors are logged, not returned, so
// the caller sees the failure that caused the rollback.
func (d *DB) rollback(conn *sql.Conn) {
	d.metrics.Rollback()
	// A cancelled caller context must not prevent the rollback.
	if _, err := conn.ExecContext(context.Background(), "ROLLBACK"); err != nil {
		// SQLite may already have rolled back (e.g. on SQLITE_FULL).
		var se *Error
		if errors.As(MapError(err), &se) && se.Code == CodeError {
			slog.Debug("rollback after automatic rollback", "error", err)
			return
		}
		slog.Warn("rollback failed", "error", err)
	}
}
