package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// job is one unit of work for the worker.
type job struct {
	ctx      context.Context
	fn       func(ctx context.Context, conn *sql.Conn) error
	done     chan error
	enqueued time.Time
}

// workerKey marks contexts that are running on a DB's worker.
type workerKey struct{ db *DB }

// workerState is attached to contexts running on the worker.
type workerState struct {
	conn   *sql.Conn
	tx     *txState
	active bool
}

func (d *DB) state(ctx context.Context) *workerState {
	st, _ := ctx.Value(workerKey{db: d}).(*workerState)
	if st == nil || !st.active {
		return nil
	}
	return st
}

// InWorker reports whether ctx is running on d's worker.
func (d *DB) InWorker(ctx context.Context) bool {
	return d.state(ctx) != nil
}

// InTxn reports whether ctx belongs to an open transaction on d.
func (d *DB) InTxn(ctx context.Context) bool {
	st := d.state(ctx)
	return st != nil && st.tx != nil
}

// Do runs fn on the worker with exclusive use of the connection and waits
// for it to finish. Called from the worker itself, fn runs inline.
func (d *DB) Do(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error {
	if st := d.state(ctx); st != nil {
		return fn(ctx, st.conn)
	}

	j := &job{
		ctx:      ctx,
		fn:       fn,
		done:     make(chan error, 1),
		enqueued: time.Now(),
	}
	if !d.jobs.Push(j) {
		return ErrClosed
	}
	// The job may be using caller memory until it reports back, so there is
	// no early return on ctx.Done; the worker skips cancelled jobs and the
	// connection honours ctx for statements already running.
	return <-j.done
}

func (d *DB) run(j *job) {
	d.metrics.JobStarted(since(j.enqueued), d.jobs.Len())

	if err := j.ctx.Err(); err != nil {
		j.done <- err
		return
	}

	st := &workerState{conn: d.conn, active: true}
	ctx := context.WithValue(j.ctx, workerKey{db: d}, st)

	var err error
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("store job panicked: %v", p)
				slog.Error("store job panicked", "panic", p)
			}
		}()
		err = j.fn(ctx, d.conn)
	}()

	st.active = false
	j.done <- err
}

// ExecContext runs a statement that returns no rows.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := d.Do(ctx, func(ctx context.Context, conn *sql.Conn) error {
		d.metrics.Statement("exec")
		r, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return MapError(err)
		}
		res = r
		return nil
	})
	return res, err
}

// Query runs a statement and calls step for each row. Rows are only valid
// inside step.
func (d *DB) Query(ctx context.Context, query string, args []any, step func(*sql.Rows) error) error {
	return d.Do(ctx, func(ctx context.Context, conn *sql.Conn) error {
		d.metrics.Statement("query")
		return queryConn(ctx, conn, query, args, step)
	})
}

func queryConn(ctx context.Context, conn *sql.Conn, query string, args []any, step func(*sql.Rows) error) error {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := step(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return MapError(err)
	}
	return nil
}

// Mutate runs a write statement and records change. Outside a transaction,
// listeners are notified before Mutate returns; inside one, at COMMIT.
func (d *DB) Mutate(ctx context.Context, change Change, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := d.Do(ctx, func(ctx context.Context, conn *sql.Conn) error {
		d.metrics.Statement("mutate")
		r, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return MapError(err)
		}
		res = r

		st := d.state(ctx)
		if st.tx != nil {
			st.tx.record(change)
			return nil
		}
		d.publish(ctx, []Change{change})
		return nil
	})
	return res, err
}
