package observe

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/roach88/strata/internal/query"
	"github.com/roach88/strata/internal/queue"
)

// TableSnapshot holds the rows of an observed table after commit Seq.
type TableSnapshot[R any] struct {
	Seq  int64
	Rows []R
}

// RowSnapshot holds an observed row after commit Seq. Present is false
// once the row is deleted; that snapshot is the last one.
type RowSnapshot[R any] struct {
	Seq     int64
	Row     R
	Present bool
}

// result is one computed snapshot. content is what change detection
// compares; final ends the subscription after delivery.
type result[T any] struct {
	value   T
	content any
	final   bool
}

type computeFunc[T any] func(ctx context.Context, seq int64) (result[T], error)

// Subscription delivers snapshots of type T in commit order.
type Subscription[T any] struct {
	id       string
	tbl      string
	observer *Observer
	compute  computeFunc[T]

	// last is only touched on the store worker.
	last []byte

	queue  *queue.Queue[T]
	out    chan T
	stop   chan struct{}
	exited chan struct{}

	stopOnce sync.Once
}

// ObserveTable subscribes to the rows of t matching where, in primary key
// order. The current rows are the first snapshot.
func ObserveTable[R any](ctx context.Context, o *Observer, t *query.Table[R], where ...query.Condition) (*Subscription[TableSnapshot[R]], error) {
	sel := t.Select().Where(where...)
	for _, k := range t.Keys() {
		sel = sel.OrderBy(query.ColOf[any](query.TableRef{}, k.Name()).Asc())
	}
	return subscribe(ctx, o, t.Name(), func(ctx context.Context, seq int64) (result[TableSnapshot[R]], error) {
		rows, err := sel.All(ctx, o.db)
		if err != nil {
			return result[TableSnapshot[R]]{}, err
		}
		return result[TableSnapshot[R]]{value: TableSnapshot[R]{Seq: seq, Rows: rows}, content: rows}, nil
	})
}

// ObserveRow subscribes to the row of t with primary key key. It returns
// ErrRowNotFound when no such row exists.
func ObserveRow[R any](ctx context.Context, o *Observer, t *query.Table[R], key ...any) (*Subscription[RowSnapshot[R]], error) {
	return subscribe(ctx, o, t.Name(), func(ctx context.Context, seq int64) (result[RowSnapshot[R]], error) {
		row, err := t.Find(ctx, o.db, key...)
		switch {
		case query.IsNotFound(err):
			return result[RowSnapshot[R]]{value: RowSnapshot[R]{Seq: seq}, final: true}, nil
		case err != nil:
			return result[RowSnapshot[R]]{}, err
		}
		return result[RowSnapshot[R]]{value: RowSnapshot[R]{Seq: seq, Row: row, Present: true}, content: row}, nil
	})
}

// subscribe computes the first snapshot and registers the subscription in
// one worker job. It refuses a transaction's context: the snapshot would
// see writes that may still roll back.
func subscribe[T any](ctx context.Context, o *Observer, table string, compute computeFunc[T]) (*Subscription[T], error) {
	if o.db.InTxn(ctx) {
		return nil, ErrInTransaction
	}
	s := &Subscription[T]{
		id:       o.ids.Generate(),
		tbl:      table,
		observer: o,
		compute:  compute,
		queue:    queue.New[T](),
		out:      make(chan T),
		stop:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
	go s.pump()

	err := o.db.Do(ctx, func(ctx context.Context, _ *sql.Conn) error {
		res, err := compute(ctx, o.db.Seq())
		if err != nil {
			return err
		}
		if res.final {
			return ErrRowNotFound
		}
		if err := o.register(s); err != nil {
			return err
		}
		return s.enqueue(res)
	})
	if err != nil {
		s.observer.unregister(s.id)
		s.shutdown()
		return nil, err
	}
	return s, nil
}

// ID returns the subscription id.
func (s *Subscription[T]) ID() string { return s.id }

// Changes returns the delivery channel. It is closed after Cancel, after
// the observer closes, or after a final snapshot.
func (s *Subscription[T]) Changes() <-chan T { return s.out }

// Cancel ends the subscription. Nothing is delivered after it returns.
func (s *Subscription[T]) Cancel() {
	s.observer.unregister(s.id)
	s.shutdown()
}

func (s *Subscription[T]) table() string { return s.tbl }

func (s *Subscription[T]) shutdown() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.queue.Close()
	})
	<-s.exited
}

func (s *Subscription[T]) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// refresh recomputes the snapshot after commit seq. Failures are logged and
// the subscription stays live.
func (s *Subscription[T]) refresh(ctx context.Context, seq int64) {
	if s.stopped() {
		return
	}
	res, err := s.compute(ctx, seq)
	if err != nil {
		slog.Warn("subscription refresh failed", "id", s.id, "table", s.tbl, "seq", seq, "error", err)
		return
	}
	if err := s.enqueue(res); err != nil {
		slog.Warn("subscription refresh failed", "id", s.id, "table", s.tbl, "seq", seq, "error", err)
		return
	}
	if res.final {
		s.observer.unregister(s.id)
		s.queue.Close()
	}
}

// enqueue queues res when its content differs from the last snapshot
// queued. Final snapshots are always queued.
func (s *Subscription[T]) enqueue(res result[T]) error {
	fp, err := fingerprint(res.content)
	if err != nil {
		return err
	}
	if !res.final && s.last != nil && bytes.Equal(fp, s.last) {
		return nil
	}
	s.last = fp
	if s.queue.Push(res.value) {
		s.observer.metrics.Delivered()
	}
	return nil
}

// pump moves snapshots from the queue to the delivery channel until the
// subscription stops or the queue is closed and drained.
func (s *Subscription[T]) pump() {
	defer close(s.exited)
	defer close(s.out)

	for {
		if v, ok := s.queue.TryPop(); ok {
			if s.stopped() {
				return
			}
			select {
			case s.out <- v:
			case <-s.stop:
				return
			}
			continue
		}
		if s.queue.Closed() {
			return
		}
		select {
		case <-s.queue.Wait():
		case <-s.stop:
			return
		}
	}
}
