package observe

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/strata/internal/metrics"
	"github.com/roach88/strata/internal/store"
)

// Option configures an Observer.
type Option func(*Observer)

// WithIDGenerator sets how subscriptions are named. The default is
// UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *Observer) {
		o.ids = g
	}
}

// WithMetrics records subscription and delivery counts on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Observer) {
		o.metrics = c
	}
}

// registration is the type-erased view of a Subscription.
type registration interface {
	ID() string
	table() string
	refresh(ctx context.Context, seq int64)
	shutdown()
}

// Observer owns the subscriptions of one database.
type Observer struct {
	db      *store.DB
	ids     IDGenerator
	metrics *metrics.Collector
	remove  func()

	mu     sync.Mutex
	subs   []registration
	closed bool
}

// New registers an Observer on db's commits.
func New(db *store.DB, opts ...Option) *Observer {
	o := &Observer{db: db, ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(o)
	}
	o.remove = db.OnCommit(o.onCommit)
	return o
}

// onCommit recomputes every subscription on a table the commit touched. It
// runs on the worker, right after the commit.
func (o *Observer) onCommit(ctx context.Context, c store.Commit) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	subs := slices.Clone(o.subs)
	o.mu.Unlock()

	for _, s := range subs {
		if _, ok := c.Affects(s.table()); ok {
			s.refresh(ctx, c.Seq)
		}
	}
}

func (o *Observer) register(r registration) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	o.subs = append(o.subs, r)
	o.metrics.SubscriptionAdded()
	slog.Debug("subscription registered", "id", r.ID(), "table", r.table())
	return nil
}

func (o *Observer) unregister(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.subs)
	o.subs = slices.DeleteFunc(o.subs, func(r registration) bool { return r.ID() == id })
	if len(o.subs) < n {
		o.metrics.SubscriptionRemoved()
		slog.Debug("subscription removed", "id", id)
	}
}

// Len returns the number of live subscriptions.
func (o *Observer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

// Close cancels every subscription and stops listening for commits. The
// database stays open.
func (o *Observer) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	subs := o.subs
	o.subs = nil
	for range subs {
		o.metrics.SubscriptionRemoved()
	}
	o.mu.Unlock()

	o.remove()
	for _, s := range subs {
		s.shutdown()
	}
	slog.Debug("observer closed", "subscriptions", len(subs))
}
