package migrate

import (
	"io"

	"github.com/juju/clock"

	"github.com/roach88/strata/internal/metrics"
	"github.com/roach88/strata/internal/store"
)

// Option configures a migration run.
type Option func(*options)

type options struct {
	clock        clock.Clock
	verify       bool
	transactions bool
	statements   io.Writer
	metrics      *metrics.Collector
	storeOpts    []store.Option
}

func newOptions(opts []Option) *options {
	o := &options{clock: clock.WallClock}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithClock sets the clock log timestamps are read from.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithChecksumVerification records a checksum for every applied change-set
// and fails with ErrCodeChecksumMismatch when a logged change-set no longer
// renders to the recorded checksum.
func WithChecksumVerification() Option {
	return func(o *options) {
		o.verify = true
	}
}

// WithChangeSetTransactions applies each change-set and its log row in one
// IMMEDIATE transaction. The executor must implement Transactor.
func WithChangeSetTransactions() Option {
	return func(o *options) {
		o.transactions = true
	}
}

// WithStatementLog writes every executed statement to w.
func WithStatementLog(w io.Writer) Option {
	return func(o *options) {
		o.statements = w
	}
}

// WithMetrics counts change-set outcomes.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

// WithStoreOptions configures the store opened by the file entry points.
func WithStoreOptions(opts ...store.Option) Option {
	return func(o *options) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}
