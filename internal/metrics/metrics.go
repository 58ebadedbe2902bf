// Package metrics exposes prometheus instrumentation for the store worker,
// the migration engine and the observation engine.
//
// Every recording method is safe to call on a nil *Collector, so components
// can be instrumented unconditionally and only pay for it when a collector is
// configured.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "strata"

// Outcome labels for change-set metrics.
const (
	ChangeSetApplied   = "applied"
	ChangeSetSkipped   = "skipped"
	ChangeSetAlwaysRun = "always_run"
	ChangeSetFailed    = "failed"
)

// Collector is a prometheus.Collector for strata internals.
type Collector struct {
	jobs          prometheus.Counter
	jobWait       prometheus.Histogram
	queueDepth    prometheus.Gauge
	statements    *prometheus.CounterVec
	commits       prometheus.Counter
	rollbacks     prometheus.Counter
	changeSets    *prometheus.CounterVec
	subscriptions prometheus.Gauge
	deliveries    prometheus.Counter
}

// NewCollector returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		jobs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "store_jobs_total",
				Help:      "The number of jobs run by the store worker.",
			},
		),
		jobWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "store_job_wait_seconds",
				Help:      "Time a job spent queued before the worker picked it up.",
				Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1, 5},
			},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "store_queue_depth",
				Help:      "The number of jobs waiting for the store worker.",
			},
		),
		statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "store_statements_total",
				Help:      "The number of statements executed, by kind.",
			}, []string{"kind"},
		),
		commits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "store_commits_total",
				Help:      "The number of committed write batches.",
			},
		),
		rollbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "store_rollbacks_total",
				Help:      "The number of rolled back transactions.",
			},
		),
		changeSets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "migrate_changesets_total",
				Help:      "The number of change-sets processed, by outcome.",
			}, []string{"outcome"},
		),
		subscriptions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "observe_subscriptions",
				Help:      "The number of live observation subscriptions.",
			},
		),
		deliveries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "observe_deliveries_total",
				Help:      "The number of snapshots enqueued for subscribers.",
			},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.jobs.Describe(ch)
	c.jobWait.Describe(ch)
	c.queueDepth.Describe(ch)
	c.statements.Describe(ch)
	c.commits.Describe(ch)
	c.rollbacks.Describe(ch)
	c.changeSets.Describe(ch)
	c.subscriptions.Describe(ch)
	c.deliveries.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.jobs.Collect(ch)
	c.jobWait.Collect(ch)
	c.queueDepth.Collect(ch)
	c.statements.Collect(ch)
	c.commits.Collect(ch)
	c.rollbacks.Collect(ch)
	c.changeSets.Collect(ch)
	c.subscriptions.Collect(ch)
	c.deliveries.Collect(ch)
}

// JobStarted records a job leaving the queue after waiting for wait.
func (c *Collector) JobStarted(wait time.Duration, depth int) {
	if c == nil {
		return
	}
	c.jobs.Inc()
	c.jobWait.Observe(wait.Seconds())
	c.queueDepth.Set(float64(depth))
}

// Statement records one executed statement of the given kind
// ("exec", "query" or "mutate").
func (c *Collector) Statement(kind string) {
	if c == nil {
		return
	}
	c.statements.WithLabelValues(kind).Inc()
}

// Commit records a committed write batch.
func (c *Collector) Commit() {
	if c == nil {
		return
	}
	c.commits.Inc()
}

// Rollback records a rolled back transaction.
func (c *Collector) Rollback() {
	if c == nil {
		return
	}
	c.rollbacks.Inc()
}

// ChangeSet records a change-set outcome.
func (c *Collector) ChangeSet(outcome string) {
	if c == nil {
		return
	}
	c.changeSets.WithLabelValues(outcome).Inc()
}

// SubscriptionAdded increments the live subscription gauge.
func (c *Collector) SubscriptionAdded() {
	if c == nil {
		return
	}
	c.subscriptions.Inc()
}

// SubscriptionRemoved decrements the live subscription gauge.
func (c *Collector) SubscriptionRemoved() {
	if c == nil {
		return
	}
	c.subscriptions.Dec()
}

// Delivered records one enqueued snapshot.
func (c *Collector) Delivered() {
	if c == nil {
		return
	}
	c.deliveries.Inc()
}
