package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/tomb.v2"
	_ "modernc.org/sqlite"

	"github.com/roach88/strata/internal/metrics"
	"github.com/roach88/strata/internal/queue"
)

// Driver names accepted by WithDriver.
const (
	DriverCGO    = "sqlite3"
	DriverPureGo = "sqlite"
)

// DefaultPragmas are applied by Open.
var DefaultPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// DB is a serialized handle to one SQLite connection.
type DB struct {
	db      *sql.DB
	conn    *sql.Conn
	owned   bool
	driver  string
	pragmas []string
	metrics *metrics.Collector

	jobs *queue.Queue[*job]
	tomb tomb.Tomb
	seq  *Sequence

	mu        sync.Mutex
	listeners []listenerEntry
	nextID    int

	closeOnce sync.Once
	closeErr  error
}

// Option configures a DB.
type Option func(*DB)

// WithDriver selects the database/sql driver, DriverCGO (default) or
// DriverPureGo.
func WithDriver(name string) Option {
	return func(d *DB) {
		d.driver = name
	}
}

// WithPragmas replaces the pragmas applied by Open.
func WithPragmas(pragmas ...string) Option {
	return func(d *DB) {
		d.pragmas = pragmas
	}
}

// WithMetrics instruments the worker.
func WithMetrics(c *metrics.Collector) Option {
	return func(d *DB) {
		d.metrics = c
	}
}

// WithSequence resumes commit numbering from an existing sequence.
func WithSequence(s *Sequence) Option {
	return func(d *DB) {
		d.seq = s
	}
}

func newDB(opts []Option) *DB {
	d := &DB{
		driver:  DriverCGO,
		pragmas: DefaultPragmas,
		jobs:    queue.New[*job](),
		seq:     NewSequence(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open creates or opens the SQLite database at path and starts the worker.
// The database is configured with DefaultPragmas unless WithPragmas says
// otherwise.
func Open(path string, opts ...Option) (*DB, error) {
	d := newDB(opts)

	sqlDB, err := sql.Open(d.driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: every job runs on it, and an in-memory database
	// would otherwise be private to whichever pooled connection made it.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	ctx := context.Background()
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", MapError(err))
	}

	for _, pragma := range d.pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			sqlDB.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, MapError(err))
		}
	}

	d.db = sqlDB
	d.conn = conn
	d.owned = true
	d.start()

	slog.Debug("store opened", "path", path, "driver", d.driver)
	return d, nil
}

// Wrap serializes access to an existing *sql.DB. No pragmas are applied and
// Close leaves db open.
func Wrap(db *sql.DB, opts ...Option) (*DB, error) {
	d := newDB(opts)

	conn, err := db.Conn(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", MapError(err))
	}

	d.db = db
	d.conn = conn
	d.start()
	return d, nil
}

func (d *DB) start() {
	d.tomb.Go(d.loop)
}

// Close stops accepting jobs, waits for queued jobs to finish and releases
// the connection. Subsequent calls return the first result.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		d.jobs.Close()
		err := d.tomb.Wait()

		if cerr := d.conn.Close(); err == nil {
			err = cerr
		}
		if d.owned {
			if cerr := d.db.Close(); err == nil {
				err = cerr
			}
		}
		d.closeErr = err
		slog.Debug("store closed")
	})
	return d.closeErr
}

// Kill stops the worker without running queued jobs; they fail with
// ErrClosed. Close must still be called to release the connection.
func (d *DB) Kill() {
	d.tomb.Kill(nil)
}

// Seq returns the sequence number of the last published commit.
func (d *DB) Seq() int64 {
	return d.seq.Current()
}

// Driver returns the database/sql driver name in use.
func (d *DB) Driver() string {
	return d.driver
}

// loop is the worker. It runs jobs in FIFO order until the queue is closed
// and empty, or the tomb is killed.
func (d *DB) loop() error {
	slog.Debug("store worker starting")
	defer slog.Debug("store worker stopped")

	for {
		if j, ok := d.jobs.TryPop(); ok {
			d.run(j)
			continue
		}

		if d.jobs.Closed() {
			// Anything pushed between TryPop and Close.
			for _, j := range d.jobs.Drain() {
				d.run(j)
			}
			return nil
		}

		select {
		case <-d.tomb.Dying():
			for _, j := range d.jobs.Drain() {
				j.done <- ErrClosed
			}
			return tomb.ErrDying
		case <-d.jobs.Wait():
		}
	}
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (d *DB) verifyPragma(name, expected string) error {
	var value string
	err := d.Query(context.Background(), "PRAGMA "+name, nil, func(rows *sql.Rows) error {
		return rows.Scan(&value)
	})
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

func since(t time.Time) time.Duration {
	if t.IsZero() {
		return 0
	}
	return time.Since(t)
}
