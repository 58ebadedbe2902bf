// Package store serializes all access to one SQLite database.
//
// A DB owns exactly one *sql.Conn and a single worker goroutine. Every
// statement, transaction and commit notification is a job on the worker's
// FIFO queue, so at most one statement is in flight per database and
// concurrent callers are served in submission order. This worker is the only
// concurrency primitive guarding the connection.
//
// # Inline execution
//
// Code running on the worker (a Do callback, a Txn body, a commit listener)
// receives a context marked with the worker state. Calls made with that
// context run inline instead of queueing, which is how nested transactions
// flatten onto the enclosing one. The marked context must not be handed to
// other goroutines.
//
// # Commit notifications
//
// Writes issued through Mutate carry a Change describing the affected table.
// Outside a transaction the change is published as soon as the statement
// succeeds; inside one the changes accumulate and are published once, after
// COMMIT. A ROLLBACK publishes nothing. Listeners run on the worker, so they
// observe the committed state before any later job runs.
//
// # Database Configuration
//
// Open applies these pragmas unless overridden with WithPragmas:
//
//   - journal_mode=WAL
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
