package observe

import "errors"

var (
	// ErrRowNotFound is returned by ObserveRow when no row has the key.
	ErrRowNotFound = errors.New("observe: row not found")

	// ErrClosed is returned when subscribing to a closed Observer.
	ErrClosed = errors.New("observe: observer closed")

	// ErrInTransaction is returned when subscribing from inside a
	// transaction, whose uncommitted rows must not reach a snapshot.
	ErrInTransaction = errors.New("observe: cannot subscribe inside a transaction")
)
