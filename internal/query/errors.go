package query

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("query: row not found")

	// ErrUpsertUnsupported is returned when a table cannot be upserted.
	ErrUpsertUnsupported = errors.New("query: upsert unsupported")

	// ErrNoKey is returned by row-addressed operations on a table without
	// key columns.
	ErrNoKey = errors.New("query: table has no key columns")

	// ErrEmptyUpdate is returned by an update with nothing to set.
	ErrEmptyUpdate = errors.New("query: update has no assignments")
)

// NotFoundError is a lookup by key that matched no row.
type NotFoundError struct {
	Table string
	Key   []any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if len(e.Key) > 0 {
		return fmt.Sprintf("query: %s row not found (key=%v)", e.Table, e.Key)
	}
	return fmt.Sprintf("query: %s row not found", e.Table)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// UpsertError explains why a table cannot be upserted.
type UpsertError struct {
	Table   string
	Reason  string
	Columns []string
}

// Error returns the error string.
func (e *UpsertError) Error() string {
	if len(e.Columns) > 0 {
		return fmt.Sprintf("query: cannot upsert %s: %s (%s)", e.Table, e.Reason, strings.Join(e.Columns, ", "))
	}
	return fmt.Sprintf("query: cannot upsert %s: %s", e.Table, e.Reason)
}

// Is reports whether the target error matches UpsertError.
func (e *UpsertError) Is(err error) bool {
	return err == ErrUpsertUnsupported
}

// DecodeError is a result column that could not be decoded into its field.
type DecodeError struct {
	Table  string
	Column string
	Err    error
}

// Error returns the error string.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("query: decode %s.%s: %v", e.Table, e.Column, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
