package migrate

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes consistency errors.
type ErrorCode string

const (
	// ErrCodeDuplicateChangeSet indicates two change-sets share an id.
	ErrCodeDuplicateChangeSet ErrorCode = "DUPLICATE_CHANGESET"

	// ErrCodeOrderMismatch indicates a logged id differs from the declared
	// id at the same position.
	ErrCodeOrderMismatch ErrorCode = "ORDER_MISMATCH"

	// ErrCodeExtraLogEntries indicates the log holds more entries than
	// there are declared change-sets.
	ErrCodeExtraLogEntries ErrorCode = "EXTRA_LOG_ENTRIES"

	// ErrCodeChecksumMismatch indicates an applied change-set was edited.
	ErrCodeChecksumMismatch ErrorCode = "CHECKSUM_MISMATCH"
)

// Error is a fatal consistency error between the declared migration and
// the database's migration log.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, details map[string]string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: details,
	}
}

func hasCode(err error, code ErrorCode) bool {
	var me *Error
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// IsDuplicateChangeSet reports whether err is a duplicate id error.
func IsDuplicateChangeSet(err error) bool {
	return hasCode(err, ErrCodeDuplicateChangeSet)
}

// IsOrderMismatch reports whether err is an order mismatch error.
func IsOrderMismatch(err error) bool {
	return hasCode(err, ErrCodeOrderMismatch)
}

// IsExtraLogEntries reports whether err is an extra log entries error.
func IsExtraLogEntries(err error) bool {
	return hasCode(err, ErrCodeExtraLogEntries)
}

// IsChecksumMismatch reports whether err is a checksum mismatch error.
func IsChecksumMismatch(err error) bool {
	return hasCode(err, ErrCodeChecksumMismatch)
}
