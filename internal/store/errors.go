package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
)

// ErrClosed is returned for work submitted to a closed DB.
var ErrClosed = errors.New("store: database closed")

// ResultCode is an SQLite primary result code.
type ResultCode int

const (
	CodeError      ResultCode = 1
	CodeInternal   ResultCode = 2
	CodePerm       ResultCode = 3
	CodeAbort      ResultCode = 4
	CodeBusy       ResultCode = 5
	CodeLocked     ResultCode = 6
	CodeNoMem      ResultCode = 7
	CodeReadOnly   ResultCode = 8
	CodeInterrupt  ResultCode = 9
	CodeIOErr      ResultCode = 10
	CodeCorrupt    ResultCode = 11
	CodeNotFound   ResultCode = 12
	CodeFull       ResultCode = 13
	CodeCantOpen   ResultCode = 14
	CodeProtocol   ResultCode = 15
	CodeEmpty      ResultCode = 16
	CodeSchema     ResultCode = 17
	CodeTooBig     ResultCode = 18
	CodeConstraint ResultCode = 19
	CodeMismatch   ResultCode = 20
	CodeMisuse     ResultCode = 21
	CodeNoLFS      ResultCode = 22
	CodeAuth       ResultCode = 23
	CodeFormat     ResultCode = 24
	CodeRange      ResultCode = 25
	CodeNotADB     ResultCode = 26
	CodeNotice     ResultCode = 27
	CodeWarning    ResultCode = 28
)

var codeNames = map[ResultCode]string{
	CodeError:      "SQLITE_ERROR",
	CodeInternal:   "SQLITE_INTERNAL",
	CodePerm:       "SQLITE_PERM",
	CodeAbort:      "SQLITE_ABORT",
	CodeBusy:       "SQLITE_BUSY",
	CodeLocked:     "SQLITE_LOCKED",
	CodeNoMem:      "SQLITE_NOMEM",
	CodeReadOnly:   "SQLITE_READONLY",
	CodeInterrupt:  "SQLITE_INTERRUPT",
	CodeIOErr:      "SQLITE_IOERR",
	CodeCorrupt:    "SQLITE_CORRUPT",
	CodeNotFound:   "SQLITE_NOTFOUND",
	CodeFull:       "SQLITE_FULL",
	CodeCantOpen:   "SQLITE_CANTOPEN",
	CodeProtocol:   "SQLITE_PROTOCOL",
	CodeEmpty:      "SQLITE_EMPTY",
	CodeSchema:     "SQLITE_SCHEMA",
	CodeTooBig:     "SQLITE_TOOBIG",
	CodeConstraint: "SQLITE_CONSTRAINT",
	CodeMismatch:   "SQLITE_MISMATCH",
	CodeMisuse:     "SQLITE_MISUSE",
	CodeNoLFS:      "SQLITE_NOLFS",
	CodeAuth:       "SQLITE_AUTH",
	CodeFormat:     "SQLITE_FORMAT",
	CodeRange:      "SQLITE_RANGE",
	CodeNotADB:     "SQLITE_NOTADB",
	CodeNotice:     "SQLITE_NOTICE",
	CodeWarning:    "SQLITE_WARNING",
}

func (c ResultCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("SQLITE_CODE(%d)", int(c))
}

// Error is an engine failure mapped from the driver's native error.
type Error struct {
	// Code is the primary result code.
	Code ResultCode

	// Extended is the extended result code, or Code when the driver does
	// not report one.
	Extended int

	// Message is the engine's message text.
	Message string

	err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the driver error.
func (e *Error) Unwrap() error {
	return e.err
}

// MapError converts driver errors into *Error. Other errors, including nil,
// are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return err
	}

	var cgo sqlite3.Error
	if errors.As(err, &cgo) {
		return &Error{
			Code:     ResultCode(cgo.Code),
			Extended: int(cgo.ExtendedCode),
			Message:  cgo.Error(),
			err:      err,
		}
	}

	var pure *sqlite.Error
	if errors.As(err, &pure) {
		code := pure.Code()
		return &Error{
			Code:     ResultCode(code & 0xff),
			Extended: code,
			Message:  pure.Error(),
			err:      err,
		}
	}

	return err
}

func hasCode(err error, code ResultCode) bool {
	var se *Error
	if errors.As(MapError(err), &se) {
		return se.Code == code
	}
	return false
}

// IsBusy returns true if the error is SQLITE_BUSY.
func IsBusy(err error) bool {
	return hasCode(err, CodeBusy)
}

// IsLocked returns true if the error is SQLITE_LOCKED.
func IsLocked(err error) bool {
	return hasCode(err, CodeLocked)
}

// IsConstraint returns true if the error is a constraint violation.
func IsConstraint(err error) bool {
	return hasCode(err, CodeConstraint)
}

// Code returns the primary result code of err, or 0 if err is not an engine
// error.
func Code(err error) ResultCode {
	var se *Error
	if errors.As(MapError(err), &se) {
		return se.Code
	}
	return 0
}
