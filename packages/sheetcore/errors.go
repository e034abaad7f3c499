package sheetcore

import (
	"errors"
	"fmt"
)

// AppErrorCode represents gRPC-style error codes for structural errors. these
// are returned to callers of Get, Put and GetLiteral; formula problems that
// happen while computing a value are error markers instead (see ErrorCode).
type AppErrorCode int

const (
	// OK indicates the operation completed successfully.
	OK AppErrorCode = 0

	// InvalidReference means a cell reference or range string is malformed
	// or out of bounds.
	InvalidReference AppErrorCode = 3

	// FormulaSyntax means a formula could not be tokenized or parsed. the
	// error carries the position of the offending input.
	FormulaSyntax AppErrorCode = 4

	// DepthExceeded means an evaluation or traversal hit its configured depth
	// guard.
	DepthExceeded AppErrorCode = 8

	// CyclicReference means a put would introduce a dependency cycle.
	CyclicReference AppErrorCode = 9

	// Internal errors. a collaborator such as the literal store failed.
	Internal AppErrorCode = 13
)

var (
	ErrInvalidReference = errors.New("invalid reference")
	ErrFormulaSyntax    = errors.New("formula syntax error")
	ErrDepthExceeded    = errors.New("evaluation depth exceeded")
	ErrCyclicReference  = errors.New("cyclic reference")
	ErrInternal         = errors.New("internal error")
)

// AppError represents structural errors (not in-value error markers)
type AppError struct {
	Code    AppErrorCode
	Message string
	Ref     string // cell reference the operation targeted, if any
	Pos     int    // rune offset into the literal, for FormulaSyntax
	Err     error  // underlying cause, for Internal
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Code == FormulaSyntax {
		msg = fmt.Sprintf("%s at position %d", msg, e.Pos)
	}
	if e.Ref != "" {
		msg = fmt.Sprintf("%s: %s", e.Ref, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the sentinel for the error code, plus the cause if any, so
// callers can use errors.Is(err, ErrCyclicReference).
func (e *AppError) Unwrap() []error {
	var errs []error
	switch e.Code {
	case InvalidReference:
		errs = append(errs, ErrInvalidReference)
	case FormulaSyntax:
		errs = append(errs, ErrFormulaSyntax)
	case DepthExceeded:
		errs = append(errs, ErrDepthExceeded)
	case CyclicReference:
		errs = append(errs, ErrCyclicReference)
	case Internal:
		errs = append(errs, ErrInternal)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func newSyntaxError(pos int, format string, args ...any) *AppError {
	return &AppError{
		Code:    FormulaSyntax,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	}
}

func newReferenceError(ref string, message string) *AppError {
	return &AppError{
		Code:    InvalidReference,
		Message: message,
		Ref:     ref,
	}
}

// IsCycleError reports whether err is (or wraps) a cyclic reference error.
func IsCycleError(err error) bool {
	return errors.Is(err, ErrCyclicReference)
}

// IsReferenceError reports whether err is (or wraps) an invalid reference
// error.
func IsReferenceError(err error) bool {
	return errors.Is(err, ErrInvalidReference)
}

// IsSyntaxError reports whether err is (or wraps) a formula syntax error.
func IsSyntaxError(err error) bool {
	return errors.Is(err, ErrFormulaSyntax)
}

// IsDepthError reports whether err is (or wraps) a depth guard error.
func IsDepthError(err error) bool {
	return errors.Is(err, ErrDepthExceeded)
}

// syntaxPosition returns the position carried by a syntax error, or -1.
func syntaxPosition(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code == FormulaSyntax {
		return appErr.Pos
	}
	return -1
}
