package expr

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes expression failures.
type ErrorCode string

const (
	// ErrParse means the source text is not a valid expression.
	ErrParse ErrorCode = "EXPR_PARSE"
	// ErrRuntime means evaluation failed (bad operand, unknown name,
	// wrong arity...). Recoverable: the owning property falls back to
	// its last good value.
	ErrRuntime ErrorCode = "EXPR_RUNTIME"
	// ErrTimeout means the step budget ran out. Same fallback as
	// ErrRuntime; the rest of the frame still evaluates.
	ErrTimeout ErrorCode = "EXPR_TIMEOUT"
)

// Error is the structured failure type for the sandbox.
type Error struct {
	Code    ErrorCode
	Pos     int // byte offset into the source, -1 when not positional
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s at offset %d: %s", e.Code, e.Pos, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsTimeout reports whether err is (or wraps) a budget exhaustion.
func IsTimeout(err error) bool {
	var ee *Error
	return errors.As(err, &ee) && ee.Code == ErrTimeout
}

func runtimeErr(pos int, format string, args ...any) *Error {
	return &Error{Code: ErrRuntime, Pos: pos, Message: fmt.Sprintf(format, args...)}
}
