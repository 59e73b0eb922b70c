package llm

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates generation failures so callers can decide per
// stage whether a failure is fatal (generation) or recoverable
// (classification, rule inference).
type ErrorKind string

const (
	// ErrConfig means required credentials or endpoints are missing.
	// Fatal to the specific call, never silently defaulted.
	ErrConfig ErrorKind = "config"

	// ErrBlocked means the provider refused the prompt or cut generation
	// short for safety reasons.
	ErrBlocked ErrorKind = "blocked"

	// ErrTransport covers request failures and non-2xx responses.
	ErrTransport ErrorKind = "transport"

	// ErrTimeout means the call exceeded its deadline.
	ErrTimeout ErrorKind = "timeout"

	// ErrParse means the response arrived but carried no usable payload.
	ErrParse ErrorKind = "parse"
)

// Error is the tagged error result for every expected LLM failure mode.
// Low-level components return it instead of raising; only contract
// violations abort early.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("llm %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a tagged error without a wrapped cause.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// WrapError builds a tagged error wrapping an underlying cause.
func WrapError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err if it is (or wraps) an *Error, or "" otherwise.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
