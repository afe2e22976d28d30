// Package errors carries coded errors through the diagram pipeline.
//
// Structural problems become an [*Error] with a [Code]: a malformed graph
// document, a skeleton without the expected cells, a broken layout. Data
// quality problems (a missing font, an unknown style, a connector to a
// service that is not drawn) are logged by the caller and never reach this
// package.
//
//	err := errors.New(errors.ErrCodeInvalidGraph, "unknown service: %s", name)
//	err = errors.Wrap(errors.ErrCodeTemplate, err, "parse %s", path)
//	errors.Is(err, errors.ErrCodeInvalidGraph) // true: every coded error in the chain is checked
//
// [ExitCode] maps an error to the status the CLI exits with.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Code is a machine-readable error category.
type Code string

const (
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidGraph   Code = "INVALID_GRAPH"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidStyle   Code = "INVALID_STYLE"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeInvalidService Code = "INVALID_SERVICE"

	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeServiceNotFound Code = "SERVICE_NOT_FOUND"

	// ErrCodeLayoutInvariant means the generator produced an impossible
	// layout. It always aborts the run.
	ErrCodeLayoutInvariant Code = "LAYOUT_INVARIANT"
	ErrCodeTemplate        Code = "TEMPLATE_ERROR"

	ErrCodeIO       Code = "IO_ERROR"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Exit statuses returned by [ExitCode].
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2 // bad input: fix the graph, styles or config
	ExitLayout   = 3
	ExitCanceled = 130
)

// Input reports whether the code blames the user's input rather than the
// program.
func (c Code) Input() bool {
	return strings.HasPrefix(string(c), "INVALID_") || strings.HasSuffix(string(c), "_NOT_FOUND") || c == ErrCodeTemplate
}

// Error is a coded error, optionally scoped to the diagram of one service.
type Error struct {
	Code    Code
	Message string
	Service string // "" when not tied to a service diagram
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Service != "" {
		fmt.Fprintf(&b, " [%s]", e.Service)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// ForService attributes err to the diagram of service. A coded error keeps
// its code; anything else becomes [ErrCodeInternal]. Context errors pass
// through untouched so cancellation stays recognisable.
func ForService(err error, service, diagram string) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	code := GetCode(err)
	if code == "" {
		code = ErrCodeInternal
	}
	return &Error{Code: code, Service: service, Message: diagram + " diagram", Cause: err}
}

// Is reports whether any coded error in err's chain has code.
func Is(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode returns the code of the outermost coded error, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitCanceled
	case Is(err, ErrCodeLayoutInvariant):
		return ExitLayout
	case GetCode(err).Input():
		return ExitUsage
	}
	return ExitFailure
}
