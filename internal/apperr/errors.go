// Package apperr defines the structured faults returned by composed components.
//
// Every fault carries a Kind that maps to an HTTP status code, a user-facing
// message, and optionally the underlying error and a source location (for
// YAML syntax faults). Components return *Error at their boundaries; callers
// inspect them with KindOf and StatusOf, which see through %w wrapping.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a fault.
type Kind string

const (
	// KindNotFound means a project, file, or container is absent.
	KindNotFound Kind = "not_found"
	// KindAccessDenied means a path escaped the project sandbox.
	KindAccessDenied Kind = "access_denied"
	// KindInvalidInput covers malformed YAML and rejected request values.
	KindInvalidInput Kind = "invalid_input"
	// KindExternalTool means the compose tool exited non-zero.
	KindExternalTool Kind = "external_tool"
	// KindFilesystem is an OS-level error on open, write, or remove.
	KindFilesystem Kind = "filesystem"
	// KindInternal is anything else.
	KindInternal Kind = "internal"
)

// Location points at a position inside a parsed document. Line and Column
// are 1-based; zero means unknown.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String formats the location as "line:column".
func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Error is a structured fault.
type Error struct {
	Kind     Kind
	Message  string
	Location *Location
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Location != nil {
		return fmt.Sprintf("%s - %s", e.Location, e.Message)
	}
	return e.Message
}

// Unwrap allows errors.Is and errors.As to see the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the fault.
func (e *Error) Status() int {
	return statusForKind(e.Kind)
}

func statusForKind(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindAccessDenied:
		return http.StatusForbidden
	case KindInvalidInput:
		return http.StatusUnprocessableEntity
	case KindExternalTool, KindFilesystem:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NotFound builds a KindNotFound fault.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// AccessDenied builds a KindAccessDenied fault.
func AccessDenied(format string, args ...any) *Error {
	return &Error{Kind: KindAccessDenied, Message: fmt.Sprintf(format, args...)}
}

// InvalidInput builds a KindInvalidInput fault.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// InvalidYAML builds a KindInvalidInput fault carrying a document location.
func InvalidYAML(loc Location, message string, err error) *Error {
	return &Error{Kind: KindInvalidInput, Message: message, Location: &loc, Err: err}
}

// ExternalTool builds a KindExternalTool fault with the tool's message.
func ExternalTool(message string, err error) *Error {
	return &Error{Kind: KindExternalTool, Message: message, Err: err}
}

// Filesystem builds a KindFilesystem fault. The message is the OS error
// string, without the operation and path prefix when err is a *fs.PathError.
func Filesystem(err error) *Error {
	return &Error{Kind: KindFilesystem, Message: osMessage(err), Err: err}
}

// Internal wraps an unexpected error.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: err.Error(), Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	return statusForKind(KindOf(err))
}

// Is reports whether err carries a fault of the given kind.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
