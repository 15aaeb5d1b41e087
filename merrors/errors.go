package merrors

import (
	"errors"
	"fmt"
)

// Error is a typed mount error: an ErrorCode plus enough context (a path, an
// identifier string, a wrapped cause) to produce a useful diagnostic and to
// drive the HTTP surface's status code.
type Error struct {
	Code    ErrorCode
	Path    string
	ID      string
	Cause   error
	Message string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.Message()
	}
	switch {
	case e.Path != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", msg, e.Path, e.Cause)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", msg, e.Path)
	case e.ID != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", msg, e.ID, e.Cause)
	case e.ID != "":
		return fmt.Sprintf("%s: %s", msg, e.ID)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, merrors.ErrorCodeNotFound) style matching by
// comparing codes rather than pointer identity.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// New builds a bare Error of the given code.
func New(code ErrorCode) *Error {
	return &Error{Code: code}
}

// WithPath attaches a path to the error for display.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithID attaches an identifier string to the error for display.
func (e *Error) WithID(id string) *Error {
	e.ID = id
	return e
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Convenience constructors used throughout block, blockstore, model, mount,
// and rootptr.

func NotFound(id string) *Error {
	return &Error{Code: ErrorCodeNotFound, ID: id}
}

func DecodeError(cause error) *Error {
	return &Error{Code: ErrorCodeDecodeError, Cause: cause}
}

func EncodeError(cause error) *Error {
	return &Error{Code: ErrorCodeEncodeError, Cause: cause}
}

func PathNotFound(path string) *Error {
	return &Error{Code: ErrorCodePathNotFound, Path: path}
}

func DataOnPath(path string) *Error {
	return &Error{Code: ErrorCodeDataOnPath, Path: path}
}

func SchemaOnData(path string) *Error {
	return &Error{Code: ErrorCodeSchemaOnData, Path: path}
}

func SchemaValidation(path string, cause error) *Error {
	return &Error{Code: ErrorCodeSchemaValidation, Path: path, Cause: cause}
}

func PreviousMismatch(got, want string) *Error {
	return &Error{Code: ErrorCodePreviousMismatch, Message: fmt.Sprintf("manifest.previous=%s, expected %s", got, want)}
}

func Conflict(previous string) *Error {
	return &Error{Code: ErrorCodeConflict, ID: previous}
}

func InvalidLink(id string) *Error {
	return &Error{Code: ErrorCodeInvalidLink, ID: id}
}

func Transport(cause error) *Error {
	return &Error{Code: ErrorCodeTransport, Cause: cause}
}

func IdentifierMismatch(expected, got string) *Error {
	return &Error{Code: ErrorCodeIdentifierMismatch, Message: fmt.Sprintf("expected %s, store returned %s", expected, got)}
}

// CodeOf extracts the ErrorCode from err, returning ErrorCodeUnknown if err
// is not (or does not wrap) a *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrorCodeUnknown
}
