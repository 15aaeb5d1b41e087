// Package merrors defines the error vocabulary shared by the mount engine,
// the block-store client, the root-pointer coordinator, and the HTTP
// surface. Every error kind carries a code, a default HTTP status and a
// short message, following the descriptor-table pattern used throughout the
// registry API's error handling.
package merrors

import "net/http"

// ErrorCode represents one of the error kinds named in this spec's error
// handling design: NotFound, DecodeError, EncodeError, PathNotFound,
// DataOnPath, SchemaOnData, SchemaValidation, PreviousMismatch, Conflict,
// InvalidLink, Transport, IdentifierMismatch.
type ErrorCode int

const (
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodeNotFound: an identifier is absent locally and remotely.
	ErrorCodeNotFound

	// ErrorCodeDecodeError: bytes are not a valid structured encoding.
	ErrorCodeDecodeError

	// ErrorCodeEncodeError: a value cannot be canonically encoded (non-string
	// map key, non-representable value).
	ErrorCodeEncodeError

	// ErrorCodePathNotFound: a traversal reached a non-existent name.
	ErrorCodePathNotFound

	// ErrorCodeDataOnPath: an interior path segment resolves to a file.
	ErrorCodeDataOnPath

	// ErrorCodeSchemaOnData: tried to install a schema where a file exists.
	ErrorCodeSchemaOnData

	// ErrorCodeSchemaValidation: an object fails its effective schema.
	ErrorCodeSchemaValidation

	// ErrorCodePreviousMismatch: update found the new manifest does not
	// chain from the current root.
	ErrorCodePreviousMismatch

	// ErrorCodeConflict: the root-pointer coordinator's CAS failed.
	ErrorCodeConflict

	// ErrorCodeInvalidLink: the coordinator rejected a push whose manifest
	// does not chain correctly.
	ErrorCodeInvalidLink

	// ErrorCodeTransport: store or coordinator I/O failed.
	ErrorCodeTransport

	// ErrorCodeIdentifierMismatch: push re-encoded a cached value and the
	// store returned a different identifier.
	ErrorCodeIdentifierMismatch
)

// ErrorDescriptor provides relevant information about a given error code.
type ErrorDescriptor struct {
	// Code is the error code that this descriptor describes.
	Code ErrorCode

	// Value is a unique, string key identifying the error code, used when
	// serializing to the HTTP surface's JSON error bodies.
	Value string

	// Message is a short, human readable description of the error.
	Message string

	// DefaultStatusCode is the HTTP status the API surface returns for this
	// error, absent a more specific override at the call site.
	DefaultStatusCode int
}

var descriptors = []ErrorDescriptor{
	{
		Code:              ErrorCodeUnknown,
		Value:             "UNKNOWN",
		Message:           "unknown error",
		DefaultStatusCode: http.StatusInternalServerError,
	},
	{
		Code:              ErrorCodeNotFound,
		Value:             "NOT_FOUND",
		Message:           "block not found locally or remotely",
		DefaultStatusCode: http.StatusNotFound,
	},
	{
		Code:              ErrorCodeDecodeError,
		Value:             "DECODE_ERROR",
		Message:           "bytes are not a valid structured encoding",
		DefaultStatusCode: http.StatusInternalServerError,
	},
	{
		Code:              ErrorCodeEncodeError,
		Value:             "ENCODE_ERROR",
		Message:           "value cannot be canonically encoded",
		DefaultStatusCode: http.StatusInternalServerError,
	},
	{
		Code:              ErrorCodePathNotFound,
		Value:             "PATH_NOT_FOUND",
		Message:           "path does not exist in the mount",
		DefaultStatusCode: http.StatusNotFound,
	},
	{
		Code:              ErrorCodeDataOnPath,
		Value:             "DATA_ON_PATH",
		Message:           "an interior path segment is a file, not a directory",
		DefaultStatusCode: http.StatusBadRequest,
	},
	{
		Code:              ErrorCodeSchemaOnData,
		Value:             "SCHEMA_ON_DATA",
		Message:           "cannot install a schema where a file exists",
		DefaultStatusCode: http.StatusBadRequest,
	},
	{
		Code:              ErrorCodeSchemaValidation,
		Value:             "SCHEMA_VALIDATION",
		Message:           "object does not validate against its effective schema",
		DefaultStatusCode: http.StatusBadRequest,
	},
	{
		Code:              ErrorCodePreviousMismatch,
		Value:             "PREVIOUS_MISMATCH",
		Message:           "manifest does not chain from the current root",
		DefaultStatusCode: http.StatusConflict,
	},
	{
		Code:              ErrorCodeConflict,
		Value:             "CONFLICT",
		Message:           "root-pointer compare-and-swap lost a race",
		DefaultStatusCode: http.StatusConflict,
	},
	{
		Code:              ErrorCodeInvalidLink,
		Value:             "INVALID_LINK",
		Message:           "pushed root's manifest does not chain correctly",
		DefaultStatusCode: http.StatusBadRequest,
	},
	{
		Code:              ErrorCodeTransport,
		Value:             "TRANSPORT",
		Message:           "store or coordinator I/O failed",
		DefaultStatusCode: http.StatusBadGateway,
	},
	{
		Code:              ErrorCodeIdentifierMismatch,
		Value:             "IDENTIFIER_MISMATCH",
		Message:           "re-encoding a cached value produced a different identifier",
		DefaultStatusCode: http.StatusInternalServerError,
	},
}

var errorCodeToDescriptor map[ErrorCode]ErrorDescriptor

func init() {
	errorCodeToDescriptor = make(map[ErrorCode]ErrorDescriptor, len(descriptors))
	for _, d := range descriptors {
		errorCodeToDescriptor[d.Code] = d
	}
}

// Descriptor returns the ErrorDescriptor registered for code.
func (code ErrorCode) Descriptor() ErrorDescriptor {
	d, ok := errorCodeToDescriptor[code]
	if !ok {
		return errorCodeToDescriptor[ErrorCodeUnknown]
	}
	return d
}

// String returns the error code's string identifier, e.g. "PATH_NOT_FOUND".
func (code ErrorCode) String() string {
	return code.Descriptor().Value
}

// Message returns the error code's short human-readable message.
func (code ErrorCode) Message() string {
	return code.Descriptor().Message
}

// StatusCode returns the default HTTP status for the error code.
func (code ErrorCode) StatusCode() int {
	return code.Descriptor().DefaultStatusCode
}
