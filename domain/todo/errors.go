package todo

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The values double as the error codes sent to clients.
type Kind string

const (
	KindInvalidParameters Kind = "INVALID_PARAMETERS"
	KindValidation        Kind = "VALIDATION_ERROR"
	KindNotFound          Kind = "NOT_FOUND"
	KindCreateFailed      Kind = "CREATE_FAILED"
	KindMissingID         Kind = "MISSING_TODO_ID"
	KindInternal          Kind = "INTERNAL_ERROR"
	KindUnauthorized      Kind = "UNAUTHORIZED"
)

// Issue is a single invalid field.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a failure tagged with its Kind.
type Error struct {
	Kind    Kind
	Message string
	Details []Issue
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of message or details.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Details == nil && t.Err == nil
}

// Kind-only targets for errors.Is.
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrInvalidQuery = &Error{Kind: KindInvalidParameters}
)

// NotFound reports a task that is absent or owned by someone else.
func NotFound() *Error {
	return &Error{Kind: KindNotFound, Message: "Todo not found"}
}

// Validation reports an invalid request body.
func Validation(issues []Issue) *Error {
	return &Error{Kind: KindValidation, Message: "Invalid request body", Details: issues}
}

// InvalidParameters reports an invalid list query.
func InvalidParameters(issues []Issue) *Error {
	return &Error{Kind: KindInvalidParameters, Message: "Invalid query parameters", Details: issues}
}

// MissingID reports a request without a task id.
func MissingID() *Error {
	return &Error{Kind: KindMissingID, Message: "Todo ID is required"}
}

// CreateFailed wraps a store failure during insert.
func CreateFailed(err error) *Error {
	return &Error{Kind: KindCreateFailed, Message: "Failed to create todo", Err: err}
}

// Unauthorized reports a request without an acting user.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: "User not authenticated"}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "An unexpected error occurred", Err: err}
}

// KindOf returns the kind carried by err, or KindInternal for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// AsError returns err as an *Error, wrapping untagged errors as internal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
