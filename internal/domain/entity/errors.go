package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a domain error. The set is closed: the HTTP layer maps each
// kind to exactly one status code.
type Kind int

const (
	// KindInternal is the zero value so that unclassified errors are treated as internal.
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = &Error{Kind: KindNotFound, Message: "entity not found"}

	// ErrUnauthorized is the single error surfaced for every authentication failure.
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized"}

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = &Error{Kind: KindValidation, Message: "validation failed"}
)

// Error is a classified domain error. Message is safe to show to API clients;
// Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind and message.
// errors.Is(err, ErrNotFound) therefore matches any wrapped copy of the sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// NewError creates a classified error with a client-facing message.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError classifies err under kind with a client-facing message.
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFound returns a KindNotFound error with the given message.
func NotFound(message string) *Error { return NewError(KindNotFound, message) }

// Conflict returns a KindConflict error with the given message.
func Conflict(message string) *Error { return NewError(KindConflict, message) }

// KindOf walks the error chain and returns the first classification it finds.
// Validation errors are KindValidation; anything unclassified is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return KindValidation
	}
	return KindInternal
}

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ValidationErrors collects every field failure of a single request.
type ValidationErrors []*ValidationError

// Error joins the individual field messages.
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Add appends a field failure.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, &ValidationError{Field: field, Message: message})
}

// ErrOrNil returns v as an error when it holds at least one failure.
func (v ValidationErrors) ErrOrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// FieldErrors flattens err into its field failures. It returns nil when err
// carries no validation information.
func FieldErrors(err error) []*ValidationError {
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return ves
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return []*ValidationError{ve}
	}
	return nil
}
