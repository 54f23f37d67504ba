// Package errors provides standardized error types for frame and catalog
// operations, with operation context and error wrapping support.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for programmatic handling.
type Kind int

const (
	// KindInvalidInput indicates malformed arguments or data.
	KindInvalidInput Kind = iota
	// KindColumnNotFound indicates an operation on a non-existent column.
	KindColumnNotFound
	// KindUnsupportedType indicates an unsupported series or cell type.
	KindUnsupportedType
	// KindNotFound indicates a missing catalog entry.
	KindNotFound
	// KindValidation indicates a catalog entry that fails consistency checks.
	KindValidation
	// KindHashMismatch indicates a content hash that no longer matches the
	// recorded digest. Never retried.
	KindHashMismatch
	// KindInternal indicates an unexpected internal failure.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindColumnNotFound:
		return "column not found"
	case KindUnsupportedType:
		return "unsupported type"
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation failed"
	case KindHashMismatch:
		return "hash mismatch"
	default:
		return "internal error"
	}
}

// Error carries the failed operation, an optional subject (column name or
// catalog key) and a human-readable message.
type Error struct {
	Kind    Kind
	Op      string // operation name, e.g. "MergeKeepingIndex", "FindByVersionName"
	Subject string // column name or catalog key, if applicable
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s failed on %q: %s", e.Op, e.Subject, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind so callers can test error categories with errors.Is
// against the sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op == "" && t.Subject == "" && t.Message == "" {
		return e.Kind == t.Kind
	}
	return e.Kind == t.Kind && e.Op == t.Op && e.Subject == t.Subject && e.Message == t.Message
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
	ErrColumnNotFound  = &Error{Kind: KindColumnNotFound}
	ErrUnsupportedType = &Error{Kind: KindUnsupportedType}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrHashMismatch    = &Error{Kind: KindHashMismatch}
)

// NewColumnNotFound creates an error for operations on non-existent columns.
func NewColumnNotFound(op, column string) *Error {
	return &Error{Kind: KindColumnNotFound, Op: op, Subject: column, Message: "column does not exist"}
}

// NewInvalidInput creates an error for invalid operation inputs.
func NewInvalidInput(op, message string) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Message: message}
}

// NewUnsupportedType creates an error for unsupported data types.
func NewUnsupportedType(op, typeName string) *Error {
	return &Error{Kind: KindUnsupportedType, Op: op, Message: fmt.Sprintf("unsupported type: %s", typeName)}
}

// NewNotFound creates an error for a missing catalog entry.
func NewNotFound(op, key string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Subject: key, Message: "entry does not exist"}
}

// NewValidation creates an error for catalog consistency violations.
func NewValidation(op, key, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Subject: key, Message: message}
}

// NewHashMismatch creates an error for a stale content hash.
func NewHashMismatch(op, key, want, got string) *Error {
	return &Error{
		Kind:    KindHashMismatch,
		Op:      op,
		Subject: key,
		Message: fmt.Sprintf("content hash %s does not match recorded %s", got, want),
	}
}

// NewInternal wraps an unexpected failure.
func NewInternal(op string, cause error) *Error {
	return &Error{Kind: KindInternal, Op: op, Message: "internal error occurred", Cause: cause}
}

// IsNotFound reports whether err is a catalog not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsHashMismatch reports whether err is a content hash mismatch.
func IsHashMismatch(err error) bool {
	return errors.Is(err, ErrHashMismatch)
}
