package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced to a user wraps exactly one of these.
var (
	// ErrInputValidation marks malformed uploads and invalid parameters.
	ErrInputValidation = errors.New("invalid input")

	// ErrReconciliation marks gene axes that could not be aligned.
	ErrReconciliation = errors.New("gene identifiers could not be reconciled")

	// ErrUnusableReference marks a reference dataset that shares no gene with the query.
	ErrUnusableReference = fmt.Errorf("%w: reference shares no gene with the expression data", ErrReconciliation)

	// ErrModelFailure marks an error raised by the dysregulation model.
	ErrModelFailure = errors.New("dysregulation model failed")

	// ErrCacheMiss marks a session with no cached result.
	ErrCacheMiss = errors.New("session invalid or expired")

	// ErrServiceUnavailable marks an unreachable or timed-out backing service.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrCancelled marks a run stopped on request. It is not a failure.
	ErrCancelled = errors.New("cancelled")
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInputValidation.
func (e *ValidationError) Unwrap() error { return ErrInputValidation }

// ErrorKind is a stable name for an error category.
type ErrorKind string

// Error kind names.
const (
	KindInputValidation    ErrorKind = "input_validation"
	KindReconciliation     ErrorKind = "reconciliation_failure"
	KindUnusableReference  ErrorKind = "unusable_reference"
	KindModelFailure       ErrorKind = "model_failure"
	KindCacheMiss          ErrorKind = "cache_miss"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindCancelled          ErrorKind = "cancelled"
	KindInternal           ErrorKind = "internal"
)

// Kind classifies err. Order matters: the unusable reference check precedes
// the generic reconciliation check because the former wraps the latter.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrInputValidation):
		return KindInputValidation
	case errors.Is(err, ErrUnusableReference):
		return KindUnusableReference
	case errors.Is(err, ErrReconciliation):
		return KindReconciliation
	case errors.Is(err, ErrModelFailure):
		return KindModelFailure
	case errors.Is(err, ErrCacheMiss):
		return KindCacheMiss
	case errors.Is(err, ErrServiceUnavailable):
		return KindServiceUnavailable
	default:
		return KindInternal
	}
}
