package application

import (
	"errors"
	"fmt"

	"github.com/example/venue-operations/internal/lock"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a uniqueness rule is violated.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrVersionConflict signals that a concurrent writer claimed the same
	// snapshot version number. It is internal to the snapshot store, which
	// retries; it never reaches transport.
	ErrVersionConflict = errors.New("application: snapshot version conflict")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// OverrideErrorKind identifies which credential rule failed.
type OverrideErrorKind string

const (
	OverrideMissingToken   OverrideErrorKind = "missing_token"
	OverrideTokenMismatch  OverrideErrorKind = "token_mismatch"
	OverrideReasonTooShort OverrideErrorKind = "reason_too_short"
)

// OverrideError reports an invalid or absent override credential.
type OverrideError struct {
	Kind OverrideErrorKind
}

// Error implements the error interface.
func (e *OverrideError) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case OverrideMissingToken:
		return "override token missing"
	case OverrideTokenMismatch:
		return "override token invalid"
	case OverrideReasonTooShort:
		return fmt.Sprintf("override reason required (minimum %d characters)", MinOverrideReasonLength)
	default:
		return "override credential invalid"
	}
}

// LockedError rejects a write that touches protected fields inside the lock
// window without a valid override. It carries everything the caller needs
// to remediate: the remaining days, the touched fields, and the credential
// failure when one was presented.
type LockedError struct {
	DaysRemaining int
	WindowDays    int
	FieldsTouched []lock.ProtectedField
	Override      *OverrideError
}

// Error implements the error interface.
func (e *LockedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("event locked: %d days remaining, admin override required", e.DaysRemaining)
}

// Unwrap exposes the credential failure for errors.As chains.
func (e *LockedError) Unwrap() error {
	if e == nil || e.Override == nil {
		return nil
	}
	return e.Override
}
