// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Infrastructure errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "gradebook", "analytics", "instructor"
	Op      string // Operation that failed, e.g., "Import", "Recompute"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Gradebook domain errors
var (
	ErrRecordNotFound     = NewDomainError("gradebook", "Find", ErrNotFound, "student record not found")
	ErrDuplicateStudentID = NewDomainError("gradebook", "Import", ErrAlreadyExists, "duplicate student ID in roster")
	ErrEmptyStudentID     = NewDomainError("gradebook", "Validate", ErrEmptyValue, "student ID cannot be empty")
	ErrScoreOutOfRange    = NewDomainError("gradebook", "Validate", ErrValueOutOfRange, "score must be between 0 and 100")
	ErrInvalidGradeScale  = NewDomainError("gradebook", "Validate", ErrInvalidInput, "grade scale must not be empty")
	ErrNegativeWeight     = NewDomainError("gradebook", "Validate", ErrValueOutOfRange, "weights must be non-negative")
)

// Analytics domain errors
var (
	ErrSnapshotNotFound     = NewDomainError("analytics", "FindSnapshot", ErrNotFound, "cohort snapshot not found")
	ErrUnknownOutlierMethod = NewDomainError("analytics", "Validate", ErrInvalidInput, "unknown outlier detection method")
)

// Instructor domain errors
var (
	ErrInstructorNotFound      = NewDomainError("instructor", "Find", ErrNotFound, "instructor not found")
	ErrInstructorAlreadyExists = NewDomainError("instructor", "Create", ErrAlreadyExists, "instructor already exists")
	ErrInvalidCredentials      = NewDomainError("instructor", "Authenticate", ErrUnauthorized, "invalid credentials")
	ErrInvalidAPIKey           = NewDomainError("instructor", "Authenticate", ErrUnauthorized, "invalid API key")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsUnauthorized checks if the error is an authorization error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}
