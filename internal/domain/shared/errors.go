// Package shared contains the error vocabulary used across all campus domain
// packages. This package has zero external dependencies.
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
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Policy errors
	ErrPolicyDenied = errors.New("policy denied")
	ErrNoOp         = errors.New("nothing to do")

	// State errors
	ErrInvalidState = errors.New("invalid state")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "catalog", "registration", "dispatch"
	Op      string // Operation that failed, e.g., "Load", "RequestCourse"
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

// Catalog domain errors
var (
	ErrCourseNotFound     = NewDomainError("catalog", "FindCourse", ErrNotFound, "course not found")
	ErrTopicNotFound      = NewDomainError("catalog", "FindLesson", ErrNotFound, "topic not found")
	ErrQuestionNotFound   = NewDomainError("catalog", "FindQuestion", ErrNotFound, "question not found")
	ErrDuplicateQuestion  = NewDomainError("catalog", "Validate", ErrAlreadyExists, "question id is not unique")
	ErrInvalidCredits     = NewDomainError("catalog", "Validate", ErrValueOutOfRange, "credits must be positive")
	ErrUnknownPrereq      = NewDomainError("catalog", "Validate", ErrNotFound, "prerequisite references an unknown course")
	ErrInvalidQuizOptions = NewDomainError("catalog", "Validate", ErrInvalidInput, "correct option is not among the options")
)

// Student domain errors
var (
	ErrStudentNotFound = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrInvalidStudent  = NewDomainError("student", "Validate", ErrInvalidEntity, "invalid student record")
)

// Registration domain errors
var (
	ErrMissingPrerequisites = NewDomainError("registration", "RequestCourse", ErrPolicyDenied, "missing prerequisites")
	ErrAlreadyRegistered    = NewDomainError("registration", "RequestCourse", ErrNoOp, "already registered")
	ErrWorkloadDenied       = NewDomainError("registration", "RequestCourse", ErrPolicyDenied, "workload denied")
	ErrCourseNotActive      = NewDomainError("registration", "CompleteCourse", ErrNoOp, "course not active")
)

// Dispatch errors
var (
	ErrUnknownAction    = NewDomainError("dispatch", "Route", ErrInvalidInput, "unknown action kind")
	ErrMalformedPayload = NewDomainError("dispatch", "Decode", ErrInvalidInput, "malformed action payload")
)

// Notification errors
var (
	ErrNotificationFailed = NewDomainError("notification", "Emit", ErrExternalService, "failed to deliver notification")
	ErrUnknownKind        = NewDomainError("notification", "Decode", ErrInvalidFormat, "unknown notification type")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPolicyDenied checks if the error is a policy denial.
func IsPolicyDenied(err error) bool {
	return errors.Is(err, ErrPolicyDenied)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
