package errors

import (
	"fmt"
)

// ErrorCode represents a specific error type for service operations.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates the requested entity does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeUpstreamFailure indicates the upstream LLM call failed.
	ErrCodeUpstreamFailure ErrorCode = "UPSTREAM_FAILURE"
	// ErrCodeDuplicateSequence indicates the message sequencer invariant was
	// violated. This is an internal consistency fault, never retried.
	ErrCodeDuplicateSequence ErrorCode = "DUPLICATE_SEQUENCE"
	// ErrCodeInternal indicates an unclassified server-side failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// ServiceError represents a structured error for service operations.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// Field names the offending input field for validation failures.
	Field string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *ServiceError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for common error types.

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeInvalidArgument, Message: msg}
}

// InvalidField creates an invalid argument error naming the offending field.
func InvalidField(field, msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeInvalidArgument, Message: msg, Field: field}
}

// NotFound creates a not found error.
func NotFound(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeNotFound, Message: msg}
}

// UpstreamFailure creates an upstream failure error.
func UpstreamFailure(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeUpstreamFailure, Message: msg, Cause: cause}
}

// DuplicateSequence creates a duplicate sequence error.
func DuplicateSequence(cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeDuplicateSequence, Message: "message sequence collision", Cause: cause}
}

// Internal wraps an unclassified server-side failure.
func Internal(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if svcErr, ok := err.(*ServiceError); ok {
		return svcErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a ServiceError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if svcErr, ok := err.(*ServiceError); ok {
		return svcErr.Code
	}
	return defaultCode
}
