package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every bounded context. The HTTP layer maps them to
// status codes; anything that is not a DomainError is treated as unexpected.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeUnauthenticated = "UNAUTHENTICATED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrNotFound) matches every not-found error.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return e.Code == de.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound        = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidRequest  = NewDomainError(CodeInvalidRequest, "Invalid request")
	ErrUnauthenticated = NewDomainError(CodeUnauthenticated, "Authentication required")
)

// NewNotFoundError reports a missing resource
func NewNotFoundError(resource string, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", resource, id))
}

// NewInvalidRequestError reports malformed input
func NewInvalidRequestError(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidRequest, fmt.Sprintf(format, args...))
}

// WrapInvalidRequest keeps cause for server-side logs while the message stays client safe
func WrapInvalidRequest(message string, cause error) *DomainError {
	return &DomainError{Code: CodeInvalidRequest, Message: message, Err: cause}
}

// IsNotFound reports whether err is a not-found domain error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidRequest reports whether err is an invalid-request domain error
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}
