package dto

import (
	"net/http"

	"github.com/merchantops/backend/internal/domain/shared"
)

// Error code constants. Format: ERR_<CATEGORY>

// General error codes
const (
	// ErrCodeInternal is returned for every error that is not a domain error
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when the session cookie is missing or invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
)

// Resource error codes
const (
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// MessageInternal is the only message a client ever sees for a 500
const MessageInternal = "An unexpected error occurred"

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,

	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	shared.CodeNotFound:        ErrCodeNotFound,
	shared.CodeInvalidRequest:  ErrCodeBadRequest,
	shared.CodeUnauthenticated: ErrCodeUnauthorized,
}

// NormalizeErrorCode converts a domain error code to its API code.
// Codes without a mapping become ERR_INTERNAL.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	return ErrCodeInternal
}
