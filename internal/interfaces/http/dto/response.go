package dto

import (
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/domain/shared"
)

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail describes one invalid field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta represents pagination metadata
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewPaginatedResponse puts the page items in data and the counts in meta
func NewPaginatedResponse[T any](page *shared.Paginated[T]) Response {
	return Response{
		Success: true,
		Data:    page.Items,
		Meta: &Meta{
			Total:      page.Total,
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalPages: page.TotalPages,
		},
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithRequestID creates an error response carrying the request id
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	resp := NewErrorResponse(code, message)
	resp.Error.RequestID = requestID
	return resp
}

// NewValidationErrorResponse creates a 400 body listing invalid fields
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      ErrCodeValidation,
			Message:   message,
			RequestID: requestID,
			Details:   details,
		},
	}
}

// ListRequest represents common list/pagination request parameters
type ListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=200"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
}

// ToFilter converts the request into a normalized shared.Filter
func (r ListRequest) ToFilter() shared.Filter {
	f := shared.DefaultFilter()
	if r.Page > 0 {
		f.Page = r.Page
	}
	if r.PageSize > 0 {
		f.PageSize = r.PageSize
	}
	f.OrderBy = r.OrderBy
	if r.OrderDir != "" {
		f.OrderDir = r.OrderDir
	}
	f.Search = r.Search
	return f.Normalize()
}

// IDRequest represents a request with an ID path parameter
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// MutationResponse is returned by audited writes. It sits beside
// "success" at the top level rather than under "data".
type MutationResponse struct {
	Success  bool         `json:"success"`
	Record   audit.Record `json:"record,omitempty"`
	AuditLog *audit.Log   `json:"auditLog"`
}

// NewMutationResponse creates a MutationResponse
func NewMutationResponse(rec audit.Record, entry *audit.Log) MutationResponse {
	return MutationResponse{Success: true, Record: rec, AuditLog: entry}
}

// RestoreRequest is the body of POST /api/audit-log/restore
type RestoreRequest struct {
	AuditLogID string `json:"auditLogId" binding:"required,uuid"`
}

// RestoreResponse is the body returned after a successful restore
type RestoreResponse struct {
	Success        bool         `json:"success"`
	Message        string       `json:"message"`
	RestoredRecord audit.Record `json:"restoredRecord"`
	AuditLog       *audit.Log   `json:"auditLog"`
}
