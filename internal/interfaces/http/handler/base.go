// Package handler implements the admin API endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/domain/shared"
	"github.com/merchantops/backend/internal/infrastructure/logger"
	"github.com/merchantops/backend/internal/interfaces/http/dto"
	"github.com/merchantops/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID set by middleware.RequestID
func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDKey)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessPage sends one page of items with pagination meta
func SuccessPage[T any](c *gin.Context, page *shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page))
}

// Mutated sends the result of an audited write
func (h *BaseHandler) Mutated(c *gin.Context, status int, rec audit.Record, entry *audit.Log) {
	c.JSON(status, dto.NewMutationResponse(rec, entry))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, dto.MessageInternal)
}

// HandleDomainError converts errors to HTTP responses. Domain errors keep
// their message; anything else is logged and answered with a generic 500.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		if code != dto.ErrCodeInternal {
			h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
			return
		}
	}

	_ = c.Error(err)
	logger.L(c.Request.Context()).Error("Request failed",
		zap.String("request_id", getRequestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	h.InternalError(c)
}

// actor returns the authenticated actor or answers 401
func (h *BaseHandler) actor(c *gin.Context) (audit.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return audit.Actor{}, false
	}
	return actor, true
}

// pathID parses the :id segment or answers 400
func (h *BaseHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid id format")
		return uuid.Nil, false
	}
	return id, true
}
