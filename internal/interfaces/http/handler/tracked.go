package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/merchantops/backend/internal/application/tracked"
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/interfaces/http/dto"
	"github.com/merchantops/backend/internal/interfaces/http/middleware"
)

// TrackedHandler serves the configuration tables whose writes are audited
type TrackedHandler struct {
	BaseHandler
	service *tracked.Service
}

// NewTrackedHandler creates a new TrackedHandler
func NewTrackedHandler(service *tracked.Service) *TrackedHandler {
	return &TrackedHandler{service: service}
}

// RegisterRoutes mounts list/get/create/update/delete for every tracked
// table at /<resource>, plus the promo image upload when storage is on.
func (h *TrackedHandler) RegisterRoutes(rg *gin.RouterGroup) {
	for _, table := range audit.Tables() {
		g := rg.Group("/" + table.Resource())
		g.GET("", h.List(table))
		g.GET("/:id", h.Get(table))
		g.POST("", h.Create(table))
		g.PUT("/:id", h.Update(table))
		g.DELETE("/:id", h.Delete(table))
	}
	if h.service.ImageUploadsEnabled() {
		rg.PUT("/"+audit.TablePromoAds.Resource()+"/:id/image", h.UploadPromoImage)
	}
}

// List returns a page of records
func (h *TrackedHandler) List(table audit.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ListRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
		page, err := h.service.List(c.Request.Context(), table, req.ToFilter())
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		SuccessPage(c, page)
	}
}

// Get returns one record
func (h *TrackedHandler) Get(table audit.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.pathID(c)
		if !ok {
			return
		}
		rec, err := h.service.Get(c.Request.Context(), table, id)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		h.Success(c, rec)
	}
}

// Create inserts a record from a JSON object and answers {record, auditLog}
func (h *TrackedHandler) Create(table audit.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := h.actor(c)
		if !ok {
			return
		}
		var fields audit.Snapshot
		if err := c.ShouldBindJSON(&fields); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
		rec, entry, err := h.service.Create(c.Request.Context(), table, fields, actor)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		h.Mutated(c, http.StatusCreated, rec, entry)
	}
}

// Update applies a partial JSON object to a record and answers {record, auditLog}
func (h *TrackedHandler) Update(table audit.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := h.actor(c)
		if !ok {
			return
		}
		id, ok := h.pathID(c)
		if !ok {
			return
		}
		var patch audit.Snapshot
		if err := c.ShouldBindJSON(&patch); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
		rec, entry, err := h.service.Update(c.Request.Context(), table, id, patch, actor)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		h.Mutated(c, http.StatusOK, rec, entry)
	}
}

// Delete removes a record and answers {record, auditLog}
func (h *TrackedHandler) Delete(table audit.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := h.actor(c)
		if !ok {
			return
		}
		id, ok := h.pathID(c)
		if !ok {
			return
		}
		rec, entry, err := h.service.Delete(c.Request.Context(), table, id, actor)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		h.Mutated(c, http.StatusOK, rec, entry)
	}
}

// UploadPromoImage stores the "image" multipart file and points the ad at it
func (h *TrackedHandler) UploadPromoImage(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		h.BadRequest(c, "Multipart field \"image\" is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.BadRequest(c, "Uploaded file cannot be read")
		return
	}
	defer f.Close()

	rec, entry, err := h.service.UploadPromoImage(c.Request.Context(), id, tracked.ImageUpload{
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Mutated(c, http.StatusOK, rec, entry)
}
