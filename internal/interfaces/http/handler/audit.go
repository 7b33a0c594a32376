package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	auditapp "github.com/merchantops/backend/internal/application/audit"
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/interfaces/http/dto"
	"github.com/merchantops/backend/internal/interfaces/http/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RestoreSuccessMessage is returned with every successful restore
const RestoreSuccessMessage = "Record restored successfully"

// AuditHandler serves the audit trail and the restore endpoint
type AuditHandler struct {
	BaseHandler
	service *auditapp.Service
	now     func() time.Time
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service *auditapp.Service) *AuditHandler {
	return &AuditHandler{service: service, now: time.Now}
}

// RegisterRoutes mounts the handler under /audit-log
func (h *AuditHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/audit-log")
	g.GET("", h.List)
	g.GET("/export", h.Export)
	g.GET("/records/:resource/:recordId", h.History)
	g.GET("/:id", h.Get)
	g.POST("/restore", h.Restore)
}

// auditLogQuery holds the audit list filters
type auditLogQuery struct {
	dto.ListRequest
	Table     string `form:"table"`
	RecordID  string `form:"recordId"`
	Action    string `form:"action"`
	ChangedBy string `form:"changedBy"`
	From      string `form:"from"`
	To        string `form:"to"`
}

func (q auditLogQuery) toFilter() (audit.LogFilter, error) {
	f := audit.LogFilter{
		Filter:    q.ListRequest.ToFilter(),
		RecordID:  q.RecordID,
		ChangedBy: q.ChangedBy,
	}
	if q.Table != "" {
		t, err := audit.ParseTable(q.Table)
		if err != nil {
			if t, err = audit.ParseResource(q.Table); err != nil {
				return f, fmt.Errorf("unknown table %q", q.Table)
			}
		}
		f.Table = t
	}
	if q.Action != "" {
		a, err := audit.ParseAction(q.Action)
		if err != nil {
			return f, fmt.Errorf("unknown action %q", q.Action)
		}
		f.Action = a
	}
	var err error
	if f.From, err = parseTimeParam("from", q.From); err != nil {
		return f, err
	}
	if f.To, err = parseTimeParam("to", q.To); err != nil {
		return f, err
	}
	return f, nil
}

// parseTimeParam accepts RFC 3339 timestamps or plain dates
func parseTimeParam(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be an RFC 3339 timestamp or YYYY-MM-DD date", name)
}

func (h *AuditHandler) bindFilter(c *gin.Context) (audit.LogFilter, bool) {
	var q auditLogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return audit.LogFilter{}, false
	}
	filter, err := q.toFilter()
	if err != nil {
		h.BadRequest(c, err.Error())
		return audit.LogFilter{}, false
	}
	return filter, true
}

// List returns a page of audit entries, newest first
func (h *AuditHandler) List(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Get returns one audit entry
func (h *AuditHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	entry, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, entry)
}

// History returns every entry of one record, oldest first
func (h *AuditHandler) History(c *gin.Context) {
	table, err := audit.ParseResource(c.Param("resource"))
	if err != nil {
		h.NotFound(c, "Unknown resource")
		return
	}
	entries, err := h.service.History(c.Request.Context(), table, c.Param("recordId"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, entries)
}

// Export streams the filtered entries as an XLSX workbook
func (h *AuditHandler) Export(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	// buffered so a failed export still gets a JSON error instead of a truncated file
	var buf bytes.Buffer
	rows, err := h.service.Export(c.Request.Context(), filter, &buf)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	filename := fmt.Sprintf("audit-log-%s.xlsx", h.now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("X-Export-Rows", strconv.Itoa(rows))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Restore recreates the row captured by a DELETE entry. The body is
// {auditLogId}; the answer is {message, restoredRecord, auditLog}.
func (h *AuditHandler) Restore(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	logID, err := uuid.Parse(req.AuditLogID)
	if err != nil {
		h.BadRequest(c, "auditLogId must be a UUID")
		return
	}

	result, err := h.service.Restore(c.Request.Context(), logID, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RestoreResponse{
		Success:        true,
		Message:        RestoreSuccessMessage,
		RestoredRecord: result.Record,
		AuditLog:       result.Log,
	})
}
