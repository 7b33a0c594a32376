package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	paymentsapp "github.com/merchantops/backend/internal/application/payments"
	"github.com/merchantops/backend/internal/domain/payments"
	"github.com/merchantops/backend/internal/interfaces/http/dto"
	"github.com/merchantops/backend/internal/interfaces/http/middleware"
)

// PaymentsHandler serves the read-only payment views
type PaymentsHandler struct {
	BaseHandler
	service *paymentsapp.Service
	now     func() time.Time
}

// NewPaymentsHandler creates a new PaymentsHandler
func NewPaymentsHandler(service *paymentsapp.Service) *PaymentsHandler {
	return &PaymentsHandler{service: service, now: time.Now}
}

// RegisterRoutes mounts the payment endpoints
func (h *PaymentsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/transactions", h.ListTransactions)
	rg.GET("/daily-balances", h.ListBalances)
	rg.GET("/dashboard/summary", h.Summary)
}

type transactionQuery struct {
	dto.ListRequest
	Gateway       string `form:"gateway"`
	Status        string `form:"status"`
	AccountNumber string `form:"accountNumber"`
	BranchID      string `form:"branchId" binding:"omitempty,uuid"`
	From          string `form:"from"`
	To            string `form:"to"`
}

type balanceQuery struct {
	dto.ListRequest
	AccountNumber string `form:"accountNumber"`
	BranchID      string `form:"branchId" binding:"omitempty,uuid"`
	From          string `form:"from"`
	To            string `form:"to"`
}

// ListTransactions returns a page of gateway transactions
func (h *PaymentsHandler) ListTransactions(c *gin.Context) {
	var q transactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := payments.TransactionFilter{
		Filter:        q.ListRequest.ToFilter(),
		AccountNumber: q.AccountNumber,
		BranchID:      optionalUUID(q.BranchID),
	}
	var err error
	if q.Gateway != "" {
		if filter.Gateway, err = payments.ParseGateway(q.Gateway); err != nil {
			h.BadRequest(c, "Unknown gateway")
			return
		}
	}
	if q.Status != "" {
		if filter.Status, err = payments.ParseTransactionStatus(q.Status); err != nil {
			h.BadRequest(c, "Unknown transaction status")
			return
		}
	}
	if filter.From, filter.To, err = parseRange(q.From, q.To); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.service.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	SuccessPage(c, page)
}

// ListBalances returns a page of daily balances
func (h *PaymentsHandler) ListBalances(c *gin.Context) {
	var q balanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := payments.BalanceFilter{
		Filter:        q.ListRequest.ToFilter(),
		AccountNumber: q.AccountNumber,
		BranchID:      optionalUUID(q.BranchID),
	}
	var err error
	if filter.From, filter.To, err = parseRange(q.From, q.To); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.service.ListBalances(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Summary returns the overview of one UTC day, today by default
func (h *PaymentsHandler) Summary(c *gin.Context) {
	day := h.now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			h.BadRequest(c, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	summary, err := h.service.Summary(c.Request.Context(), day)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, summary)
}

func parseRange(from, to string) (*time.Time, *time.Time, error) {
	f, err := parseTimeParam("from", from)
	if err != nil {
		return nil, nil, err
	}
	t, err := parseTimeParam("to", to)
	if err != nil {
		return nil, nil, err
	}
	return f, t, nil
}

// optionalUUID parses an already validated id; "" is nil
func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
