package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers liveness and readiness checks without a session
type HealthHandler struct {
	BaseHandler
	database  Pinger
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(database Pinger) *HealthHandler {
	return &HealthHandler{database: database, startTime: time.Now()}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// Health pings the database with a short deadline
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:   "ok",
		Database: "ok",
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
	}
	status := http.StatusOK
	if err := h.database.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
