package handler

import (
	"context"
	"net/http"
	"time"

	"apartment_booking/internal/logger"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db  Pinger
	log *logger.Logger
	now func() time.Time
}

func NewHealthHandler(db Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, log: log, now: time.Now}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	timestamp := h.now().UTC().Format(time.RFC3339)
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("health check: database unreachable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "timestamp": timestamp})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": timestamp})
}

func (h *HealthHandler) RegisterHealthRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}
