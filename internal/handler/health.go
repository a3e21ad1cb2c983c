package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency /readyz checks, such as the database pool or Redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler takes the named dependencies to report on. A nil Pinger is
// reported as disabled.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()

	resp := gin.H{"status": "ok"}
	code := http.StatusOK
	for name, check := range h.checks {
		switch {
		case check == nil:
			resp[name] = "disabled"
		case check.Ping(ctx) != nil:
			resp[name] = "unavailable"
			resp["status"] = "error"
			code = http.StatusServiceUnavailable
		default:
			resp[name] = "connected"
		}
	}
	c.JSON(code, resp)
}
