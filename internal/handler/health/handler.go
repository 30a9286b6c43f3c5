package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler serves liveness and readiness probes for the lookup service.
type Handler struct {
	backend string
	readyFn func() error
}

// NewHandler creates a health handler for the named lookup backend.
// readyFn reports whether the backend can serve; nil means always ready.
func NewHandler(backend string, readyFn func() error) *Handler {
	return &Handler{backend: backend, readyFn: readyFn}
}

// Health is the liveness probe endpoint
// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready is the readiness probe endpoint
// GET /ready
func (h *Handler) Ready(c *gin.Context) {
	if h.readyFn != nil {
		if err := h.readyFn(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not ready",
				"backend": h.backend,
				"error":   err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "backend": h.backend})
}
