package lookup

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/TomasB/ip2geo/internal/engine"
	"github.com/TomasB/ip2geo/internal/geo"
	"github.com/TomasB/ip2geo/internal/output"
	"github.com/gin-gonic/gin"
)

// MaxBatchSize caps the number of lines accepted in one request.
const MaxBatchSize = 10000

// Resolver is the engine surface used by the handler.
type Resolver interface {
	RunBatch(ctx context.Context, lines []string) ([]engine.Result, error)
	ClearCache()
	Stats() engine.Stats
}

// BatchRequest represents the JSON body for a batch lookup.
type BatchRequest struct {
	IPs    []string `json:"ips" binding:"required,max=10000"`
	Fields []string `json:"fields"`
}

// BatchResponse represents the JSON response for a batch lookup. Rows holds
// the projected, tab-joined line for each input ("" when unresolved).
type BatchResponse struct {
	Results []output.JSONResult `json:"results,omitempty"`
	Rows    []string            `json:"rows,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// RecordResponse represents the JSON response for a single address.
type RecordResponse struct {
	Outcome string            `json:"outcome,omitempty"`
	Record  map[string]string `json:"record,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Handler manages IP geolocation lookup endpoints.
type Handler struct {
	resolver Resolver
}

// NewHandler creates a new lookup handler backed by resolver.
func NewHandler(resolver Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// Register mounts the handler's routes on group.
func (h *Handler) Register(group *gin.RouterGroup) {
	group.POST("/lookup", h.Batch)
	group.GET("/lookup/:ip", h.Single)
	group.GET("/cache", h.CacheStats)
	group.DELETE("/cache", h.ClearCache)
}

// Batch handles POST /api/v1/lookup
func (h *Handler) Batch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, BatchResponse{
			Error: "invalid request: " + err.Error(),
		})
		return
	}

	projection, err := geo.ParseProjection(strings.Join(req.Fields, ","))
	if err != nil {
		c.JSON(http.StatusBadRequest, BatchResponse{Error: err.Error()})
		return
	}

	slog.Debug("batch request received", "lines", len(req.IPs), "fields", projection)

	results, err := h.resolver.RunBatch(c.Request.Context(), req.IPs)
	if err != nil {
		slog.Error("batch lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, BatchResponse{
			Error: "lookup failed",
		})
		return
	}

	resp := BatchResponse{
		Results: make([]output.JSONResult, len(results)),
		Rows:    engine.Rows(results, projection),
	}
	for i, r := range results {
		resp.Results[i] = output.NewJSONResult(r)
	}
	c.JSON(http.StatusOK, resp)
}

// Single handles GET /api/v1/lookup/:ip
func (h *Handler) Single(c *gin.Context) {
	ip := c.Param("ip")

	results, err := h.resolver.RunBatch(c.Request.Context(), []string{ip})
	if err != nil {
		slog.Error("lookup failed", "ip", ip, "error", err)
		c.JSON(http.StatusInternalServerError, RecordResponse{Error: "lookup failed"})
		return
	}

	r := output.NewJSONResult(results[0])
	switch results[0].Outcome {
	case engine.OutcomeInvalid:
		c.JSON(http.StatusBadRequest, RecordResponse{Outcome: r.Outcome, Error: "invalid IP address"})
	case engine.OutcomeFailure, engine.OutcomeError:
		c.JSON(http.StatusBadGateway, RecordResponse{Outcome: r.Outcome, Record: r.Record, Error: r.Error})
	default:
		c.JSON(http.StatusOK, RecordResponse{Outcome: r.Outcome, Record: r.Record})
	}
}

// CacheStats handles GET /api/v1/cache
func (h *Handler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.resolver.Stats())
}

// ClearCache handles DELETE /api/v1/cache
func (h *Handler) ClearCache(c *gin.Context) {
	h.resolver.ClearCache()
	c.Status(http.StatusNoContent)
}
