package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apierrors "github.com/crimesense/casesearch/api/internal/errors"
	"github.com/crimesense/casesearch/api/internal/middleware"
	"github.com/crimesense/casesearch/api/internal/services"
)

const (
	// ServiceName is reported by the liveness endpoint
	ServiceName = "CaseSearch API"
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout is the timeout for database health checks
	HealthCheckTimeout = 2 * time.Second
)

// MetaHandler handles the liveness, health and stats endpoints.
type MetaHandler struct {
	service services.CaseService
}

// NewMetaHandler creates a new MetaHandler instance.
func NewMetaHandler(service services.CaseService) *MetaHandler {
	return &MetaHandler{
		service: service,
	}
}

// RootResponse represents the liveness marker response.
type RootResponse struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	Time string `json:"time"`
}

// HealthResponse represents the health check response. Failures are
// reported in-band via Status and Message rather than an error status code.
type HealthResponse struct {
	Status  string `json:"status"`
	DB      string `json:"db,omitempty"`
	Version string `json:"version,omitempty"`
	Now     string `json:"now,omitempty"`
	Message string `json:"message,omitempty"`
}

// Root handles GET /.
// This is a basic liveness marker that does not touch any dependencies.
func (h *MetaHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, RootResponse{
		Name: ServiceName,
		OK:   true,
		Time: time.Now().Format(time.RFC3339),
	})
}

// Health handles GET /health.
// It probes the database and reports the outcome in-band: an unreachable
// database yields HTTP 200 with status "error", never a 500, so monitors
// can distinguish "API down" from "API up, database down".
func (h *MetaHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	version, now, err := h.service.CheckHealth(ctx)
	if err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Health check failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
			})
		}

		c.JSON(http.StatusOK, HealthResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		DB:      "connected",
		Version: version,
		Now:     now.Format(time.RFC3339),
	})
}

// Stats handles GET /stats.
// It returns the cases row count plus the evidences row count, the latter
// defaulting to 0 when that table is missing.
func (h *MetaHandler) Stats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to query stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
