package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devhance/backend/internal/database"
)

// SchemaDiagnostics reports storage reachability and the presence of
// the expected tables.
type SchemaDiagnostics interface {
	HealthCheck(ctx context.Context) error
	CheckSchema(ctx context.Context) (map[string]database.TableStatus, error)
}

// HealthHandler serves liveness and schema diagnostics endpoints.
type HealthHandler struct {
	diagnostics SchemaDiagnostics
}

func NewHealthHandler(diagnostics SchemaDiagnostics) *HealthHandler {
	return &HealthHandler{diagnostics: diagnostics}
}

func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/check-schema", h.CheckSchema)
}

func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.diagnostics.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) CheckSchema(c *gin.Context) {
	tables, err := h.diagnostics.CheckSchema(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}
