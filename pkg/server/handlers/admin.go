package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orbitalbio/graphrag"
	"github.com/orbitalbio/graphrag/pkg/server/dto"
)

// AdminHandler handles administrative and statistics requests. These are
// separate from the query and ingest paths and only run when explicitly
// invoked.
type AdminHandler struct {
	engine graphrag.GraphRAG
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(engine graphrag.GraphRAG) *AdminHandler {
	return &AdminHandler{engine: engine}
}

// InitializeSchema handles POST /api/v1/admin/schema
func (h *AdminHandler) InitializeSchema(c *gin.Context) {
	if err := h.engine.InitializeSchema(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true})
}

// Wipe handles DELETE /api/v1/admin/wipe. Destructive; requires the
// confirm query parameter.
func (h *AdminHandler) Wipe(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, dto.Result{Error: "wipe requires confirm=true"})
		return
	}
	if err := h.engine.Wipe(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true})
}

// GraphStatistics handles GET /api/v1/stats/graph
func (h *AdminHandler) GraphStatistics(c *gin.Context) {
	stats, err := h.engine.GraphStatistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: stats})
}

// VectorStatistics handles GET /api/v1/stats/vector
func (h *AdminHandler) VectorStatistics(c *gin.Context) {
	stats, err := h.engine.VectorStatistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: stats})
}
