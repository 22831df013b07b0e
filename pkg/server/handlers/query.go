// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orbitalbio/graphrag"
	"github.com/orbitalbio/graphrag/pkg/router"
	"github.com/orbitalbio/graphrag/pkg/server/dto"
	"github.com/orbitalbio/graphrag/pkg/types"
)

// QueryHandler handles retrieval requests
type QueryHandler struct {
	engine graphrag.GraphRAG
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(engine graphrag.GraphRAG) *QueryHandler {
	return &QueryHandler{engine: engine}
}

// Query handles POST /api/v1/query
func (h *QueryHandler) Query(c *gin.Context) {
	var req dto.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Error: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Error: err.Error()})
		return
	}

	var flags *router.Flags
	if req.ExplicitFlags() {
		flags = &router.Flags{}
		if req.UseGraph != nil {
			flags.UseGraph = *req.UseGraph
		}
		if req.UseVector != nil {
			flags.UseVector = *req.UseVector
		}
	}

	result, err := h.engine.Query(c.Request.Context(), req.Query, req.K, flags)
	if err != nil {
		status := http.StatusInternalServerError
		if types.IsValidation(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, dto.Result{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true, Data: dto.QueryResponse{Result: result}})
}

// EntityRelationships handles GET /api/v1/entity/:name/relationships
func (h *QueryHandler) EntityRelationships(c *gin.Context) {
	name := c.Param("name")
	relType := types.RelationshipType(c.Query("type"))
	if relType != "" && !types.ValidRelationshipTypes[relType] {
		c.JSON(http.StatusBadRequest, dto.Result{Error: "unknown relationship type: " + string(relType)})
		return
	}

	rels, err := h.engine.QueryRelationships(c.Request.Context(), name, relType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true, Data: rels})
}

// EntityNetwork handles GET /api/v1/entity/:name/network
func (h *QueryHandler) EntityNetwork(c *gin.Context) {
	name := c.Param("name")
	depth := 2
	if d, err := parseIntQuery(c, "depth"); err == nil && d > 0 {
		depth = d
	}

	network, err := h.engine.GetEntityNetwork(c.Request.Context(), name, depth)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.Result{Error: "entity not found: " + name})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true, Data: network})
}
