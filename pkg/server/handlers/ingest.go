package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orbitalbio/graphrag"
	"github.com/orbitalbio/graphrag/pkg/server/dto"
)

// IngestHandler handles ingestion requests
type IngestHandler struct {
	engine graphrag.GraphRAG
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(engine graphrag.GraphRAG) *IngestHandler {
	return &IngestHandler{engine: engine}
}

// AddDocuments handles POST /api/v1/ingest/documents
func (h *IngestHandler) AddDocuments(c *gin.Context) {
	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Error: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Error: err.Error()})
		return
	}

	report, err := h.engine.Ingest(c.Request.Context(), req.Documents)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true, Data: report})
}

// AddTriples handles POST /api/v1/ingest/triples
func (h *IngestHandler) AddTriples(c *gin.Context) {
	var req dto.TriplesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Error: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Error: err.Error()})
		return
	}

	report, err := h.engine.UpsertTriples(c.Request.Context(), req.Triples)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Result{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true, Data: report})
}

// parseIntQuery reads an integer query parameter.
func parseIntQuery(c *gin.Context, name string) (int, error) {
	return strconv.Atoi(c.Query(name))
}
