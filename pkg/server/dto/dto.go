// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"errors"
	"strings"

	"github.com/orbitalbio/graphrag/pkg/ingest"
	"github.com/orbitalbio/graphrag/pkg/types"
)

// MaxQueryLength bounds query text accepted over the API.
const MaxQueryLength = 4096

// ErrQueryTooLong is returned when a query exceeds MaxQueryLength.
var ErrQueryTooLong = errors.New("query exceeds maximum length")

// QueryRequest is the body of POST /api/v1/query. UseGraph and UseVector
// are optional; when both are omitted the intent classifier decides.
type QueryRequest struct {
	Query     string `json:"query" binding:"required"`
	K         int    `json:"k,omitempty"`
	UseGraph  *bool  `json:"use_graph,omitempty"`
	UseVector *bool  `json:"use_vector,omitempty"`
}

// Validate performs validation on QueryRequest
func (r *QueryRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query cannot be empty")
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	return nil
}

// ExplicitFlags reports whether the caller forced retrieval branches.
func (r *QueryRequest) ExplicitFlags() bool {
	return r.UseGraph != nil || r.UseVector != nil
}

// QueryResponse wraps a routed result.
type QueryResponse struct {
	Result *types.RoutedResult `json:"result"`
}

// IngestRequest is the body of POST /api/v1/ingest/documents.
type IngestRequest struct {
	Documents []ingest.Document `json:"documents" binding:"required"`
}

// Validate performs validation on IngestRequest
func (r *IngestRequest) Validate() error {
	if len(r.Documents) == 0 {
		return errors.New("documents cannot be empty")
	}
	for _, doc := range r.Documents {
		if strings.TrimSpace(doc.ID) == "" {
			return errors.New("every document needs an id")
		}
		if strings.TrimSpace(doc.Content) == "" {
			return errors.New("document " + doc.ID + " has no content")
		}
	}
	return nil
}

// TriplesRequest is the body of POST /api/v1/ingest/triples, for callers
// that run their own extraction.
type TriplesRequest struct {
	Triples []types.Triple `json:"triples" binding:"required"`
}

// Validate performs validation on TriplesRequest
func (r *TriplesRequest) Validate() error {
	if len(r.Triples) == 0 {
		return errors.New("triples cannot be empty")
	}
	return nil
}

// Result represents a generic API result
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
