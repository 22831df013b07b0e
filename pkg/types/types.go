package types

import (
	"strings"
	"time"
)

// EntityType classifies a graph entity into the domain taxonomy.
type EntityType string

const (
	EntityTypeOrganism          EntityType = "Organism"
	EntityTypeEnvironment       EntityType = "Environment"
	EntityTypeBiologicalProcess EntityType = "Biological_Process"
	EntityTypeBiomolecule       EntityType = "Biomolecule"
	EntityTypeTechnology        EntityType = "Technology"
	EntityTypeLocation          EntityType = "Location"
	EntityTypeUnknown           EntityType = "Unknown"
)

// RelationshipType is the verb linking two entities in a triple.
type RelationshipType string

const (
	RelCauses      RelationshipType = "causes"
	RelInhibits    RelationshipType = "inhibits"
	RelAffects     RelationshipType = "affects"
	RelMeasuredIn  RelationshipType = "measured_in"
	RelMitigatedBy RelationshipType = "mitigated_by"
	RelStudiedIn   RelationshipType = "studied_in"
	RelShowsEffect RelationshipType = "shows_effect"
)

// ValidRelationshipTypes enumerates the accepted relationship vocabulary.
var ValidRelationshipTypes = map[RelationshipType]bool{
	RelCauses:      true,
	RelInhibits:    true,
	RelAffects:     true,
	RelMeasuredIn:  true,
	RelMitigatedBy: true,
	RelStudiedIn:   true,
	RelShowsEffect: true,
}

// Entity is a node in the knowledge graph. Identity is the canonical name;
// the type is overwritten on re-upsert (last write wins).
type Entity struct {
	Name        string     `json:"name"`
	EntityType  EntityType `json:"entity_type"`
	LastUpdated time.Time  `json:"last_updated,omitempty"`
}

// Triple is a subject-relationship-object statement with its supporting
// evidence and source metadata, as produced by the extraction oracle.
type Triple struct {
	Subject      string           `json:"subject"`
	Relationship RelationshipType `json:"relationship"`
	Object       string           `json:"object"`
	EvidenceSpan string           `json:"evidence_span"`
	SourceTitle  string           `json:"source_title,omitempty"`
	SourceURL    string           `json:"source_url,omitempty"`
	DocID        string           `json:"doc_id,omitempty"`
}

// Validate checks a triple before it reaches the store.
func (t *Triple) Validate() error {
	if strings.TrimSpace(t.Subject) == "" {
		return &ValidationError{Field: "subject", Reason: "must not be empty"}
	}
	if strings.TrimSpace(t.Object) == "" {
		return &ValidationError{Field: "object", Reason: "must not be empty"}
	}
	if !ValidRelationshipTypes[t.Relationship] {
		return &ValidationError{Field: "relationship", Reason: "unknown relationship type: " + string(t.Relationship)}
	}
	return nil
}

// Relationship is a persisted graph edge. Identity is
// (subject, relationship, object); re-upserting the same key overwrites
// evidence and source metadata rather than creating a duplicate edge.
type Relationship struct {
	Subject      string           `json:"subject"`
	Relationship RelationshipType `json:"relationship"`
	Object       string           `json:"object"`
	Evidence     string           `json:"evidence,omitempty"`
	SourceTitle  string           `json:"source_title,omitempty"`
	SourceURL    string           `json:"source_url,omitempty"`
	DocID        string           `json:"doc_id,omitempty"`
	Confidence   float64          `json:"confidence"`
	CreatedAt    time.Time        `json:"created_at,omitempty"`
}

// Key returns the identity key of the edge.
func (r *Relationship) Key() string {
	return r.Subject + "|" + string(r.Relationship) + "|" + r.Object
}

// UpsertReport summarizes a bulk triple load. Counts are read back from
// the store after the batch so duplicates are visible.
type UpsertReport struct {
	TriplesSubmitted  int      `json:"triples_submitted"`
	EntityCount       int64    `json:"entity_count"`
	RelationshipCount int64    `json:"relationship_count"`
	Failures          []string `json:"failures,omitempty"`
}

// ChunkMetadata carries the traceability fields attached to every chunk.
type ChunkMetadata struct {
	SourceTitle   string `json:"source_title"`
	SourceURL     string `json:"source_url"`
	DocID         string `json:"doc_id"`
	ChunkID       string `json:"chunk_id"`
	ContentLength int    `json:"content_length"`
}

// Chunk is a vector store record: a span of document text plus metadata.
// The embedding is filled in at ingestion time.
type Chunk struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Embedding []float32     `json:"embedding,omitempty"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// ScoredChunk is a search hit with a normalized similarity score in [0,1].
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// PopulateReport summarizes a vector store population batch.
type PopulateReport struct {
	Added    int      `json:"added"`
	Skipped  int      `json:"skipped"`
	Total    int64    `json:"total"`
	Failures []string `json:"failures,omitempty"`
}

// CollectionStats is a cheap, sampling-based view of a collection.
type CollectionStats struct {
	Count                int64    `json:"count"`
	AverageContentLength float64  `json:"average_content_length"`
	SampleMetadataFields []string `json:"sample_metadata_fields"`
	EmbeddingModel       string   `json:"embedding_model,omitempty"`
}

// DegreeEntry is one row of the top-K-by-degree graph statistic.
type DegreeEntry struct {
	Entity     string     `json:"entity"`
	EntityType EntityType `json:"entity_type"`
	Degree     int64      `json:"degree"`
}

// GraphStats is the aggregate report exported for downstream analytics.
type GraphStats struct {
	TotalEntities     int64                      `json:"total_entities"`
	EntityTypes       map[EntityType]int64       `json:"entity_types"`
	RelationshipTypes map[RelationshipType]int64 `json:"relationship_types"`
	MostConnected     []DegreeEntry              `json:"most_connected"`
}

// Network is the bounded-depth neighborhood around a seed entity.
type Network struct {
	CentralEntity string         `json:"central_entity"`
	Depth         int            `json:"depth"`
	Relationships []Relationship `json:"relationships"`
}

// SourceKind tags which retrieval modality produced a result.
type SourceKind string

const (
	SourceGraph  SourceKind = "graph"
	SourceVector SourceKind = "vector"
)

// RetrievalResult is the tagged union the fusion layer operates on.
// Exactly one of Relationship or Chunk is set, per Kind.
type RetrievalResult struct {
	Kind         SourceKind    `json:"kind"`
	Score        float64       `json:"score"`
	Relationship *Relationship `json:"relationship,omitempty"`
	Chunk        *ScoredChunk  `json:"chunk,omitempty"`
}

// Intent is the routing decision for a query.
type Intent string

const (
	IntentGraphPrimary  Intent = "graph_primary"
	IntentVectorPrimary Intent = "vector_primary"
	IntentHybrid        Intent = "hybrid"
)

// RetrievalStats counts what each branch contributed to a routed query.
type RetrievalStats struct {
	GraphRelationships int  `json:"graph_relationships"`
	VectorChunks       int  `json:"vector_chunks"`
	GraphFailed        bool `json:"graph_failed,omitempty"`
	VectorFailed       bool `json:"vector_failed,omitempty"`
}

// Answer is the synthesized response with its evidence trail.
type Answer struct {
	Text     string            `json:"text"`
	Evidence []RetrievalResult `json:"evidence"`
}

// RoutedResult is the complete outcome of one routed query.
type RoutedResult struct {
	QueryID       string            `json:"query_id"`
	Query         string            `json:"query"`
	Intent        Intent            `json:"intent"`
	GraphResults  []Relationship    `json:"graph_results"`
	VectorResults []ScoredChunk     `json:"vector_results"`
	Fused         []RetrievalResult `json:"fused"`
	Answer        Answer            `json:"answer"`
	Stats         RetrievalStats    `json:"stats"`
	Elapsed       time.Duration     `json:"elapsed"`
}
