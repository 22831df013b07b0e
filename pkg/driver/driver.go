package driver

import (
	"context"

	"github.com/orbitalbio/graphrag/pkg/types"
)

// GraphProvider represents the type of graph database backend.
type GraphProvider string

const (
	GraphProviderNeo4j  GraphProvider = "neo4j"
	GraphProviderMemory GraphProvider = "memory"
)

// MaxTraversalDepth caps GetEntityNetwork traversal. Depth is a
// resource-limiting parameter, not caller-supplied unbounded work.
const MaxTraversalDepth = 5

// DefaultConfidence is assigned to relationships whose confidence is not
// supplied by the extraction oracle. Configurable via Options.
const DefaultConfidence = 0.9

// GraphDriver defines the knowledge graph store contract.
//
// Read paths return empty results for unknown entities; only the targeted
// network lookup reports types.ErrNotFound. Connection problems surface as
// *types.ConnectionError and are retryable by the caller.
type GraphDriver interface {
	// VerifyConnectivity health-checks the backing store. It fails fast
	// with a *types.ConnectionError when the store is unreachable or
	// credentials are invalid.
	VerifyConnectivity(ctx context.Context) error

	// InitializeSchema idempotently declares uniqueness constraints on
	// entity names and indexes on entity and relationship types.
	// "Already exists" is success, not failure.
	InitializeSchema(ctx context.Context) error

	// UpsertTriples loads a batch of triples best-effort: per-triple
	// failures are recorded in the report and do not abort the batch.
	// Subject and object entities are upserted (typed via the entity
	// classifier when not already typed) before the relationship edge,
	// which is keyed by (subject, relationship, object). The returned
	// counts are read back from the store after the batch.
	UpsertTriples(ctx context.Context, triples []types.Triple) (*types.UpsertReport, error)

	// QueryRelationships returns all outgoing relationships of the named
	// entity, optionally filtered by relationship type (empty = all).
	// Unknown entities yield an empty slice, never an error.
	QueryRelationships(ctx context.Context, entityName string, relType types.RelationshipType) ([]types.Relationship, error)

	// GetEntityNetwork returns the distinct relationships reachable from
	// the seed entity within depth hops (clamped to [1, MaxTraversalDepth]).
	// Returns types.ErrNotFound when the seed entity does not exist.
	GetEntityNetwork(ctx context.Context, entityName string, depth int) (*types.Network, error)

	// ExportStatistics reads aggregate counts for downstream analytics.
	ExportStatistics(ctx context.Context) (*types.GraphStats, error)

	// Wipe removes all entities and relationships. Administrative reset;
	// never triggered by query traffic.
	Wipe(ctx context.Context) error

	// Provider reports which backend this driver talks to.
	Provider() GraphProvider

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Options tunes driver behavior shared by all implementations.
type Options struct {
	// DefaultConfidence overrides the confidence assigned to upserted
	// relationships. Zero means DefaultConfidence.
	DefaultConfidence float64
}

func (o *Options) confidence() float64 {
	if o == nil || o.DefaultConfidence == 0 {
		return DefaultConfidence
	}
	return o.DefaultConfidence
}

// clampDepth bounds a traversal depth to [1, MaxTraversalDepth].
func clampDepth(depth int) int {
	if depth < 1 {
		return 1
	}
	if depth > MaxTraversalDepth {
		return MaxTraversalDepth
	}
	return depth
}
