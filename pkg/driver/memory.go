package driver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/orbitalbio/graphrag/pkg/classify"
	"github.com/orbitalbio/graphrag/pkg/types"
)

// MemoryDriver is an in-process GraphDriver used as a test double and for
// offline tooling. It mirrors the Neo4j driver's semantics: idempotent
// upsert keyed by entity name and (subject, relationship, object),
// best-effort batches, read-back counts.
type MemoryDriver struct {
	mu         sync.RWMutex
	entities   map[string]*types.Entity
	edges      map[string]*types.Relationship
	classifier *classify.EntityClassifier
	confidence float64
	closed     bool
}

// NewMemoryDriver creates an empty in-memory graph store.
func NewMemoryDriver(classifier *classify.EntityClassifier, opts *Options) *MemoryDriver {
	if classifier == nil {
		classifier = classify.NewEntityClassifier(nil)
	}
	return &MemoryDriver{
		entities:   make(map[string]*types.Entity),
		edges:      make(map[string]*types.Relationship),
		classifier: classifier,
		confidence: opts.confidence(),
	}
}

// Provider reports the backend type.
func (m *MemoryDriver) Provider() GraphProvider { return GraphProviderMemory }

// VerifyConnectivity reports whether the store is usable.
func (m *MemoryDriver) VerifyConnectivity(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return &types.ConnectionError{Store: "memory", Err: fmt.Errorf("driver closed")}
	}
	return nil
}

// InitializeSchema is a no-op; the maps are their own schema.
func (m *MemoryDriver) InitializeSchema(ctx context.Context) error {
	return m.VerifyConnectivity(ctx)
}

// Close marks the driver unusable.
func (m *MemoryDriver) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// UpsertTriples loads triples best-effort, matching the Neo4j semantics.
func (m *MemoryDriver) UpsertTriples(ctx context.Context, triples []types.Triple) (*types.UpsertReport, error) {
	if err := m.VerifyConnectivity(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	report := &types.UpsertReport{TriplesSubmitted: len(triples)}
	now := time.Now()

	for _, triple := range triples {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := triple.Validate(); err != nil {
			report.Failures = append(report.Failures, err.Error())
			continue
		}

		m.upsertEntityLocked(triple.Subject, now)
		m.upsertEntityLocked(triple.Object, now)

		rel := &types.Relationship{
			Subject:      triple.Subject,
			Relationship: triple.Relationship,
			Object:       triple.Object,
			Evidence:     triple.EvidenceSpan,
			SourceTitle:  triple.SourceTitle,
			SourceURL:    triple.SourceURL,
			DocID:        triple.DocID,
			Confidence:   m.confidence,
			CreatedAt:    now,
		}
		if existing, ok := m.edges[rel.Key()]; ok {
			rel.CreatedAt = existing.CreatedAt
		}
		m.edges[rel.Key()] = rel
	}

	report.EntityCount = int64(len(m.entities))
	report.RelationshipCount = int64(len(m.edges))
	return report, nil
}

func (m *MemoryDriver) upsertEntityLocked(name string, now time.Time) {
	m.entities[name] = &types.Entity{
		Name:        name,
		EntityType:  m.classifier.Classify(name),
		LastUpdated: now,
	}
}

// QueryRelationships returns outgoing relationships for an entity, sorted
// by object name for deterministic output.
func (m *MemoryDriver) QueryRelationships(ctx context.Context, entityName string, relType types.RelationshipType) ([]types.Relationship, error) {
	if err := m.VerifyConnectivity(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]types.Relationship, 0)
	for _, edge := range m.edges {
		if edge.Subject != entityName {
			continue
		}
		if relType != "" && edge.Relationship != relType {
			continue
		}
		results = append(results, *edge)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Object != results[j].Object {
			return results[i].Object < results[j].Object
		}
		return results[i].Relationship < results[j].Relationship
	})
	return results, nil
}

// GetEntityNetwork walks the undirected neighborhood breadth-first up to
// the clamped depth, collecting distinct relationships.
func (m *MemoryDriver) GetEntityNetwork(ctx context.Context, entityName string, depth int) (*types.Network, error) {
	if err := m.VerifyConnectivity(ctx); err != nil {
		return nil, err
	}
	depth = clampDepth(depth)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.entities[entityName]; !ok {
		return nil, fmt.Errorf("entity %q: %w", entityName, types.ErrNotFound)
	}

	network := &types.Network{
		CentralEntity: entityName,
		Depth:         depth,
		Relationships: make([]types.Relationship, 0),
	}

	frontier := map[string]bool{entityName: true}
	visited := map[string]bool{entityName: true}
	seenEdges := map[string]bool{}

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		next := map[string]bool{}
		for _, edge := range m.edges {
			var neighbor string
			switch {
			case frontier[edge.Subject]:
				neighbor = edge.Object
			case frontier[edge.Object]:
				neighbor = edge.Subject
			default:
				continue
			}
			if !seenEdges[edge.Key()] {
				seenEdges[edge.Key()] = true
				network.Relationships = append(network.Relationships, *edge)
			}
			if !visited[neighbor] {
				visited[neighbor] = true
				next[neighbor] = true
			}
		}
		frontier = next
	}

	sort.Slice(network.Relationships, func(i, j int) bool {
		return network.Relationships[i].Key() < network.Relationships[j].Key()
	})
	return network, nil
}

// ExportStatistics computes the aggregate report from the maps.
func (m *MemoryDriver) ExportStatistics(ctx context.Context) (*types.GraphStats, error) {
	if err := m.VerifyConnectivity(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &types.GraphStats{
		TotalEntities:     int64(len(m.entities)),
		EntityTypes:       make(map[types.EntityType]int64),
		RelationshipTypes: make(map[types.RelationshipType]int64),
	}

	for _, entity := range m.entities {
		stats.EntityTypes[entity.EntityType]++
	}

	degrees := make(map[string]int64)
	for _, edge := range m.edges {
		stats.RelationshipTypes[edge.Relationship]++
		degrees[edge.Subject]++
		degrees[edge.Object]++
	}

	for name, degree := range degrees {
		entry := types.DegreeEntry{Entity: name, Degree: degree}
		if entity, ok := m.entities[name]; ok {
			entry.EntityType = entity.EntityType
		}
		stats.MostConnected = append(stats.MostConnected, entry)
	}
	sort.Slice(stats.MostConnected, func(i, j int) bool {
		if stats.MostConnected[i].Degree != stats.MostConnected[j].Degree {
			return stats.MostConnected[i].Degree > stats.MostConnected[j].Degree
		}
		return stats.MostConnected[i].Entity < stats.MostConnected[j].Entity
	})
	if len(stats.MostConnected) > 10 {
		stats.MostConnected = stats.MostConnected[:10]
	}

	return stats, nil
}

// Wipe removes everything.
func (m *MemoryDriver) Wipe(ctx context.Context) error {
	if err := m.VerifyConnectivity(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities = make(map[string]*types.Entity)
	m.edges = make(map[string]*types.Relationship)
	return nil
}
