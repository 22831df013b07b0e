package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/orbitalbio/graphrag/pkg/classify"
	"github.com/orbitalbio/graphrag/pkg/types"
)

// Neo4jDriver implements GraphDriver against a Neo4j database.
type Neo4jDriver struct {
	client     neo4j.DriverWithContext
	database   string
	classifier *classify.EntityClassifier
	confidence float64
	logger     *slog.Logger
}

// NewNeo4jDriver creates a driver for the given bolt URI. The classifier
// types entities during upsert; nil uses the default taxonomy table.
func NewNeo4jDriver(uri, username, password, database string, classifier *classify.EntityClassifier, opts *Options, logger *slog.Logger) (*Neo4jDriver, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}
	if classifier == nil {
		classifier = classify.NewEntityClassifier(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Neo4jDriver{
		client:     client,
		database:   database,
		classifier: classifier,
		confidence: opts.confidence(),
		logger:     logger,
	}, nil
}

// Provider reports the backend type.
func (n *Neo4jDriver) Provider() GraphProvider { return GraphProviderNeo4j }

// VerifyConnectivity health-checks the connection.
func (n *Neo4jDriver) VerifyConnectivity(ctx context.Context) error {
	if err := n.client.VerifyConnectivity(ctx); err != nil {
		return &types.ConnectionError{Store: "neo4j", Err: err}
	}
	return nil
}

// Close releases the underlying bolt connection pool.
func (n *Neo4jDriver) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

// schemaStatements declare entity uniqueness and the type indexes the
// query paths depend on. All use IF NOT EXISTS so re-running is a no-op.
var schemaStatements = []string{
	"CREATE CONSTRAINT entity_name IF NOT EXISTS FOR (e:Entity) REQUIRE e.name IS UNIQUE",
	"CREATE INDEX entity_type_index IF NOT EXISTS FOR (e:Entity) ON (e.entity_type)",
	"CREATE INDEX relationship_type_index IF NOT EXISTS FOR ()-[r:RELATES_TO]-() ON (r.relationship)",
}

// InitializeSchema creates constraints and indexes. Statements that fail
// because the constraint already exists under a different name are logged
// as warnings and treated as success.
func (n *Neo4jDriver) InitializeSchema(ctx context.Context) error {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	for _, stmt := range schemaStatements {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		})
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "already exists") {
				n.logger.Warn("schema object already exists", "statement", stmt)
				continue
			}
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

const upsertTripleQuery = `
	MERGE (subject:Entity {name: $subject_name})
	SET subject.entity_type = $subject_type,
	    subject.last_updated = timestamp()

	MERGE (object:Entity {name: $object_name})
	SET object.entity_type = $object_type,
	    object.last_updated = timestamp()

	MERGE (subject)-[r:RELATES_TO {relationship: $rel_type}]->(object)
	SET r.evidence = $evidence,
	    r.source_title = $source_title,
	    r.source_url = $source_url,
	    r.doc_id = $doc_id,
	    r.confidence = $confidence,
	    r.created_at = coalesce(r.created_at, timestamp())
`

// UpsertTriples loads triples one at a time, best-effort. MERGE keys the
// entities by name and the edge by (subject, relationship, object), so
// re-ingesting the same triple updates metadata instead of duplicating.
func (n *Neo4jDriver) UpsertTriples(ctx context.Context, triples []types.Triple) (*types.UpsertReport, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	report := &types.UpsertReport{TriplesSubmitted: len(triples)}

	for _, triple := range triples {
		if err := triple.Validate(); err != nil {
			n.logger.Warn("skipping malformed triple", "subject", triple.Subject, "error", err)
			report.Failures = append(report.Failures, err.Error())
			continue
		}

		params := map[string]any{
			"subject_name": triple.Subject,
			"subject_type": string(n.classifier.Classify(triple.Subject)),
			"object_name":  triple.Object,
			"object_type":  string(n.classifier.Classify(triple.Object)),
			"rel_type":     string(triple.Relationship),
			"evidence":     triple.EvidenceSpan,
			"source_title": triple.SourceTitle,
			"source_url":   triple.SourceURL,
			"doc_id":       triple.DocID,
			"confidence":   n.confidence,
		}

		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, upsertTripleQuery, params)
			return nil, err
		})
		if err != nil {
			n.logger.Error("failed to upsert triple",
				"subject", triple.Subject, "object", triple.Object, "error", err)
			report.Failures = append(report.Failures, fmt.Sprintf("%s -> %s: %v", triple.Subject, triple.Object, err))
		}
	}

	// Read counts back so duplicate submissions are visible to the caller.
	entityCount, err := n.countQuery(ctx, session, "MATCH (e:Entity) RETURN count(e) AS count")
	if err != nil {
		return report, fmt.Errorf("failed to read entity count: %w", err)
	}
	relCount, err := n.countQuery(ctx, session, "MATCH ()-[r:RELATES_TO]->() RETURN count(r) AS count")
	if err != nil {
		return report, fmt.Errorf("failed to read relationship count: %w", err)
	}

	report.EntityCount = entityCount
	report.RelationshipCount = relCount
	return report, nil
}

func (n *Neo4jDriver) countQuery(ctx context.Context, session neo4j.SessionWithContext, query string) (int64, error) {
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		count, _ := record.Get("count")
		return count, nil
	})
	if err != nil {
		return 0, err
	}
	count, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected type for count: got %T, expected int64", result)
	}
	return count, nil
}

// QueryRelationships returns outgoing relationships for an entity. An
// unknown entity matches nothing and yields an empty slice.
func (n *Neo4jDriver) QueryRelationships(ctx context.Context, entityName string, relType types.RelationshipType) ([]types.Relationship, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	query := `
		MATCH (e:Entity {name: $entity_name})-[r:RELATES_TO]->(target)
		WHERE $rel_type = '' OR r.relationship = $rel_type
		RETURN e.name AS subject, r.relationship AS relationship, target.name AS object,
		       r.evidence AS evidence, r.source_title AS source_title,
		       r.source_url AS source_url, r.doc_id AS doc_id, r.confidence AS confidence
	`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"entity_name": entityName,
			"rel_type":    string(relType),
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}

	records, ok := result.([]*neo4j.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}

	relationships := make([]types.Relationship, 0, len(records))
	for _, record := range records {
		relationships = append(relationships, relationshipFromRecord(record))
	}
	return relationships, nil
}

// GetEntityNetwork traverses up to depth hops around the seed entity and
// returns the distinct relationships encountered. The depth bound is
// interpolated into the pattern because Cypher does not parameterize
// variable-length bounds; it is a clamped integer, never caller text.
func (n *Neo4jDriver) GetEntityNetwork(ctx context.Context, entityName string, depth int) (*types.Network, error) {
	depth = clampDepth(depth)

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	exists, err := n.entityExists(ctx, session, entityName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("entity %q: %w", entityName, types.ErrNotFound)
	}

	query := fmt.Sprintf(`
		MATCH path = (start:Entity {name: $entity_name})-[:RELATES_TO*1..%d]-(connected)
		UNWIND relationships(path) AS rel
		RETURN DISTINCT startNode(rel).name AS subject, rel.relationship AS relationship,
		       endNode(rel).name AS object, rel.evidence AS evidence,
		       rel.source_title AS source_title, rel.source_url AS source_url,
		       rel.doc_id AS doc_id, rel.confidence AS confidence
	`, depth)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"entity_name": entityName})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to traverse entity network: %w", err)
	}

	records, ok := result.([]*neo4j.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}

	network := &types.Network{
		CentralEntity: entityName,
		Depth:         depth,
		Relationships: make([]types.Relationship, 0, len(records)),
	}
	for _, record := range records {
		network.Relationships = append(network.Relationships, relationshipFromRecord(record))
	}
	return network, nil
}

func (n *Neo4jDriver) entityExists(ctx context.Context, session neo4j.SessionWithContext, entityName string) (bool, error) {
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (e:Entity {name: $name}) RETURN count(e) AS count", map[string]any{"name": entityName})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		count, _ := record.Get("count")
		return count, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check entity existence: %w", err)
	}
	count, _ := result.(int64)
	return count > 0, nil
}

// ExportStatistics reads the aggregate graph report.
func (n *Neo4jDriver) ExportStatistics(ctx context.Context) (*types.GraphStats, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	stats := &types.GraphStats{
		EntityTypes:       make(map[types.EntityType]int64),
		RelationshipTypes: make(map[types.RelationshipType]int64),
	}

	total, err := n.countQuery(ctx, session, "MATCH (e:Entity) RETURN count(e) AS count")
	if err != nil {
		return nil, fmt.Errorf("failed to count entities: %w", err)
	}
	stats.TotalEntities = total

	typeRecords, err := n.collectQuery(ctx, session,
		"MATCH (e:Entity) RETURN e.entity_type AS key, count(e) AS count", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read entity type histogram: %w", err)
	}
	for _, record := range typeRecords {
		key, count := histogramRow(record)
		stats.EntityTypes[types.EntityType(key)] = count
	}

	relRecords, err := n.collectQuery(ctx, session,
		"MATCH ()-[r:RELATES_TO]->() RETURN r.relationship AS key, count(r) AS count", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read relationship type histogram: %w", err)
	}
	for _, record := range relRecords {
		key, count := histogramRow(record)
		stats.RelationshipTypes[types.RelationshipType(key)] = count
	}

	degreeRecords, err := n.collectQuery(ctx, session, `
		MATCH (e:Entity)-[r:RELATES_TO]-()
		RETURN e.name AS entity, e.entity_type AS entity_type, count(r) AS degree
		ORDER BY degree DESC LIMIT 10
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read degree ranking: %w", err)
	}
	for _, record := range degreeRecords {
		entity, _ := record.Get("entity")
		entityType, _ := record.Get("entity_type")
		degree, _ := record.Get("degree")

		entry := types.DegreeEntry{}
		entry.Entity, _ = entity.(string)
		if s, ok := entityType.(string); ok {
			entry.EntityType = types.EntityType(s)
		}
		entry.Degree, _ = degree.(int64)
		stats.MostConnected = append(stats.MostConnected, entry)
	}

	return stats, nil
}

// Wipe removes all entities and relationships.
func (n *Neo4jDriver) Wipe(ctx context.Context) error {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to wipe graph: %w", err)
	}
	n.logger.Info("graph wiped")
	return nil
}

func (n *Neo4jDriver) collectQuery(ctx context.Context, session neo4j.SessionWithContext, query string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	records, ok := result.([]*neo4j.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}
	return records, nil
}

func histogramRow(record *neo4j.Record) (string, int64) {
	keyValue, _ := record.Get("key")
	countValue, _ := record.Get("count")
	key, _ := keyValue.(string)
	count, _ := countValue.(int64)
	return key, count
}

func relationshipFromRecord(record *neo4j.Record) types.Relationship {
	rel := types.Relationship{}

	if v, ok := record.Get("subject"); ok {
		rel.Subject, _ = v.(string)
	}
	if v, ok := record.Get("relationship"); ok {
		if s, ok := v.(string); ok {
			rel.Relationship = types.RelationshipType(s)
		}
	}
	if v, ok := record.Get("object"); ok {
		rel.Object, _ = v.(string)
	}
	if v, ok := record.Get("evidence"); ok {
		rel.Evidence, _ = v.(string)
	}
	if v, ok := record.Get("source_title"); ok {
		rel.SourceTitle, _ = v.(string)
	}
	if v, ok := record.Get("source_url"); ok {
		rel.SourceURL, _ = v.(string)
	}
	if v, ok := record.Get("doc_id"); ok {
		rel.DocID, _ = v.(string)
	}
	if v, ok := record.Get("confidence"); ok {
		rel.Confidence, _ = v.(float64)
	}
	if v, ok := record.Get("created_at"); ok {
		if millis, ok := v.(int64); ok {
			rel.CreatedAt = time.UnixMilli(millis)
		}
	}
	return rel
}
