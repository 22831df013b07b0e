package driver

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitalbio/graphrag/pkg/types"
)

// newTestNeo4jDriver connects to the database named by NEO4J_URI, or skips
// the test when no instance is available.
func newTestNeo4jDriver(t *testing.T) *Neo4jDriver {
	t.Helper()

	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set, skipping neo4j integration test")
	}

	username := os.Getenv("NEO4J_USER")
	if username == "" {
		username = "neo4j"
	}
	password := os.Getenv("NEO4J_PASSWORD")

	d, err := NewNeo4jDriver(uri, username, password, "", nil, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	if err := d.VerifyConnectivity(ctx); err != nil {
		t.Skipf("neo4j not reachable: %v", err)
	}

	t.Cleanup(func() {
		_ = d.Wipe(ctx)
		_ = d.Close(ctx)
	})
	require.NoError(t, d.Wipe(ctx))
	require.NoError(t, d.InitializeSchema(ctx))
	return d
}

func TestNeo4jRoundTrip(t *testing.T) {
	d := newTestNeo4jDriver(t)
	ctx := context.Background()

	first, err := d.UpsertTriples(ctx, boneLossTriples())
	require.NoError(t, err)
	assert.Equal(t, int64(5), first.EntityCount)
	assert.Equal(t, int64(3), first.RelationshipCount)

	// Idempotence against the real store.
	second, err := d.UpsertTriples(ctx, boneLossTriples())
	require.NoError(t, err)
	assert.Equal(t, first.EntityCount, second.EntityCount)
	assert.Equal(t, first.RelationshipCount, second.RelationshipCount)

	rels, err := d.QueryRelationships(ctx, "Microgravity", "")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "Bone Loss", rels[0].Object)

	network, err := d.GetEntityNetwork(ctx, "Microgravity", 2)
	require.NoError(t, err)
	assert.Len(t, network.Relationships, 2)

	_, err = d.GetEntityNetwork(ctx, "Dark Matter", 2)
	assert.ErrorIs(t, err, types.ErrNotFound)

	stats, err := d.ExportStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalEntities)
}

func TestNeo4jSchemaInitIdempotent(t *testing.T) {
	d := newTestNeo4jDriver(t)
	ctx := context.Background()

	// Second run must tolerate existing constraints.
	require.NoError(t, d.InitializeSchema(ctx))
	require.NoError(t, d.InitializeSchema(ctx))
}
