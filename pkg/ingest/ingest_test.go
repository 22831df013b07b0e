package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitalbio/graphrag/pkg/driver"
	"github.com/orbitalbio/graphrag/pkg/embedder"
	"github.com/orbitalbio/graphrag/pkg/extract"
	"github.com/orbitalbio/graphrag/pkg/types"
	"github.com/orbitalbio/graphrag/pkg/vectorstore"
)

// staticOracle returns one fixed triple per chunk, or errors on chunks
// whose content contains the trip word.
type staticOracle struct {
	tripOn string
}

func (o *staticOracle) Extract(_ context.Context, chunk types.Chunk) (*extract.Extraction, error) {
	if o.tripOn != "" && strings.Contains(chunk.Content, o.tripOn) {
		return nil, errors.New("oracle unavailable")
	}
	return &extract.Extraction{
		Entities: []extract.ExtractedEntity{
			{Name: "Microgravity", EntityType: "Environment"},
			{Name: "Bone Loss", EntityType: "Biological_Process"},
		},
		Triples: []types.Triple{{
			Subject:      "Microgravity",
			Relationship: types.RelCauses,
			Object:       "Bone Loss",
			EvidenceSpan: chunk.Content,
			DocID:        chunk.Metadata.DocID,
		}},
	}, nil
}

func testCollection(t *testing.T) *vectorstore.Collection {
	t.Helper()
	store := vectorstore.NewStore("", embedder.NewHashClient(64), nil)
	t.Cleanup(func() { _ = store.Close() })
	col, err := store.InitializeCollection("ingest_test")
	require.NoError(t, err)
	return col
}

func TestSlidingChunker(t *testing.T) {
	t.Run("short document is one chunk", func(t *testing.T) {
		c := NewSlidingChunker(0, 0)
		chunks := c.Chunk(Document{ID: "d1", Content: "Microgravity causes bone loss."})
		require.Len(t, chunks, 1)
		assert.Equal(t, "Microgravity causes bone loss.", chunks[0].Content)
		assert.Equal(t, chunks[0].ID, chunks[0].Metadata.ChunkID)
	})

	t.Run("long document splits with overlap", func(t *testing.T) {
		c := NewSlidingChunker(100, 20)
		content := strings.Repeat("space biology research findings ", 20)
		chunks := c.Chunk(Document{ID: "d1", Content: content})
		require.Greater(t, len(chunks), 1)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk.Content), 100)
			assert.NotEmpty(t, chunk.ID)
		}
	})

	t.Run("chunk ids are stable across runs", func(t *testing.T) {
		c := NewSlidingChunker(100, 20)
		doc := Document{ID: "d1", Content: strings.Repeat("repeatable content ", 30)}
		first := c.Chunk(doc)
		second := c.Chunk(doc)
		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].ID, second[i].ID)
		}
	})

	t.Run("empty document yields no chunks", func(t *testing.T) {
		c := NewSlidingChunker(0, 0)
		assert.Empty(t, c.Chunk(Document{ID: "d1", Content: "   "}))
	})

	t.Run("unspaced multibyte text never splits a rune", func(t *testing.T) {
		// 3-byte runes with no spaces force the cut off the window edge.
		c := NewSlidingChunker(100, 10)
		content := strings.Repeat("微重力環境での骨量減少", 30)
		chunks := c.Chunk(Document{ID: "d1", Content: content})
		require.Greater(t, len(chunks), 1)
		for _, chunk := range chunks {
			assert.True(t, utf8.ValidString(chunk.Content))
			assert.LessOrEqual(t, len(chunk.Content), 100)
		}
	})
}

func TestPipelineRun(t *testing.T) {
	graph := driver.NewMemoryDriver(nil, nil)
	col := testCollection(t)
	p := New(NewSlidingChunker(0, 0), &staticOracle{}, graph, col, 2, nil)

	report, err := p.Run(context.Background(), []Document{
		{ID: "doc-1", Title: "Bone Density Study", Content: "Microgravity causes bone loss in astronauts."},
		{ID: "doc-2", Title: "ISS Overview", Content: "The ISS hosts biology experiments."},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, 2, report.Chunks)
	assert.Equal(t, 2, report.TriplesExtracted)
	assert.Empty(t, report.Failures)

	require.NotNil(t, report.Vector)
	assert.Equal(t, int64(2), report.Vector.Total)

	require.NotNil(t, report.Graph)
	assert.Equal(t, int64(2), report.Graph.EntityCount)
	assert.Equal(t, int64(1), report.Graph.RelationshipCount)

	rels, err := graph.QueryRelationships(context.Background(), "Microgravity", "")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "Bone Loss", rels[0].Object)
}

func TestPipelineOracleFailureIsCounted(t *testing.T) {
	graph := driver.NewMemoryDriver(nil, nil)
	p := New(nil, &staticOracle{tripOn: "ISS"}, graph, testCollection(t), 2, nil)

	report, err := p.Run(context.Background(), []Document{
		{ID: "doc-1", Content: "Microgravity causes bone loss."},
		{ID: "doc-2", Content: "The ISS hosts biology experiments."},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.TriplesExtracted)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0], "oracle unavailable")
}

func TestPipelineVectorOnly(t *testing.T) {
	p := New(nil, nil, nil, testCollection(t), 0, nil)

	report, err := p.Run(context.Background(), []Document{
		{ID: "doc-1", Content: "Radiation affects DNA repair."},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Chunks)
	assert.Zero(t, report.TriplesExtracted)
	assert.Nil(t, report.Graph)
	require.NotNil(t, report.Vector)
	assert.Equal(t, int64(1), report.Vector.Total)
}
