package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitalbio/graphrag/pkg/embedder"
	"github.com/orbitalbio/graphrag/pkg/types"
)

// flakyEmbedder fails on contents listed in failOn, embedding everything
// else with the hash client.
type flakyEmbedder struct {
	*embedder.HashClient
	failOn map[string]bool
}

func (f *flakyEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if f.failOn[text] {
		return nil, errors.New("model rejected input")
	}
	return f.HashClient.EmbedSingle(ctx, text)
}

// downEmbedder stands in for an unreachable endpoint.
type downEmbedder struct{ model string }

func (d *downEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("endpoint unreachable")
}

func (d *downEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("endpoint unreachable")
}

func (d *downEmbedder) Model() string   { return d.model }
func (d *downEmbedder) Dimensions() int { return 64 }
func (d *downEmbedder) Close() error    { return nil }

// namedEmbedder serves hash embeddings under a different model name.
type namedEmbedder struct {
	*embedder.HashClient
	model string
}

func (n *namedEmbedder) Model() string { return n.model }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(t.TempDir(), embedder.NewHashClient(64), nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleChunks() []types.Chunk {
	return []types.Chunk{
		{
			Content: "Microgravity induces pelvic bone loss through osteoclastic activity in mice.",
			Metadata: types.ChunkMetadata{
				SourceTitle: "Mice in Bion-M 1 space mission",
				SourceURL:   "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC4136787/",
				DocID:       "PMC_4136787",
				ChunkID:     "chunk_0",
			},
		},
		{
			Content: "The International Space Station hosts long-duration rodent research facilities.",
			Metadata: types.ChunkMetadata{
				SourceTitle: "ISS rodent habitats",
				DocID:       "PMC_5666799",
				ChunkID:     "chunk_0",
			},
		},
	}
}

func TestInitializeCollectionIdempotent(t *testing.T) {
	s := newTestStore(t)

	a, err := s.InitializeCollection("publications")
	require.NoError(t, err)
	b, err := s.InitializeCollection("publications")
	require.NoError(t, err)

	assert.Same(t, a, b, "repeated initialization returns the same handle")
}

func TestInitializeCollectionValidatesName(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InitializeCollection("  ")
	assert.True(t, types.IsValidation(err))
}

func TestPopulateAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	col, err := s.InitializeCollection("publications")
	require.NoError(t, err)

	report, err := col.Populate(ctx, sampleChunks())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Added)
	assert.Equal(t, int64(2), report.Total)
	assert.Empty(t, report.Failures)

	hits, err := col.Search(ctx, "bone loss in microgravity", 2, nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Contains(t, hits[0].Content, "bone loss", "most similar chunk first")
	assert.GreaterOrEqual(t, hits[0].Score, hits[len(hits)-1].Score)
	for _, hit := range hits {
		assert.GreaterOrEqual(t, hit.Score, 0.0)
		assert.LessOrEqual(t, hit.Score, 1.0)
	}
}

func TestSearchSmallerThanK(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	col, err := s.InitializeCollection("publications")
	require.NoError(t, err)
	_, err = col.Populate(ctx, sampleChunks())
	require.NoError(t, err)

	hits, err := col.Search(ctx, "space biology", 5, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 2, "k=5 against 2 chunks returns exactly 2")
}

func TestSearchEmptyCollection(t *testing.T) {
	s := newTestStore(t)

	col, err := s.InitializeCollection("empty")
	require.NoError(t, err)

	hits, err := col.Search(context.Background(), "anything", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchMetadataFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	col, err := s.InitializeCollection("publications")
	require.NoError(t, err)
	_, err = col.Populate(ctx, sampleChunks())
	require.NoError(t, err)

	hits, err := col.Search(ctx, "space research", 5, &MetadataFilter{DocID: "PMC_5666799"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "PMC_5666799", hits[0].Metadata.DocID)
}

func TestPopulateIdempotentIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	col, err := s.InitializeCollection("publications")
	require.NoError(t, err)

	first, err := col.Populate(ctx, sampleChunks())
	require.NoError(t, err)
	second, err := col.Populate(ctx, sampleChunks())
	require.NoError(t, err)

	assert.Equal(t, first.Total, second.Total, "re-ingestion must not duplicate chunks")
}

func TestPopulateSkipsFailedEmbeddings(t *testing.T) {
	chunks := sampleChunks()
	emb := &flakyEmbedder{
		HashClient: embedder.NewHashClient(64),
		failOn:     map[string]bool{chunks[0].Content: true},
	}
	s := NewStore(t.TempDir(), emb, nil)
	t.Cleanup(func() { _ = s.Close() })

	col, err := s.InitializeCollection("publications")
	require.NoError(t, err)

	report, err := col.Populate(context.Background(), chunks)
	require.NoError(t, err, "a failed chunk must not abort the batch")
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Skipped)
	assert.Len(t, report.Failures, 1)
}

func TestPopulateSkipsEmptyContent(t *testing.T) {
	s := newTestStore(t)

	report, err := s.mustCollection(t, "publications").Populate(context.Background(), []types.Chunk{
		{Content: "   "},
	})
	require.NoError(t, err)
	assert.Zero(t, report.Added)
	assert.Equal(t, 1, report.Skipped)
}

func (s *Store) mustCollection(t *testing.T, name string) *Collection {
	t.Helper()
	col, err := s.InitializeCollection(name)
	require.NoError(t, err)
	return col
}

func TestStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	col := s.mustCollection(t, "publications")
	_, err := col.Populate(ctx, sampleChunks())
	require.NoError(t, err)

	stats, err := col.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Count)
	assert.Greater(t, stats.AverageContentLength, 0.0)
	assert.Contains(t, stats.SampleMetadataFields, "doc_id")
	assert.Equal(t, "hash-fnv32a", stats.EmbeddingModel)
}

func TestWipe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	col := s.mustCollection(t, "publications")
	_, err := col.Populate(ctx, sampleChunks())
	require.NoError(t, err)

	require.NoError(t, col.Wipe(ctx))

	stats, err := col.Statistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Count)
}

func TestSearchMatchesModelAfterFallbackAndReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	chunks := sampleChunks()[:1]

	chain, err := embedder.NewFallbackChain(nil,
		&downEmbedder{model: "text-embedding-3-small"}, embedder.NewHashClient(64))
	require.NoError(t, err)

	s := NewStore(dir, chain, nil)
	col := s.mustCollection(t, "publications")
	report, err := col.Populate(ctx, chunks)
	require.NoError(t, err)
	require.Equal(t, 1, report.Added)

	stats, err := col.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hash-fnv32a", stats.EmbeddingModel,
		"the model that served the batch is the one recorded")
	require.NoError(t, s.Close())

	// A new process starts the chain back on a healthy primary; opening
	// the collection must realign it to the recorded model.
	healthy, err := embedder.NewFallbackChain(nil,
		&namedEmbedder{HashClient: embedder.NewHashClient(64), model: "text-embedding-3-small"},
		embedder.NewHashClient(64))
	require.NoError(t, err)

	reopened := NewStore(dir, healthy, nil)
	t.Cleanup(func() { _ = reopened.Close() })

	col = reopened.mustCollection(t, "publications")
	assert.Equal(t, "hash-fnv32a", healthy.Model())

	hits, err := col.Search(ctx, chunks[0].Content, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Greater(t, hits[0].Score, 0.99,
		"identical text embedded with the recorded model scores as a near-exact match")
}

func TestSearchRejectsUnservableRecordedModel(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := NewStore(dir, embedder.NewHashClient(64), nil)
	col := s.mustCollection(t, "publications")
	_, err := col.Populate(ctx, sampleChunks())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// The reopening embedder serves a single model that does not match
	// the record and cannot switch.
	other := &namedEmbedder{HashClient: embedder.NewHashClient(64), model: "other-model"}
	reopened := NewStore(dir, other, nil)
	t.Cleanup(func() { _ = reopened.Close() })

	col = reopened.mustCollection(t, "publications")
	_, err = col.Search(ctx, "bone loss", 5, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelMismatch)
}

func TestCollectionPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := NewStore(dir, embedder.NewHashClient(64), nil)
	col := s.mustCollection(t, "publications")
	_, err := col.Populate(ctx, sampleChunks())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened := NewStore(dir, embedder.NewHashClient(64), nil)
	t.Cleanup(func() { _ = reopened.Close() })

	col = reopened.mustCollection(t, "publications")
	stats, err := col.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Count)
}
