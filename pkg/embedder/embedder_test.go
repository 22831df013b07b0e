package embedder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitalbio/graphrag/pkg/utils"
)

// failingClient always errors, standing in for an unreachable endpoint.
type failingClient struct {
	model string
	calls int
}

func (f *failingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	return nil, errors.New("endpoint unreachable")
}

func (f *failingClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, f, text)
}

func (f *failingClient) Model() string   { return f.model }
func (f *failingClient) Dimensions() int { return 8 }
func (f *failingClient) Close() error    { return nil }

func TestHashClientDeterministic(t *testing.T) {
	h := NewHashClient(64)
	ctx := context.Background()

	a, err := h.EmbedSingle(ctx, "microgravity bone loss")
	require.NoError(t, err)
	b, err := h.EmbedSingle(ctx, "microgravity bone loss")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestHashClientSimilarity(t *testing.T) {
	h := NewHashClient(128)
	ctx := context.Background()

	query, err := h.EmbedSingle(ctx, "bone loss in microgravity")
	require.NoError(t, err)
	related, err := h.EmbedSingle(ctx, "microgravity induces bone loss in mice")
	require.NoError(t, err)
	unrelated, err := h.EmbedSingle(ctx, "solar panel efficiency degradation")
	require.NoError(t, err)

	assert.Greater(t,
		utils.CosineSimilarity(query, related),
		utils.CosineSimilarity(query, unrelated),
		"token overlap must score higher than disjoint text")
}

func TestFallbackChain(t *testing.T) {
	t.Run("primary serves when healthy", func(t *testing.T) {
		primary := NewHashClient(32)
		chain, err := NewFallbackChain(nil, primary, &failingClient{model: "secondary"})
		require.NoError(t, err)

		_, err = chain.Embed(context.Background(), []string{"text"})
		require.NoError(t, err)
		assert.Equal(t, primary.Model(), chain.Model())
	})

	t.Run("falls back and stays on the fallback model", func(t *testing.T) {
		failing := &failingClient{model: "primary"}
		fallback := NewHashClient(32)
		chain, err := NewFallbackChain(nil, failing, fallback)
		require.NoError(t, err)

		_, err = chain.Embed(context.Background(), []string{"text"})
		require.NoError(t, err)
		assert.Equal(t, fallback.Model(), chain.Model(), "chosen model must be visible")

		// The failed primary is not retried on subsequent calls.
		_, err = chain.Embed(context.Background(), []string{"more text"})
		require.NoError(t, err)
		assert.Equal(t, 1, failing.calls)
	})

	t.Run("UseModel activates the named client", func(t *testing.T) {
		fallback := NewHashClient(32)
		chain, err := NewFallbackChain(nil, &failingClient{model: "primary"}, fallback)
		require.NoError(t, err)

		assert.True(t, chain.UseModel(fallback.Model()))
		assert.Equal(t, fallback.Model(), chain.Model())
		assert.False(t, chain.UseModel("unknown"), "unknown model leaves the chain unchanged")
		assert.Equal(t, fallback.Model(), chain.Model())
	})

	t.Run("all models failing is an error", func(t *testing.T) {
		chain, err := NewFallbackChain(nil, &failingClient{model: "a"}, &failingClient{model: "b"})
		require.NoError(t, err)

		_, err = chain.Embed(context.Background(), []string{"text"})
		assert.ErrorContains(t, err, "all embedding models failed")
	})

	t.Run("empty chain rejected", func(t *testing.T) {
		_, err := NewFallbackChain(nil)
		assert.Error(t, err)
	})
}

func TestBreakerClient(t *testing.T) {
	failing := &failingClient{model: "flaky"}
	b := NewBreakerClient(failing, DefaultBreakerConfig())
	ctx := context.Background()

	// Trip the breaker.
	for i := 0; i < 5; i++ {
		_, _ = b.Embed(ctx, []string{"text"})
	}

	callsBeforeOpen := failing.calls
	_, err := b.Embed(ctx, []string{"text"})
	require.Error(t, err)
	assert.Equal(t, callsBeforeOpen, failing.calls, "open breaker must not reach the client")
}

func TestBreakerClientPassthrough(t *testing.T) {
	b := NewBreakerClient(NewHashClient(16), DefaultBreakerConfig())

	v, err := b.EmbedSingle(context.Background(), "healthy path")
	require.NoError(t, err)
	assert.Len(t, v, 16)
	assert.Equal(t, "hash-fnv32a", b.Model())
}
