package embedder

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/orbitalbio/graphrag/pkg/utils"
)

// HashClient is a deterministic, offline embedder: each token hashes into
// a bucket of a fixed-width vector, which is then normalized. It has no
// semantic power but keeps the full pipeline runnable without a model
// endpoint, which is what tests and air-gapped smoke runs need. Texts
// sharing tokens still score higher than disjoint ones.
type HashClient struct {
	dimensions int
}

// NewHashClient creates an offline embedder with the given vector width.
func NewHashClient(dimensions int) *HashClient {
	if dimensions <= 0 {
		dimensions = 128
	}
	return &HashClient{dimensions: dimensions}
}

// Embed generates one deterministic vector per text.
func (h *HashClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = h.embedText(text)
	}
	return embeddings, nil
}

func (h *HashClient) embedText(text string) []float32 {
	v := make([]float32, h.dimensions)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		hasher := fnv.New32a()
		hasher.Write([]byte(token))
		v[int(hasher.Sum32())%h.dimensions]++
	}
	return utils.Normalize(v)
}

// EmbedSingle generates an embedding for a single text.
func (h *HashClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, h, text)
}

// Model identifies the hash embedder.
func (h *HashClient) Model() string { return "hash-fnv32a" }

// Dimensions returns the vector width.
func (h *HashClient) Dimensions() int { return h.dimensions }

// Close is a no-op.
func (h *HashClient) Close() error { return nil }
