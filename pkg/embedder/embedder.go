package embedder

import (
	"context"
	"fmt"
)

// Client generates embeddings for text. Implementations must be safe for
// concurrent use.
type Client interface {
	// Embed generates one embedding per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Model identifies the embedding model, recorded in collection
	// metadata so queries use the same model as ingestion.
	Model() string

	// Dimensions returns the embedding vector width.
	Dimensions() int

	// Close cleans up any resources.
	Close() error
}

// embedSingle implements EmbedSingle in terms of Embed for clients that
// have no dedicated single-text path.
func embedSingle(ctx context.Context, c Client, text string) ([]float32, error) {
	embeddings, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}
