package embedder

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is the model used when none is configured.
const DefaultOpenAIModel = "text-embedding-3-small"

// DefaultOpenAIDimensions matches DefaultOpenAIModel's output width.
const DefaultOpenAIDimensions = 1536

// OpenAIConfig configures an OpenAI-compatible embedding client.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Dimensions int
}

// OpenAIClient implements Client against an OpenAI-compatible endpoint.
type OpenAIClient struct {
	client *openai.Client
	config OpenAIConfig
}

// NewOpenAIClient creates an embedding client.
func NewOpenAIClient(config OpenAIConfig) *OpenAIClient {
	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}
	if config.Dimensions == 0 {
		config.Dimensions = DefaultOpenAIDimensions
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Embed generates embeddings for the given texts.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(c.config.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		embeddings[i] = data.Embedding
	}
	return embeddings, nil
}

// EmbedSingle generates an embedding for a single text.
func (c *OpenAIClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, c, text)
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string { return c.config.Model }

// Dimensions returns the embedding width.
func (c *OpenAIClient) Dimensions() int { return c.config.Dimensions }

// Close is a no-op; the HTTP client holds no resources.
func (c *OpenAIClient) Close() error { return nil }
