package graphrag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orbitalbio/graphrag/pkg/classify"
	"github.com/orbitalbio/graphrag/pkg/config"
	"github.com/orbitalbio/graphrag/pkg/driver"
	"github.com/orbitalbio/graphrag/pkg/embedder"
	"github.com/orbitalbio/graphrag/pkg/extract"
	"github.com/orbitalbio/graphrag/pkg/ingest"
	"github.com/orbitalbio/graphrag/pkg/router"
	"github.com/orbitalbio/graphrag/pkg/telemetry"
	"github.com/orbitalbio/graphrag/pkg/types"
	"github.com/orbitalbio/graphrag/pkg/vectorstore"
)

// GraphRAG is the main interface for the hybrid retrieval engine. It
// combines a knowledge graph and a vector store behind one query surface.
type GraphRAG interface {
	// Query routes a question through intent classification, concurrent
	// retrieval, fusion, and answer synthesis. Nil flags let the intent
	// classifier pick the branches.
	Query(ctx context.Context, query string, k int, flags *router.Flags) (*types.RoutedResult, error)

	// Ingest chunks the documents, embeds them into the vector store,
	// and extracts triples into the knowledge graph.
	Ingest(ctx context.Context, docs []ingest.Document) (*ingest.Report, error)

	// UpsertTriples loads already-extracted triples into the graph.
	UpsertTriples(ctx context.Context, triples []types.Triple) (*types.UpsertReport, error)

	// QueryRelationships returns the named entity's outgoing
	// relationships, optionally filtered by type.
	QueryRelationships(ctx context.Context, entityName string, relType types.RelationshipType) ([]types.Relationship, error)

	// GetEntityNetwork traverses the bounded-depth neighborhood of an
	// entity.
	GetEntityNetwork(ctx context.Context, entityName string, depth int) (*types.Network, error)

	// GraphStatistics exports aggregate graph counts.
	GraphStatistics(ctx context.Context) (*types.GraphStats, error)

	// VectorStatistics reports on the chunk collection.
	VectorStatistics(ctx context.Context) (*types.CollectionStats, error)

	// VerifyConnectivity health-checks the graph store.
	VerifyConnectivity(ctx context.Context) error

	// InitializeSchema declares graph constraints and indexes.
	// Administrative; never triggered by query traffic.
	InitializeSchema(ctx context.Context) error

	// Wipe destroys all graph and vector data. Administrative.
	Wipe(ctx context.Context) error

	// Close releases all connections and flushes telemetry.
	Close(ctx context.Context) error
}

// Client is the main implementation of the GraphRAG interface.
type Client struct {
	graph      driver.GraphDriver
	store      *vectorstore.Store
	collection *vectorstore.Collection
	router     *router.Router
	pipeline   *ingest.Pipeline
	recorder   *telemetry.Recorder
	logger     *slog.Logger
}

// Options holds the collaborators a Client wires together. Graph and
// Collection are required; the rest are optional.
type Options struct {
	Graph      driver.GraphDriver
	Store      *vectorstore.Store
	Collection *vectorstore.Collection
	Oracle     extract.Oracle
	Intents    *classify.IntentClassifier
	Entities   *router.EntityExtractor
	Router     *router.Options
	Chunker    ingest.Chunker
	Recorder   *telemetry.Recorder

	// ExtractionConcurrency bounds concurrent oracle calls during
	// ingestion.
	ExtractionConcurrency int
}

// NewClient assembles a client from explicitly constructed components.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.Graph == nil {
		return nil, &types.ValidationError{Field: "graph", Reason: "graph driver is required"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	var searcher router.VectorSearcher
	if opts.Collection != nil {
		searcher = opts.Collection
	}

	rt := router.New(opts.Graph, searcher, opts.Intents, opts.Entities, opts.Router, logger)
	pipeline := ingest.New(opts.Chunker, opts.Oracle, opts.Graph, opts.Collection, opts.ExtractionConcurrency, logger)

	return &Client{
		graph:      opts.Graph,
		store:      opts.Store,
		collection: opts.Collection,
		router:     rt,
		pipeline:   pipeline,
		recorder:   opts.Recorder,
		logger:     logger,
	}, nil
}

// New builds a fully wired client from configuration: the graph driver,
// the embedding chain behind a circuit breaker, the vector collection,
// the extraction oracle, and telemetry.
func New(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if logger == nil {
		logger = slog.Default()
	}

	graph, err := buildGraphDriver(cfg, logger)
	if err != nil {
		return nil, err
	}

	embedderClient, err := buildEmbedder(cfg, logger)
	if err != nil {
		return nil, err
	}

	store := vectorstore.NewStore(cfg.Vector.Path, embedderClient, logger)
	collection, err := store.InitializeCollection(cfg.Vector.Collection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector collection: %w", err)
	}

	var oracle extract.Oracle
	if cfg.Extraction.APIKey != "" {
		oracle = extract.NewOpenAIOracle(cfg.Extraction.APIKey, cfg.Extraction.Model, logger)
	}

	var recorder *telemetry.Recorder
	if cfg.Telemetry.ParquetPath != "" {
		recorder, err = telemetry.NewRecorder(cfg.Telemetry.ParquetPath, logger)
		if err != nil {
			logger.Warn("telemetry disabled", "error", err)
		}
	}

	return NewClient(Options{
		Graph:      graph,
		Store:      store,
		Collection: collection,
		Oracle:     oracle,
		Router: &router.Options{
			BranchTimeout:  time.Duration(cfg.Router.BranchTimeoutSeconds) * time.Second,
			ResultLimit:    cfg.Router.ResultLimit,
			GraphBaseScore: cfg.Router.GraphBaseScore,
			VectorWeight:   cfg.Router.VectorWeight,
		},
		Recorder:              recorder,
		ExtractionConcurrency: cfg.Extraction.Concurrency,
	}, logger)
}

func buildGraphDriver(cfg *config.Config, logger *slog.Logger) (driver.GraphDriver, error) {
	classifier := classify.NewEntityClassifier(nil)
	opts := &driver.Options{DefaultConfidence: cfg.Graph.DefaultConfidence}

	switch cfg.Graph.Driver {
	case "memory":
		return driver.NewMemoryDriver(classifier, opts), nil
	case "", "neo4j":
		return driver.NewNeo4jDriver(cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password, cfg.Graph.Database, classifier, opts, logger)
	default:
		return nil, &types.ValidationError{Field: "graph.driver", Reason: "unknown driver: " + cfg.Graph.Driver}
	}
}

// buildEmbedder assembles the documented embedding fallback chain: the
// primary model, then the fallback model, each behind a circuit breaker.
// Without an API key the deterministic hash embedder is used so local
// setups still work end to end.
func buildEmbedder(cfg *config.Config, logger *slog.Logger) (embedder.Client, error) {
	if cfg.Embedding.Provider == "hash" || cfg.Embedding.APIKey == "" {
		return embedder.NewHashClient(0), nil
	}

	breakerCfg := embedder.BreakerConfig{
		MaxRequests:      cfg.CircuitBreaker.MaxRequests,
		Interval:         time.Duration(cfg.CircuitBreaker.Interval) * time.Second,
		Timeout:          time.Duration(cfg.CircuitBreaker.Timeout) * time.Second,
		ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
	}

	wrap := func(c embedder.Client) embedder.Client {
		if !cfg.CircuitBreaker.Enabled {
			return c
		}
		return embedder.NewBreakerClient(c, breakerCfg)
	}

	primary := wrap(embedder.NewOpenAIClient(embedder.OpenAIConfig{
		APIKey: cfg.Embedding.APIKey,
		Model:  cfg.Embedding.Model,
	}))

	clients := []embedder.Client{primary}
	if cfg.Embedding.FallbackModel != "" && cfg.Embedding.FallbackModel != cfg.Embedding.Model {
		clients = append(clients, wrap(embedder.NewOpenAIClient(embedder.OpenAIConfig{
			APIKey: cfg.Embedding.APIKey,
			Model:  cfg.Embedding.FallbackModel,
		})))
	}

	return embedder.NewFallbackChain(logger, clients...)
}

// Query implements GraphRAG.
func (c *Client) Query(ctx context.Context, query string, k int, flags *router.Flags) (*types.RoutedResult, error) {
	result, err := c.router.Route(ctx, query, k, flags)
	if err != nil {
		return nil, err
	}
	c.recorder.Record(result)
	return result, nil
}

// Ingest implements GraphRAG.
func (c *Client) Ingest(ctx context.Context, docs []ingest.Document) (*ingest.Report, error) {
	return c.pipeline.Run(ctx, docs)
}

// UpsertTriples implements GraphRAG.
func (c *Client) UpsertTriples(ctx context.Context, triples []types.Triple) (*types.UpsertReport, error) {
	return c.graph.UpsertTriples(ctx, triples)
}

// QueryRelationships implements GraphRAG.
func (c *Client) QueryRelationships(ctx context.Context, entityName string, relType types.RelationshipType) ([]types.Relationship, error) {
	return c.graph.QueryRelationships(ctx, entityName, relType)
}

// GetEntityNetwork implements GraphRAG.
func (c *Client) GetEntityNetwork(ctx context.Context, entityName string, depth int) (*types.Network, error) {
	return c.graph.GetEntityNetwork(ctx, entityName, depth)
}

// GraphStatistics implements GraphRAG.
func (c *Client) GraphStatistics(ctx context.Context) (*types.GraphStats, error) {
	return c.graph.ExportStatistics(ctx)
}

// VectorStatistics implements GraphRAG.
func (c *Client) VectorStatistics(ctx context.Context) (*types.CollectionStats, error) {
	if c.collection == nil {
		return nil, types.ErrNoRetrievalSource
	}
	return c.collection.Statistics(ctx)
}

// VerifyConnectivity implements GraphRAG.
func (c *Client) VerifyConnectivity(ctx context.Context) error {
	return c.graph.VerifyConnectivity(ctx)
}

// InitializeSchema implements GraphRAG.
func (c *Client) InitializeSchema(ctx context.Context) error {
	return c.graph.InitializeSchema(ctx)
}

// Wipe implements GraphRAG.
func (c *Client) Wipe(ctx context.Context) error {
	if err := c.graph.Wipe(ctx); err != nil {
		return err
	}
	if c.collection != nil {
		if err := c.collection.Wipe(ctx); err != nil {
			return err
		}
	}
	c.logger.Warn("all graph and vector data wiped")
	return nil
}

// Close implements GraphRAG.
func (c *Client) Close(ctx context.Context) error {
	var firstErr error
	if err := c.recorder.Close(); err != nil {
		firstErr = err
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := c.graph.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// GetDriver returns the underlying graph driver.
func (c *Client) GetDriver() driver.GraphDriver {
	return c.graph
}

// GetCollection returns the underlying vector collection.
func (c *Client) GetCollection() *vectorstore.Collection {
	return c.collection
}
