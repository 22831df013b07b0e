// Package router orchestrates hybrid retrieval: it classifies a query,
// fans out concurrently to the knowledge graph and the vector store,
// fuses the two result streams into one ranked evidence sequence, and
// delegates answer composition to the synthesizer.
//
// Each query is an independent, stateless pass through
// classified, retrieving, fused, answered. A failure in one retrieval
// branch degrades that branch to empty results instead of failing the
// query.
package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/orbitalbio/graphrag/pkg/classify"
	"github.com/orbitalbio/graphrag/pkg/driver"
	"github.com/orbitalbio/graphrag/pkg/synth"
	"github.com/orbitalbio/graphrag/pkg/types"
	"github.com/orbitalbio/graphrag/pkg/utils"
	"github.com/orbitalbio/graphrag/pkg/vectorstore"
)

const (
	// DefaultBranchTimeout bounds each retrieval branch. A timed-out
	// branch is treated as empty, not as a query failure.
	DefaultBranchTimeout = 10 * time.Second

	// DefaultResultLimit caps the fused evidence sequence.
	DefaultResultLimit = 10
)

// VectorSearcher is the slice of the vector store the router needs.
// *vectorstore.Collection satisfies it.
type VectorSearcher interface {
	Search(ctx context.Context, query string, k int, filter *vectorstore.MetadataFilter) ([]types.ScoredChunk, error)
}

// Flags force specific retrieval branches, overriding intent
// classification. At least one must be set.
type Flags struct {
	UseGraph  bool
	UseVector bool
}

// Options tunes router behavior. The zero value uses the defaults.
type Options struct {
	BranchTimeout  time.Duration
	ResultLimit    int
	GraphBaseScore float64
	VectorWeight   float64
}

func (o *Options) branchTimeout() time.Duration {
	if o == nil || o.BranchTimeout <= 0 {
		return DefaultBranchTimeout
	}
	return o.BranchTimeout
}

func (o *Options) resultLimit() int {
	if o == nil || o.ResultLimit <= 0 {
		return DefaultResultLimit
	}
	return o.ResultLimit
}

func (o *Options) graphBaseScore() float64 {
	if o == nil || o.GraphBaseScore <= 0 {
		return GraphBaseScore
	}
	return o.GraphBaseScore
}

func (o *Options) vectorWeight() float64 {
	if o == nil || o.VectorWeight <= 0 {
		return VectorWeight
	}
	return o.VectorWeight
}

// Router routes queries across the graph and vector stores.
type Router struct {
	graph    driver.GraphDriver
	vector   VectorSearcher
	intents  *classify.IntentClassifier
	entities *EntityExtractor
	executor *utils.ConcurrentExecutor
	opts     *Options
	logger   *slog.Logger
}

// New creates a router over the given stores. Either store may be nil;
// branches without a store degrade to empty results.
func New(graph driver.GraphDriver, vector VectorSearcher, intents *classify.IntentClassifier, entities *EntityExtractor, opts *Options, logger *slog.Logger) *Router {
	if intents == nil {
		intents = classify.NewIntentClassifier(nil, nil)
	}
	if entities == nil {
		entities = NewEntityExtractor(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		graph:    graph,
		vector:   vector,
		intents:  intents,
		entities: entities,
		executor: utils.NewConcurrentExecutor(2),
		opts:     opts,
		logger:   logger,
	}
}

// Route answers a single query. When flags is nil the intent classifier
// decides which branches run; explicit flags override it, and both flags
// false is rejected with a validation error before any I/O.
func (r *Router) Route(ctx context.Context, query string, k int, flags *Flags) (*types.RoutedResult, error) {
	if query == "" {
		return nil, &types.ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if flags != nil && !flags.UseGraph && !flags.UseVector {
		return nil, &types.ValidationError{Field: "flags", Reason: "at least one of use_graph and use_vector must be set"}
	}
	if k <= 0 {
		k = r.opts.resultLimit()
	}

	start := time.Now()
	intent, useGraph, useVector := r.resolveBranches(query, flags)
	r.logger.Debug("query classified", "query", query, "intent", intent,
		"use_graph", useGraph, "use_vector", useVector)

	result := &types.RoutedResult{
		QueryID: uuid.NewString(),
		Query:   query,
		Intent:  intent,
	}

	var tasks []func() error
	if useGraph {
		tasks = append(tasks, func() error {
			rels, err := r.retrieveGraph(ctx, query)
			result.GraphResults = rels
			return err
		})
	}
	if useVector {
		tasks = append(tasks, func() error {
			chunks, err := r.retrieveVector(ctx, query, k)
			result.VectorResults = chunks
			return err
		})
	}

	errs := r.executor.Execute(ctx, tasks...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Map branch errors back by task order: graph first when present.
	i := 0
	if useGraph {
		if errs[i] != nil {
			r.logger.Warn("graph retrieval failed", "query_id", result.QueryID, "error", errs[i])
			result.GraphResults = nil
			result.Stats.GraphFailed = true
		}
		i++
	}
	if useVector {
		if errs[i] != nil {
			r.logger.Warn("vector retrieval failed", "query_id", result.QueryID, "error", errs[i])
			result.VectorResults = nil
			result.Stats.VectorFailed = true
		}
	}

	result.Stats.GraphRelationships = len(result.GraphResults)
	result.Stats.VectorChunks = len(result.VectorResults)

	result.Fused = fuseScored(result.GraphResults, result.VectorResults, k,
		r.opts.graphBaseScore(), r.opts.vectorWeight())
	result.Answer = synth.Synthesize(query, result.GraphResults, result.VectorResults)
	result.Elapsed = time.Since(start)

	r.logger.Info("query routed",
		"query_id", result.QueryID,
		"intent", result.Intent,
		"graph_relationships", result.Stats.GraphRelationships,
		"vector_chunks", result.Stats.VectorChunks,
		"elapsed", result.Elapsed)

	return result, nil
}

func (r *Router) resolveBranches(query string, flags *Flags) (types.Intent, bool, bool) {
	if flags != nil {
		switch {
		case flags.UseGraph && flags.UseVector:
			return types.IntentHybrid, true, true
		case flags.UseGraph:
			return types.IntentGraphPrimary, true, false
		default:
			return types.IntentVectorPrimary, false, true
		}
	}

	intent := r.intents.Classify(query)
	switch intent {
	case types.IntentGraphPrimary:
		return intent, true, false
	case types.IntentVectorPrimary:
		return intent, false, true
	default:
		return intent, true, true
	}
}

// retrieveGraph seeds graph retrieval with entities extracted from the
// query and collects their outgoing relationships, deduplicated by edge
// identity.
func (r *Router) retrieveGraph(ctx context.Context, query string) ([]types.Relationship, error) {
	if r.graph == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.opts.branchTimeout())
	defer cancel()

	seeds := r.entities.Extract(query)
	seen := make(map[string]bool)
	var rels []types.Relationship
	for _, seed := range seeds {
		found, err := r.graph.QueryRelationships(ctx, seed, "")
		if err != nil {
			return nil, err
		}
		for _, rel := range found {
			key := rel.Key()
			if !seen[key] {
				seen[key] = true
				rels = append(rels, rel)
			}
		}
	}
	return rels, nil
}

func (r *Router) retrieveVector(ctx context.Context, query string, k int) ([]types.ScoredChunk, error) {
	if r.vector == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.opts.branchTimeout())
	defer cancel()

	return r.vector.Search(ctx, query, k, nil)
}
