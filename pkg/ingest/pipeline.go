// Package ingest runs the ingestion path: documents are chunked, chunks
// are embedded into the vector store, and an extraction oracle turns each
// chunk into triples loaded into the knowledge graph. Failures on
// individual chunks are counted, not fatal; the pipeline always produces
// a per-batch report for operator inspection.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/orbitalbio/graphrag/pkg/driver"
	"github.com/orbitalbio/graphrag/pkg/extract"
	"github.com/orbitalbio/graphrag/pkg/types"
	"github.com/orbitalbio/graphrag/pkg/utils"
	"github.com/orbitalbio/graphrag/pkg/vectorstore"
)

// DefaultExtractionConcurrency bounds concurrent oracle calls.
const DefaultExtractionConcurrency = 4

// Report aggregates what one pipeline run accomplished.
type Report struct {
	Documents        int                   `json:"documents"`
	Chunks           int                   `json:"chunks"`
	TriplesExtracted int                   `json:"triples_extracted"`
	Graph            *types.UpsertReport   `json:"graph,omitempty"`
	Vector           *types.PopulateReport `json:"vector,omitempty"`
	Failures         []string              `json:"failures,omitempty"`
}

// Pipeline wires the chunker, extraction oracle, graph driver, and
// vector collection into one ingestion run.
type Pipeline struct {
	chunker    Chunker
	oracle     extract.Oracle
	graph      driver.GraphDriver
	collection *vectorstore.Collection
	executor   *utils.ConcurrentExecutor
	logger     *slog.Logger
}

// New creates a pipeline. The oracle, graph, or collection may be nil to
// skip that stage, which partial deployments and tests use.
func New(chunker Chunker, oracle extract.Oracle, graph driver.GraphDriver, collection *vectorstore.Collection, concurrency int, logger *slog.Logger) *Pipeline {
	if chunker == nil {
		chunker = NewSlidingChunker(0, 0)
	}
	if concurrency <= 0 {
		concurrency = DefaultExtractionConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		chunker:    chunker,
		oracle:     oracle,
		graph:      graph,
		collection: collection,
		executor:   utils.NewConcurrentExecutor(concurrency),
		logger:     logger,
	}
}

// Run ingests the documents end to end and returns the batch report.
func (p *Pipeline) Run(ctx context.Context, docs []Document) (*Report, error) {
	report := &Report{Documents: len(docs)}

	var chunks []types.Chunk
	for _, doc := range docs {
		chunks = append(chunks, p.chunker.Chunk(doc)...)
	}
	report.Chunks = len(chunks)
	p.logger.Info("documents chunked", "documents", len(docs), "chunks", len(chunks))

	if p.collection != nil && len(chunks) > 0 {
		populate, err := p.collection.Populate(ctx, chunks)
		if err != nil {
			return nil, fmt.Errorf("failed to populate vector store: %w", err)
		}
		report.Vector = populate
	}

	if p.oracle != nil && p.graph != nil && len(chunks) > 0 {
		triples, failures := p.extractAll(ctx, chunks)
		report.TriplesExtracted = len(triples)
		report.Failures = failures

		if len(triples) > 0 {
			upsert, err := p.graph.UpsertTriples(ctx, triples)
			if err != nil {
				return nil, fmt.Errorf("failed to upsert extracted triples: %w", err)
			}
			report.Graph = upsert
		}
	}

	p.logger.Info("ingestion complete",
		"documents", report.Documents,
		"chunks", report.Chunks,
		"triples", report.TriplesExtracted,
		"failures", len(report.Failures))
	return report, nil
}

// extractAll runs the oracle over every chunk with bounded concurrency.
// Failed chunks are recorded and skipped; extraction order of the output
// follows chunk order so runs are reproducible.
func (p *Pipeline) extractAll(ctx context.Context, chunks []types.Chunk) ([]types.Triple, []string) {
	perChunk := make([][]types.Triple, len(chunks))
	var mu sync.Mutex
	var failures []string

	tasks := make([]func() error, len(chunks))
	for i := range chunks {
		i := i
		tasks[i] = func() error {
			extraction, err := p.oracle.Extract(ctx, chunks[i])
			if err != nil {
				mu.Lock()
				failures = append(failures, fmt.Sprintf("chunk %s: %v", chunks[i].ID, err))
				mu.Unlock()
				return nil
			}
			perChunk[i] = extraction.Triples
			return nil
		}
	}
	p.executor.Execute(ctx, tasks...)

	var triples []types.Triple
	for _, t := range perChunk {
		triples = append(triples, t...)
	}
	return triples, failures
}
