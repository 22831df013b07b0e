// Package telemetry records per-query retrieval statistics to Parquet
// files for offline analysis.
package telemetry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/orbitalbio/graphrag/pkg/types"
)

// QueryRecord is one routed query flattened for Parquet storage.
type QueryRecord struct {
	ID                 string    `parquet:"id"`
	Timestamp          time.Time `parquet:"timestamp"`
	Query              string    `parquet:"query"`
	Intent             string    `parquet:"intent"`
	GraphRelationships int       `parquet:"graph_relationships"`
	VectorChunks       int       `parquet:"vector_chunks"`
	GraphFailed        bool      `parquet:"graph_failed"`
	VectorFailed       bool      `parquet:"vector_failed"`
	FusedResults       int       `parquet:"fused_results"`
	ElapsedMs          int64     `parquet:"elapsed_ms"`
}

// Recorder buffers query records and flushes them to a new Parquet file
// once the batch fills or on Close. A nil Recorder is a no-op, so callers
// do not guard every Record call.
type Recorder struct {
	outputDir string
	batchSize int
	logger    *slog.Logger

	mu     sync.Mutex
	buffer []QueryRecord
}

// NewRecorder creates a recorder writing under outputDir.
func NewRecorder(outputDir string, logger *slog.Logger) (*Recorder, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		outputDir: outputDir,
		batchSize: 100,
		logger:    logger,
		buffer:    make([]QueryRecord, 0, 100),
	}, nil
}

// Record buffers one routed query outcome.
func (r *Recorder) Record(result *types.RoutedResult) {
	if r == nil || result == nil {
		return
	}

	record := QueryRecord{
		ID:                 result.QueryID,
		Timestamp:          time.Now().UTC(),
		Query:              result.Query,
		Intent:             string(result.Intent),
		GraphRelationships: result.Stats.GraphRelationships,
		VectorChunks:       result.Stats.VectorChunks,
		GraphFailed:        result.Stats.GraphFailed,
		VectorFailed:       result.Stats.VectorFailed,
		FusedResults:       len(result.Fused),
		ElapsedMs:          result.Elapsed.Milliseconds(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, record)
	if len(r.buffer) >= r.batchSize {
		if err := r.flush(); err != nil {
			r.logger.Warn("failed to flush telemetry batch", "error", err)
		}
	}
}

// Close flushes any buffered records.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush()
}

// flush writes the current buffer to a new Parquet file.
// Caller must hold the lock.
func (r *Recorder) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("queries_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(r.outputDir, filename)

	if err := parquet.WriteFile(path, r.buffer); err != nil {
		return fmt.Errorf("failed to write telemetry parquet file: %w", err)
	}

	r.buffer = r.buffer[:0]
	return nil
}
