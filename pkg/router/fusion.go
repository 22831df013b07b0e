package router

import (
	"sort"

	"github.com/orbitalbio/graphrag/pkg/types"
)

const (
	// GraphBaseScore is the fixed relevance assigned to graph
	// relationships. Structured knowledge is treated as high precision.
	GraphBaseScore = 0.8

	// VectorWeight scales vector similarity scores. Semantic retrieval
	// is recall oriented and noisier than the graph.
	VectorWeight = 0.7
)

// Fuse merges graph and vector results into one ranked sequence using
// the default scoring constants. Graph results enter first so equal
// scores resolve graph-before-vector; the sort is stable, keeping that
// insertion order deterministic. The fused sequence is truncated to
// limit when limit > 0.
func Fuse(graphResults []types.Relationship, vectorResults []types.ScoredChunk, limit int) []types.RetrievalResult {
	return fuseScored(graphResults, vectorResults, limit, GraphBaseScore, VectorWeight)
}

func fuseScored(graphResults []types.Relationship, vectorResults []types.ScoredChunk, limit int, baseScore, weight float64) []types.RetrievalResult {
	fused := make([]types.RetrievalResult, 0, len(graphResults)+len(vectorResults))

	for i := range graphResults {
		fused = append(fused, types.RetrievalResult{
			Kind:         types.SourceGraph,
			Score:        baseScore,
			Relationship: &graphResults[i],
		})
	}
	for i := range vectorResults {
		fused = append(fused, types.RetrievalResult{
			Kind:  types.SourceVector,
			Score: vectorResults[i].Score * weight,
			Chunk: &vectorResults[i],
		})
	}

	return rank(fused, limit)
}

// rank orders results descending by score and truncates to limit when
// limit > 0. The stable sort preserves insertion order on ties.
func rank(results []types.RetrievalResult, limit int) []types.RetrievalResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
