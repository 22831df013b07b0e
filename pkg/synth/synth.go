// Package synth composes the final natural-language answer from fused
// retrieval evidence. Synthesis is a pure function over its inputs: the
// answer text cites only the relationships and chunks passed in, and the
// same inputs always produce the same text.
package synth

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/orbitalbio/graphrag/pkg/types"
)

const (
	// MaxGraphCitations bounds how many relationships appear in the answer.
	MaxGraphCitations = 5
	// MaxVectorCitations bounds how many document excerpts appear.
	MaxVectorCitations = 3

	evidencePreviewLen = 100
	contentPreviewLen  = 200
)

// NoInformationAnswer is returned when neither retrieval branch produced
// evidence. It is a fixed message, never an empty string.
const NoInformationAnswer = "No specific information was found for this query in the space biology knowledge base. This may be an emerging research area."

// Synthesize formats the retrieved evidence into an answer. One of four
// template branches is chosen by which result sets are non-empty.
func Synthesize(query string, graphResults []types.Relationship, vectorResults []types.ScoredChunk) types.Answer {
	graphContext := formatGraphContext(graphResults)
	vectorContext := formatVectorContext(vectorResults)

	var text string
	switch {
	case len(graphResults) > 0 && len(vectorResults) > 0:
		text = fmt.Sprintf(
			"Based on space biology research:\n\n%s\nAdditional context from scientific publications:\n%s\nTogether these sources address %q through both established relationships and supporting literature.",
			graphContext, vectorContext, query)
	case len(graphResults) > 0:
		text = fmt.Sprintf(
			"Based on known relationships in space biology:\n\n%s\nThese relationships describe how %q operates in space environments.",
			graphContext, query)
	case len(vectorResults) > 0:
		text = fmt.Sprintf(
			"Based on research publications:\n\n%s\nThe literature indicates that %q is an active area of study for long-duration missions.",
			vectorContext, query)
	default:
		text = NoInformationAnswer
	}

	return types.Answer{
		Text:     text,
		Evidence: buildEvidence(graphResults, vectorResults),
	}
}

func formatGraphContext(rels []types.Relationship) string {
	if len(rels) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("RELATIONSHIPS:\n")
	for i, rel := range rels {
		if i == MaxGraphCitations {
			break
		}
		fmt.Fprintf(&b, "%d. %s -> %s -> %s\n", i+1, rel.Subject, rel.Relationship, rel.Object)
		if rel.Evidence != "" {
			fmt.Fprintf(&b, "   Evidence: %s\n", truncate(rel.Evidence, evidencePreviewLen))
		}
	}
	return b.String()
}

func formatVectorContext(chunks []types.ScoredChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("DOCUMENT CONTEXT:\n")
	for i, chunk := range chunks {
		if i == MaxVectorCitations {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, truncate(chunk.Content, contentPreviewLen))
		if chunk.Metadata.SourceTitle != "" {
			fmt.Fprintf(&b, "   Source: %s\n", chunk.Metadata.SourceTitle)
		}
	}
	return b.String()
}

// buildEvidence records every cited item, graph first, so the answer's
// claims are traceable back to their sources.
func buildEvidence(rels []types.Relationship, chunks []types.ScoredChunk) []types.RetrievalResult {
	evidence := make([]types.RetrievalResult, 0, len(rels)+len(chunks))
	for i := range rels {
		if i == MaxGraphCitations {
			break
		}
		evidence = append(evidence, types.RetrievalResult{
			Kind:         types.SourceGraph,
			Score:        rels[i].Confidence,
			Relationship: &rels[i],
		})
	}
	for i := range chunks {
		if i == MaxVectorCitations {
			break
		}
		evidence = append(evidence, types.RetrievalResult{
			Kind:  types.SourceVector,
			Score: chunks[i].Score,
			Chunk: &chunks[i],
		})
	}
	return evidence
}

// truncate cuts s to at most n bytes, backing up to a rune boundary so
// previews never end in a split character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
