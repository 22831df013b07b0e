package synth

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitalbio/graphrag/pkg/types"
)

func sampleRelationships(n int) []types.Relationship {
	rels := make([]types.Relationship, n)
	for i := range rels {
		rels[i] = types.Relationship{
			Subject:      fmt.Sprintf("Subject %d", i),
			Relationship: types.RelAffects,
			Object:       fmt.Sprintf("Object %d", i),
			Evidence:     fmt.Sprintf("evidence sentence %d", i),
			Confidence:   0.9,
		}
	}
	return rels
}

func sampleChunks(n int) []types.ScoredChunk {
	chunks := make([]types.ScoredChunk, n)
	for i := range chunks {
		chunks[i] = types.ScoredChunk{
			Chunk: types.Chunk{
				ID:      fmt.Sprintf("chunk-%d", i),
				Content: fmt.Sprintf("chunk content %d", i),
				Metadata: types.ChunkMetadata{
					SourceTitle: fmt.Sprintf("Paper %d", i),
				},
			},
			Score: 0.8,
		}
	}
	return chunks
}

func TestSynthesizeBranches(t *testing.T) {
	query := "microgravity and bone loss"

	t.Run("both sources", func(t *testing.T) {
		answer := Synthesize(query, sampleRelationships(2), sampleChunks(2))
		assert.Contains(t, answer.Text, "RELATIONSHIPS:")
		assert.Contains(t, answer.Text, "DOCUMENT CONTEXT:")
		assert.Contains(t, answer.Text, "Subject 0")
		assert.Contains(t, answer.Text, "Paper 1")
		assert.Len(t, answer.Evidence, 4)
	})

	t.Run("graph only", func(t *testing.T) {
		answer := Synthesize(query, sampleRelationships(1), nil)
		assert.Contains(t, answer.Text, "RELATIONSHIPS:")
		assert.NotContains(t, answer.Text, "DOCUMENT CONTEXT:")
		require.Len(t, answer.Evidence, 1)
		assert.Equal(t, types.SourceGraph, answer.Evidence[0].Kind)
	})

	t.Run("vector only", func(t *testing.T) {
		answer := Synthesize(query, nil, sampleChunks(1))
		assert.NotContains(t, answer.Text, "RELATIONSHIPS:")
		assert.Contains(t, answer.Text, "DOCUMENT CONTEXT:")
		require.Len(t, answer.Evidence, 1)
		assert.Equal(t, types.SourceVector, answer.Evidence[0].Kind)
	})

	t.Run("neither source", func(t *testing.T) {
		answer := Synthesize(query, nil, nil)
		assert.Equal(t, NoInformationAnswer, answer.Text)
		assert.NotEmpty(t, answer.Text)
		assert.Empty(t, answer.Evidence)
	})
}

func TestSynthesizeCitationLimits(t *testing.T) {
	answer := Synthesize("query", sampleRelationships(8), sampleChunks(6))

	assert.Contains(t, answer.Text, "Subject 4")
	assert.NotContains(t, answer.Text, "Subject 5")
	assert.Contains(t, answer.Text, "chunk content 2")
	assert.NotContains(t, answer.Text, "chunk content 3")
	assert.Len(t, answer.Evidence, MaxGraphCitations+MaxVectorCitations)
}

func TestSynthesizeDeterministic(t *testing.T) {
	rels := sampleRelationships(3)
	chunks := sampleChunks(2)

	first := Synthesize("repeatable query", rels, chunks)
	second := Synthesize("repeatable query", rels, chunks)
	assert.Equal(t, first, second)
}

func TestSynthesizeTruncatesLongEvidence(t *testing.T) {
	rels := []types.Relationship{{
		Subject:      "Radiation",
		Relationship: types.RelCauses,
		Object:       "DNA Damage",
		Evidence:     strings.Repeat("x", 500),
	}}
	answer := Synthesize("radiation", rels, nil)
	assert.Contains(t, answer.Text, strings.Repeat("x", 100)+"...")
	assert.NotContains(t, answer.Text, strings.Repeat("x", 101))
}

func TestSynthesizeTruncationKeepsRunesWhole(t *testing.T) {
	// 3-byte runes put the 100-byte preview cut inside a character.
	rels := []types.Relationship{{
		Subject:      "Radiation",
		Relationship: types.RelCauses,
		Object:       "DNA Damage",
		Evidence:     strings.Repeat("損", 50),
	}}
	answer := Synthesize("radiation", rels, nil)
	assert.True(t, utf8.ValidString(answer.Text))
	assert.Contains(t, answer.Text, strings.Repeat("損", 33)+"...")
}
