package classify

import (
	"strings"

	"github.com/orbitalbio/graphrag/pkg/types"
)

// DefaultRelationalKeywords mark queries about mechanisms and causal
// structure, best served by the knowledge graph.
func DefaultRelationalKeywords() []string {
	return []string{
		"relationship", "effect", "cause", "impact", "influence",
		"how does", "what causes", "what affects", "mechanism",
		"interaction", "pathway", "network",
	}
}

// DefaultDescriptiveKeywords mark open-ended descriptive queries, best
// served by semantic retrieval over document chunks.
func DefaultDescriptiveKeywords() []string {
	return []string{
		"describe", "what is", "explain", "overview", "summary",
		"information about", "details about", "tell me about",
	}
}

// IntentClassifier routes a query to graph-primary, vector-primary, or
// hybrid retrieval. Relational keywords are checked before descriptive
// ones; queries matching neither set default to hybrid, the safest
// strategy since it consults both stores.
type IntentClassifier struct {
	relational  []string
	descriptive []string
}

// NewIntentClassifier builds a classifier over the given keyword sets.
// Nil or empty sets fall back to the defaults.
func NewIntentClassifier(relational, descriptive []string) *IntentClassifier {
	if len(relational) == 0 {
		relational = DefaultRelationalKeywords()
	}
	if len(descriptive) == 0 {
		descriptive = DefaultDescriptiveKeywords()
	}
	return &IntentClassifier{relational: relational, descriptive: descriptive}
}

// Classify returns the retrieval intent for a query.
func (c *IntentClassifier) Classify(query string) types.Intent {
	lower := strings.ToLower(query)

	for _, kw := range c.relational {
		if strings.Contains(lower, kw) {
			return types.IntentGraphPrimary
		}
	}
	for _, kw := range c.descriptive {
		if strings.Contains(lower, kw) {
			return types.IntentVectorPrimary
		}
	}
	return types.IntentHybrid
}
