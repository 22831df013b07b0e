package classify

import (
	"strings"

	"github.com/orbitalbio/graphrag/pkg/types"
)

// KeywordGroup binds one entity type to the substrings that imply it.
type KeywordGroup struct {
	Type     types.EntityType
	Keywords []string
}

// DefaultEntityKeywords is the built-in taxonomy table for the space
// bioscience corpus. Groups are checked in order; the first matching group
// wins, so more specific environmental terms take precedence over the
// organism and process vocabularies.
func DefaultEntityKeywords() []KeywordGroup {
	return []KeywordGroup{
		{Type: types.EntityTypeEnvironment, Keywords: []string{"microgravity", "radiation", "space", "environment", "spaceflight"}},
		{Type: types.EntityTypeOrganism, Keywords: []string{"mouse", "mice", "rat", "human", "arabidopsis", "drosophila"}},
		{Type: types.EntityTypeBiologicalProcess, Keywords: []string{"bone", "muscle", "cell", "tissue", "gene", "atrophy"}},
		{Type: types.EntityTypeBiomolecule, Keywords: []string{"protein", "enzyme", "molecule", "dna", "rna"}},
		{Type: types.EntityTypeLocation, Keywords: []string{"iss", "station", "facility", "location"}},
	}
}

// EntityClassifier maps canonical entity names onto the taxonomy via
// ordered, case-insensitive substring matching.
type EntityClassifier struct {
	groups []KeywordGroup
}

// NewEntityClassifier builds a classifier over the given keyword table.
// A nil or empty table falls back to DefaultEntityKeywords.
func NewEntityClassifier(groups []KeywordGroup) *EntityClassifier {
	if len(groups) == 0 {
		groups = DefaultEntityKeywords()
	}
	return &EntityClassifier{groups: groups}
}

// Classify returns the entity type for a canonical name. First matching
// group wins; names matching no group are Unknown.
func (c *EntityClassifier) Classify(name string) types.EntityType {
	lower := strings.ToLower(name)
	for _, group := range c.groups {
		for _, kw := range group.Keywords {
			if strings.Contains(lower, kw) {
				return group.Type
			}
		}
	}
	return types.EntityTypeUnknown
}
