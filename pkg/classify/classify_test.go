package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orbitalbio/graphrag/pkg/types"
)

func TestEntityClassifier(t *testing.T) {
	c := NewEntityClassifier(nil)

	tests := []struct {
		name string
		want types.EntityType
	}{
		{name: "Microgravity", want: types.EntityTypeEnvironment},
		{name: "Cosmic Radiation", want: types.EntityTypeEnvironment},
		{name: "Arabidopsis thaliana", want: types.EntityTypeOrganism},
		{name: "Pelvic Bone Loss", want: types.EntityTypeBiologicalProcess},
		{name: "Heat Shock Protein", want: types.EntityTypeBiomolecule},
		{name: "ISS", want: types.EntityTypeLocation},
		{name: "Quantum Gravimeter", want: types.EntityTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.name))
		})
	}
}

func TestEntityClassifierPrecedence(t *testing.T) {
	c := NewEntityClassifier(nil)

	// "Space Mouse" matches both the environment and organism groups;
	// the environment group is checked first.
	assert.Equal(t, types.EntityTypeEnvironment, c.Classify("Space Mouse"))
}

func TestEntityClassifierCaseInsensitive(t *testing.T) {
	c := NewEntityClassifier(nil)
	assert.Equal(t, c.Classify("MICROGRAVITY"), c.Classify("microgravity"))
}

func TestEntityClassifierCustomTable(t *testing.T) {
	c := NewEntityClassifier([]KeywordGroup{
		{Type: types.EntityTypeTechnology, Keywords: []string{"spectrometer", "centrifuge"}},
	})

	assert.Equal(t, types.EntityTypeTechnology, c.Classify("Mass Spectrometer"))
	// Default groups are replaced, not appended.
	assert.Equal(t, types.EntityTypeUnknown, c.Classify("Microgravity"))
}

func TestIntentClassifier(t *testing.T) {
	c := NewIntentClassifier(nil, nil)

	tests := []struct {
		query string
		want  types.Intent
	}{
		{query: "What causes bone loss in space?", want: types.IntentGraphPrimary},
		{query: "How does radiation impact DNA repair?", want: types.IntentGraphPrimary},
		{query: "Describe the ISS", want: types.IntentVectorPrimary},
		{query: "Give me an overview of plant growth experiments", want: types.IntentVectorPrimary},
		{query: "bone density spaceflight mice", want: types.IntentHybrid},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.query))
		})
	}
}

func TestIntentClassifierRelationalPrecedence(t *testing.T) {
	c := NewIntentClassifier(nil, nil)

	// Contains both "describe" and "effect"; relational wins.
	assert.Equal(t, types.IntentGraphPrimary, c.Classify("Describe the effect of microgravity"))
}

func TestIntentClassifierDeterministic(t *testing.T) {
	c := NewIntentClassifier(nil, nil)
	query := "What causes muscle atrophy?"

	first := c.Classify(query)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(query))
	}
}
