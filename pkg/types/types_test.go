package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripleValidate(t *testing.T) {
	tests := []struct {
		name    string
		triple  Triple
		wantErr bool
	}{
		{
			name: "valid triple",
			triple: Triple{
				Subject:      "Microgravity",
				Relationship: RelCauses,
				Object:       "Bone Loss",
				EvidenceSpan: "Microgravity induces bone loss.",
			},
			wantErr: false,
		},
		{
			name: "empty subject",
			triple: Triple{
				Subject:      "  ",
				Relationship: RelCauses,
				Object:       "Bone Loss",
			},
			wantErr: true,
		},
		{
			name: "empty object",
			triple: Triple{
				Subject:      "Microgravity",
				Relationship: RelCauses,
				Object:       "",
			},
			wantErr: true,
		},
		{
			name: "unknown relationship type",
			triple: Triple{
				Subject:      "Microgravity",
				Relationship: "correlates_with",
				Object:       "Bone Loss",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.triple.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRelationshipKey(t *testing.T) {
	a := Relationship{Subject: "Microgravity", Relationship: RelCauses, Object: "Bone Loss"}
	b := Relationship{Subject: "Microgravity", Relationship: RelCauses, Object: "Bone Loss", Evidence: "different evidence"}
	c := Relationship{Subject: "Microgravity", Relationship: RelAffects, Object: "Bone Loss"}

	assert.Equal(t, a.Key(), b.Key(), "evidence must not affect edge identity")
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestErrorTaxonomy(t *testing.T) {
	connErr := &ConnectionError{Store: "neo4j", Err: errors.New("refused")}
	assert.True(t, IsConnection(connErr))
	assert.False(t, IsValidation(connErr))
	assert.Contains(t, connErr.Error(), "neo4j")

	valErr := &ValidationError{Field: "flags", Reason: "both branches disabled"}
	assert.True(t, IsValidation(valErr))
	assert.False(t, IsConnection(valErr))

	wrapped := errors.Join(errors.New("outer"), valErr)
	assert.True(t, IsValidation(wrapped))
}
