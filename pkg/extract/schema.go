package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/orbitalbio/graphrag/pkg/types"
)

// ExtractedEntity is one entity the oracle found in a chunk.
type ExtractedEntity struct {
	Name       string `json:"name"`
	EntityType string `json:"entity_type"`
}

// Extraction is the complete structured output for a single text chunk.
type Extraction struct {
	Entities []ExtractedEntity `json:"entities"`
	Triples  []types.Triple    `json:"triples"`
}

// Validate enforces the extraction schema: every triple must be
// well-formed and reference entities from the entities list. Malformed
// output is rejected here, before any store I/O.
func (e *Extraction) Validate() error {
	known := make(map[string]bool, len(e.Entities))
	for i, entity := range e.Entities {
		if strings.TrimSpace(entity.Name) == "" {
			return &types.ValidationError{
				Field:  fmt.Sprintf("entities[%d].name", i),
				Reason: "must not be empty",
			}
		}
		known[strings.ToLower(entity.Name)] = true
	}

	for i, triple := range e.Triples {
		if err := triple.Validate(); err != nil {
			return fmt.Errorf("triples[%d]: %w", i, err)
		}
		if len(known) > 0 {
			if !known[strings.ToLower(triple.Subject)] {
				return &types.ValidationError{
					Field:  fmt.Sprintf("triples[%d].subject", i),
					Reason: fmt.Sprintf("%q is not in the entities list", triple.Subject),
				}
			}
			if !known[strings.ToLower(triple.Object)] {
				return &types.ValidationError{
					Field:  fmt.Sprintf("triples[%d].object", i),
					Reason: fmt.Sprintf("%q is not in the entities list", triple.Object),
				}
			}
		}
	}
	return nil
}

// Oracle turns a chunk of text into validated entities and triples.
type Oracle interface {
	Extract(ctx context.Context, chunk types.Chunk) (*Extraction, error)
}

// OracleFunc adapts a plain function to the Oracle interface, which
// tests and pipelines without a model endpoint use.
type OracleFunc func(ctx context.Context, chunk types.Chunk) (*Extraction, error)

// Extract calls f.
func (f OracleFunc) Extract(ctx context.Context, chunk types.Chunk) (*Extraction, error) {
	return f(ctx, chunk)
}
