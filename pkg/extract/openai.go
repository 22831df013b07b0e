package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	openai "github.com/sashabaranov/go-openai"

	"github.com/orbitalbio/graphrag/pkg/types"
)

// DefaultExtractionModel is the chat model used for structured extraction.
const DefaultExtractionModel = openai.GPT4oMini

const extractionSystemPrompt = `You extract a knowledge graph from scientific text about biology in space environments.

Return ONLY a JSON object with this exact shape:
{
  "entities": [{"name": "...", "entity_type": "Organism|Environment|Biological_Process|Biomolecule|Technology|Location|Unknown"}],
  "triples": [{"subject": "...", "relationship": "causes|inhibits|affects|measured_in|mitigated_by|studied_in|shows_effect", "object": "...", "evidence_span": "exact sentence from the text"}]
}

Rules:
- Every triple subject and object must appear in the entities list.
- relationship must be one of the seven verbs above. Skip facts that do not fit.
- evidence_span is copied verbatim from the input text.
- Return an empty entities and triples list if the text contains no extractable facts.`

// OpenAIOracle performs structured extraction with a chat completion and
// repairs near-JSON model output before decoding it.
type OpenAIOracle struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIOracle creates an extraction oracle backed by the OpenAI chat API.
func NewOpenAIOracle(apiKey, model string, logger *slog.Logger) *OpenAIOracle {
	if model == "" {
		model = DefaultExtractionModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIOracle{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Extract sends the chunk to the model and decodes the validated result.
// The chunk's source metadata is stamped onto every returned triple.
func (o *OpenAIOracle) Extract(ctx context.Context, chunk types.Chunk) (*Extraction, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: chunk.Content},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call extraction model: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extraction model returned no choices")
	}

	extraction, err := decodeExtraction(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if err := extraction.Validate(); err != nil {
		return nil, fmt.Errorf("extraction failed validation: %w", err)
	}

	for i := range extraction.Triples {
		t := &extraction.Triples[i]
		t.SourceTitle = chunk.Metadata.SourceTitle
		t.SourceURL = chunk.Metadata.SourceURL
		t.DocID = chunk.Metadata.DocID
	}

	o.logger.Debug("extracted chunk",
		"chunk_id", chunk.ID,
		"entities", len(extraction.Entities),
		"triples", len(extraction.Triples))

	return extraction, nil
}

// decodeExtraction parses model output, stripping markdown fences and
// repairing near-JSON before giving up.
func decodeExtraction(raw string) (*Extraction, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var extraction Extraction
	if err := json.Unmarshal([]byte(cleaned), &extraction); err == nil {
		return &extraction, nil
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to repair extraction output: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &extraction); err != nil {
		return nil, fmt.Errorf("failed to decode extraction output: %w", err)
	}
	return &extraction, nil
}
