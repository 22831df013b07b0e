package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/orbitalbio/graphrag/pkg/types"
	"github.com/orbitalbio/graphrag/pkg/utils"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 2000
	// DefaultChunkOverlap is carried between adjacent chunks so facts
	// spanning a boundary survive in at least one chunk.
	DefaultChunkOverlap = 200
)

// Document is one source publication to ingest.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Chunker splits a document into vector store chunks.
type Chunker interface {
	Chunk(doc Document) []types.Chunk
}

// SlidingChunker splits document text into overlapping windows, breaking
// on word boundaries where possible.
type SlidingChunker struct {
	Size    int
	Overlap int
}

// NewSlidingChunker creates a chunker with the given window size and
// overlap. Non-positive values fall back to the defaults.
func NewSlidingChunker(size, overlap int) *SlidingChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}
	return &SlidingChunker{Size: size, Overlap: overlap}
}

// Chunk splits the document content. Chunk IDs are derived from the
// document ID and chunk content, so re-chunking the same document yields
// the same IDs.
func (c *SlidingChunker) Chunk(doc Document) []types.Chunk {
	content := strings.TrimSpace(doc.Content)
	if content == "" {
		return nil
	}

	var chunks []types.Chunk
	for start := 0; start < len(content); {
		end := start + c.Size
		if end >= len(content) {
			end = len(content)
		} else {
			// Back up to the last space so words stay whole; without a
			// space, back up to a rune boundary so no character splits.
			if cut := strings.LastIndex(content[start:end], " "); cut > 0 {
				end = start + cut
			} else {
				end = runeStart(content, end)
			}
			if end <= start {
				_, width := utf8.DecodeRuneInString(content[start:])
				end = start + width
			}
		}

		text := strings.TrimSpace(content[start:end])
		if text != "" {
			chunks = append(chunks, types.Chunk{
				ID:      utils.ChunkID(doc.ID, text),
				Content: text,
				Metadata: types.ChunkMetadata{
					SourceTitle:   doc.Title,
					SourceURL:     doc.URL,
					DocID:         doc.ID,
					ContentLength: len(text),
				},
			})
		}

		if end == len(content) {
			break
		}
		next := runeStart(content, end-c.Overlap)
		if next <= start {
			next = end
		}
		start = next
	}

	for i := range chunks {
		chunks[i].Metadata.ChunkID = chunks[i].ID
	}
	return chunks
}

// runeStart backs i up to the nearest rune boundary.
func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
