package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/orbitalbio/graphrag/pkg/embedder"
	"github.com/orbitalbio/graphrag/pkg/types"
	"github.com/orbitalbio/graphrag/pkg/utils"
)

const (
	chunkKeyPrefix = "chunk:"
	metaKey        = "meta:collection"

	// statsSampleSize bounds how many records Statistics reads.
	statsSampleSize = 100

	// DefaultSearchK is used when a caller asks for zero or negative
	// results.
	DefaultSearchK = 5
)

// ErrModelMismatch is returned by Search when the collection records an
// embedding model the active embedder cannot serve.
var ErrModelMismatch = errors.New("collection embedding model mismatch")

// collectionMeta is the per-collection record written at creation. The
// embedding model is updated whenever a different model actually serves
// a population run, so it always names the model behind the stored
// vectors.
type collectionMeta struct {
	Name           string    `json:"name"`
	EmbeddingModel string    `json:"embedding_model"`
	CreatedAt      time.Time `json:"created_at"`
}

// modelSelector is implemented by embedders that can switch between
// several models, such as the fallback chain.
type modelSelector interface {
	UseModel(model string) bool
}

// MetadataFilter restricts search hits by exact metadata match. Zero
// fields do not filter.
type MetadataFilter struct {
	DocID       string
	SourceTitle string
}

func (f *MetadataFilter) matches(m types.ChunkMetadata) bool {
	if f == nil {
		return true
	}
	if f.DocID != "" && m.DocID != f.DocID {
		return false
	}
	if f.SourceTitle != "" && m.SourceTitle != f.SourceTitle {
		return false
	}
	return true
}

// Store manages named collections under a root directory. An empty root
// keeps collections in memory, which tests use.
type Store struct {
	root     string
	embedder embedder.Client
	logger   *slog.Logger

	mu          sync.Mutex
	collections map[string]*Collection
}

// NewStore creates a collection manager rooted at the given directory.
func NewStore(root string, embedderClient embedder.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		root:        root,
		embedder:    embedderClient,
		logger:      logger,
		collections: make(map[string]*Collection),
	}
}

// InitializeCollection opens or creates the named collection. Safe to
// call repeatedly; repeated calls return the same handle.
func (s *Store) InitializeCollection(name string) (*Collection, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &types.ValidationError{Field: "collection", Reason: "name must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if col, ok := s.collections[name]; ok {
		return col, nil
	}

	opts := badger.DefaultOptions(filepath.Join(s.root, name)).WithLogger(nil)
	if s.root == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &types.ConnectionError{Store: "vectorstore", Err: err}
	}

	col := &Collection{
		name:     name,
		db:       db,
		embedder: s.embedder,
		logger:   s.logger.With("collection", name),
	}

	if err := col.ensureMeta(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.collections[name] = col
	s.logger.Info("collection ready", "name", name, "model", s.embedder.Model())
	return col, nil
}

// Close closes every open collection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for name, col := range s.collections {
		if err := col.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close collection %s: %w", name, err)
		}
		delete(s.collections, name)
	}
	return firstErr
}

// Collection is a handle to one named, durable chunk collection.
type Collection struct {
	name     string
	db       *badger.DB
	embedder embedder.Client
	logger   *slog.Logger
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// ensureMeta writes the collection metadata record on first open. When
// an existing collection records a different model, the embedder is
// switched to the recorded model if it can serve it; otherwise the
// mismatch stands and Search refuses to embed.
func (c *Collection) ensureMeta() error {
	err := c.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(metaKey))
		if err != badger.ErrKeyNotFound {
			if err != nil {
				return fmt.Errorf("failed to read collection meta: %w", err)
			}
			return nil
		}
		meta := collectionMeta{
			Name:           c.name,
			EmbeddingModel: c.embedder.Model(),
			CreatedAt:      time.Now(),
		}
		encoded, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("failed to encode collection meta: %w", err)
		}
		return txn.Set([]byte(metaKey), encoded)
	})
	if err != nil {
		return err
	}
	_, err = c.alignModel()
	return err
}

// alignModel reconciles the active embedding model with the recorded
// one, switching the embedder to the recorded model when it can serve
// it. It returns the recorded model.
func (c *Collection) alignModel() (string, error) {
	stored, err := c.recordedModel()
	if err != nil {
		return "", err
	}
	if stored == c.embedder.Model() {
		return stored, nil
	}
	if sel, ok := c.embedder.(modelSelector); ok && sel.UseModel(stored) {
		c.logger.Info("embedding model aligned with collection record", "model", stored)
		return stored, nil
	}
	c.logger.Warn("collection was embedded with a different model",
		"stored", stored, "current", c.embedder.Model())
	return stored, nil
}

func (c *Collection) recordedModel() (string, error) {
	var model string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey))
		if err != nil {
			return fmt.Errorf("failed to read collection meta: %w", err)
		}
		return item.Value(func(val []byte) error {
			var meta collectionMeta
			if err := json.Unmarshal(val, &meta); err != nil {
				return fmt.Errorf("failed to decode collection meta: %w", err)
			}
			model = meta.EmbeddingModel
			return nil
		})
	})
	return model, err
}

// recordModel persists the model that actually served embeddings,
// keeping the rest of the metadata record intact.
func (c *Collection) recordModel(model string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		meta := collectionMeta{Name: c.name, CreatedAt: time.Now()}
		if item, err := txn.Get([]byte(metaKey)); err == nil {
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return fmt.Errorf("failed to decode collection meta: %w", err)
			}
		}
		meta.EmbeddingModel = model
		encoded, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("failed to encode collection meta: %w", err)
		}
		return txn.Set([]byte(metaKey), encoded)
	})
}

// Populate embeds and inserts chunks. Chunks whose embedding fails are
// skipped and counted, not fatal to the batch. IDs default to a stable
// content-derived hash; writing an existing ID overwrites.
func (c *Collection) Populate(ctx context.Context, chunks []types.Chunk) (*types.PopulateReport, error) {
	report := &types.PopulateReport{}

	for i := range chunks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		chunk := chunks[i]

		if strings.TrimSpace(chunk.Content) == "" {
			report.Skipped++
			report.Failures = append(report.Failures, fmt.Sprintf("chunk %d: empty content", i))
			continue
		}
		if chunk.ID == "" {
			chunk.ID = utils.ChunkID(chunk.Metadata.DocID, chunk.Content)
		}
		chunk.Metadata.ContentLength = len(chunk.Content)

		if len(chunk.Embedding) == 0 {
			embedding, err := c.embedder.EmbedSingle(ctx, chunk.Content)
			if err != nil {
				c.logger.Warn("skipping chunk, embedding failed", "id", chunk.ID, "error", err)
				report.Skipped++
				report.Failures = append(report.Failures, fmt.Sprintf("chunk %s: %v", chunk.ID, err))
				continue
			}
			chunk.Embedding = embedding
		}

		encoded, err := json.Marshal(chunk)
		if err != nil {
			report.Skipped++
			report.Failures = append(report.Failures, fmt.Sprintf("chunk %s: %v", chunk.ID, err))
			continue
		}

		err = c.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(chunkKeyPrefix+chunk.ID), encoded)
		})
		if err != nil {
			return report, fmt.Errorf("failed to write chunk %s: %w", chunk.ID, err)
		}
		report.Added++
	}

	// A fallback during the batch leaves the chain on a different model
	// than the one recorded at creation. Persist the model that actually
	// served so later opens and searches match the stored vectors.
	if report.Added > 0 {
		stored, err := c.recordedModel()
		if err != nil {
			return report, err
		}
		if active := c.embedder.Model(); stored != active {
			c.logger.Warn("embedding model changed during population",
				"from", stored, "to", active)
			if err := c.recordModel(active); err != nil {
				return report, err
			}
		}
	}

	total, err := c.count()
	if err != nil {
		return report, err
	}
	report.Total = total
	return report, nil
}

// Search embeds the query with the collection's recorded model and
// returns the top-k chunks by cosine similarity, scored as 1 - distance.
// Collections smaller than k yield fewer results, never an error. A
// recorded model the embedder cannot serve is ErrModelMismatch.
func (c *Collection) Search(ctx context.Context, query string, k int, filter *MetadataFilter) ([]types.ScoredChunk, error) {
	if k <= 0 {
		k = DefaultSearchK
	}

	// Queries must embed with the model that built the stored vectors.
	stored, err := c.alignModel()
	if err != nil {
		return nil, err
	}
	if active := c.embedder.Model(); stored != active {
		return nil, fmt.Errorf("%w: collection records %s, active model is %s",
			ErrModelMismatch, stored, active)
	}

	queryEmbedding, err := c.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var hits []types.ScoredChunk
	err = c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(chunkKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				var chunk types.Chunk
				if err := json.Unmarshal(val, &chunk); err != nil {
					c.logger.Warn("skipping undecodable chunk", "key", string(it.Item().Key()))
					return nil
				}
				if !filter.matches(chunk.Metadata) {
					return nil
				}
				// score = 1 - cosine distance, clamped into [0, 1]
				score := 1 - utils.CosineDistance(queryEmbedding, chunk.Embedding)
				if score < 0 {
					score = 0
				}
				hits = append(hits, types.ScoredChunk{Chunk: chunk, Score: score})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan collection: %w", err)
	}

	sortScoredChunks(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Statistics reads a cheap, sampling-based view of the collection: full
// key-only count, content length and metadata fields from a bounded
// sample of values.
func (c *Collection) Statistics(ctx context.Context) (*types.CollectionStats, error) {
	model, err := c.recordedModel()
	if err != nil {
		return nil, err
	}
	stats := &types.CollectionStats{EmbeddingModel: model}

	err = c.db.View(func(txn *badger.Txn) error {
		countOpts := badger.DefaultIteratorOptions
		countOpts.PrefetchValues = false
		it := txn.NewIterator(countOpts)
		defer it.Close()

		prefix := []byte(chunkKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			stats.Count++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count collection: %w", err)
	}

	var sampled int
	var totalLength int
	err = c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(chunkKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix) && sampled < statsSampleSize; it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				var chunk types.Chunk
				if err := json.Unmarshal(val, &chunk); err != nil {
					return nil
				}
				totalLength += len(chunk.Content)
				sampled++
				if stats.SampleMetadataFields == nil {
					stats.SampleMetadataFields = metadataFields()
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sample collection: %w", err)
	}

	if sampled > 0 {
		stats.AverageContentLength = float64(totalLength) / float64(sampled)
	}
	return stats, nil
}

// Wipe removes every chunk from the collection, keeping the metadata
// record. Administrative reset only.
func (c *Collection) Wipe(ctx context.Context) error {
	return c.db.DropPrefix([]byte(chunkKeyPrefix))
}

func (c *Collection) count() (int64, error) {
	var count int64
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(chunkKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func metadataFields() []string {
	return []string{"source_title", "source_url", "doc_id", "chunk_id", "content_length"}
}

// sortScoredChunks orders hits by descending score, breaking ties by ID
// for deterministic output.
func sortScoredChunks(hits []types.ScoredChunk) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
}
