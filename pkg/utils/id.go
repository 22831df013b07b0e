package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// ChunkID derives a stable identifier from a chunk's document ID and
// content. Unlike ordinal-based IDs, it does not shift when a re-ingestion
// run batches or fails differently, so repeated ingestion of the same
// source stays idempotent.
func ChunkID(docID, content string) string {
	h := sha256.Sum256([]byte(docID + ":" + content))
	return hex.EncodeToString(h[:])[:16]
}
