// Package vectorstore persists embedded document chunks in durable
// per-collection Badger databases and serves cosine-similarity search
// over them.
//
// Collections live under a root directory, one subdirectory per
// collection name. Opening a collection is idempotent (open-or-create),
// and the embedding model used at ingestion is recorded in collection
// metadata so queries embed with a matching model.
package vectorstore
