// Package driver implements the knowledge graph store: idempotent triple
// upsert with heuristic entity typing, relationship queries, bounded-depth
// network traversal, and aggregate statistics.
//
// The GraphDriver interface has two implementations: Neo4jDriver persists
// to a Neo4j database over bolt, and MemoryDriver keeps everything in
// process for tests and offline tooling. Both are safe for concurrent use
// by multiple in-flight queries.
package driver
