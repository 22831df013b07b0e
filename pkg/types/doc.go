// Package types defines the core data model shared by the graph store,
// vector store, router, and synthesizer: entities, relationship triples,
// document chunks, retrieval results, and the error taxonomy used at
// component boundaries.
package types
