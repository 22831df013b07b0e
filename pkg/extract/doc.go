// Package extract defines the structured-extraction boundary: the schema
// an extraction oracle must return for a text chunk, validation that
// rejects malformed output before it reaches the graph store, and an
// OpenAI-backed oracle implementation.
package extract
