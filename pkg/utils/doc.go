// Package utils provides small shared helpers: vector math for the
// similarity search path, bounded concurrent execution for retrieval
// fan-out, and stable content-derived identifiers for chunks.
package utils
