// Package embedder provides the embedding clients used by the vector
// store. The primary client talks to an OpenAI-compatible API; a fallback
// chain degrades to secondary models when the primary fails, recording
// which model actually served so queries embed with a matching model.
package embedder
