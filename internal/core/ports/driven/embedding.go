// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text via an external
// provider addressed by a model identifier and a caller-scoped credential.
//
// Implementations must preserve input order: output vector i always
// belongs to input text i, regardless of how the provider responds.
type EmbeddingService interface {
	// Embed generates a vector embedding for a single query string.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one request.
	// Callers are responsible for keeping batches within provider limits.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 1536).
	// This must match the dimensionality stored in the chunk store.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}
