package driven

import (
	"context"

	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
)

// ChunkStore persists chunks and answers the two ranked queries the
// hybrid ranker fuses: cosine-similarity ordering over the embedding
// column and a lexical rank over a text-search index, both restricted to
// a candidate file set.
type ChunkStore interface {
	// SaveChunks stores a batch of chunks transactionally. Either every
	// chunk in the batch is stored or none is.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks returns all chunks of a file ordered by OrderIndex.
	GetChunks(ctx context.Context, fileID string) ([]domain.Chunk, error)

	// DeleteFile removes all chunks belonging to a file.
	DeleteFile(ctx context.Context, fileID string) error

	// VectorSearch ranks chunks of the candidate files by cosine
	// similarity to the query embedding, descending, and returns at most
	// limit results.
	VectorSearch(ctx context.Context, embedding []float32, fileIDs []string, limit int) ([]VectorHit, error)

	// LexicalSearch ranks chunks of the candidate files by lexical
	// relevance against an OR-query of the given terms, descending,
	// filtering out zero-score matches, and returns at most limit results.
	LexicalSearch(ctx context.Context, terms []string, fileIDs []string, limit int) ([]LexicalHit, error)

	// Close releases resources.
	Close() error
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk.
	Chunk domain.Chunk

	// Similarity is the cosine similarity to the query embedding.
	Similarity float64
}

// LexicalHit is a text-search result.
type LexicalHit struct {
	// Chunk is the matched chunk.
	Chunk domain.Chunk

	// Score is the lexical relevance score (e.g., BM25). Higher is better.
	Score float64
}
