// Package memory provides in-memory implementations of the storage
// ports for testing and ephemeral use.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
	"github.com/FWU-DE/telli-dialog-sub001/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory chunk store. The lexical rank is a plain
// term-frequency count rather than BM25; ordering semantics match the
// SQLite store, absolute scores do not.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks map[string][]domain.Chunk // fileID -> chunks in insert order
}

// NewChunkStore creates an empty in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[string][]domain.Chunk),
	}
}

// SaveChunks stores a batch of chunks.
func (s *ChunkStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		s.chunks[chunk.FileID] = append(s.chunks[chunk.FileID], chunk)
	}
	return nil
}

// GetChunks returns all chunks of a file ordered by OrderIndex.
func (s *ChunkStore) GetChunks(_ context.Context, fileID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]domain.Chunk, len(s.chunks[fileID]))
	copy(chunks, s.chunks[fileID])
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].OrderIndex < chunks[j].OrderIndex
	})
	return chunks, nil
}

// DeleteFile removes all chunks belonging to a file.
func (s *ChunkStore) DeleteFile(_ context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chunks, fileID)
	return nil
}

// VectorSearch ranks the candidate files' chunks by cosine similarity.
func (s *ChunkStore) VectorSearch(_ context.Context, embedding []float32, fileIDs []string, limit int) ([]driven.VectorHit, error) {
	if len(embedding) == 0 || len(fileIDs) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []driven.VectorHit
	for _, fileID := range fileIDs {
		for _, chunk := range s.chunks[fileID] {
			if len(chunk.Embedding) == 0 {
				continue
			}
			hits = append(hits, driven.VectorHit{
				Chunk:      chunk,
				Similarity: cosineSimilarity(embedding, chunk.Embedding),
			})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// LexicalSearch ranks the candidate files' chunks by how often the terms
// occur in their content. Zero-score chunks are filtered out.
func (s *ChunkStore) LexicalSearch(_ context.Context, terms []string, fileIDs []string, limit int) ([]driven.LexicalHit, error) {
	if len(terms) == 0 || len(fileIDs) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []driven.LexicalHit
	for _, fileID := range fileIDs {
		for _, chunk := range s.chunks[fileID] {
			score := termScore(chunk.Content, terms)
			if score == 0 {
				continue
			}
			hits = append(hits, driven.LexicalHit{Chunk: chunk, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Close releases resources.
func (s *ChunkStore) Close() error {
	return nil
}

// termScore counts case-insensitive term occurrences in content.
func termScore(content string, terms []string) float64 {
	lower := strings.ToLower(content)
	var score float64
	for _, term := range terms {
		score += float64(strings.Count(lower, strings.ToLower(term)))
	}
	return score
}

// cosineSimilarity computes the cosine of the angle between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
