package domain

// SearchHit is a per-query, per-chunk intermediate produced by the hybrid
// ranker. Hits are created fresh for every query and discarded once the
// top results are returned; they are never persisted.
//
// A rank of 0 means the chunk was absent from that result list. The
// conversion to a worst-place sentinel happens only at scoring time, so
// the absence stays an explicit marker everywhere else.
type SearchHit struct {
	// Chunk carries the matched chunk's identity and content fields.
	Chunk Chunk

	// EmbeddingRank is the 1-based position in the vector-similarity
	// result list, 0 when absent.
	EmbeddingRank int

	// TextRank is the 1-based position in the lexical result list,
	// 0 when absent.
	TextRank int

	// CombinedScore is the fused rank average. Lower is better.
	CombinedScore float64
}

// RetrievalResult groups retrieved chunks per source file, each group
// ordered by OrderIndex so prompt assembly reads coherent text rather
// than relevance-ordered fragments.
//
// A nil *RetrievalResult means no retrieval was performed (no files
// attached), which is distinct from a retrieval that found nothing.
type RetrievalResult struct {
	// Query is the standalone search query derived from chat history.
	Query string

	// Keywords are the extracted lexical search terms.
	Keywords []string

	// Files maps fileID to that file's retrieved chunks in reading order.
	Files map[string][]Chunk
}

// Empty reports whether retrieval ran but matched nothing.
func (r *RetrievalResult) Empty() bool {
	return r != nil && len(r.Files) == 0
}
