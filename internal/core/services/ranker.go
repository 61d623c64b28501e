package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
	"github.com/FWU-DE/telli-dialog-sub001/internal/core/ports/driven"
	"github.com/FWU-DE/telli-dialog-sub001/internal/logger"
)

// DefaultSearchLimit caps the number of fused results returned per query.
const DefaultSearchLimit = 10

// worstRank is the effective rank of a chunk absent from one of the two
// fused lists. Internally absence is tracked as rank 0; the conversion
// to this last-place value happens only at scoring time.
const worstRank = 1 << 30

// Ranker fuses vector-similarity and lexical rankings over stored
// chunks into one ordered result set.
type Ranker struct {
	store driven.ChunkStore
	limit int
}

// NewRanker creates a ranker backed by the given chunk store.
// A limit <= 0 falls back to DefaultSearchLimit.
func NewRanker(store driven.ChunkStore, limit int) *Ranker {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &Ranker{store: store, limit: limit}
}

// Rank executes the vector and lexical searches concurrently, restricted
// to the candidate files, and fuses the two rankings by averaging each
// chunk's 1-based positions. An empty embedding skips the vector leg, an
// all-empty keyword set skips the lexical leg; when both legs are
// unusable (or fileIDs is empty) the result is empty, not an error.
func (r *Ranker) Rank(ctx context.Context, embedding []float32, keywords []string, fileIDs []string) ([]domain.SearchHit, error) {
	if r.store == nil {
		return nil, domain.ErrStoreUnavailable
	}
	if len(fileIDs) == 0 {
		logger.Debug("Ranker: no candidate files, returning empty result")
		return []domain.SearchHit{}, nil
	}

	terms := sanitizeKeywords(keywords)
	runVector := len(embedding) > 0
	runLexical := len(terms) > 0

	if !runVector && !runLexical {
		logger.Debug("Ranker: no embedding and no usable keywords, returning empty result")
		return []domain.SearchHit{}, nil
	}

	// The two legs are independent read-only queries; run them in parallel.
	var (
		vectorHits  []driven.VectorHit
		lexicalHits []driven.LexicalHit
		vectorErr   error
		lexicalErr  error
	)

	var wg sync.WaitGroup
	if runVector {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorHits, vectorErr = r.store.VectorSearch(ctx, embedding, fileIDs, r.limit)
		}()
	}
	if runLexical {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lexicalHits, lexicalErr = r.store.LexicalSearch(ctx, terms, fileIDs, r.limit)
		}()
	}
	wg.Wait()

	// A failed leg degrades to the other one; only a total loss errors.
	if vectorErr != nil && lexicalErr != nil {
		return nil, fmt.Errorf("hybrid search: vector=%w, lexical=%w", vectorErr, lexicalErr)
	}
	if vectorErr != nil {
		logger.Warn("Ranker: vector search failed, using lexical results only: %v", vectorErr)
		vectorHits = nil
	}
	if lexicalErr != nil {
		logger.Warn("Ranker: lexical search failed, using vector results only: %v", lexicalErr)
		lexicalHits = nil
	}

	logger.Debug("Ranker: %d vector hits, %d lexical hits", len(vectorHits), len(lexicalHits))

	fused := fuseRankings(vectorHits, lexicalHits)
	if len(fused) > r.limit {
		fused = fused[:r.limit]
	}

	logger.Debug("Ranker: %d fused results", len(fused))
	return fused, nil
}

// fuseRankings unions the two result lists by chunk identity and orders
// the union by average rank, ascending. Ties keep encounter order
// (vector hits first); the sort is stable but the tie order is current
// behaviour, not a guarantee.
func fuseRankings(vectorHits []driven.VectorHit, lexicalHits []driven.LexicalHit) []domain.SearchHit {
	byID := make(map[string]*domain.SearchHit)
	order := make([]string, 0, len(vectorHits)+len(lexicalHits))

	for i, hit := range vectorHits {
		byID[hit.Chunk.ID] = &domain.SearchHit{
			Chunk:         hit.Chunk,
			EmbeddingRank: i + 1,
		}
		order = append(order, hit.Chunk.ID)
	}

	for i, hit := range lexicalHits {
		if existing, ok := byID[hit.Chunk.ID]; ok {
			existing.TextRank = i + 1
			continue
		}
		byID[hit.Chunk.ID] = &domain.SearchHit{
			Chunk:    hit.Chunk,
			TextRank: i + 1,
		}
		order = append(order, hit.Chunk.ID)
	}

	hits := make([]domain.SearchHit, 0, len(order))
	for _, id := range order {
		hit := byID[id]
		hit.CombinedScore = combinedScore(hit.EmbeddingRank, hit.TextRank)
		hits = append(hits, *hit)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].CombinedScore < hits[j].CombinedScore
	})

	return hits
}

// combinedScore averages the two 1-based ranks, substituting last place
// for a list the chunk did not appear in. Lower is better.
func combinedScore(embeddingRank, textRank int) float64 {
	if embeddingRank == 0 {
		embeddingRank = worstRank
	}
	if textRank == 0 {
		textRank = worstRank
	}
	return (float64(embeddingRank) + float64(textRank)) / 2
}

// sanitizeKeywords strips everything but letters and digits from each
// keyword and drops the ones that end up empty.
func sanitizeKeywords(keywords []string) []string {
	var terms []string
	for _, kw := range keywords {
		var b strings.Builder
		for _, r := range kw {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
		if term := b.String(); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}
