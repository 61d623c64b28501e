package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
	"github.com/FWU-DE/telli-dialog-sub001/internal/core/ports/driven"
	"github.com/FWU-DE/telli-dialog-sub001/internal/core/ports/driving"
	"github.com/FWU-DE/telli-dialog-sub001/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// Tunables for deriving the search query from chat history.
const (
	// condenseWindow bounds the history handed to the condensation call.
	condenseWindowPairs = 6
	condenseWindowChars = 2000

	// condenseFallbackChars caps the fallback query taken from the last
	// user message when condensation fails.
	condenseFallbackChars = 200

	// maxKeywords caps how many extracted keywords are used.
	maxKeywords = 5
)

// RetrievalService turns a conversation plus attached files into grouped,
// reading-ordered chunks for prompt assembly.
type RetrievalService struct {
	embedder driven.EmbeddingService
	llm      driven.LLMService
	ranker   *Ranker
}

// NewRetrievalService creates a retrieval service. The llm parameter is
// optional; without it, condensation and keyword extraction use their
// local fallbacks directly.
func NewRetrievalService(embedder driven.EmbeddingService, llm driven.LLMService, ranker *Ranker) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		llm:      llm,
		ranker:   ranker,
	}
}

// Retrieve derives a standalone query and keyword set from the chat
// history, runs the hybrid search against the attached files and groups
// the hits per file in document order. With no attached files it returns
// nil without calling any external service.
func (s *RetrievalService) Retrieve(ctx context.Context, messages []domain.Message, fileIDs []string) (*domain.RetrievalResult, error) {
	if len(fileIDs) == 0 {
		logger.Debug("Retrieval: no files attached, skipping")
		return nil, nil
	}

	logger.Section("Retrieval")

	// Condensation and keyword extraction are independent calls; a
	// failure in one never cancels the other.
	var (
		query    string
		keywords []string
	)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		query = s.condenseQuery(ctx, messages)
	}()
	go func() {
		defer wg.Done()
		keywords = s.extractKeywords(ctx, messages)
	}()
	wg.Wait()

	logger.Debug("Retrieval: query=%q, keywords=%v", query, keywords)

	embedding := s.embedQuery(ctx, query)

	hits, err := s.ranker.Rank(ctx, embedding, keywords, fileIDs)
	if err != nil {
		return nil, err
	}

	result := &domain.RetrievalResult{
		Query:    query,
		Keywords: keywords,
		Files:    groupByFile(hits),
	}
	logger.Info("Retrieval: %d chunks across %d files", len(hits), len(result.Files))
	return result, nil
}

// condenseQuery asks the auxiliary model for a standalone search query
// derived from a tightly windowed slice of recent history. On any
// failure it falls back to the truncated last user message.
func (s *RetrievalService) condenseQuery(ctx context.Context, messages []domain.Message) string {
	fallback := truncate(domain.LastUserContent(messages), condenseFallbackChars)

	windowed := WindowMessages(messages, WindowConfig{
		LimitRecent:    condenseWindowPairs,
		CharacterLimit: condenseWindowChars,
	})

	answer, err := s.generate(ctx, condensePrompt, windowed)
	if errors.Is(err, domain.ErrLLMUnavailable) {
		logger.Debug("Retrieval: no auxiliary model, using last user message as query")
		return fallback
	}
	if err != nil {
		logger.Warn("Retrieval: query condensation failed, using last user message: %v", err)
		return fallback
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fallback
	}
	return answer
}

// extractKeywords asks the auxiliary model for up to maxKeywords domain
// keywords from the most recent user message. On any failure it falls
// back to an empty list, degrading the search to its vector leg.
func (s *RetrievalService) extractKeywords(ctx context.Context, messages []domain.Message) []string {
	lastUser := domain.LastUserContent(messages)
	if lastUser == "" {
		return nil
	}

	answer, err := s.generate(ctx, keywordsPrompt,
		[]domain.Message{{Role: domain.RoleUser, Content: lastUser}})
	if errors.Is(err, domain.ErrLLMUnavailable) {
		return nil
	}
	if err != nil {
		logger.Warn("Retrieval: keyword extraction failed, continuing without keywords: %v", err)
		return nil
	}

	return parseKeywords(answer)
}

// generate runs one auxiliary-model call with deterministic settings.
func (s *RetrievalService) generate(ctx context.Context, systemPrompt string, messages []domain.Message) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	return s.llm.Generate(ctx, systemPrompt, messages, driven.GenerateOptions{Temperature: 0})
}

// embedQuery embeds the condensed query. A provider failure degrades
// retrieval to lexical-only by substituting an empty vector.
func (s *RetrievalService) embedQuery(ctx context.Context, query string) []float32 {
	if s.embedder == nil || query == "" {
		return nil
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Retrieval: query embedding failed, degrading to lexical search: %v", err)
		return nil
	}
	return embedding
}

// parseKeywords splits model output on newlines and commas and caps the
// result at maxKeywords.
func parseKeywords(answer string) []string {
	fields := strings.FieldsFunc(answer, func(r rune) bool {
		return r == '\n' || r == ','
	})

	var keywords []string
	for _, f := range fields {
		f = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(f), "-"))
		if f == "" {
			continue
		}
		keywords = append(keywords, f)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// groupByFile buckets hits per file and restores reading order within
// each bucket. Relevance order is deliberately discarded here: prompt
// assembly needs coherent document text, not ranked fragments.
func groupByFile(hits []domain.SearchHit) map[string][]domain.Chunk {
	files := make(map[string][]domain.Chunk)
	for _, hit := range hits {
		files[hit.Chunk.FileID] = append(files[hit.Chunk.FileID], hit.Chunk)
	}

	for fileID := range files {
		chunks := files[fileID]
		sort.Slice(chunks, func(i, j int) bool {
			return chunks[i].OrderIndex < chunks[j].OrderIndex
		})
	}

	return files
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
