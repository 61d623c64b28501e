package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/FWU-DE/telli-dialog-sub001/internal/chunker"
	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
	"github.com/FWU-DE/telli-dialog-sub001/internal/core/ports/driven"
	"github.com/FWU-DE/telli-dialog-sub001/internal/core/ports/driving"
	"github.com/FWU-DE/telli-dialog-sub001/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// Default embedding batch tunables. Both are explicit configuration
// passed in at construction, not package state.
const (
	DefaultEmbedBatchSize   = 200
	DefaultEmbedConcurrency = 5
)

// IngestionConfig bounds the batch embedding of a file's chunks.
type IngestionConfig struct {
	// BatchSize is the number of chunk texts per embedding request.
	BatchSize int

	// Concurrency is the maximum number of in-flight embedding requests.
	Concurrency int
}

// IngestionService chunks extracted text, embeds the chunks in bounded
// batches and stores them. Ingestion is all-or-nothing per file.
type IngestionService struct {
	chunker  *chunker.Chunker
	embedder driven.EmbeddingService
	store    driven.ChunkStore
	cfg      IngestionConfig
}

// NewIngestionService creates an ingestion service. Zero config values
// fall back to the defaults.
func NewIngestionService(c *chunker.Chunker, embedder driven.EmbeddingService, store driven.ChunkStore, cfg IngestionConfig) *IngestionService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEmbedBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultEmbedConcurrency
	}
	return &IngestionService{
		chunker:  c,
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}
}

// IngestFile splits the text elements into chunks, embeds them and
// persists the result, returning the stored chunks in order. Any batch
// failure aborts the whole call before anything is stored, so a file is
// never left with partially embedded chunks.
func (s *IngestionService) IngestFile(ctx context.Context, fileID string, pages []domain.PageText) ([]domain.Chunk, error) {
	if fileID == "" {
		return nil, fmt.Errorf("file id is empty: %w", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.store == nil {
		return nil, domain.ErrStoreUnavailable
	}

	logger.Section("Ingestion")

	chunks := s.chunker.Chunk(fileID, pages)
	if len(chunks) == 0 {
		logger.Debug("Ingestion: file %s produced no chunks", fileID)
		return nil, nil
	}
	logger.Debug("Ingestion: file %s split into %d chunks", fileID, len(chunks))

	if err := s.embedChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	if err := s.store.SaveChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	logger.Info("Ingestion: stored %d chunks for file %s", len(chunks), fileID)
	return chunks, nil
}

// embedChunks embeds all chunk texts in batches with at most
// cfg.Concurrency requests in flight. Vectors are written back to the
// chunks by position (batch offset plus index inside the batch), never
// by content comparison, so ordering survives concurrent completion.
func (s *IngestionService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.EmbeddingText()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for offset := 0; offset < len(texts); offset += s.cfg.BatchSize {
		end := offset + s.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		offset := offset
		batch := texts[offset:end]

		g.Go(func() error {
			vectors, err := s.embedder.EmbedBatch(ctx, batch)
			if err != nil {
				return fmt.Errorf("batch at offset %d: %w", offset, err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("batch at offset %d: got %d vectors for %d texts", offset, len(vectors), len(batch))
			}
			for i, vector := range vectors {
				chunks[offset+i].Embedding = vector
			}
			return nil
		})
	}

	return g.Wait()
}

// DeleteFile removes a file's chunks from the store.
func (s *IngestionService) DeleteFile(ctx context.Context, fileID string) error {
	if s.store == nil {
		return domain.ErrStoreUnavailable
	}
	if err := s.store.DeleteFile(ctx, fileID); err != nil {
		return fmt.Errorf("delete file %s: %w", fileID, err)
	}
	return nil
}
