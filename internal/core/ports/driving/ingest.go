package driving

import (
	"context"

	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
)

// IngestionService chunks extracted document text, embeds the chunks and
// stores them. Ingestion is all-or-nothing per file: an embedding
// failure aborts the call and nothing is stored.
type IngestionService interface {
	// IngestFile splits the given text elements into chunks, embeds them
	// in bounded-concurrency batches and persists the result. It returns
	// the stored chunks in order.
	IngestFile(ctx context.Context, fileID string, pages []domain.PageText) ([]domain.Chunk, error)

	// DeleteFile removes a file's chunks from the store.
	DeleteFile(ctx context.Context, fileID string) error
}
