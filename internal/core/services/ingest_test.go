package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FWU-DE/telli-dialog-sub001/internal/chunker"
	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
)

// ingestChunker keeps chunks small so a handful of sentences spans
// several embedding batches.
func ingestChunker() *chunker.Chunker {
	return chunker.New(chunker.WithLowerBoundWordCount(5), chunker.WithSentenceOverlap(1))
}

// sentencePages builds a single page of n distinct sentences, each long
// enough to close a chunk on its own with the test chunker.
func sentencePages(n int) []domain.PageText {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Dies ist der Beispielsatz mit der Nummer %d. ", i)
	}
	return []domain.PageText{{Text: b.String()}}
}

func TestIngestFileEmbedsAndStores(t *testing.T) {
	store := &mockChunkStore{}
	embedder := &mockEmbedder{}
	svc := NewIngestionService(ingestChunker(), embedder, store, IngestionConfig{})

	chunks, err := svc.IngestFile(context.Background(), "file-1", sentencePages(4))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assert.Equal(t, chunks, store.savedChunks)
	for i, c := range chunks {
		assert.Equal(t, "file-1", c.FileID)
		assert.Equal(t, i, c.OrderIndex)
		// The mock embeds each text as its length, so a correct
		// vector proves position-based pairing.
		require.Len(t, c.Embedding, 1)
		assert.Equal(t, float32(len(c.EmbeddingText())), c.Embedding[0])
	}
}

func TestIngestFileBatchesRequests(t *testing.T) {
	store := &mockChunkStore{}
	embedder := &mockEmbedder{}
	svc := NewIngestionService(ingestChunker(), embedder, store, IngestionConfig{
		BatchSize:   2,
		Concurrency: 1,
	})

	chunks, err := svc.IngestFile(context.Background(), "file-1", sentencePages(7))
	require.NoError(t, err)

	wantBatches := (len(chunks) + 1) / 2
	require.Len(t, embedder.batches, wantBatches)

	var total int
	for _, batch := range embedder.batches {
		assert.LessOrEqual(t, len(batch), 2)
		total += len(batch)
	}
	assert.Equal(t, len(chunks), total)
}

func TestIngestFilePairsVectorsAcrossBatches(t *testing.T) {
	store := &mockChunkStore{}
	embedder := &mockEmbedder{}
	svc := NewIngestionService(ingestChunker(), embedder, store, IngestionConfig{
		BatchSize:   2,
		Concurrency: 4,
	})

	chunks, err := svc.IngestFile(context.Background(), "file-1", sentencePages(9))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 4)

	for _, c := range chunks {
		require.Len(t, c.Embedding, 1)
		assert.Equal(t, float32(len(c.EmbeddingText())), c.Embedding[0])
	}
}

func TestIngestFileBatchFailureAbortsBeforeStore(t *testing.T) {
	store := &mockChunkStore{}
	embedder := &mockEmbedder{batchErr: errors.New("provider down")}
	svc := NewIngestionService(ingestChunker(), embedder, store, IngestionConfig{})

	chunks, err := svc.IngestFile(context.Background(), "file-1", sentencePages(4))
	require.Error(t, err)
	assert.Nil(t, chunks)

	// All-or-nothing: nothing reaches the store on embedding failure.
	assert.Empty(t, store.savedChunks)
}

func TestIngestFileSaveFailure(t *testing.T) {
	store := &mockChunkStore{saveErr: errors.New("disk full")}
	svc := NewIngestionService(ingestChunker(), &mockEmbedder{}, store, IngestionConfig{})

	chunks, err := svc.IngestFile(context.Background(), "file-1", sentencePages(2))
	require.Error(t, err)
	assert.ErrorContains(t, err, "save chunks")
	assert.Nil(t, chunks)
}

func TestIngestFileEmptyInput(t *testing.T) {
	store := &mockChunkStore{}
	embedder := &mockEmbedder{}
	svc := NewIngestionService(ingestChunker(), embedder, store, IngestionConfig{})

	chunks, err := svc.IngestFile(context.Background(), "file-1", nil)
	require.NoError(t, err)
	assert.Nil(t, chunks)
	assert.Empty(t, embedder.batches)
	assert.Empty(t, store.savedChunks)
}

func TestIngestFileRequiresFileID(t *testing.T) {
	svc := NewIngestionService(ingestChunker(), &mockEmbedder{}, &mockChunkStore{}, IngestionConfig{})

	_, err := svc.IngestFile(context.Background(), "", sentencePages(1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestFileRequiresEmbedder(t *testing.T) {
	svc := NewIngestionService(ingestChunker(), nil, &mockChunkStore{}, IngestionConfig{})

	_, err := svc.IngestFile(context.Background(), "file-1", sentencePages(1))
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestDeleteFile(t *testing.T) {
	store := &mockChunkStore{}
	svc := NewIngestionService(ingestChunker(), &mockEmbedder{}, store, IngestionConfig{})

	require.NoError(t, svc.DeleteFile(context.Background(), "file-1"))
	assert.Equal(t, []string{"file-1"}, store.deletedFiles)
}

func TestDeleteFileRequiresStore(t *testing.T) {
	svc := NewIngestionService(ingestChunker(), &mockEmbedder{}, nil, IngestionConfig{})

	err := svc.DeleteFile(context.Background(), "file-1")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
