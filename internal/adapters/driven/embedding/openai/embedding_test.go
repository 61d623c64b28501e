package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewEmbeddingService(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		// High rate so the limiter never slows the test down.
		RequestsPerSecond: 1000,
	})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 1536, svc.Dimensions())
}

func TestNewEmbeddingService_DimensionOverride(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "test-key", Dimensions: 256})
	require.NoError(t, err)
	assert.Equal(t, 256, svc.Dimensions())
}

func TestEmbedBatch_PairsByIndex(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		// Return data out of order; the index field must pair the
		// vectors back to their inputs.
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float64{0.2}},
				{"index": 0, "embedding": []float64{0.1}},
			},
		})
	})

	embeddings, err := svc.EmbedBatch(context.Background(), []string{"erster", "zweiter"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.1}, embeddings[0])
	assert.Equal(t, []float32{0.2}, embeddings[1])
}

func TestEmbedBatch_IndexOutOfRange(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 5, "embedding": []float64{0.1}},
			},
		})
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"einziger"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestEmbedBatch_MissingEntry(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		// Two inputs, one vector back: the second slot stays unfilled and
		// must not be returned as a nil embedding.
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 0, "embedding": []float64{0.1}},
			},
		})
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"erster", "zweiter"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedding returned for input 1")
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty batch")
	})

	embeddings, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, embeddings)
}

func TestEmbedBatch_APIError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key", "type": "auth"},
		})
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestEmbedBatch_SendsDimensionsForV3Models(t *testing.T) {
	var received embeddingRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float64{0.1}}},
		})
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"text"})
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", received.Model)
	assert.Equal(t, 1536, received.Dimensions)
}

func TestEmbed_SingleText(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float64{0.1, 0.2}}},
		})
	})

	embedding, err := svc.Embed(context.Background(), "Photosynthese")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, embedding)
}

func TestEmbed_ContextCancelled(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Embed(ctx, "text")
	assert.Error(t, err)
}
