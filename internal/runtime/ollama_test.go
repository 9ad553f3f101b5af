package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama serves the small subset of the Ollama HTTP API the runtime
// depends on: /api/tags for model discovery and /api/embed for embeddings.
// Returned vectors are deterministic hashes of the input text so tests can
// assert on similarity relationships without a real model.
func fakeOllama(t *testing.T, modelName string, dims int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaModelListResponse{
			Models: []ollamaModelInfo{{Name: modelName}},
		})
	})
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var texts []string
		switch v := req.Input.(type) {
		case string:
			texts = []string{v}
		case []any:
			for _, item := range v {
				texts = append(texts, item.(string))
			}
		}

		embeddings := make([][]float64, len(texts))
		for i, text := range texts {
			vec := make([]float64, dims)
			for j := range vec {
				vec[j] = float64((hashToIndex(text, dims) + j) % dims)
			}
			embeddings[i] = vec
		}

		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Model: modelName, Embeddings: embeddings})
	})

	return httptest.NewServer(mux)
}

func TestNewOllamaEmbedder_DiscoversConfiguredModel(t *testing.T) {
	server := fakeOllama(t, "nomic-embed-text:latest", 8)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.EmbedModel = "nomic-embed-text"

	embedder, err := NewOllamaEmbedder(context.Background(), cfg)

	require.NoError(t, err)
	defer func() { _ = embedder.Close() }()
	assert.Equal(t, "nomic-embed-text:latest", embedder.ModelName())
	assert.Equal(t, 8, embedder.Dimensions())
}

func TestNewOllamaEmbedder_ModelNotPulled_ReturnsError(t *testing.T) {
	server := fakeOllama(t, "some-other-model:latest", 8)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.EmbedModel = "nomic-embed-text"

	_, err := NewOllamaEmbedder(context.Background(), cfg)

	assert.Error(t, err)
}

func TestOllamaEmbedder_Embed_ReturnsNormalizedVector(t *testing.T) {
	server := fakeOllama(t, "nomic-embed-text:latest", 16)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.EmbedModel = "nomic-embed-text"
	embedder, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = embedder.Close() }()

	vec, err := embedder.Embed(context.Background(), "hybrid retrieval")

	require.NoError(t, err)
	assert.Len(t, vec, 16)
	assert.InDelta(t, 1.0, vectorMagnitude(vec), 0.01)
}

func TestOllamaEmbedder_Embed_EmptyInput_ReturnsZeroVector(t *testing.T) {
	server := fakeOllama(t, "nomic-embed-text:latest", 8)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.EmbedModel = "nomic-embed-text"
	embedder, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = embedder.Close() }()

	vec, err := embedder.Embed(context.Background(), "   ")

	require.NoError(t, err)
	assert.Len(t, vec, 8)
	for _, v := range vec {
		assert.Equal(t, float32(0), v)
	}
}

func TestOllamaEmbedder_EmbedBatch_BatchesByConfiguredSize(t *testing.T) {
	server := fakeOllama(t, "nomic-embed-text:latest", 8)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.EmbedModel = "nomic-embed-text"
	cfg.BatchSize = 2
	embedder, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = embedder.Close() }()

	texts := []string{"one", "two", "three", "four", "five"}
	var completedCounts []int
	embedder.config.ProgressFunc = func(completed, total int) {
		completedCounts = append(completedCounts, completed)
	}

	embeddings, err := embedder.EmbedBatch(context.Background(), texts)

	require.NoError(t, err)
	require.Len(t, embeddings, 5)
	assert.Equal(t, []int{2, 4, 5}, completedCounts)
}

func TestOllamaEmbedder_Available_TrueWhenModelPresent(t *testing.T) {
	server := fakeOllama(t, "nomic-embed-text:latest", 8)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.EmbedModel = "nomic-embed-text"
	embedder, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = embedder.Close() }()

	assert.True(t, embedder.Available(context.Background()))
}

func TestOllamaEmbedder_Available_FalseAfterClose(t *testing.T) {
	server := fakeOllama(t, "nomic-embed-text:latest", 8)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.EmbedModel = "nomic-embed-text"
	embedder, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)

	require.NoError(t, embedder.Close())
	assert.False(t, embedder.Available(context.Background()))
}

func TestNewOllamaEmbedder_UnreachableHost_ReturnsError(t *testing.T) {
	cfg := DefaultOllamaConfig()
	cfg.Host = "http://127.0.0.1:1"
	cfg.EmbedModel = "nomic-embed-text"

	_, err := NewOllamaEmbedder(context.Background(), cfg)

	assert.Error(t, err)
}

func TestOllamaReranker_Rerank_ScoresEachCandidate(t *testing.T) {
	server := fakeOllama(t, "nomic-embed-text:latest", 16)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.EmbedModel = "nomic-embed-text"
	embedder, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = embedder.Close() }()

	reranker := NewOllamaReranker(embedder)

	scores, err := reranker.Rerank(context.Background(), "query text",
		[]string{"candidate one", "candidate two"})

	require.NoError(t, err)
	assert.Len(t, scores, 2)
}

func TestOllamaReranker_Rerank_EmptyCandidates_ReturnsNil(t *testing.T) {
	server := fakeOllama(t, "nomic-embed-text:latest", 8)
	defer server.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = server.URL
	cfg.EmbedModel = "nomic-embed-text"
	embedder, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = embedder.Close() }()

	reranker := NewOllamaReranker(embedder)

	scores, err := reranker.Rerank(context.Background(), "query", nil)

	require.NoError(t, err)
	assert.Nil(t, scores)
}
