// Package runtime wires the model runtime (spec.md §4.1): an embedder for
// the dense retrieval path and a reranker for the final cross-encoder
// ranking stage. The embedder is always Ollama-backed; the reranker falls
// back to a static lexical-overlap scorer when Ollama is unreachable.
// NewOffline builds a fully deterministic, network-free pair.
package runtime

import (
	"context"
	"math"
	"time"
)

// Batch and timeout constants shared by runtime implementations.
const (
	// MinBatchSize is the minimum allowed batch size.
	MinBatchSize = 1

	// MaxBatchSize is the maximum allowed batch size (prevents memory exhaustion).
	MaxBatchSize = 256

	// DefaultBatchSize is the default batch size for embedding requests.
	DefaultBatchSize = 32

	// DefaultWarmTimeout is the timeout for subsequent requests once the
	// model is loaded.
	DefaultWarmTimeout = 30 * time.Second

	// DefaultColdTimeout is the timeout for the first request, which may
	// have to wait for Ollama to load the model into memory.
	DefaultColdTimeout = 90 * time.Second

	// ModelUnloadThreshold is the duration after which a model is treated
	// as "cold" again. Ollama unloads idle models after ~5 minutes.
	ModelUnloadThreshold = 5 * time.Minute

	// DefaultMaxRetries is the default total number of attempts (the first
	// try included) for a request that hits a transient runtime failure.
	DefaultMaxRetries = 3
)

// DefaultDimensions is the Ollama embedder's dimension when no override is
// configured and auto-detection is skipped. The static embedder uses
// StaticDimensions instead.
const DefaultDimensions = 768

// Embedder generates vector embeddings for text, used for both document
// chunks at ingest time and queries at search time.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier bound into the vector store.
	ModelName() string

	// Available reports whether the embedder is ready to serve requests.
	Available(ctx context.Context) bool

	// Close releases resources held by the embedder.
	Close() error
}

// Reranker scores (query, candidate) pairs for the final ranking stage.
// Scores are raw, unnormalized logits (or a logit-like proxy); callers sort
// descending and never mix them with fused scores.
type Reranker interface {
	// Rerank scores each candidate against the query. The returned slice
	// has the same length and order as candidates.
	Rerank(ctx context.Context, query string, candidates []string) ([]float32, error)

	// Available reports whether the reranker is ready to serve requests.
	Available(ctx context.Context) bool
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}

// cosineSimilarity computes cosine similarity between two equal-length,
// already-normalized vectors.
func cosineSimilarity(a, b []float32) float32 {
	var dot float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot)
}
