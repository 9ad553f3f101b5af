package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nans28/eywa/internal/config"
	engineerrors "github.com/nans28/eywa/internal/errors"
)

// Runtime bundles the embedder and reranker the search and ingest
// pipelines depend on.
type Runtime struct {
	Embedder Embedder
	Reranker Reranker
}

// New builds a Runtime from configuration. The embedder is Ollama-backed
// and wrapped with a query cache; there is no silent dimension-changing
// fallback here, since a vector store opened against one dimension can't
// silently accept embeddings from another (config.Validate and the vector
// store's model-binding check are what turn a mismatch into
// errors.ModelMismatch). The reranker degrades to a lexical-overlap scorer
// when Ollama is unreachable, since reranking carries no such binding.
//
// cfg.Device is advisory: Ollama itself negotiates CPU/Metal/CUDA, so Auto
// lets Ollama's own reported backend win and the other values are only
// used for the startup log line.
func New(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	ollamaCfg := DefaultOllamaConfig()
	ollamaCfg.EmbedModel = cfg.EmbeddingModel.ID
	ollamaCfg.Dimensions = cfg.EmbeddingModel.Dimensions

	embedder, err := NewOllamaEmbedder(ctx, ollamaCfg)
	if err != nil {
		return nil, engineerrors.Inference(fmt.Sprintf("embedding model %q unavailable", cfg.EmbeddingModel.ID), err).
			WithSuggestion("start ollama and pull the embedding model: ollama pull " + cfg.EmbeddingModel.ID)
	}

	slog.Info("runtime_embedder_ready",
		slog.String("model", embedder.ModelName()),
		slog.Int("dimensions", embedder.Dimensions()),
		slog.String("device", string(cfg.Device)))

	cached := NewCachedEmbedderWithDefaults(embedder)

	var reranker Reranker = NewOllamaReranker(embedder)
	if !reranker.Available(ctx) {
		slog.Warn("runtime_reranker_degraded",
			slog.String("reason", "ollama unreachable for reranker, using lexical-overlap scorer"))
		reranker = NewStaticReranker()
	}

	return &Runtime{Embedder: cached, Reranker: reranker}, nil
}

// NewOffline builds a Runtime backed entirely by the deterministic static
// implementations, with no network dependency. Used for tests and for an
// explicit offline/degraded mode; the vector store records
// StaticEmbedder's ModelName so a later switch to Ollama embeddings is
// caught as errors.ModelMismatch rather than silently mixing dimensions.
func NewOffline() *Runtime {
	return &Runtime{
		Embedder: NewStaticEmbedder(),
		Reranker: NewStaticReranker(),
	}
}

// Close releases resources held by the runtime's embedder.
func (r *Runtime) Close() error {
	if r.Embedder != nil {
		return r.Embedder.Close()
	}
	return nil
}
