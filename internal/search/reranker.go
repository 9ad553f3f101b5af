package search

import (
	"context"
	"sort"

	"github.com/nans28/eywa/internal/runtime"
)

// CrossEncoderReranker adapts an internal/runtime.Reranker (raw,
// unnormalized logits) to the search package's Reranker shape, sorting
// candidates by score descending the way spec.md §4.7 step 4 requires.
type CrossEncoderReranker struct {
	backing runtime.Reranker
}

// NewCrossEncoderReranker wraps a Model Runtime reranker for use in the
// Search Pipeline.
func NewCrossEncoderReranker(backing runtime.Reranker) *CrossEncoderReranker {
	return &CrossEncoderReranker{backing: backing}
}

// Rerank scores every document against query and returns results ordered
// by score descending; ties keep their original relative order.
func (c *CrossEncoderReranker) Rerank(ctx context.Context, query string, documents []string) ([]RerankResult, error) {
	scores, err := c.backing.Rerank(ctx, query, documents)
	if err != nil {
		return nil, err
	}

	results := make([]RerankResult, len(scores))
	for i, s := range scores {
		results[i] = RerankResult{Index: i, Score: s}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// Available reports whether the backing cross-encoder is ready.
func (c *CrossEncoderReranker) Available(ctx context.Context) bool {
	return c.backing.Available(ctx)
}

// NoOpReranker returns candidates in their original order, each assigned a
// strictly decreasing score so a stable sort downstream preserves that
// order. Used when reranking is disabled or the cross-encoder errors
// (spec.md §4.7: "If the cross-encoder errors, skip reranking").
type NoOpReranker struct{}

func (NoOpReranker) Rerank(_ context.Context, _ string, documents []string) ([]RerankResult, error) {
	results := make([]RerankResult, len(documents))
	for i := range documents {
		results[i] = RerankResult{Index: i, Score: 1.0 - float32(i)*0.001}
	}
	return results, nil
}

func (NoOpReranker) Available(_ context.Context) bool { return true }

var (
	_ Reranker = (*CrossEncoderReranker)(nil)
	_ Reranker = NoOpReranker{}
)
