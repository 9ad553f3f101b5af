// Package search implements the read-only Search Pipeline: embed the
// query, fan out to the Vector and Lexical stores concurrently, fuse their
// candidate lists by min-max normalization plus convex combination, rerank
// the fused top set with a cross-encoder, and truncate to the caller's
// limit (spec.md §4.7).
package search

import "context"

// Default and bound constants from spec.md §4.7.
const (
	KDense       = 50 // candidates fetched from the Vector Store
	KLex         = 50 // candidates fetched from the Lexical Store
	KFused       = 20 // candidates kept after fusion, before reranking
	DefaultLimit = 5
	MaxLimit     = 50

	sourceFilterOverfetch = 4 // multiplier when post-filtering multi-source queries
	snippetLen            = 300
)

// ComponentScores exposes the per-stage scores behind a hit's final
// ranking, for callers that want to explain a result.
type ComponentScores struct {
	Dense   float64 // min-max normalized vector similarity, 0 if absent from that list
	Lexical float64 // min-max normalized BM25 score, 0 if absent from that list
	Fused   float64 // alpha*Dense + beta*Lexical
	Rerank  float32 // cross-encoder logit; a decreasing placeholder keeping fused order if reranking is disabled or fails
}

// SearchHit is a single ranked result (spec.md §4.7).
type SearchHit struct {
	ChunkID         string
	DocID           string
	SourceID        string
	Title           string
	BodySnippet     string
	FinalScore      float64
	ComponentScores ComponentScores
}

// Reranker scores and reorders candidate bodies against a query. Shaped
// after the teacher's internal/search.Reranker so a NoOpReranker can stand
// in when the cross-encoder is disabled or errors.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string) ([]RerankResult, error)
	Available(ctx context.Context) bool
}

// RerankResult carries a cross-encoder score back to its original
// position in the candidate slice passed to Rerank.
type RerankResult struct {
	Index int
	Score float32
}
