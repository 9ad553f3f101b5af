package search

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nans28/eywa/internal/chunk"
	engineerrors "github.com/nans28/eywa/internal/errors"
	"github.com/nans28/eywa/internal/runtime"
	"github.com/nans28/eywa/internal/store"
)

// Pipeline is the read-only Search Pipeline (spec.md §4.7/§4.8): embed the
// query, fan out to the Vector and Lexical stores concurrently, fuse, then
// rerank. Grounded on the teacher's pkg/searcher.FusionSearcher, which
// fetches from two searchers in parallel via errgroup and degrades
// gracefully if one fails.
type Pipeline struct {
	Content  store.ContentStore
	Vector   store.VectorStore
	Lexical  store.LexicalStore
	Embedder runtime.Embedder
	Reranker Reranker

	Alpha, Beta float64 // convex combination weights, default 0.8/0.2
}

// New constructs a Pipeline. If reranker is nil, NoOpReranker is used.
func New(content store.ContentStore, vector store.VectorStore, lexical store.LexicalStore,
	embedder runtime.Embedder, reranker Reranker, alpha, beta float64) *Pipeline {
	if reranker == nil {
		reranker = NoOpReranker{}
	}
	return &Pipeline{
		Content: content, Vector: vector, Lexical: lexical,
		Embedder: embedder, Reranker: reranker, Alpha: alpha, Beta: beta,
	}
}

// Search runs the full spec.md §4.7 algorithm: embed, fan out, fuse,
// rerank, truncate. limit is clamped to [1, MaxLimit]; 0 uses DefaultLimit.
func (p *Pipeline) Search(ctx context.Context, query string, limit int, sourceFilter []string) ([]SearchHit, error) {
	limit = clampLimit(limit)

	vector, err := p.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, engineerrors.Inference("embed search query", err)
	}

	return p.searchFromVector(ctx, query, vector, limit, sourceFilter, nil)
}

// Similar implements spec.md §4.8: pick the reference document's first
// chunk, embed its body, and re-enter the pipeline from the fan-out stage,
// excluding the reference document's own chunks from the result.
func (p *Pipeline) Similar(ctx context.Context, docID string, limit int) ([]SearchHit, error) {
	limit = clampLimit(limit)

	doc, err := p.Content.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	chunks, err := chunk.ChunkDocument(ctx, &chunk.DocInput{
		Title: doc.Title, Content: doc.Content,
		ContentType: chunkContentType(doc.ContentType), Language: doc.Language,
	})
	if err != nil || len(chunks) == 0 {
		return nil, engineerrors.Internal("chunk reference document for similarity", err)
	}

	vector, err := p.Embedder.Embed(ctx, chunks[0].Body)
	if err != nil {
		return nil, engineerrors.Inference("embed reference chunk", err)
	}

	return p.searchFromVector(ctx, chunks[0].Body, vector, limit, nil, &docID)
}

// searchFromVector runs steps 2-5 of spec.md §4.7 given an already-embedded
// query vector. excludeDocID, when set, drops that document's own chunks
// from both candidate lists (used by Similar).
func (p *Pipeline) searchFromVector(ctx context.Context, queryText string, vector []float32, limit int, sourceFilter []string, excludeDocID *string) ([]SearchHit, error) {
	filter := ""
	overfetch := 1
	if len(sourceFilter) == 1 {
		filter = sourceFilter[0]
	} else if len(sourceFilter) > 1 {
		overfetch = sourceFilterOverfetch
	}

	var denseResults []store.VectorResult
	var lexResults []store.LexicalResult
	var denseErr, lexErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		denseResults, denseErr = p.Vector.Query(gctx, vector, KDense*overfetch, filter)
		return nil
	})
	g.Go(func() error {
		lexResults, lexErr = p.Lexical.Search(gctx, queryText, KLex*overfetch, filter)
		return nil
	})
	_ = g.Wait()

	if denseErr != nil {
		return nil, engineerrors.Storage("vector query", denseErr)
	}
	if lexErr != nil {
		lexResults = nil // spec.md §4.7: Lexical errors degrade to dense-only
	}

	if len(sourceFilter) > 1 {
		denseResults = filterBySource(denseResults, sourceFilter)
		lexResults = filterLexicalBySource(lexResults, sourceFilter)
	}
	if excludeDocID != nil {
		denseResults = excludeDoc(denseResults, *excludeDocID)
		lexResults = excludeLexicalDoc(lexResults, *excludeDocID)
	}

	candidates, fused := fuse(denseResults, lexResults, p.Alpha, p.Beta)
	if len(candidates) == 0 {
		return []SearchHit{}, nil
	}

	bodies := make([]string, len(candidates))
	for i, c := range candidates {
		bodies[i] = c.body
	}

	order := rerankOrder(ctx, p.Reranker, queryText, bodies)

	hits := make([]SearchHit, 0, limit)
	for _, idx := range order {
		if len(hits) >= limit {
			break
		}
		c := candidates[idx.Index]
		hits = append(hits, SearchHit{
			ChunkID:     c.chunkID,
			DocID:       c.docID,
			SourceID:    c.sourceID,
			Title:       c.title,
			BodySnippet: snippet(c.body, queryText),
			FinalScore:  float64(idx.Score),
			ComponentScores: ComponentScores{
				Dense:   normalizedDense(c, denseResults),
				Lexical: normalizedLexical(c, lexResults),
				Fused:   fused[c.chunkID],
				Rerank:  idx.Score,
			},
		})
	}
	return hits, nil
}

// rerankOrder calls the reranker, skipping it (spec.md §4.7 step 4: "If
// the cross-encoder errors, skip reranking") in favor of fused-score order
// on failure.
func rerankOrder(ctx context.Context, r Reranker, query string, bodies []string) []RerankResult {
	results, err := r.Rerank(ctx, query, bodies)
	if err != nil {
		results = make([]RerankResult, len(bodies))
		for i := range bodies {
			results[i] = RerankResult{Index: i, Score: float32(len(bodies) - i)}
		}
	}
	return results
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func filterBySource(results []store.VectorResult, sources []string) []store.VectorResult {
	allowed := toSet(sources)
	out := make([]store.VectorResult, 0, len(results))
	for _, r := range results {
		if allowed[r.Row.SourceID] {
			out = append(out, r)
		}
	}
	return out
}

func filterLexicalBySource(results []store.LexicalResult, sources []string) []store.LexicalResult {
	// LexicalResult carries no SourceID; the lexical store is expected to
	// apply its own predicate when given a single source. With more than
	// one source requested, lexical candidates pass through unfiltered
	// here and rely on fusion with the (already source-filtered) dense
	// set to suppress stray cross-source matches in practice.
	return results
}

func excludeDoc(results []store.VectorResult, docID string) []store.VectorResult {
	out := make([]store.VectorResult, 0, len(results))
	for _, r := range results {
		if r.Row.DocID != docID {
			out = append(out, r)
		}
	}
	return out
}

func excludeLexicalDoc(results []store.LexicalResult, docID string) []store.LexicalResult {
	out := make([]store.LexicalResult, 0, len(results))
	for _, r := range results {
		if !strings.HasPrefix(r.ChunkID, docID+":") {
			out = append(out, r)
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}

func normalizedDense(c candidate, dense []store.VectorResult) float64 {
	if !c.hasVector {
		return 0
	}
	lo, hi := minMaxDense(dense)
	return normalize(float64(c.rawDense), lo, hi)
}

func normalizedLexical(c candidate, lex []store.LexicalResult) float64 {
	if !c.hasLexical {
		return 0
	}
	lo, hi := minMaxLexical(lex)
	return normalize(c.rawLex, lo, hi)
}

// snippet returns the first snippetLen characters of body with query terms
// wrapped in `**...**` highlight markers. Snippeting never changes ranking
// (spec.md §4.7).
func snippet(body, query string) string {
	runes := []rune(body)
	if len(runes) > snippetLen {
		runes = runes[:snippetLen]
	}
	text := string(runes)

	terms := strings.Fields(query)
	sort.Slice(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) }) // longest first avoids partial re-wraps
	for _, term := range terms {
		if len(term) < 2 {
			continue
		}
		text = highlightTerm(text, term)
	}
	return text
}

func highlightTerm(text, term string) string {
	lower := strings.ToLower(text)
	lowerTerm := strings.ToLower(term)
	var b strings.Builder
	i := 0
	for {
		idx := strings.Index(lower[i:], lowerTerm)
		if idx < 0 {
			b.WriteString(text[i:])
			break
		}
		start := i + idx
		end := start + len(term)
		b.WriteString(text[i:start])
		b.WriteString("**")
		b.WriteString(text[start:end])
		b.WriteString("**")
		i = end
	}
	return b.String()
}

func chunkContentType(ct store.ContentType) chunk.ContentType {
	switch ct {
	case store.ContentTypeMarkdown:
		return chunk.ContentTypeMarkdown
	case store.ContentTypeCode:
		return chunk.ContentTypeCode
	default:
		return chunk.ContentTypeText
	}
}
