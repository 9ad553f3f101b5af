package search

import (
	"sort"

	"github.com/nans28/eywa/internal/store"
)

// candidate accumulates a chunk's raw scores from whichever of the Vector
// and Lexical candidate lists it appeared in.
type candidate struct {
	chunkID    string
	docID      string
	sourceID   string
	title      string
	body       string
	hasVector  bool
	hasLexical bool
	rawDense   float32
	rawLex     float64
	matched    []string
}

// fuse builds the union of the Vector and Lexical candidate lists,
// min-max normalizes each component independently (absent candidates
// score 0 on that component), and combines them by convex combination
// (spec.md §4.7 step 3): `fused = alpha*dense_norm + beta*lex_norm`.
// Returns the top KFused, sorted by fused score descending then chunk_id
// ascending for deterministic ties. Grounded on the teacher's
// pkg/searcher.FusionSearcher.fuseResults map-accumulation shape, with
// its RRF math replaced by min-max + convex combination per spec.md §4.7/§9.
func fuse(dense []store.VectorResult, lexical []store.LexicalResult, alpha, beta float64) ([]candidate, map[string]float64) {
	byChunk := make(map[string]*candidate)

	for _, d := range dense {
		byChunk[d.ChunkID] = &candidate{
			chunkID: d.ChunkID, docID: d.Row.DocID, sourceID: d.Row.SourceID,
			title: d.Row.Title, body: d.Row.Body, hasVector: true, rawDense: d.Score,
		}
	}
	for _, l := range lexical {
		c, ok := byChunk[l.ChunkID]
		if !ok {
			c = &candidate{chunkID: l.ChunkID}
			byChunk[l.ChunkID] = c
		}
		c.hasLexical = true
		c.rawLex = l.BM25
		c.matched = l.MatchedTerms
	}

	denseMin, denseMax := minMaxDense(dense)
	lexMin, lexMax := minMaxLexical(lexical)

	out := make([]candidate, 0, len(byChunk))
	fused := make(map[string]float64, len(byChunk))
	for id, c := range byChunk {
		var denseNorm, lexNorm float64
		if c.hasVector {
			denseNorm = normalize(float64(c.rawDense), denseMin, denseMax)
		}
		if c.hasLexical {
			lexNorm = normalize(c.rawLex, lexMin, lexMax)
		}
		fused[id] = alpha*denseNorm + beta*lexNorm
		out = append(out, *c)
	}

	sort.Slice(out, func(i, j int) bool {
		si, sj := fused[out[i].chunkID], fused[out[j].chunkID]
		if si != sj {
			return si > sj
		}
		return out[i].chunkID < out[j].chunkID
	})

	if len(out) > KFused {
		out = out[:KFused]
	}
	return out, fused
}

func minMaxDense(results []store.VectorResult) (lo, hi float64) {
	if len(results) == 0 {
		return 0, 0
	}
	lo, hi = float64(results[0].Score), float64(results[0].Score)
	for _, r := range results[1:] {
		v := float64(r.Score)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func minMaxLexical(results []store.LexicalResult) (lo, hi float64) {
	if len(results) == 0 {
		return 0, 0
	}
	lo, hi = results[0].BM25, results[0].BM25
	for _, r := range results[1:] {
		if r.BM25 < lo {
			lo = r.BM25
		}
		if r.BM25 > hi {
			hi = r.BM25
		}
	}
	return lo, hi
}

// normalize min-max scales v into [0,1]. A degenerate list (min == max,
// including the single-candidate case) maps the value to 1 so a sole
// surviving component is not zeroed out by its own normalization.
func normalize(v, lo, hi float64) float64 {
	if hi == lo {
		return 1
	}
	return (v - lo) / (hi - lo)
}
