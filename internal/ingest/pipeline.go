package ingest

import (
	"context"
	"time"

	"github.com/nans28/eywa/internal/chunk"
	engineerrors "github.com/nans28/eywa/internal/errors"
	"github.com/nans28/eywa/internal/registry"
	"github.com/nans28/eywa/internal/runtime"
	"github.com/nans28/eywa/internal/store"
)

// Pipeline wires the three stores, the embedder, and the Source & Job
// Registry's writer locks into the document-level algorithm of spec.md
// §4.6, generalized from the teacher's pkg/indexer.HybridIndexer (which
// fans a single Index call out to a BM25 and a Vector indexer) to a
// three-store commit with an ordered rollback path.
type Pipeline struct {
	Content  store.ContentStore
	Vector   store.VectorStore
	Lexical  store.LexicalStore
	Embedder runtime.Embedder
	Locks    *registry.SourceLocks
	Sources  *registry.SourceRegistry
}

// New constructs a Pipeline from its store and runtime dependencies.
func New(content store.ContentStore, vector store.VectorStore, lexical store.LexicalStore,
	embedder runtime.Embedder, locks *registry.SourceLocks, sources *registry.SourceRegistry) *Pipeline {
	return &Pipeline{
		Content:  content,
		Vector:   vector,
		Lexical:  lexical,
		Embedder: embedder,
		Locks:    locks,
		Sources:  sources,
	}
}

// Ingest runs the synchronous ingest contract: every document is
// attempted, failures are recorded rather than aborting the whole call.
func (p *Pipeline) Ingest(ctx context.Context, sourceID string, docs []*DocInput) (*IngestReport, error) {
	report := &IngestReport{SourceID: sourceID}
	for _, in := range docs {
		report.record(p.ingestOne(ctx, sourceID, in))
	}
	return report, nil
}

// ingestOne runs the five-step per-document algorithm of spec.md §4.6.
func (p *Pipeline) ingestOne(ctx context.Context, sourceID string, in *DocInput) DocResult {
	contentType, chunkType, language := classify(in)

	content := in.Content
	if contentType == store.ContentTypePDF {
		text, err := chunk.ExtractPDFText(in.PDFBytes)
		if err != nil {
			return DocResult{Title: in.Title, Status: DocFailed, Error: err.Error()}
		}
		content = text
	}

	docID := computeDocID(sourceID, in.Title, content)

	// Step 1: dedup against the Content Store.
	if _, err := p.Content.Get(ctx, docID); err == nil {
		return DocResult{Title: in.Title, DocID: docID, Status: DocDeduplicated}
	} else if engineerrors.GetCode(err) != engineerrors.CodeNotFound {
		return DocResult{Title: in.Title, DocID: docID, Status: DocFailed, Error: err.Error()}
	}

	// Step 2: chunk.
	chunks, err := chunk.ChunkDocument(ctx, &chunk.DocInput{
		Title:       in.Title,
		Content:     content,
		ContentType: chunkType,
		Language:    language,
	})
	if err != nil {
		return DocResult{Title: in.Title, DocID: docID, Status: DocFailed, Error: err.Error()}
	}

	// Step 3: batch-embed; inference error aborts the document before any
	// store is touched.
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedBatched(ctx, p.Embedder, texts)
	if err != nil {
		return DocResult{Title: in.Title, DocID: docID, Status: DocFailed,
			Error: engineerrors.Inference("embed chunks for document", err).WithDetail("doc_id", docID).Error()}
	}

	doc := &store.Document{
		DocID:         docID,
		SourceID:      sourceID,
		Title:         in.Title,
		Content:       content,
		ContentSHA256: contentSHA256(content),
		MimeHint:      in.MimeHint,
		ContentType:   contentType,
		Language:      language,
		CreatedAt:     time.Now().UTC(),
		ByteLen:       int64(len(content)),
	}

	vectorRows := make([]store.VectorRow, len(chunks))
	lexicalRows := make([]store.LexicalRow, len(chunks))
	for i, c := range chunks {
		id := chunkID(docID, c.Ordinal)
		vectorRows[i] = store.VectorRow{ChunkID: id, SourceID: sourceID, DocID: docID, Vector: vectors[i], Body: c.Body, Title: in.Title}
		lexicalRows[i] = store.LexicalRow{ChunkID: id, SourceID: sourceID, DocID: docID, Text: c.Text, Body: c.Body, Title: in.Title}
	}

	// Step 4: commit Content -> Vector -> Lexical -> counters, serialized
	// per source (spec.md §4.6: "under the source's writer lock").
	unlock := p.Locks.Lock(sourceID)
	defer unlock()

	if err := p.Content.Put(ctx, doc); err != nil {
		return DocResult{Title: in.Title, DocID: docID, Status: DocFailed, Error: err.Error()}
	}

	if err := p.Vector.Upsert(ctx, vectorRows); err != nil {
		inconsistent := p.Content.Delete(ctx, docID) != nil
		return DocResult{Title: in.Title, DocID: docID, Status: DocFailed, Error: err.Error(), Inconsistent: inconsistent}
	}

	if err := p.Lexical.Upsert(ctx, lexicalRows); err != nil {
		vecErr := p.Vector.DeleteByDoc(ctx, docID)
		contentErr := p.Content.Delete(ctx, docID)
		return DocResult{Title: in.Title, DocID: docID, Status: DocFailed, Error: err.Error(), Inconsistent: vecErr != nil || contentErr != nil}
	}

	if p.Sources != nil {
		_, _ = p.Sources.GetOrCreate(sourceID)
		_ = p.Sources.AdjustCounts(sourceID, 1, len(chunks))
	}

	return DocResult{Title: in.Title, DocID: docID, Status: DocIndexed, ChunkCount: len(chunks)}
}

// embedBatched embeds texts in runtime.DefaultBatchSize groups (spec.md
// §4.6 step 3: "Embed all chunks in batches via Model Runtime").
func embedBatched(ctx context.Context, embedder runtime.Embedder, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += runtime.DefaultBatchSize {
		end := start + runtime.DefaultBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}
