// Package eywa is the stable embedded API (spec.md §6: "Embedded API
// (consumed by CLI, HTTP, MCP): all operations in §4"). Engine opens the
// on-disk layout described in spec.md §6, wires the Model Runtime, the
// three stores, and the Ingest/Search pipelines together, and exposes one
// method per domain operation so the CLI, HTTP, and MCP front-ends share a
// single code path rather than each re-assembling the stack.
//
// Engine follows the usual startup sequence (load config, build runtime,
// open stores, construct pipelines) but collects it into a plain
// constructor function rather than a cobra PersistentPreRunE hook, since
// this stack is shared by three different front-ends, not just the CLI.
package eywa

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nans28/eywa/internal/chunk"
	"github.com/nans28/eywa/internal/config"
	engineerrors "github.com/nans28/eywa/internal/errors"
	"github.com/nans28/eywa/internal/ingest"
	"github.com/nans28/eywa/internal/registry"
	"github.com/nans28/eywa/internal/runtime"
	"github.com/nans28/eywa/internal/search"
	"github.com/nans28/eywa/internal/store"
)

// Engine is the opened, ready-to-use eywa stack: config, runtime, stores,
// registries, and the Ingest/Search pipelines built on top of them.
type Engine struct {
	Config  *config.Config
	Runtime *runtime.Runtime

	Content store.ContentStore
	Vector  store.VectorStore
	Lexical store.LexicalStore

	Sources *registry.SourceRegistry
	Jobs    *registry.JobRegistry
	locks   *registry.SourceLocks

	Ingest *ingest.Pipeline
	Async  *ingest.AsyncRunner
	Search *search.Pipeline
}

// Open loads configuration rooted at root (config.DefaultRoot() if empty),
// ensures the on-disk layout exists, and wires a full Engine backed by the
// Ollama-based runtime. Use OpenOffline for a network-free stack.
func Open(ctx context.Context, root string) (*Engine, error) {
	if root == "" {
		root = config.DefaultRoot()
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	rt, err := runtime.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return build(cfg, rt)
}

// OpenOffline wires an Engine against cfg using the deterministic,
// network-free runtime (internal/runtime.NewOffline). Used by tests and by
// the CLI's --offline flag.
func OpenOffline(cfg *config.Config) (*Engine, error) {
	return build(cfg, runtime.NewOffline())
}

func build(cfg *config.Config, rt *runtime.Runtime) (*Engine, error) {
	if err := cfg.EnsureLayout(); err != nil {
		return nil, err
	}

	content, err := store.NewSQLiteContentStore(cfg.ContentDBPath())
	if err != nil {
		return nil, err
	}

	binding := store.ModelBinding{ModelID: rt.Embedder.ModelName(), Dimension: rt.Embedder.Dimensions()}
	vector, err := store.NewHNSWVectorStore(filepath.Join(cfg.VectorDir(), "index.hnsw"), binding)
	if err != nil {
		_ = content.Close()
		return nil, err
	}

	lexical, err := store.NewBleveLexicalStore(cfg.LexicalDir())
	if err != nil {
		_ = content.Close()
		_ = vector.Close()
		return nil, err
	}

	sources, err := registry.NewSourceRegistry(filepath.Join(cfg.ContentRoot, "data"))
	if err != nil {
		_ = content.Close()
		_ = vector.Close()
		_ = lexical.Close()
		return nil, err
	}

	jobs := registry.NewJobRegistry(time.Duration(cfg.Jobs.RetentionSeconds) * time.Second)
	locks := registry.NewSourceLocks()

	ip := ingest.New(content, vector, lexical, rt.Embedder, locks, sources)
	async := ingest.NewAsyncRunner(ip, jobs)

	var reranker search.Reranker = search.NoOpReranker{}
	if cfg.Search.RerankEnabled {
		reranker = search.NewCrossEncoderReranker(rt.Reranker)
	}
	sp := search.New(content, vector, lexical, rt.Embedder, reranker, cfg.Search.DenseWeight, cfg.Search.LexicalWeight)

	return &Engine{
		Config: cfg, Runtime: rt,
		Content: content, Vector: vector, Lexical: lexical,
		Sources: sources, Jobs: jobs, locks: locks,
		Ingest: ip, Async: async, Search: sp,
	}, nil
}

// Close releases every resource the Engine opened. Jobs is stopped first
// so its reaper goroutine cannot touch a registry mid-close.
func (e *Engine) Close() error {
	e.Jobs.Stop()

	var firstErr error
	for _, closer := range []func() error{e.Content.Close, e.Vector.Close, e.Lexical.Close, e.Runtime.Close} {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// IngestSync runs a synchronous ingest call (spec.md §4.6).
func (e *Engine) IngestSync(ctx context.Context, sourceID string, docs []*ingest.DocInput) (*ingest.IngestReport, error) {
	return e.Ingest.Ingest(ctx, sourceID, docs)
}

// IngestAsync queues a batch for background ingestion and returns its job_id
// immediately (spec.md §4.6's async path). It returns a Busy error if the
// queue's bounded pending-document capacity (spec.md §5) is exceeded.
func (e *Engine) IngestAsync(ctx context.Context, sourceID string, docs []*ingest.DocInput) (string, error) {
	return e.Async.Queue(ctx, sourceID, docs)
}

// JobStatus returns the current state of a queued ingest job.
func (e *Engine) JobStatus(jobID string) (registry.Job, bool) {
	return e.Jobs.Get(jobID)
}

// CancelJob requests cooperative cancellation of a queued ingest job.
func (e *Engine) CancelJob(jobID string) {
	e.Async.Cancel(jobID)
}

// Query runs the Search Pipeline (spec.md §4.7).
func (e *Engine) Query(ctx context.Context, query string, limit int, sourceFilter []string) ([]search.SearchHit, error) {
	return e.Search.Search(ctx, query, limit, sourceFilter)
}

// SimilarDocuments runs Similar-Documents (spec.md §4.8).
func (e *Engine) SimilarDocuments(ctx context.Context, docID string, limit int) ([]search.SearchHit, error) {
	return e.Search.Similar(ctx, docID, limit)
}

// ListSources returns every known source, sorted by source_id.
func (e *Engine) ListSources() []*store.Source {
	return e.Sources.List()
}

// ListDocuments returns the metadata-only projection of every document in
// a source.
func (e *Engine) ListDocuments(ctx context.Context, sourceID string) ([]*store.DocMeta, error) {
	return e.Content.List(ctx, sourceID)
}

// GetDocument fetches a document's full content.
func (e *Engine) GetDocument(ctx context.Context, docID string) (*store.Document, error) {
	return e.Content.Get(ctx, docID)
}

// DeleteDocument removes a single document from all three stores and
// adjusts its source's counters. Unlike ingest, deletion has no multi-step
// rollback: each store's delete is idempotent, so a partial failure here
// is retried by calling Delete again rather than undone.
func (e *Engine) DeleteDocument(ctx context.Context, docID string) error {
	doc, err := e.Content.Get(ctx, docID)
	if err != nil {
		return err
	}

	unlock := e.locks.Lock(doc.SourceID)
	defer unlock()

	if err := e.Vector.DeleteByDoc(ctx, docID); err != nil {
		return engineerrors.Storage("delete document from vector store", err)
	}
	if err := e.Lexical.DeleteByDoc(ctx, docID); err != nil {
		return engineerrors.Storage("delete document from lexical store", err)
	}
	if err := e.Content.Delete(ctx, docID); err != nil {
		return engineerrors.Storage("delete document from content store", err)
	}

	chunkCount, err := chunkCountOf(ctx, doc)
	if err != nil {
		return err
	}
	if err := e.Sources.AdjustCounts(doc.SourceID, -1, -chunkCount); err != nil {
		return err
	}
	return nil
}

// DeleteSource removes every document belonging to sourceID across all
// three stores, then drops the source record itself.
func (e *Engine) DeleteSource(ctx context.Context, sourceID string) error {
	unlock := e.locks.Lock(sourceID)
	defer unlock()

	docs, err := e.Content.List(ctx, sourceID)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := e.Content.Delete(ctx, d.DocID); err != nil {
			return engineerrors.Storage(fmt.Sprintf("delete document %s", d.DocID), err)
		}
	}
	if err := e.Vector.DeleteBySource(ctx, sourceID); err != nil {
		return engineerrors.Storage("delete source from vector store", err)
	}
	if err := e.Lexical.DeleteBySource(ctx, sourceID); err != nil {
		return engineerrors.Storage("delete source from lexical store", err)
	}
	return e.Sources.Delete(sourceID)
}

// Reset deletes every document across every known source, returning the
// engine to an empty content-free state while keeping the opened stores
// and runtime intact.
func (e *Engine) Reset(ctx context.Context) error {
	for _, s := range e.Sources.List() {
		if err := e.DeleteSource(ctx, s.SourceID); err != nil {
			return err
		}
	}
	return nil
}

// Info summarizes the engine's current configuration and content, backing
// `eywa info` / `GET /api/info`.
type Info struct {
	ContentRoot    string `json:"content_root"`
	EmbeddingModel string `json:"embedding_model"`
	RerankerModel  string `json:"reranker_model"`
	Device         string `json:"device"`
	SourceCount    int    `json:"source_count"`
	DocCount       int    `json:"doc_count"`
	ChunkCount     int    `json:"chunk_count"`
}

// Info reports the engine's configuration and aggregate content counters.
func (e *Engine) Info() Info {
	info := Info{
		ContentRoot:    e.Config.ContentRoot,
		EmbeddingModel: e.Config.EmbeddingModel.ID,
		RerankerModel:  e.Config.RerankerModel.ID,
		Device:         string(e.Config.Device),
	}
	for _, s := range e.Sources.List() {
		info.SourceCount++
		info.DocCount += s.DocCount
		info.ChunkCount += s.ChunkCount
	}
	return info
}

// chunkCountOf recovers the chunk count a deleted document contributed.
// Neither Document nor DocMeta carries it, so it is re-derived by running
// the same chunker the Ingest Pipeline used, the same technique
// search.Pipeline.Similar uses to recover a reference chunk's body.
func chunkCountOf(ctx context.Context, doc *store.Document) (int, error) {
	chunks, err := chunk.ChunkDocument(ctx, &chunk.DocInput{
		Title: doc.Title, Content: doc.Content,
		ContentType: pipelineContentType(doc.ContentType), Language: doc.Language,
	})
	if err != nil {
		return 0, engineerrors.Internal("re-chunk document to recover chunk count", err)
	}
	return len(chunks), nil
}

func pipelineContentType(ct store.ContentType) chunk.ContentType {
	switch ct {
	case store.ContentTypeMarkdown:
		return chunk.ContentTypeMarkdown
	case store.ContentTypeCode:
		return chunk.ContentTypeCode
	default:
		return chunk.ContentTypeText
	}
}
