// Package store provides the three-store persistence layer: a compressed
// content store (SQLite), a vector store (HNSW), and a lexical store
// (bleve BM25). The Ingest Pipeline is the sole writer across all three;
// the Search Pipeline holds read views.
package store

import (
	"context"
	"time"
)

// ContentType classifies a Document for chunking-policy dispatch, derived
// from its mime_hint at ingest time.
type ContentType string

const (
	ContentTypeMarkdown ContentType = "markdown"
	ContentTypeText     ContentType = "text"
	ContentTypeCode     ContentType = "code"
	ContentTypePDF      ContentType = "pdf"
)

// Document is a unit submitted by the user (spec.md §3).
type Document struct {
	DocID         string // hash(source_id, title, content), 128 bits hex
	SourceID      string
	Title         string
	Content       string // UTF-8 text, uncompressed at the API boundary
	ContentSHA256 string
	MimeHint      string
	ContentType   ContentType
	Language      string // extension-detected hint, code documents only
	CreatedAt     time.Time
	ByteLen       int64
}

// DocMeta is the metadata-only projection returned by List, without the
// (potentially large) content body.
type DocMeta struct {
	DocID         string
	SourceID      string
	Title         string
	ContentSHA256 string
	MimeHint      string
	ContentType   ContentType
	CreatedAt     time.Time
	ByteLen       int64
}

// Chunk is a contiguous slice of a Document with added retrieval context
// (spec.md §3). ChunkID is `doc_id || ":" || ordinal`; chunks of a document
// are ordered by Ordinal and their Body slices cover the document without
// gaps.
type Chunk struct {
	ChunkID     string
	DocID       string
	SourceID    string
	Ordinal     int
	Text        string // embedded text: context prefix + body
	Body        string // text without prefix, for display
	ByteOffset  int64
	ByteLen     int64
	SectionPath []string // header titles, markdown only
	Title       string   // parent document title, denormalized for Vector/Lexical rows
}

// Source is a lightweight logical grouping record with counters maintained
// transactionally alongside writes.
type Source struct {
	SourceID    string
	DisplayName string
	CreatedAt   time.Time
	DocCount    int
	ChunkCount  int
}

// VectorRow is the unit upserted into the Vector Store: a chunk's
// embedding plus the denormalized fields needed to build a search result
// without a round trip to the Content Store.
type VectorRow struct {
	ChunkID  string
	SourceID string
	DocID    string
	Vector   []float32
	Body     string
	Title    string
}

// VectorResult is a single Vector Store query hit.
type VectorResult struct {
	ChunkID string
	Score   float32 // cosine similarity on L2-normalized vectors, higher is better
	Row     VectorRow
}

// LexicalRow is the unit upserted into the Lexical Store.
type LexicalRow struct {
	ChunkID  string
	SourceID string
	DocID    string
	Text     string
	Body     string
	Title    string
}

// LexicalResult is a single Lexical Store query hit.
type LexicalResult struct {
	ChunkID  string
	BM25     float64
	MatchedTerms []string
}

// ContentStore durably persists full document content, compressed, plus
// its searchable metadata columns (spec.md §4.2).
type ContentStore interface {
	// Put is idempotent on DocID.
	Put(ctx context.Context, doc *Document) error
	Get(ctx context.Context, docID string) (*Document, error)
	// Delete is idempotent.
	Delete(ctx context.Context, docID string) error
	List(ctx context.Context, sourceID string) ([]*DocMeta, error)
	Close() error
}

// VectorStore persists chunk embeddings and answers kNN queries by cosine
// similarity (spec.md §4.3). Implementations batch writes in memory and
// flush on threshold, idle timeout, shutdown, or a read-your-writes read.
type VectorStore interface {
	Upsert(ctx context.Context, rows []VectorRow) error
	DeleteByDoc(ctx context.Context, docID string) error
	DeleteBySource(ctx context.Context, sourceID string) error
	Query(ctx context.Context, vector []float32, k int, sourceFilter string) ([]VectorResult, error)
	// Flush forces any batched writes to the backing store, establishing
	// read-your-writes for the calling process.
	Flush(ctx context.Context) error
	Close() error
}

// LexicalStore is a BM25 inverted index over chunk text (spec.md §4.4).
type LexicalStore interface {
	Upsert(ctx context.Context, rows []LexicalRow) error
	DeleteByDoc(ctx context.Context, docID string) error
	DeleteBySource(ctx context.Context, sourceID string) error
	Search(ctx context.Context, queryText string, k int, sourceFilter string) ([]LexicalResult, error)
	Close() error
}

// ModelBinding is the (embedding_model_id, dimension) pair the Vector
// Store records on first write. A mismatch on open is fatal until reset
// or re-index (spec.md §3, §4.3).
type ModelBinding struct {
	ModelID   string
	Dimension int
}
