// Package chunk splits a document's content into contextualized,
// size-bounded chunks ready for embedding and lexical indexing. Each
// chunker is chosen by the document's content type; all share the same
// size/overlap policy and produce chunks whose body slices, concatenated
// in ordinal order, reconstruct the chunked content.
package chunk

import "context"

// ContentType selects which chunking policy applies to a document.
type ContentType string

const (
	ContentTypeMarkdown ContentType = "markdown"
	ContentTypeText     ContentType = "text"
	ContentTypeCode     ContentType = "code"
	ContentTypePDF      ContentType = "pdf"
)

const (
	// MaxBodyChars bounds a chunk's body. "Characters" is read as bytes
	// here, consistent with the byte_offset/byte_len fields chunks carry.
	MaxBodyChars = 1000
	// OverlapChars is how much of the previous chunk's body tail is
	// repeated at the front of the next chunk's embedded text, for
	// retrieval context continuity. It is never part of body, so body
	// slices still tile the document without gaps or repeats.
	OverlapChars = 200
)

// DocInput is what a chunker needs from a document: enough to build the
// contextual prefix and to know which splitting policy applies.
type DocInput struct {
	Title       string
	Content     string
	ContentType ContentType
	// Language is the code chunker's display language, e.g. "go",
	// "python". Ignored by other chunkers.
	Language string
}

// Chunk is a bounded, contextualized slice of a document. It does not
// carry doc_id/chunk_id/source_id: those are assigned by the ingest
// pipeline once a document's doc_id is known, keyed off ChunkID =
// doc_id + ":" + Ordinal.
type Chunk struct {
	Ordinal     int
	Text        string // prefix + overlap + body: what gets embedded and indexed
	Body        string // body alone, for display and for coverage reconstruction
	ByteOffset  int64
	ByteLen     int64
	SectionPath []string // markdown header titles, outermost first; nil otherwise
}

// Chunker splits one document into an ordered sequence of chunks.
type Chunker interface {
	Chunk(ctx context.Context, doc *DocInput) ([]*Chunk, error)
}
