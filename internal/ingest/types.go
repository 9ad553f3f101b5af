// Package ingest implements the Ingest Pipeline (spec.md §4.6): per
// document, dedup against the Content Store, chunk, batch-embed, then
// commit to Content, Vector, and Lexical stores in that fixed order under
// a per-source writer lock, with best-effort rollback on partial failure.
package ingest

// DocInput is a document submitted for ingestion. Content is UTF-8 text
// for every mime_hint except PDF, where PDFBytes carries the undecoded
// file and is extracted to text before chunking (spec.md §4.5: "PDF:
// extract text ... then treat as Text").
type DocInput struct {
	Title    string
	Content  string
	PDFBytes []byte

	// MimeHint classifies the document for chunking-policy dispatch (e.g.
	// "text/markdown", "application/pdf", "text/x-go"). Falls back to the
	// Title's file extension when empty.
	MimeHint string

	// Language overrides code-language detection when MimeHint alone
	// cannot identify it (e.g. a hint of "text/x-code" with no extension).
	Language string
}

// DocStatus is the per-document outcome of an ingest run.
type DocStatus string

const (
	DocIndexed      DocStatus = "indexed"
	DocDeduplicated DocStatus = "deduplicated"
	DocFailed       DocStatus = "failed"
)

// DocResult reports what happened to a single document.
type DocResult struct {
	Title      string
	DocID      string
	Status     DocStatus
	ChunkCount int
	Error      string

	// Inconsistent is set when a store failure forced a rollback and the
	// rollback itself failed, leaving the three stores disagreeing about
	// this document (spec.md §4.6 step 5: "InconsistentDoc diagnostic").
	Inconsistent bool
}

// IngestReport summarizes a synchronous Ingest call across all documents.
type IngestReport struct {
	SourceID     string
	Indexed      int
	Deduplicated int
	Failed       int
	Results      []DocResult
}

func (r *IngestReport) record(res DocResult) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case DocIndexed:
		r.Indexed++
	case DocDeduplicated:
		r.Deduplicated++
	case DocFailed:
		r.Failed++
	}
}
