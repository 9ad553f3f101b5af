package chunk

import "context"

// ChunkDocument dispatches doc to the chunker matching its content type,
// per spec.md §4.5's per-MIME-hint policy. PDFs have no dedicated
// chunker: their text is extracted upstream by ExtractPDFText and then
// "treated as Text", so ContentTypePDF falls through to TextChunker here.
func ChunkDocument(ctx context.Context, doc *DocInput) ([]*Chunk, error) {
	switch doc.ContentType {
	case ContentTypeMarkdown:
		return NewMarkdownChunker().Chunk(ctx, doc)
	case ContentTypeCode:
		return NewCodeChunker().Chunk(ctx, doc)
	default: // ContentTypeText, ContentTypePDF, and anything unrecognized
		return NewTextChunker().Chunk(ctx, doc)
	}
}
