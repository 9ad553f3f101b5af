package ingest

import (
	"path/filepath"
	"strings"

	"github.com/nans28/eywa/internal/chunk"
	"github.com/nans28/eywa/internal/store"
)

// classify maps a DocInput's mime_hint (falling back to its title's file
// extension) to the store's persisted ContentType, the Chunker's
// ContentType, and a code language hint, per spec.md §3/§4.5.
func classify(in *DocInput) (store.ContentType, chunk.ContentType, string) {
	hint := strings.ToLower(strings.TrimSpace(in.MimeHint))

	switch {
	case strings.Contains(hint, "pdf"):
		return store.ContentTypePDF, chunk.ContentTypePDF, ""
	case strings.Contains(hint, "markdown"):
		return store.ContentTypeMarkdown, chunk.ContentTypeMarkdown, ""
	}

	ext := strings.ToLower(filepath.Ext(in.Title))
	if ext == ".md" || ext == ".markdown" {
		return store.ContentTypeMarkdown, chunk.ContentTypeMarkdown, ""
	}

	if lang, ok := chunk.DetectCodeLanguage(ext); ok {
		return store.ContentTypeCode, chunk.ContentTypeCode, lang
	}
	if strings.HasPrefix(hint, "text/x-") || strings.Contains(hint, "code") {
		if lang := in.Language; lang != "" {
			return store.ContentTypeCode, chunk.ContentTypeCode, lang
		}
	}

	return store.ContentTypeText, chunk.ContentTypeText, ""
}
