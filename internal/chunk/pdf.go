package chunk

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	engineerrors "github.com/nans28/eywa/internal/errors"
)

// ExtractPDFText decodes a PDF's text content, per spec.md §4.5 ("PDF:
// extract text with a PDF decoder, then treat as Text"). The ingest
// pipeline calls this before constructing the Document, so the stored
// Document.Content is already plain text; the chunker dispatch in
// chunk.go then routes ContentTypePDF documents through the same
// TextChunker as any other prose.
//
// A decode failure (malformed, encrypted, or image-only PDFs with no
// extractable text layer) is reported as InvalidInput: spec.md leaves the
// PDF decoder's failure handling open, and an unreadable upload is a
// caller error, not an engine fault.
func ExtractPDFText(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", engineerrors.InvalidInput("decode PDF", err).
			WithSuggestion("the file may be corrupted, encrypted, or not a PDF")
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", engineerrors.InvalidInput("PDF has no extractable text", nil).
			WithSuggestion("the PDF may be scanned images with no text layer")
	}
	return text, nil
}
