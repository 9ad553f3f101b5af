package chunk

import (
	"context"
	"strings"
)

var textSeparators = []string{"\n\n", "\n", " "}

// TextChunker implements the Text/unknown-MIME chunking policy from
// spec.md §4.5: paragraph-aware splitting with the same 1000/200
// size/overlap rule as Markdown, prefixed with just the document title.
type TextChunker struct{}

func NewTextChunker() *TextChunker { return &TextChunker{} }

func (c *TextChunker) Chunk(ctx context.Context, doc *DocInput) ([]*Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}
	return tileWithPrefix(doc.Content, doc.Title+"\n\n", textSeparators), nil
}
