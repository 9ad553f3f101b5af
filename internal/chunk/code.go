package chunk

import (
	"context"
	"fmt"
	"strings"
)

// codeSeparators splits at blank lines first, then at line boundaries,
// per spec.md §4.5 ("split at blank lines preferentially, then at line
// boundaries"). Unlike Markdown/Text, a space fallback is deliberately
// left out: cutting mid-line in source code rarely lands somewhere
// readable, so a long single line is hard-cut instead.
var codeSeparators = []string{"\n\n", "\n"}

// CodeChunker implements the Code chunking policy from spec.md §4.5 for
// files recognized by extension. It does not parse an AST: the teacher's
// tree-sitter symbol extraction doesn't survive into this engine (see
// DESIGN.md), so code is tiled the same way text is, with a
// language-tagged prefix.
type CodeChunker struct{}

func NewCodeChunker() *CodeChunker { return &CodeChunker{} }

func (c *CodeChunker) Chunk(ctx context.Context, doc *DocInput) ([]*Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}
	prefix := fmt.Sprintf("%s (%s)\n\n", doc.Title, doc.Language)
	return tileWithPrefix(doc.Content, prefix, codeSeparators), nil
}
