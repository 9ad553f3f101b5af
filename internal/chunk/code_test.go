package chunk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TS01: The prefix names both the document title and the language.
func TestCodeChunker_Prefix_IncludesTitleAndLanguage(t *testing.T) {
	doc := &DocInput{
		Title:       "main.go",
		ContentType: ContentTypeCode,
		Language:    "go",
		Content:     "package main\n\nfunc main() {}\n",
	}

	chunks, err := NewCodeChunker().Chunk(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.True(t, strings.HasPrefix(chunks[0].Text, "main.go (go)\n\n"))
}

// TS02: Long source splits preferentially at blank lines, staying within
// the body size bound.
func TestCodeChunker_LongSource_SplitsAtBlankLines(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 60; i++ {
		sb.WriteString("func handlerN() {\n\treturn\n}\n\n")
	}
	doc := &DocInput{Title: "handlers.go", ContentType: ContentTypeCode, Language: "go", Content: sb.String()}

	chunks, err := NewCodeChunker().Chunk(context.Background(), doc)
	require.NoError(t, err)
	require.True(t, len(chunks) > 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Body), MaxBodyChars)
	}
}

// TS03: Body slices reconstruct the original source exactly.
func TestCodeChunker_BodySlices_TileWithoutGaps(t *testing.T) {
	content := strings.Repeat("x := computeSomething()\n", 200)
	doc := &DocInput{Title: "file.go", ContentType: ContentTypeCode, Language: "go", Content: content}

	chunks, err := NewCodeChunker().Chunk(context.Background(), doc)
	require.NoError(t, err)

	var rebuilt strings.Builder
	for _, c := range chunks {
		rebuilt.WriteString(c.Body)
	}
	assert.Equal(t, content, rebuilt.String())
}

// TS04: Empty content yields no chunks.
func TestCodeChunker_EmptyContent_ReturnsNoChunks(t *testing.T) {
	doc := &DocInput{Title: "empty.go", ContentType: ContentTypeCode, Language: "go", Content: ""}

	chunks, err := NewCodeChunker().Chunk(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDetectCodeLanguage_RecognizesExtension(t *testing.T) {
	lang, ok := DetectCodeLanguage(".go")
	require.True(t, ok)
	assert.Equal(t, "go", lang)

	lang, ok = DetectCodeLanguage("PY")
	require.True(t, ok)
	assert.Equal(t, "python", lang)

	_, ok = DetectCodeLanguage(".unknownext")
	assert.False(t, ok)
}

func TestIsCodeExtension(t *testing.T) {
	assert.True(t, IsCodeExtension(".rs"))
	assert.False(t, IsCodeExtension(".pdf"))
}
