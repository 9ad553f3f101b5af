package chunk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TS01: Short content becomes a single chunk prefixed with the title.
func TestTextChunker_ShortContent_SingleChunk(t *testing.T) {
	doc := &DocInput{Title: "Release Notes", ContentType: ContentTypeText, Content: "Version 1 ships hybrid search."}

	chunks, err := NewTextChunker().Chunk(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.True(t, strings.HasPrefix(chunks[0].Text, "Release Notes\n\n"))
	assert.Nil(t, chunks[0].SectionPath)
}

// TS02: Long content splits into multiple bounded chunks, preferring
// paragraph boundaries.
func TestTextChunker_LongContent_SplitsAtParagraphBoundaries(t *testing.T) {
	paragraph := strings.Repeat("sentence. ", 20)
	content := strings.Join([]string{paragraph, paragraph, paragraph, paragraph, paragraph, paragraph, paragraph, paragraph}, "\n\n")
	doc := &DocInput{Title: "Doc", ContentType: ContentTypeText, Content: content}

	chunks, err := NewTextChunker().Chunk(context.Background(), doc)
	require.NoError(t, err)
	require.True(t, len(chunks) > 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Body), MaxBodyChars)
	}
}

// TS03: Body slices reconstruct the original content exactly.
func TestTextChunker_BodySlices_TileWithoutGaps(t *testing.T) {
	content := strings.Repeat("alpha beta gamma delta ", 200)
	doc := &DocInput{Title: "Doc", ContentType: ContentTypeText, Content: content}

	chunks, err := NewTextChunker().Chunk(context.Background(), doc)
	require.NoError(t, err)

	var rebuilt strings.Builder
	for _, c := range chunks {
		rebuilt.WriteString(c.Body)
	}
	assert.Equal(t, content, rebuilt.String())
}

// TS04: Blank content yields no chunks.
func TestTextChunker_BlankContent_ReturnsNoChunks(t *testing.T) {
	doc := &DocInput{Title: "Empty", ContentType: ContentTypeText, Content: "\n\n   \n"}

	chunks, err := NewTextChunker().Chunk(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
