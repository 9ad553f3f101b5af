package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nans28/eywa/internal/registry"
	"github.com/nans28/eywa/internal/runtime"
	"github.com/nans28/eywa/internal/store"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()

	content, err := store.NewSQLiteContentStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = content.Close() })

	binding := store.ModelBinding{ModelID: "static-offline", Dimension: runtime.StaticDimensions}
	vector, err := store.NewHNSWVectorStore("", binding)
	require.NoError(t, err)
	t.Cleanup(func() { _ = vector.Close() })

	lexical, err := store.NewBleveLexicalStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = lexical.Close() })

	sources, err := registry.NewSourceRegistry(t.TempDir())
	require.NoError(t, err)

	return New(content, vector, lexical, runtime.NewStaticEmbedder(), registry.NewSourceLocks(), sources)
}

// TS01: A new document is chunked, embedded, and committed to all three
// stores, and the source counters advance.
func TestPipeline_Ingest_NewDocument_IndexesAcrossStores(t *testing.T) {
	p := newTestPipeline(t)

	report, err := p.Ingest(context.Background(), "docs", []*DocInput{
		{Title: "Overview", Content: "# Overview\n\nDense and lexical scores are fused by convex combination.", MimeHint: "text/markdown"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.Indexed)
	require.Len(t, report.Results, 1)

	res := report.Results[0]
	assert.Equal(t, DocIndexed, res.Status)
	assert.Greater(t, res.ChunkCount, 0)

	doc, err := p.Content.Get(context.Background(), res.DocID)
	require.NoError(t, err)
	assert.Equal(t, "Overview", doc.Title)

	src, ok := p.Sources.Get("docs")
	require.True(t, ok)
	assert.Equal(t, 1, src.DocCount)
	assert.Equal(t, res.ChunkCount, src.ChunkCount)
}

// TS02: Re-ingesting an identical (source_id, title, content) triple
// reports Deduplicated and does not double the counters.
func TestPipeline_Ingest_DuplicateDocument_IsDeduplicated(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()
	in := &DocInput{Title: "Notes", Content: "plain text notes about hybrid search", MimeHint: "text/plain"}

	first, err := p.Ingest(ctx, "docs", []*DocInput{in})
	require.NoError(t, err)
	require.Equal(t, 1, first.Indexed)

	second, err := p.Ingest(ctx, "docs", []*DocInput{in})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Deduplicated)
	assert.Equal(t, 0, second.Indexed)

	src, _ := p.Sources.Get("docs")
	assert.Equal(t, 1, src.DocCount)
}

// TS03: Distinct documents in one call all get distinct, sequential
// treatment and their own chunk ids derived from their own doc_id.
func TestPipeline_Ingest_MultipleDocuments_EachGetsOwnChunkIDs(t *testing.T) {
	p := newTestPipeline(t)

	report, err := p.Ingest(context.Background(), "docs", []*DocInput{
		{Title: "A", Content: "first document body text here", MimeHint: "text/plain"},
		{Title: "B", Content: "second document body text here", MimeHint: "text/plain"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, report.Indexed)
	assert.NotEqual(t, report.Results[0].DocID, report.Results[1].DocID)
}

// TS04: A code document is routed through the code chunker with a
// language hint derived from its title's extension.
func TestPipeline_Ingest_CodeDocument_DetectsLanguage(t *testing.T) {
	p := newTestPipeline(t)

	report, err := p.Ingest(context.Background(), "repo", []*DocInput{
		{Title: "main.go", Content: "package main\n\nfunc main() {}\n", MimeHint: "text/plain"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.Indexed)

	doc, err := p.Content.Get(context.Background(), report.Results[0].DocID)
	require.NoError(t, err)
	assert.Equal(t, store.ContentTypeCode, doc.ContentType)
	assert.Equal(t, "go", doc.Language)
}
