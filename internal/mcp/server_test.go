package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nans28/eywa/internal/config"
	"github.com/nans28/eywa/internal/ingest"
	"github.com/nans28/eywa/pkg/eywa"
)

func newTestServer(t *testing.T) (*Server, *eywa.Engine) {
	t.Helper()
	cfg := config.NewConfig()
	cfg.ContentRoot = t.TempDir()
	require.NoError(t, cfg.EnsureLayout())

	e, err := eywa.OpenOffline(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	return NewServer(e), e
}

func TestHandleSearch_FindsIngestedDocument(t *testing.T) {
	s, e := newTestServer(t)
	ctx := context.Background()

	_, err := e.IngestSync(ctx, "docs", []*ingest.DocInput{{
		Title: "Alpha", Content: "the quick brown fox jumps over the lazy dog",
	}})
	require.NoError(t, err)

	_, out, err := s.handleSearch(ctx, nil, SearchInput{Query: "quick fox", Limit: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Results)
}

func TestHandleSearch_RejectsEmptyQuery(t *testing.T) {
	s, _ := newTestServer(t)
	_, _, err := s.handleSearch(context.Background(), nil, SearchInput{Query: ""})
	require.Error(t, err)
	mcpErr, ok := err.(*MCPError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestHandleListSources_ListDocuments_GetDocument(t *testing.T) {
	s, e := newTestServer(t)
	ctx := context.Background()

	_, err := e.IngestSync(ctx, "docs", []*ingest.DocInput{{
		Title: "Alpha", Content: "alpha document body",
	}})
	require.NoError(t, err)

	_, sources, err := s.handleListSources(ctx, nil, ListSourcesInput{})
	require.NoError(t, err)
	require.Len(t, sources.Sources, 1)
	assert.Equal(t, "docs", sources.Sources[0].SourceID)

	_, docs, err := s.handleListDocuments(ctx, nil, ListDocumentsInput{SourceID: "docs"})
	require.NoError(t, err)
	require.Len(t, docs.Documents, 1)
	docID := docs.Documents[0].DocID

	_, doc, err := s.handleGetDocument(ctx, nil, GetDocumentInput{DocID: docID})
	require.NoError(t, err)
	assert.Equal(t, "alpha document body", doc.Content)
}

func TestHandleGetDocument_UnknownReturnsNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	_, _, err := s.handleGetDocument(context.Background(), nil, GetDocumentInput{DocID: "missing"})
	require.Error(t, err)
	mcpErr, ok := err.(*MCPError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, mcpErr.Code)
}

func TestRegisterResources_NoErrorWhenEmpty(t *testing.T) {
	s, _ := newTestServer(t)
	require.NoError(t, s.RegisterResources(context.Background()))
}
