package mcp

import (
	"context"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nans28/eywa/pkg/eywa"
	"github.com/nans28/eywa/pkg/version"
)

// Server is the MCP server for eywa. It bridges AI clients (Claude Code,
// Cursor) to a single embedded Engine, exposing search and content
// operations as tools and ingested documents as doc:// resources.
type Server struct {
	mcp    *mcp.Server
	engine *eywa.Engine
	logger *slog.Logger

	mu sync.Mutex
}

// NewServer creates a new MCP server wrapping engine. engine must be
// already open; Server does not take ownership of its lifecycle.
func NewServer(engine *eywa.Engine) *Server {
	s := &Server{
		engine: engine,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{Name: "eywa", Version: version.Version},
		nil,
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP SDK server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Serve starts the server over stdio, the only transport spec.md §6
// requires (`eywa mcp`).
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped gracefully")
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Hybrid dense+lexical search over ingested documents. Returns ranked chunks with source attribution.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "similar_docs",
		Description: "Find documents similar to a given doc_id, using that document's own content as the query.",
	}, s.handleSimilarDocs)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_sources",
		Description: "List every source with its document and chunk counts.",
	}, s.handleListSources)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the documents ingested into a given source.",
	}, s.handleListDocuments)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_document",
		Description: "Fetch a document's full content by doc_id.",
	}, s.handleGetDocument)

	s.logger.Info("MCP tools registered", slog.Int("count", 5))
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult, SearchOutput, error,
) {
	if input.Query == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query is required")
	}
	limit := clampLimit(input.Limit, 10, 1, 50)

	hits, err := s.engine.Query(ctx, input.Query, limit, input.Sources)
	if err != nil {
		return nil, SearchOutput{}, MapError(err)
	}

	out := SearchOutput{Results: make([]SearchResultOutput, 0, len(hits))}
	for _, h := range hits {
		out.Results = append(out.Results, ToSearchResultOutput(h))
	}
	return nil, out, nil
}

func (s *Server) handleSimilarDocs(ctx context.Context, _ *mcp.CallToolRequest, input SimilarDocsInput) (
	*mcp.CallToolResult, SearchOutput, error,
) {
	if input.DocID == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("doc_id is required")
	}
	limit := clampLimit(input.Limit, 10, 1, 50)

	hits, err := s.engine.SimilarDocuments(ctx, input.DocID, limit)
	if err != nil {
		return nil, SearchOutput{}, MapError(err)
	}

	out := SearchOutput{Results: make([]SearchResultOutput, 0, len(hits))}
	for _, h := range hits {
		out.Results = append(out.Results, ToSearchResultOutput(h))
	}
	return nil, out, nil
}

func (s *Server) handleListSources(_ context.Context, _ *mcp.CallToolRequest, _ ListSourcesInput) (
	*mcp.CallToolResult, ListSourcesOutput, error,
) {
	sources := s.engine.ListSources()
	out := ListSourcesOutput{Sources: make([]SourceOutput, 0, len(sources))}
	for _, src := range sources {
		out.Sources = append(out.Sources, SourceOutput{
			SourceID:   src.SourceID,
			DocCount:   src.DocCount,
			ChunkCount: src.ChunkCount,
		})
	}
	return nil, out, nil
}

func (s *Server) handleListDocuments(ctx context.Context, _ *mcp.CallToolRequest, input ListDocumentsInput) (
	*mcp.CallToolResult, ListDocumentsOutput, error,
) {
	if input.SourceID == "" {
		return nil, ListDocumentsOutput{}, NewInvalidParamsError("source_id is required")
	}

	docs, err := s.engine.ListDocuments(ctx, input.SourceID)
	if err != nil {
		return nil, ListDocumentsOutput{}, MapError(err)
	}

	out := ListDocumentsOutput{Documents: make([]DocMetaOutput, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, DocMetaOutput{
			DocID:       d.DocID,
			SourceID:    d.SourceID,
			Title:       d.Title,
			MimeHint:    d.MimeHint,
			ContentType: string(d.ContentType),
			ByteLen:     d.ByteLen,
		})
	}
	return nil, out, nil
}

func (s *Server) handleGetDocument(ctx context.Context, _ *mcp.CallToolRequest, input GetDocumentInput) (
	*mcp.CallToolResult, GetDocumentOutput, error,
) {
	if input.DocID == "" {
		return nil, GetDocumentOutput{}, NewInvalidParamsError("doc_id is required")
	}

	doc, err := s.engine.GetDocument(ctx, input.DocID)
	if err != nil {
		return nil, GetDocumentOutput{}, MapError(err)
	}

	return nil, GetDocumentOutput{
		DocID:       doc.DocID,
		SourceID:    doc.SourceID,
		Title:       doc.Title,
		Content:     doc.Content,
		ContentType: string(doc.ContentType),
	}, nil
}
