package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterResources registers every currently ingested document as a
// doc:// resource, so a client can read a document's full content the
// same way it would read a file. Called once after the server is built;
// a document ingested afterwards is still reachable via the get_document
// tool, it just won't show up in a pre-registration resource listing.
func (s *Server) RegisterResources(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, src := range s.engine.ListSources() {
		docs, err := s.engine.ListDocuments(ctx, src.SourceID)
		if err != nil {
			return fmt.Errorf("list documents for %s: %w", src.SourceID, err)
		}
		for _, d := range docs {
			s.registerDocResource(d.DocID, d.Title, d.MimeHint)
		}
	}
	return nil
}

func (s *Server) registerDocResource(docID, title, mimeHint string) {
	if mimeHint == "" {
		mimeHint = MimeTypeForPath(title)
	}

	uri := "doc://" + docID
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        title,
			URI:         uri,
			Description: fmt.Sprintf("document %s", docID),
			MIMEType:    mimeHint,
		},
		s.makeDocHandler(docID),
	)
}

func (s *Server) makeDocHandler(docID string) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		doc, err := s.engine.GetDocument(ctx, docID)
		if err != nil {
			return nil, MapError(err)
		}

		mimeType := doc.MimeHint
		if mimeType == "" {
			mimeType = MimeTypeForPath(doc.Title)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      "doc://" + doc.DocID,
					MIMEType: mimeType,
					Text:     doc.Content,
				},
			},
		}, nil
	}
}
