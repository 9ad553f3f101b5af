package mcp

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query   string   `json:"query" jsonschema:"the search query to execute"`
	Limit   int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Sources []string `json:"sources,omitempty" jsonschema:"restrict results to these source_ids"`
}

// SearchOutput defines the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results" jsonschema:"ranked search results"`
}

// SearchResultOutput is a single ranked result returned to the MCP client.
type SearchResultOutput struct {
	DocID        string  `json:"doc_id"`
	SourceID     string  `json:"source_id"`
	Title        string  `json:"title"`
	Snippet      string  `json:"snippet" jsonschema:"the matched chunk's body"`
	Score        float64 `json:"score" jsonschema:"final fused and reranked score"`
	DenseScore   float64 `json:"dense_score,omitempty"`
	LexicalScore float64 `json:"lexical_score,omitempty"`
	RerankScore  float32 `json:"rerank_score,omitempty"`
}

// SimilarDocsInput defines the input schema for the similar_docs tool.
type SimilarDocsInput struct {
	DocID string `json:"doc_id" jsonschema:"the reference document's doc_id"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// ListSourcesInput defines the input schema for the list_sources tool (no parameters).
type ListSourcesInput struct{}

// ListSourcesOutput defines the output schema for the list_sources tool.
type ListSourcesOutput struct {
	Sources []SourceOutput `json:"sources"`
}

// SourceOutput summarizes one ingested source.
type SourceOutput struct {
	SourceID   string `json:"source_id"`
	DocCount   int    `json:"doc_count"`
	ChunkCount int    `json:"chunk_count"`
}

// ListDocumentsInput defines the input schema for the list_documents tool.
type ListDocumentsInput struct {
	SourceID string `json:"source_id" jsonschema:"the source to list documents for"`
}

// ListDocumentsOutput defines the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocMetaOutput `json:"documents"`
}

// DocMetaOutput is a document's metadata without its content body.
type DocMetaOutput struct {
	DocID       string `json:"doc_id"`
	SourceID    string `json:"source_id"`
	Title       string `json:"title"`
	MimeHint    string `json:"mime_hint"`
	ContentType string `json:"content_type"`
	ByteLen     int64  `json:"byte_len"`
}

// GetDocumentInput defines the input schema for the get_document tool.
type GetDocumentInput struct {
	DocID string `json:"doc_id" jsonschema:"the document to fetch"`
}

// GetDocumentOutput carries a document's full content.
type GetDocumentOutput struct {
	DocID       string `json:"doc_id"`
	SourceID    string `json:"source_id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}
