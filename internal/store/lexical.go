package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/blevesearch/bleve/v2/search"

	engineerrors "github.com/nans28/eywa/internal/errors"
)

const (
	// englishStopFilterName is the custom token filter dropping stop
	// words during both indexing and query analysis.
	englishStopFilterName = "eywa_english_stop"
	// englishAnalyzerName composes the stock unicode tokenizer with
	// lowercasing and the stop filter, replacing the teacher's
	// code-identifier analyzer for general English prose (spec.md §4.4:
	// "standard English analysis").
	englishAnalyzerName = "eywa_english_analyzer"

	bleveContentField = "content"
)

func init() {
	_ = registry.RegisterTokenFilter(englishStopFilterName, englishStopFilterConstructor)
}

// BleveLexicalStore implements LexicalStore using bleve's BM25 similarity
// (its default scorer since v2), with a custom analyzer generalized from
// the teacher's code-identifier tokenizer to general English text.
type BleveLexicalStore struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

var _ LexicalStore = (*BleveLexicalStore)(nil)

// lexicalDoc is the document shape handed to bleve for indexing.
type lexicalDoc struct {
	Content  string `json:"content"`
	SourceID string `json:"source_id"`
	DocID    string `json:"doc_id"`
	Body     string `json:"body"`
	Title    string `json:"title"`
}

// NewBleveLexicalStore opens (or creates) the lexical index at path. An
// empty path creates an in-memory index for tests.
func NewBleveLexicalStore(path string) (*BleveLexicalStore, error) {
	indexMapping, err := buildEnglishIndexMapping()
	if err != nil {
		return nil, engineerrors.Internal("build lexical index mapping", err)
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist || err == bleve.ErrorIndexMetaMissing {
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, engineerrors.Storage("open lexical index", err)
	}

	return &BleveLexicalStore{index: idx, path: path}, nil
}

// buildEnglishIndexMapping registers the English analyzer (unicode
// segmentation + lowercase + stop-word removal) and sets it as the default
// for text fields. source_id and doc_id are indexed whole with the keyword
// analyzer so source filters and deletes match exact ids.
func buildEnglishIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(englishAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			lowercase.Name,
			englishStopFilterName,
		},
	})
	if err != nil {
		return nil, err
	}
	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = keyword.Name
	indexMapping.DefaultMapping.AddFieldMappingsAt("source_id", idField)
	indexMapping.DefaultMapping.AddFieldMappingsAt("doc_id", idField)
	indexMapping.DefaultAnalyzer = englishAnalyzerName
	return indexMapping, nil
}

// Upsert adds or replaces lexical rows. Bleve's batch Index call is
// idempotent on document ID.
func (s *BleveLexicalStore) Upsert(ctx context.Context, rows []LexicalRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return engineerrors.Storage("lexical store is closed", nil)
	}

	batch := s.index.NewBatch()
	for _, r := range rows {
		doc := lexicalDoc{Content: r.Text, SourceID: r.SourceID, DocID: r.DocID, Body: r.Body, Title: r.Title}
		if err := batch.Index(r.ChunkID, doc); err != nil {
			return engineerrors.Storage(fmt.Sprintf("index chunk %s", r.ChunkID), err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return engineerrors.Storage("execute lexical batch", err)
	}
	return nil
}

// Search returns chunks matching queryText, scored by BM25.
func (s *BleveLexicalStore) Search(ctx context.Context, queryText string, k int, sourceFilter string) ([]LexicalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, engineerrors.Storage("lexical store is closed", nil)
	}
	if strings.TrimSpace(queryText) == "" {
		return nil, nil
	}

	matchQuery := bleve.NewMatchQuery(queryText)
	matchQuery.SetField(bleveContentField)

	var q = bleve.Query(matchQuery)
	if sourceFilter != "" {
		sourceQuery := bleve.NewMatchQuery(sourceFilter)
		sourceQuery.SetField("source_id")
		conjunction := bleve.NewConjunctionQuery(matchQuery, sourceQuery)
		q = conjunction
	}

	req := bleve.NewSearchRequest(q)
	req.Size = k
	req.IncludeLocations = true

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, engineerrors.Storage("search lexical index", err)
	}

	results := make([]LexicalResult, 0, len(result.Hits))
	for _, hit := range result.Hits {
		results = append(results, LexicalResult{
			ChunkID:      hit.ID,
			BM25:         hit.Score,
			MatchedTerms: extractMatchedTerms(hit),
		})
	}
	return results, nil
}

// DeleteByDoc removes all chunks belonging to a document.
func (s *BleveLexicalStore) DeleteByDoc(ctx context.Context, docID string) error {
	return s.deleteWhere(ctx, "doc_id", docID)
}

// DeleteBySource removes all chunks belonging to a source.
func (s *BleveLexicalStore) DeleteBySource(ctx context.Context, sourceID string) error {
	return s.deleteWhere(ctx, "source_id", sourceID)
}

func (s *BleveLexicalStore) deleteWhere(ctx context.Context, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return engineerrors.Storage("lexical store is closed", nil)
	}

	q := bleve.NewMatchQuery(value)
	q.SetField(field)
	req := bleve.NewSearchRequest(q)
	docCount, _ := s.index.DocCount()
	req.Size = int(docCount)
	req.Fields = nil

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return engineerrors.Storage(fmt.Sprintf("find chunks by %s", field), err)
	}

	if len(result.Hits) == 0 {
		return nil
	}

	batch := s.index.NewBatch()
	for _, hit := range result.Hits {
		batch.Delete(hit.ID)
	}
	if err := s.index.Batch(batch); err != nil {
		return engineerrors.Storage(fmt.Sprintf("delete chunks by %s", field), err)
	}
	return nil
}

// Close closes the underlying bleve index.
func (s *BleveLexicalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.index.Close()
}

// extractMatchedTerms collects the distinct terms bleve matched in the
// content field, for diagnostics.
func extractMatchedTerms(hit *search.DocumentMatch) []string {
	terms := make(map[string]struct{})
	for field, locations := range hit.Locations {
		if field != bleveContentField {
			continue
		}
		for term := range locations {
			terms[term] = struct{}{}
		}
	}
	result := make([]string, 0, len(terms))
	for term := range terms {
		result = append(result, term)
	}
	return result
}

// englishStopFilterConstructor builds the stop-word token filter. Stop
// words are a small, fixed general-English list; callers who want no
// stop-word removal may index an empty set by never invoking this filter
// (left wired in since spec.md §4.4 marks stop-word removal "optional",
// not absent).
func englishStopFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &englishStopFilter{stopWords: buildStopWordSet(defaultEnglishStopWords)}, nil
}

type englishStopFilter struct {
	stopWords map[string]struct{}
}

func (f *englishStopFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		term := strings.ToLower(string(token.Term))
		if _, isStop := f.stopWords[term]; !isStop {
			result = append(result, token)
		}
	}
	return result
}

func buildStopWordSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = struct{}{}
	}
	return m
}

// defaultEnglishStopWords is a short general-English stop list, replacing
// the teacher's DefaultCodeStopWords (programming keywords) now that the
// lexical store indexes arbitrary prose rather than source code.
var defaultEnglishStopWords = []string{
	"a", "an", "the", "and", "or", "but", "if", "then", "else",
	"of", "to", "in", "on", "at", "by", "for", "with", "about",
	"is", "are", "was", "were", "be", "been", "being",
	"this", "that", "these", "those", "it", "its",
	"as", "from", "into", "than", "too", "very",
}
