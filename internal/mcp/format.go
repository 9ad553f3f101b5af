package mcp

import (
	"fmt"
	"strings"

	"github.com/nans28/eywa/internal/search"
)

// FormatSearchResults formats search hits as markdown for tools whose
// clients expect human-readable text (kept for parity with tools that
// return plain strings; the structured tools below return typed output).
func FormatSearchResults(query string, hits []search.SearchHit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No results found for %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search Results for %q\n\n", query)
	fmt.Fprintf(&sb, "Found %d result", len(hits))
	if len(hits) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, h := range hits {
		formatHit(&sb, i+1, h)
	}
	return sb.String()
}

func formatHit(sb *strings.Builder, num int, h search.SearchHit) {
	fmt.Fprintf(sb, "### %d. %s (score: %.3f)\n", num, h.Title, h.FinalScore)
	fmt.Fprintf(sb, "source: `%s` · doc: `%s`\n\n", h.SourceID, h.DocID)
	fmt.Fprintf(sb, "%s\n\n", h.BodySnippet)
}

// ToSearchResultOutput converts a SearchHit to the MCP tool output schema.
func ToSearchResultOutput(h search.SearchHit) SearchResultOutput {
	return SearchResultOutput{
		DocID:       h.DocID,
		SourceID:    h.SourceID,
		Title:       h.Title,
		Snippet:     h.BodySnippet,
		Score:       h.FinalScore,
		DenseScore:  h.ComponentScores.Dense,
		LexicalScore: h.ComponentScores.Lexical,
		RerankScore: h.ComponentScores.Rerank,
	}
}

// clampLimit bounds a requested limit to [min, max], substituting
// defaultVal when limit is non-positive.
func clampLimit(limit, defaultVal, min, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}
