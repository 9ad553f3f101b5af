package chunk

import (
	"strings"
	"unicode/utf8"
)

// span is a byte-addressed slice of a larger string, used while tiling a
// document so callers can recover byte_offset/byte_len without rescanning.
type span struct {
	text   string
	offset int64
}

// tileContent splits content into ordered, non-overlapping spans each at
// most maxChars long. It prefers to break at the first separator in
// separators (tried in order) found inside the current window, falling
// back to a hard cut on a rune boundary when none is found. Concatenating
// the returned spans' text reproduces content exactly.
func tileContent(content string, maxChars int, separators []string) []span {
	if content == "" {
		return nil
	}

	var spans []span
	offset := int64(0)
	remaining := content

	for len(remaining) > 0 {
		if len(remaining) <= maxChars {
			spans = append(spans, span{text: remaining, offset: offset})
			break
		}

		cut := findBreak(remaining, maxChars, separators)
		spans = append(spans, span{text: remaining[:cut], offset: offset})
		offset += int64(cut)
		remaining = remaining[cut:]
	}

	return spans
}

// findBreak picks a cut point at or before maxChars bytes into s, trying
// each separator in turn and otherwise hard-cutting on the nearest
// preceding rune boundary.
func findBreak(s string, maxChars int, separators []string) int {
	limit := maxChars
	if limit > len(s) {
		limit = len(s)
	}
	window := s[:limit]

	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx > 0 {
			return idx + len(sep)
		}
	}

	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	if limit == 0 {
		// A single rune wider than maxChars; emit it whole rather than
		// producing an empty span.
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return limit
}

// overlapTail returns the last n bytes of s, backed off to a rune
// boundary, for prefixing the next chunk's embedded text.
func overlapTail(s string, n int) string {
	if s == "" || n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}

// tileWithPrefix tiles content under the shared size/overlap policy and
// wraps each span into a Chunk, prefixing the embedded text with prefix
// and the previous chunk's overlap tail. Used by the text and code
// chunkers, which have no section structure.
func tileWithPrefix(content, prefix string, separators []string) []*Chunk {
	spans := tileContent(content, MaxBodyChars, separators)
	chunks := make([]*Chunk, 0, len(spans))

	var prevBody string
	for i, sp := range spans {
		body := sp.text
		chunks = append(chunks, &Chunk{
			Ordinal:    i,
			Text:       prefix + overlapTail(prevBody, OverlapChars) + body,
			Body:       body,
			ByteOffset: sp.offset,
			ByteLen:    int64(len(body)),
		})
		prevBody = body
	}
	return chunks
}
