package chunk

import (
	"context"
	"regexp"
	"strings"
)

var (
	// headerPattern matches ATX headers: # Title, ## Title, etc.
	headerPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

	// frontmatterPattern matches a leading YAML frontmatter block.
	frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n*`)

	// frontmatterTitlePattern pulls a "title: ..." field out of frontmatter.
	frontmatterTitlePattern = regexp.MustCompile(`(?m)^title\s*:\s*(.+)$`)

	markdownSeparators = []string{"\n\n", "\n", " "}
)

// MarkdownChunker implements the Markdown chunking policy from spec.md
// §4.5: header-stack section tracking with a "{title} > {section path}"
// prefix, paragraph-preferring size bounds, and overlap carried across
// section boundaries so retrieval context stays continuous.
type MarkdownChunker struct{}

func NewMarkdownChunker() *MarkdownChunker { return &MarkdownChunker{} }

func (c *MarkdownChunker) Chunk(ctx context.Context, doc *DocInput) ([]*Chunk, error) {
	content, title := stripFrontmatter(doc.Content, doc.Title)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	sections := parseMarkdownSections(content)
	if sections == nil {
		sections = []mdSection{{body: content}}
	}

	var chunks []*Chunk
	var prevBody string
	ordinal := 0

	for _, sec := range sections {
		prefix := markdownPrefix(title, sec.path)
		for _, sp := range tileContent(sec.body, MaxBodyChars, markdownSeparators) {
			body := sp.text
			chunks = append(chunks, &Chunk{
				Ordinal:     ordinal,
				Text:        prefix + overlapTail(prevBody, OverlapChars) + body,
				Body:        body,
				ByteOffset:  sec.offset + sp.offset,
				ByteLen:     int64(len(body)),
				SectionPath: sec.path,
			})
			ordinal++
			prevBody = body
		}
	}

	return chunks, nil
}

// mdSection is a header's span of content, including its own header line,
// up to (but not including) the next header at any level.
type mdSection struct {
	path   []string // header titles from h1 down to this header, outermost first
	body   string
	offset int64
}

// parseMarkdownSections splits content at ATX headers, tracking a header
// stack so each section knows its full path. Returns nil if content has
// no headers at all, so the caller can fall back to a single untitled
// section.
func parseMarkdownSections(content string) []mdSection {
	matches := headerPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	var sections []mdSection
	var stack [6]string

	if matches[0][0] > 0 {
		sections = append(sections, mdSection{body: content[:matches[0][0]], offset: 0})
	}

	for i, m := range matches {
		start := m[0]
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		level := m[3] - m[2]
		title := strings.TrimSpace(content[m[4]:m[5]])

		stack[level-1] = title
		for j := level; j < 6; j++ {
			stack[j] = ""
		}

		var path []string
		for j := 0; j < level; j++ {
			if stack[j] != "" {
				path = append(path, stack[j])
			}
		}

		sections = append(sections, mdSection{path: path, body: content[start:end], offset: int64(start)})
	}

	return sections
}

// markdownPrefix builds the "{doc_title} > {section_path}\n\n" prefix
// from spec.md §4.5. When a section has no header path (content before
// the first header, or a headerless document), the prefix is just the
// title.
func markdownPrefix(title string, path []string) string {
	if len(path) == 0 {
		return title + "\n\n"
	}
	return title + " > " + strings.Join(path, " > ") + "\n\n"
}

// stripFrontmatter removes a leading YAML frontmatter block from content.
// Frontmatter is not indexed as prose (dropping it is the chunker's one
// documented normalization for markdown, per spec.md §4.5's coverage
// invariant); if it carries a title field and the document itself has
// none, that title is used for the chunk prefix instead of being
// discarded entirely.
func stripFrontmatter(content, title string) (string, string) {
	m := frontmatterPattern.FindStringSubmatch(content)
	if m == nil {
		return content, title
	}

	if title == "" {
		if t := frontmatterTitlePattern.FindStringSubmatch(m[1]); t != nil {
			title = strings.Trim(strings.TrimSpace(t[1]), `"'`)
		}
	}

	return content[len(m[0]):], title
}
