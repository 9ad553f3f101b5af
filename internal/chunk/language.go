package chunk

import "strings"

// codeExtensions maps a file extension to the display language named in
// the code chunker's prefix. This replaces the teacher's tree-sitter
// LanguageRegistry (which paired each extension with a parser grammar):
// this engine only needs to recognize "is this code" and name the
// language for the prefix, not parse it.
var codeExtensions = map[string]string{
	".go":     "go",
	".ts":     "typescript",
	".tsx":    "tsx",
	".js":     "javascript",
	".jsx":    "jsx",
	".mjs":    "javascript",
	".py":     "python",
	".rb":     "ruby",
	".rs":     "rust",
	".java":   "java",
	".kt":     "kotlin",
	".c":      "c",
	".h":      "c",
	".cpp":    "cpp",
	".cc":     "cpp",
	".hpp":    "cpp",
	".cs":     "csharp",
	".php":    "php",
	".sh":     "shell",
	".bash":   "shell",
	".sql":    "sql",
	".yaml":   "yaml",
	".yml":    "yaml",
	".json":   "json",
	".toml":   "toml",
	".proto":  "protobuf",
	".scala":  "scala",
	".swift":  "swift",
	".lua":    "lua",
	".r":      "r",
	".hs":     "haskell",
	".ex":     "elixir",
	".exs":    "elixir",
	".zig":    "zig",
	".tf":     "terraform",
	".dockerfile": "dockerfile",
}

// DetectCodeLanguage returns the display language for a file extension,
// per spec.md §4.5's "Code (recognized by extension)". ext may be given
// with or without a leading dot.
func DetectCodeLanguage(ext string) (string, bool) {
	ext = normalizeExt(ext)
	lang, ok := codeExtensions[ext]
	return lang, ok
}

// IsCodeExtension reports whether ext is recognized as source code.
func IsCodeExtension(ext string) bool {
	_, ok := DetectCodeLanguage(ext)
	return ok
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
