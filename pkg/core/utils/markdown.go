package utils

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
)

// CleanMarkdown strips outer code fences from a model response so the body
// can be fed to the regex/TOC validators. Classifiers often wrap their answer
// in ```...``` even when told not to.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)

	if strings.HasPrefix(cleaned, "```") && strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimPrefix(cleaned, "```")
		// Drop a language hint on the opening fence ("json", "markdown", ...)
		if idx := strings.IndexByte(cleaned, '\n'); idx >= 0 {
			firstLine := strings.TrimSpace(cleaned[:idx])
			if firstLine != "" && !strings.ContainsAny(firstLine, " \t{[") && len(firstLine) <= 12 {
				cleaned = cleaned[idx+1:]
			}
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	return cleaned
}

// ValidateMarkdown checks that converted filing text still parses as
// Markdown. Goldmark is very permissive, so this is a basic sanity gate for
// the HTML-to-pipe-table conversion output, not a linter.
func ValidateMarkdown(input string) bool {
	parser := goldmark.DefaultParser()
	reader := text.NewReader([]byte(input))
	return parser.Parse(reader) != nil
}
