package markdown

import (
	"regexp"
	"strings"
)

// Highlight placeholders use Unicode Private Use Area characters.
// They pass through goldmark unchanged (no WithUnsafe needed) and become
// <mark> tags after HTML generation.
const (
	markStart = "\uE000"
	markEnd   = "\uE001"
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==(.*?)==`)
)

// preprocess normalizes line endings, marks ==text== highlights and
// compresses runs of blank lines.
func preprocess(content string) string {
	content = crlfOrCR.ReplaceAllString(content, "\n")
	content = highlightPattern.ReplaceAllString(content, markStart+"$1"+markEnd)
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

// convertMarkPlaceholders turns highlight placeholders into <mark> tags.
func convertMarkPlaceholders(content string) string {
	return strings.NewReplacer(markStart, "<mark>", markEnd, "</mark>").Replace(content)
}
