package normalize

import (
	"regexp"
	"strings"
)

var (
	trailingBlanks = regexp.MustCompile(`[ \t]+\n`)
	blankRuns      = regexp.MustCompile(`[ \t]{2,}`)
)

// CleanWhitespace tidies source text before it is split into paragraphs:
// CRLF line endings become LF, blanks before a line break are dropped, and
// runs of blanks collapse to a single space. A line holding only blanks thus
// becomes empty and separates paragraphs.
func CleanWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = trailingBlanks.ReplaceAllString(text, "\n")
	return blankRuns.ReplaceAllString(text, " ")
}
