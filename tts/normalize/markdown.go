package normalize

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// StripMarkdown extracts the readable text from markdown. Link targets,
// emphasis markers, heading hashes and HTML are dropped; code is kept
// verbatim. Blocks that were separated by a blank line in the source stay
// separated by one, so the result splits into the same paragraphs as the
// source does.
func StripMarkdown(markdown string) string {
	md := goldmark.New()
	reader := text.NewReader([]byte(markdown))
	doc := md.Parser().Parse(reader)

	s := &markdownStripper{source: reader.Source()}
	s.walkBlock(doc)
	return s.buf.String()
}

type markdownStripper struct {
	source   []byte
	buf      strings.Builder
	lastStop int
}

func (s *markdownStripper) walkBlock(node ast.Node) {
	switch n := node.(type) {
	case *ast.HTMLBlock, *ast.ThematicBreak:
		return

	case *ast.CodeBlock, *ast.FencedCodeBlock:
		var b strings.Builder
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(s.source))
		}
		s.emit(n, strings.TrimRight(b.String(), "\r\n"))
		return

	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		var b strings.Builder
		s.walkInline(n, &b)
		s.emit(n, b.String())
		return
	}

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		s.walkBlock(c)
	}
}

func (s *markdownStripper) walkInline(node ast.Node, b *strings.Builder) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Text:
			b.Write(n.Segment.Value(s.source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(n.Value)
		case *ast.AutoLink:
			b.Write(n.Label(s.source))
		case *ast.RawHTML:
			// dropped
		default:
			s.walkInline(n, b)
		}
	}
}

// emit appends one leaf block, separated from the previous one by a blank
// line only when the source had one between them.
func (s *markdownStripper) emit(node ast.Node, content string) {
	lines := node.Lines()
	if lines.Len() == 0 || strings.TrimSpace(content) == "" {
		return
	}
	start := lines.At(0).Start
	stop := lines.At(lines.Len() - 1).Stop
	for stop > start && isSpaceByte(s.source[stop-1]) {
		stop--
	}

	if s.buf.Len() > 0 {
		if s.lastStop > start || blankLine.Match(s.source[s.lastStop:start]) {
			s.buf.WriteString("\n\n")
		} else {
			s.buf.WriteByte('\n')
		}
	}
	s.buf.WriteString(content)
	s.lastStop = stop
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
