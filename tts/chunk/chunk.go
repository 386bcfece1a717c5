// Package chunk splits text into units small enough for a single synthesis
// request.
package chunk

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	paragraphBreak = regexp.MustCompile(`\n{2,}`)
	separator      = regexp.MustCompile(`\s+|,|;|:`)
)

// Chunk splits text into paragraphs and breaks any paragraph longer than
// maxLen runes at whitespace or punctuation. A word longer than maxLen is cut
// into maxLen-sized pieces.
//
// Every returned unit is trimmed, non-empty and at most maxLen runes long.
// A maxLen of zero or less disables the length limit. Calling Chunk again on
// a returned unit with the same maxLen yields that unit unchanged.
func Chunk(text string, maxLen int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var units []string
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if maxLen <= 0 || utf8.RuneCountInString(para) <= maxLen {
			units = append(units, para)
			continue
		}
		units = append(units, splitByLen(para, maxLen)...)
	}
	return units
}

// splitByLen packs tokens greedily into units of at most maxLen runes.
func splitByLen(s string, maxLen int) []string {
	var (
		parts []string
		cur   string
		n     int
	)

	for _, tok := range tokenize(s) {
		tn := utf8.RuneCountInString(tok)
		if n+tn <= maxLen {
			cur += tok
			n += tn
			continue
		}

		if t := strings.TrimSpace(cur); t != "" {
			parts = append(parts, t)
		}
		cur = strings.TrimLeftFunc(tok, unicode.IsSpace)
		n = utf8.RuneCountInString(cur)

		for n > maxLen {
			r := []rune(cur)
			if piece := strings.TrimSpace(string(r[:maxLen])); piece != "" {
				parts = append(parts, piece)
			}
			cur = string(r[maxLen:])
			n -= maxLen
		}
	}

	if t := strings.TrimSpace(cur); t != "" {
		parts = append(parts, t)
	}
	return parts
}

// tokenize splits s into words and the separators between them, keeping
// both so that joining the tokens gives back s.
func tokenize(s string) []string {
	locs := separator.FindAllStringIndex(s, -1)
	tokens := make([]string, 0, 2*len(locs)+1)
	last := 0
	for _, loc := range locs {
		if loc[0] > last {
			tokens = append(tokens, s[last:loc[0]])
		}
		tokens = append(tokens, s[loc[0]:loc[1]])
		last = loc[1]
	}
	if last < len(s) {
		tokens = append(tokens, s[last:])
	}
	return tokens
}
