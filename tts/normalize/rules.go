package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule is a single rewrite pass. Every non-overlapping match of Pattern is
// replaced with whatever Replace returns for it.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace func(m Match) string
}

// Match describes one occurrence of a rule's pattern.
type Match struct {
	source string
	loc    []int
}

// Text returns the whole matched text.
func (m Match) Text() string {
	return m.source[m.loc[0]:m.loc[1]]
}

// Group returns the i-th capture group, or "" if it did not participate.
func (m Match) Group(i int) string {
	if 2*i+1 >= len(m.loc) || m.loc[2*i] < 0 {
		return ""
	}
	return m.source[m.loc[2*i]:m.loc[2*i+1]]
}

// Before returns the rune immediately preceding the match.
func (m Match) Before() (rune, bool) {
	if m.loc[0] == 0 {
		return utf8.RuneError, false
	}
	r, _ := utf8.DecodeLastRuneInString(m.source[:m.loc[0]])
	return r, true
}

// Apply runs the rule over s.
func (r Rule) Apply(s string) string {
	locs := r.Pattern.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, loc := range locs {
		b.WriteString(s[last:loc[0]])
		b.WriteString(r.Replace(Match{source: s, loc: loc}))
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// Pipeline is an ordered list of rules. Each rule sees the output of the one
// before it, so earlier rules consume text that later rules must not see.
type Pipeline []Rule

// Apply runs every rule in order.
func (p Pipeline) Apply(s string) string {
	for _, r := range p {
		s = r.Apply(s)
	}
	return s
}

// Names lists the rule names in order.
func (p Pipeline) Names() []string {
	names := make([]string, len(p))
	for i, r := range p {
		names[i] = r.Name
	}
	return names
}
