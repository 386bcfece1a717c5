package normalize

import (
	"errors"

	"golang.org/x/text/unicode/norm"
)

// ErrMalformedNumeral marks a numeral that cannot be read unambiguously, such
// as "1,23.4" or a version string like "1.2.3". The rewriters never return it;
// such numerals are left in the text unchanged.
var ErrMalformedNumeral = errors.New("malformed numeral")

// Normalizer turns display text into the text handed to a speech engine.
type Normalizer struct {
	markdown bool
	rules    Pipeline
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithMarkdown strips markdown syntax before rewriting.
func WithMarkdown(enabled bool) Option {
	return func(n *Normalizer) {
		n.markdown = enabled
	}
}

// New returns a Normalizer running the time rules followed by the number
// rules.
func New(opts ...Option) *Normalizer {
	rules := make(Pipeline, 0, len(timeRules)+len(numberRules))
	rules = append(rules, timeRules...)
	rules = append(rules, numberRules...)

	n := &Normalizer{rules: rules}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the spoken form of text. Compatibility characters such
// as fullwidth digits are folded first so that every rule sees ASCII digits.
func (n *Normalizer) Normalize(text string) string {
	if n.markdown {
		text = StripMarkdown(text)
	}
	text = norm.NFKC.String(text)
	return n.rules.Apply(text)
}

// Rules returns the names of the rules applied, in order.
func (n *Normalizer) Rules() []string {
	return n.rules.Names()
}

var defaultNormalizer = New()

// Normalize applies the default rules to plain text.
func Normalize(text string) string {
	return defaultNormalizer.Normalize(text)
}
