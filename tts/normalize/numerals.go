package normalize

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
)

var (
	currencyPattern = regexp.MustCompile(`(\s*)(?:-\s*)?\$\s*(?:-\s*)?(\d[\d,]*(?:\.\d+)?)`)
	percentPattern  = regexp.MustCompile(`(\s*)(?:-\s*)?(\d[\d,]*(?:\.\d+)?)\s*%`)
	numeralPattern  = regexp.MustCompile(`\d[\d,.]*\d|\b\d\b`)

	// thousandsGroup detects a comma followed by exactly three digits.
	thousandsGroup = regexp.MustCompile(`\d,\d{3}(?:\D|$)`)
	plainDecimal   = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// numberRules run in order: currency first so "$12.50" never reaches the
// percentage or residual passes, percentages before bare numerals.
var numberRules = Pipeline{
	{Name: "currency", Pattern: currencyPattern, Replace: replaceCurrency},
	{Name: "percent", Pattern: percentPattern, Replace: replacePercent},
	{Name: "numeral", Pattern: numeralPattern, Replace: replaceNumeral},
}

// EnglishifyNumbers rewrites currency amounts, percentages and the remaining
// numerals in text into words.
func EnglishifyNumbers(text string) string {
	return numberRules.Apply(text)
}

func replaceCurrency(m Match) string {
	lead := m.Group(1)
	amount := strings.ReplaceAll(m.Group(2), ",", "")

	words := DollarsToWords(amount)
	if strings.Contains(m.Text(), "-") {
		words = "minus " + words
	}
	return lead + words
}

func replacePercent(m Match) string {
	lead := m.Group(1)
	num := strings.ReplaceAll(m.Group(2), ",", "")

	words := decimalWords(num) + " percent"
	if strings.Contains(m.Text(), "-") {
		words = "minus " + words
	}
	return lead + words
}

func replaceNumeral(m Match) string {
	raw := m.Text()

	// Part of an identifier such as "MP3" or "A4".
	if r, ok := m.Before(); ok && isASCIILetter(r) {
		return raw
	}

	cleaned, err := stripSeparators(raw)
	if err != nil {
		log.Debug("numeral left unchanged", "numeral", raw, "err", err)
		return raw
	}
	return decimalWords(cleaned)
}

// stripSeparators removes thousands separators from a numeral. Commas are
// only treated as separators when the numeral has no decimal point, or when
// a three-digit group follows one. Numerals that still carry a comma or have
// more than one dot afterwards are reported as malformed.
func stripSeparators(raw string) (string, error) {
	hasComma := strings.Contains(raw, ",")
	hasDot := strings.Contains(raw, ".")

	cleaned := raw
	if hasComma && (!hasDot || thousandsGroup.MatchString(raw)) {
		cleaned = strings.ReplaceAll(raw, ",", "")
	}
	if !plainDecimal.MatchString(cleaned) {
		return "", ErrMalformedNumeral
	}
	return cleaned, nil
}

// decimalWords speaks "<int>" or "<int> point <digit> <digit>...".
func decimalWords(num string) string {
	intPart, fracPart, ok := strings.Cut(num, ".")
	words := IntToWordsSafe(intPart)
	if !ok || fracPart == "" {
		return words
	}
	return words + " point " + SpellDigits(fracPart)
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
