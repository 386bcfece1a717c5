// Package normalize rewrites the numerals, currency amounts, percentages and
// clock times found in prose into the words a speech engine should say.
package normalize

import (
	"strconv"
	"strings"
)

// MaxWordsValue is the largest integer NumberToWords spells out in words.
const MaxWordsValue = 999_999_999

// maxWordsDigits is the digit count above which integers are spoken
// digit-by-digit.
const maxWordsDigits = 9

var (
	onesWords = [...]string{"", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}
	teenWords = [...]string{
		"ten", "eleven", "twelve", "thirteen", "fourteen",
		"fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
	}
	tensWords  = [...]string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
	digitWords = [...]string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}
)

// NumberToWords converts n into English words, e.g. 1234 becomes
// "one thousand two hundred thirty-four". Zero is "zero".
//
// Values above MaxWordsValue are spoken digit-by-digit and negative values
// are prefixed with "minus".
func NumberToWords(n int) string {
	switch {
	case n == 0:
		return "zero"
	case n < 0:
		return "minus " + NumberToWords(-n)
	case n > MaxWordsValue:
		return SpellDigits(strconv.Itoa(n))
	}

	parts := make([]string, 0, 3)
	millions := n / 1_000_000
	thousands := (n % 1_000_000) / 1_000
	rest := n % 1_000

	if millions > 0 {
		parts = append(parts, underThousand(millions)+" million")
	}
	if thousands > 0 {
		parts = append(parts, underThousand(thousands)+" thousand")
	}
	if rest > 0 {
		parts = append(parts, underThousand(rest))
	}
	return strings.Join(parts, " ")
}

// underThousand renders 1..999.
func underThousand(x int) string {
	var b strings.Builder
	h, r := x/100, x%100

	if h > 0 {
		b.WriteString(onesWords[h])
		b.WriteString(" hundred")
		if r > 0 {
			b.WriteByte(' ')
		}
	}

	switch {
	case r >= 20:
		b.WriteString(tensWords[r/10])
		if r%10 > 0 {
			b.WriteByte('-')
			b.WriteString(onesWords[r%10])
		}
	case r >= 10:
		b.WriteString(teenWords[r-10])
	case r > 0:
		b.WriteString(onesWords[r])
	}
	return b.String()
}

// IntToWordsSafe speaks a string of decimal digits. Up to nine significant
// digits are read as a number; longer runs are read one digit at a time so
// that account numbers and the like never overflow.
func IntToWordsSafe(digits string) string {
	digits = trimLeadingZeros(digits)
	if digits == "" {
		return "zero"
	}
	if len(digits) > maxWordsDigits {
		return SpellDigits(digits)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return SpellDigits(digits)
	}
	return NumberToWords(n)
}

// SpellDigits reads every character of s on its own: "305" becomes
// "three zero five". Non-digits are kept as they are.
func SpellDigits(s string) string {
	words := make([]string, 0, len(s))
	for _, r := range s {
		words = append(words, DigitWord(r))
	}
	return strings.Join(words, " ")
}

// DigitWord returns the word for a single decimal digit, or the rune itself
// when it is not a digit.
func DigitWord(r rune) string {
	if r >= '0' && r <= '9' {
		return digitWords[r-'0']
	}
	return string(r)
}

// trimLeadingZeros drops leading zeros but keeps a lone "0".
func trimLeadingZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" && s != "" {
		return "0"
	}
	return t
}
