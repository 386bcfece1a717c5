package normalize

import (
	"strings"
	"testing"
	"unicode"
)

func TestNumberToWords(t *testing.T) {
	tests := []struct {
		n        int
		expected string
	}{
		{0, "zero"},
		{1, "one"},
		{9, "nine"},
		{10, "ten"},
		{13, "thirteen"},
		{19, "nineteen"},
		{20, "twenty"},
		{21, "twenty-one"},
		{40, "forty"},
		{99, "ninety-nine"},
		{100, "one hundred"},
		{101, "one hundred one"},
		{110, "one hundred ten"},
		{999, "nine hundred ninety-nine"},
		{1000, "one thousand"},
		{1001, "one thousand one"},
		{1234, "one thousand two hundred thirty-four"},
		{20000, "twenty thousand"},
		{1000000, "one million"},
		{1000100, "one million one hundred"},
		{123456789, "one hundred twenty-three million four hundred fifty-six thousand seven hundred eighty-nine"},
		{999999999, "nine hundred ninety-nine million nine hundred ninety-nine thousand nine hundred ninety-nine"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := NumberToWords(tt.n); got != tt.expected {
				t.Errorf("NumberToWords(%d) = %q, want %q", tt.n, got, tt.expected)
			}
		})
	}
}

func TestNumberToWordsOutOfRange(t *testing.T) {
	if got := NumberToWords(-5); got != "minus five" {
		t.Errorf("NumberToWords(-5) = %q", got)
	}
	if got := NumberToWords(1000000000); got != "one zero zero zero zero zero zero zero zero zero" {
		t.Errorf("NumberToWords(1e9) = %q", got)
	}
}

// wordsToNumber parses the output of NumberToWords back into an integer.
func wordsToNumber(t *testing.T, s string) int {
	t.Helper()
	small := map[string]int{}
	for i, w := range onesWords {
		if w != "" {
			small[w] = i
		}
	}
	for i, w := range teenWords {
		small[w] = 10 + i
	}
	for i, w := range tensWords {
		if w != "" {
			small[w] = i * 10
		}
	}
	small["zero"] = 0

	total, group := 0, 0
	for _, tok := range strings.Fields(s) {
		switch tok {
		case "hundred":
			group *= 100
		case "thousand":
			total += group * 1000
			group = 0
		case "million":
			total += group * 1000000
			group = 0
		default:
			for _, part := range strings.Split(tok, "-") {
				v, ok := small[part]
				if !ok {
					t.Fatalf("unexpected word %q in %q", part, s)
				}
				group += v
			}
		}
	}
	return total + group
}

func TestNumberToWordsRoundTrip(t *testing.T) {
	samples := []int{0, 7, 15, 42, 100, 305, 1010, 11011, 70000, 100001, 999000, 1000001, 12345678, 500600700, 999999999}
	for n := 1; n < 5000; n += 37 {
		samples = append(samples, n)
	}
	for n := 1; n <= 999999999; n = n*7 + 3 {
		samples = append(samples, n)
	}

	for _, n := range samples {
		words := NumberToWords(n)
		if strings.IndexFunc(words, unicode.IsDigit) >= 0 {
			t.Errorf("NumberToWords(%d) contains digits: %q", n, words)
		}
		if strings.Contains(words, "  ") || strings.TrimSpace(words) != words {
			t.Errorf("NumberToWords(%d) has irregular spacing: %q", n, words)
		}
		if got := wordsToNumber(t, words); got != n {
			t.Errorf("round trip of %d via %q gave %d", n, words, got)
		}
	}
}

func TestIntToWordsSafe(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0", "zero"},
		{"000", "zero"},
		{"007", "seven"},
		{"", "zero"},
		{"999999999", "nine hundred ninety-nine million nine hundred ninety-nine thousand nine hundred ninety-nine"},
		{"123456789012", "one two three four five six seven eight nine zero one two"},
		{"0001234567890", "one two three four five six seven eight nine zero"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IntToWordsSafe(tt.input); got != tt.expected {
				t.Errorf("IntToWordsSafe(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDigitWord(t *testing.T) {
	if got := DigitWord('7'); got != "seven" {
		t.Errorf("DigitWord('7') = %q", got)
	}
	if got := DigitWord('0'); got != "zero" {
		t.Errorf("DigitWord('0') = %q", got)
	}
	if got := DigitWord('x'); got != "x" {
		t.Errorf("DigitWord('x') = %q", got)
	}
}

func TestDollarsToWords(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0", "zero dollars"},
		{"0.01", "one cent"},
		{"0.5", "fifty cents"},
		{"1", "one dollar"},
		{"1.00", "one dollar"},
		{"1.01", "one dollar and one cent"},
		{"2", "two dollars"},
		{"19.99", "nineteen dollars and ninety-nine cents"},
		{"1234.50", "one thousand two hundred thirty-four dollars and fifty cents"},
		{"0.999", "one dollar"},
		{"007.25", "seven dollars and twenty-five cents"},
		{"1234567890", "one two three four five six seven eight nine zero dollars"},
		{"999999999.999", "one zero zero zero zero zero zero zero zero zero dollars"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DollarsToWords(tt.input); got != tt.expected {
				t.Errorf("DollarsToWords(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
