package normalize

import (
	"math"
	"strconv"
	"strings"
)

// DollarsToWords speaks a plain decimal amount such as "1234.50" as
// "one thousand two hundred thirty-four dollars and fifty cents".
//
// The input must already be stripped of signs, currency symbols and
// thousands separators. The fraction is rounded to whole cents; a fraction
// that rounds up to a full dollar carries into the dollar amount.
func DollarsToWords(numeric string) string {
	intRaw, fracRaw, _ := strings.Cut(numeric, ".")

	dollars := trimLeadingZeros(intRaw)
	if dollars == "" {
		dollars = "0"
	}

	cents := roundCents(fracRaw)
	if cents == 100 {
		dollars = incrementDigits(dollars)
		cents = 0
	}

	dWords := IntToWordsSafe(dollars)
	dUnit := "dollars"
	if dollars == "1" {
		dUnit = "dollar"
	}

	if cents == 0 {
		return dWords + " " + dUnit
	}

	cWords := NumberToWords(cents)
	cUnit := "cents"
	if cents == 1 {
		cUnit = "cent"
	}

	if dollars == "0" {
		return cWords + " " + cUnit
	}
	return dWords + " " + dUnit + " and " + cWords + " " + cUnit
}

// roundCents interprets frac as the digits after a decimal point and rounds
// it to hundredths, halves rounding up.
func roundCents(frac string) int {
	if frac == "" {
		return 0
	}
	f, err := strconv.ParseFloat("0."+frac, 64)
	if err != nil {
		return 0
	}
	return int(math.Floor(f*100 + 0.5))
}

// incrementDigits adds one to a string of decimal digits of any length.
func incrementDigits(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}
