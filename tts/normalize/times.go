package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	clockPattern = regexp.MustCompile(`\b(\d{1,2}):([0-5]\d)\s*([AaPp])\.?\s*[Mm](?:\.|\b)`)
	hourPattern  = regexp.MustCompile(`\b(\d{1,2})\s*([AaPp])\.?\s*[Mm](?:\.|\b)`)
)

// timeRules handle "h:mm am" before bare "h am" so the minutes are never
// read as a separate numeral.
var timeRules = Pipeline{
	{Name: "clock", Pattern: clockPattern, Replace: replaceClock},
	{Name: "hour", Pattern: hourPattern, Replace: replaceHour},
}

// EnglishifyTimes rewrites 12-hour clock times such as "10:05 PM" or "7am"
// into words: "ten oh five pm", "seven am".
func EnglishifyTimes(text string) string {
	return timeRules.Apply(text)
}

func replaceClock(m Match) string {
	return timeWords(m.Group(1), m.Group(2), m.Group(3)) + trailingDot(m)
}

func replaceHour(m Match) string {
	return timeWords(m.Group(1), "", m.Group(2)) + trailingDot(m)
}

// trailingDot gives back a period consumed as part of "p.m." so that a
// sentence ending in a time keeps its full stop.
func trailingDot(m Match) string {
	if strings.HasSuffix(m.Text(), ".") {
		return "."
	}
	return ""
}

func timeWords(hour, minutes, meridiem string) string {
	h, _ := strconv.Atoi(hour)
	h %= 12
	if h == 0 {
		h = 12
	}

	ampm := "am"
	if strings.EqualFold(meridiem, "p") {
		ampm = "pm"
	}

	hw := NumberToWords(h)
	if minutes == "" {
		return hw + " " + ampm
	}

	mm, _ := strconv.Atoi(minutes)
	switch {
	case mm == 0:
		return hw + " o'clock " + ampm
	case mm < 10:
		return hw + " oh " + NumberToWords(mm) + " " + ampm
	default:
		return hw + " " + NumberToWords(mm) + " " + ampm
	}
}
