package tts

import "unicode"

// WordBoundaries returns a "word" boundary at the byte offset of every word
// in text. Engines without native boundary events use it to pace pulses.
func WordBoundaries(text string) []Boundary {
	var bounds []Boundary
	inWord := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			bounds = append(bounds, Boundary{Name: "word", CharIndex: i})
			inWord = true
		}
	}
	return bounds
}
