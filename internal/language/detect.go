package language

import "unicode"

// Code is a detected interview language.
type Code string

const (
	English Code = "en"
	Hebrew  Code = "he"
)

// minSignificantRunes is the minimum number of letters required before a
// classification is attempted. Shorter inputs fall back to English.
const minSignificantRunes = 3

// Detect classifies the language of a single turn of text.
//
// Detect is a pure function: the same input always yields the same code. It
// only ever picks from the supported set {en, he} and defaults to English for
// short or ambiguous input. It never rejects a turn.
func Detect(text string) Code {
	var hebrew, other int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		if isHebrewLetter(r) {
			hebrew++
		} else {
			other++
		}
	}

	if hebrew+other < minSignificantRunes {
		return English
	}
	if hebrew > other {
		return Hebrew
	}
	return English
}

// Valid reports whether code is one of the supported languages.
func (c Code) Valid() bool {
	return c == English || c == Hebrew
}

func isHebrewLetter(r rune) bool {
	return r >= 0x0590 && r <= 0x05FF
}
