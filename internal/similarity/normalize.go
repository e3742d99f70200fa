package similarity

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes OCR text for comparison.
//
// The text is lowercased, every rune that is not a letter, digit or
// whitespace is replaced with a space, whitespace runs are collapsed to a
// single space and the result is trimmed. Letters include diacritics, both
// precomposed and combining, so "Zażółć GĘŚLĄ!" normalizes to "zażółć gęślą".
func Normalize(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))

	pendingSpace := false
	for _, r := range strings.ToLower(text) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r) {
			pendingSpace = true
			continue
		}
		if pendingSpace && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		pendingSpace = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// words splits normalized text into tokens.
func words(text string) []string {
	return strings.Fields(text)
}
