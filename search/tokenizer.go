package search

import (
	"strings"
	"unicode"
)

// isWordRune reports whether r belongs to a word: letters, numbers and underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Tokenize lowercases text and splits it into maximal runs of word characters.
// Punctuation and whitespace are separators and never appear in the output.
//
// Lowercasing is the one-to-one Unicode simple case mapping, so every rune
// maps to exactly one rune: "İstanbul" yields the single token "istanbul"
// rather than a dotted i followed by a combining mark, and a final capital
// sigma lowercases to σ, never ς.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
}
