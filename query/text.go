package query

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes s for case-insensitive matching: NFC composition followed
// by Unicode case folding.
func Fold(s string) string {
	if s == "" {
		return s
	}
	// Casers are not shared between goroutines.
	return cases.Fold().String(norm.NFC.String(s))
}

// Words splits a search term into folded, whitespace-separated words.
func Words(term string) []string {
	return strings.Fields(Fold(term))
}
