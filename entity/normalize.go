package entity

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// corpMarkers are corporate-form markers dropped before matching.
var corpMarkers = []string{"(주)", "（주）", "㈜"}

// Normalize canonicalizes a company name or query: NFC composition, removal
// of the "(주)" and "㈜" markers, whitespace collapsed to single spaces,
// trimmed, and Latin letters lower-cased.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	for _, m := range corpMarkers {
		s = strings.ReplaceAll(s, m, "")
	}
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

const (
	tickerLen       = 6
	registryCodeLen = 8
)

// isDigits reports whether s is exactly n ASCII digits.
func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
