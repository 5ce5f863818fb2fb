package utils

import (
	"strings"
	"unicode"
	"unicode/utf16"
)

// CleanText collapses runs of whitespace into single spaces and trims the result.
func CleanText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// TruncateRunes returns at most max runes of s.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// PrefixUTF16 returns the first n UTF-16 code units of s, which is how browser
// string slicing counts. A surrogate pair split at the boundary keeps its
// high half, exactly like String.prototype.substring.
func PrefixUTF16(s string, n int) []uint16 {
	units := utf16.Encode([]rune(s))
	if len(units) > n {
		units = units[:n]
	}
	return units
}
