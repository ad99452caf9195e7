package configtree

import "strings"

// isExoticSpace reports whether r is one of the Unicode whitespace
// codepoints the sanitizer normalizes to ASCII space (U+0020), per spec
// §4.1: U+00A0, U+2000-U+200A, U+202F, U+205F, U+3000.
func isExoticSpace(r rune) bool {
	switch r {
	case ' ', ' ', ' ', '　':
		return true
	}
	return r >= ' ' && r <= ' '
}

// Sanitize replaces every exotic-whitespace codepoint with an ASCII space
// and trims leading/trailing whitespace. It is pure, total, and O(n), and
// idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isExoticSpace(r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
