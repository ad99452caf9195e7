package rules

// isBoundaryRune reports whether r may terminate a selector match: a
// selector matches a node id only up to a whitespace boundary.
func isBoundaryRune(r rune) bool {
	return r == ' ' || r == '\t'
}

// selectorMatches reports whether nodeID satisfies selector, per the
// prefix-with-whitespace-boundary rule: empty selector matches everything;
// otherwise nodeID must start with selector (ASCII-case-insensitively),
// followed by end-of-string or a boundary rune. A selector with leading
// whitespace is selector misuse and matches nothing, never errors.
func selectorMatches(nodeID, selector string) bool {
	if selector == "" {
		return true
	}
	if len(selector) > 0 && isBoundaryRune(rune(selector[0])) {
		return false
	}

	id := []rune(nodeID)
	sel := []rune(selector)
	if len(id) < len(sel) {
		return false
	}
	for i, r := range sel {
		if asciiLower(id[i]) != asciiLower(r) {
			return false
		}
	}
	if len(id) == len(sel) {
		return true
	}
	return isBoundaryRune(id[len(sel)])
}

func asciiLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
