package utils

import (
	"strings"
	"unicode"
)

// StripSpaces lowercases s and removes every whitespace rune.
// "Xi An" -> "xian"
func StripSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// CollapseSpaces lowercases s, trims it and folds internal whitespace runs
// into a single ASCII space, keeping syllable boundaries intact.
// "  Xi   an " -> "xi an"
func CollapseSpaces(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
