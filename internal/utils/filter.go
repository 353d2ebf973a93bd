package utils

// IsSeparator checks if a rune is a syllable separator accepted in pinyin input
func IsSeparator(r rune) bool {
	return r == ' ' || r == '\''
}

// isPinyinLetter accepts ASCII letters plus ü, which some users type instead of v.
func isPinyinLetter(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r == 'ü' || r == 'Ü':
		return true
	}
	return false
}

// IsPinyinInput reports whether s looks like typed pinyin: letters and
// syllable separators only, with at least one letter.
// Tone numbers are rejected since the dictionary carries toneless pinyin.
func IsPinyinInput(s string) bool {
	letters := 0
	for _, r := range s {
		switch {
		case isPinyinLetter(r):
			letters++
		case IsSeparator(r):
		default:
			return false
		}
	}
	return letters > 0
}
