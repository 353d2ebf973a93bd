package suggestion

import "strings"

// punctuation is the set removed before comparing a continuation with the
// primary text.
const punctuation = "，。、！？；：\"'“”‘’「」『』（）【】"

// leadingPunctuation marks a continuation that needs no connector.
const leadingPunctuation = "，。、！？"

const connector = "，"

// StripPunctuation removes the comparison punctuation set from s.
func StripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, s)
}

func isQuote(r rune) bool {
	switch r {
	case '"', '\'', '“', '”', '‘', '’':
		return true
	}
	return false
}

// trimQuotes removes at most one quote mark from each end.
func trimQuotes(s string) string {
	for _, r := range s {
		if isQuote(r) {
			s = s[len(string(r)):]
		}
		break
	}
	if s == "" {
		return s
	}
	runes := []rune(s)
	if last := runes[len(runes)-1]; isQuote(last) {
		s = string(runes[:len(runes)-1])
	}
	return s
}

// RepairContinuation makes a generated continuation begin with primary.
// The branches run in a fixed order:
//
//  1. trim whitespace and one quote mark at each end of raw
//  2. when the punctuation-stripped result already starts with the stripped
//     primary, the result is kept as is
//  3. when it contains the stripped primary further in, the text after that
//     occurrence is appended to primary (if it is found in the unstripped
//     result past index 0; otherwise the result is kept)
//  4. otherwise primary is prepended, joined by "，" unless the result
//     already opens with punctuation
func RepairContinuation(primary, raw string) string {
	result := trimQuotes(strings.TrimSpace(raw))

	bare := StripPunctuation(primary)
	bareResult := StripPunctuation(result)
	if strings.HasPrefix(bareResult, bare) {
		return result
	}

	if strings.Contains(bareResult, bare) {
		if idx := strings.Index(result, bare); idx > 0 {
			return primary + result[idx+len(bare):]
		}
		return result
	}

	sep := connector
	for _, r := range result {
		if strings.ContainsRune(leadingPunctuation, r) {
			sep = ""
		}
		break
	}
	return primary + sep + result
}
