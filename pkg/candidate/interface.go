// Package candidate ranks dictionary entries for a typed pinyin query and
// pages through the ranked list.
//
// A query matches an entry in one of two tiers:
//
//	exact     the entry's pinyin with spaces removed equals the query with spaces removed
//	boundary  the entry's pinyin starts with the query followed by a syllable space
//
// so "xi" finds 西 (xi) and 西安 (xi an) but not 下 (xia). Exact matches rank
// before boundary matches; inside a tier higher frequency wins and equal
// frequencies keep dictionary order.
package candidate

import "github.com/YanaYuan/chinese-pinyin-ime/pkg/dictionary"

// Source produces the full ranked candidate list for a query.
type Source interface {
	// Match returns every matching entry, best first. It never truncates.
	Match(query string) []dictionary.Entry
}
