package candidate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/YanaYuan/chinese-pinyin-ime/pkg/dictionary"
	"github.com/charmbracelet/log"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func newTestMatcher(entries ...dictionary.Entry) *Matcher {
	return NewMatcher(dictionary.NewStore(entries))
}

func texts(entries []dictionary.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

func TestMatchEndToEnd(t *testing.T) {
	m := newTestMatcher(
		dictionary.Entry{Text: "你好", Pinyin: "ni hao", Frequency: 100},
		dictionary.Entry{Text: "你", Pinyin: "ni", Frequency: 90},
	)

	got := texts(m.Match("ni"))
	want := []string{"你", "你好"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Match(ni) = %v, want %v (exact tier before boundary tier)", got, want)
	}

	got = texts(m.Match("nihao"))
	if len(got) != 1 || got[0] != "你好" {
		t.Errorf("Match(nihao) = %v, want [你好]", got)
	}
}

// Boundary matching must respect syllable breaks, not raw string prefixes.
func TestMatchSyllableBoundary(t *testing.T) {
	m := newTestMatcher(
		dictionary.Entry{Text: "下", Pinyin: "xia", Frequency: 500},
		dictionary.Entry{Text: "西安", Pinyin: "xi an", Frequency: 80},
		dictionary.Entry{Text: "西", Pinyin: "xi", Frequency: 60},
		dictionary.Entry{Text: "现在", Pinyin: "xian zai", Frequency: 400},
		dictionary.Entry{Text: "希望", Pinyin: "xi wang", Frequency: 300},
	)

	testCases := []struct {
		query string
		want  []string
	}{
		{"xi", []string{"西", "希望", "西安"}},
		{"XI", []string{"西", "希望", "西安"}},
		{"xian", []string{"西安", "现在"}},
		{"xi an", []string{"西安"}},
		{"xia", []string{"下"}},
		{"  ", nil},
		{"zzz", nil},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("query_%q", tc.query), func(t *testing.T) {
			got := texts(m.Match(tc.query))
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Errorf("Match(%q) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}

	for _, e := range m.Match("xi") {
		if e.Pinyin == "xia" {
			t.Error("xi must not match xia")
		}
	}
}

func TestMatchStableTies(t *testing.T) {
	m := newTestMatcher(
		dictionary.Entry{Text: "吸", Pinyin: "xi", Frequency: 10},
		dictionary.Entry{Text: "喜", Pinyin: "xi", Frequency: 20},
		dictionary.Entry{Text: "希", Pinyin: "xi", Frequency: 10},
		dictionary.Entry{Text: "席", Pinyin: "xi", Frequency: 10},
	)
	got := texts(m.Match("xi"))
	want := []string{"喜", "吸", "希", "席"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Match(xi) = %v, want %v", got, want)
	}
}

// For every query: the exact tier precedes the boundary tier and each tier is
// sorted by descending frequency with dictionary order on ties.
func TestMatchOrderingProperty(t *testing.T) {
	syllables := []string{"xi", "an", "ni", "hao", "xia", "wang"}
	var entries []dictionary.Entry
	for i := 0; i < 120; i++ {
		a := syllables[i%len(syllables)]
		b := syllables[(i/len(syllables))%len(syllables)]
		pinyin := a
		if i%3 != 0 {
			pinyin = a + " " + b
		}
		entries = append(entries, dictionary.Entry{
			Text:      fmt.Sprintf("w%03d", i),
			Pinyin:    pinyin,
			Frequency: (i * 37) % 11,
		})
	}
	m := newTestMatcher(entries...)
	order := make(map[string]int, len(entries))
	for i, e := range entries {
		order[e.Text] = i
	}

	for _, q := range append(syllables, "xian", "ni hao", "xi an") {
		norm := strings.ReplaceAll(q, " ", "")
		results := m.Match(q)
		seenBoundary := false
		for i, e := range results {
			exact := strings.ReplaceAll(e.Pinyin, " ", "") == norm
			if !exact && !strings.HasPrefix(e.Pinyin, q+" ") {
				t.Fatalf("query %q: %s (%s) matches neither tier", q, e.Text, e.Pinyin)
			}
			if exact && seenBoundary {
				t.Fatalf("query %q: exact match %s after a boundary match", q, e.Text)
			}
			if !exact {
				seenBoundary = true
			}
			if i == 0 {
				continue
			}
			prev := results[i-1]
			prevExact := strings.ReplaceAll(prev.Pinyin, " ", "") == norm
			if prevExact != exact {
				continue
			}
			if prev.Frequency < e.Frequency {
				t.Fatalf("query %q: %s before %s breaks frequency order", q, prev.Text, e.Text)
			}
			if prev.Frequency == e.Frequency && order[prev.Text] > order[e.Text] {
				t.Fatalf("query %q: tie between %s and %s not stable", q, prev.Text, e.Text)
			}
		}
	}
}

func TestMatchEmptyStore(t *testing.T) {
	for _, m := range []*Matcher{NewMatcher(nil), NewMatcher(dictionary.Empty())} {
		if got := m.Match("ni"); len(got) != 0 {
			t.Errorf("expected no candidates, got %v", got)
		}
	}
}

func TestMatchCache(t *testing.T) {
	m := NewMatcher(dictionary.NewStore([]dictionary.Entry{
		{Text: "你", Pinyin: "ni", Frequency: 1},
	}), WithCacheSize(1))

	first := m.Match("ni")
	first[0].Text = "mutated"
	second := m.Match("ni")
	if second[0].Text != "你" {
		t.Fatal("cached results must not be shared with callers")
	}
	if hits := m.Stats()["cacheHits"]; hits != 1 {
		t.Errorf("expected 1 cache hit, got %d", hits)
	}

	m.Match("nihao")
	if n := m.Stats()["cacheEntries"]; n != 1 {
		t.Errorf("cache should evict down to 1 entry, got %d", n)
	}

	off := NewMatcher(dictionary.NewStore([]dictionary.Entry{{Text: "你", Pinyin: "ni"}}), WithCacheSize(0))
	off.Match("ni")
	if n := off.Stats()["cacheEntries"]; n != 0 {
		t.Errorf("disabled cache should stay empty, got %d", n)
	}
}
