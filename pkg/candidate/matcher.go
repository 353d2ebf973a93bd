package candidate

import (
	"sort"

	"github.com/YanaYuan/chinese-pinyin-ime/internal/utils"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/dictionary"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// DefaultCacheSize is the number of recent queries whose results are kept.
const DefaultCacheSize = 256

// Matcher indexes a dictionary.Store for candidate lookups. It is safe for
// concurrent use once constructed.
type Matcher struct {
	store *dictionary.Store
	// exact maps space-stripped lowercase pinyin -> entry indices.
	exact *patricia.Trie
	// spaced maps lowercase pinyin with syllable spaces -> entry indices.
	spaced *patricia.Trie
	cache  *resultCache
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithCacheSize sets the result cache size; 0 disables caching.
func WithCacheSize(n int) Option {
	return func(m *Matcher) {
		m.cache = newResultCache(n)
	}
}

// NewMatcher builds the lookup tries for store. A nil or empty store gives a
// matcher that reports no candidates for every query.
func NewMatcher(store *dictionary.Store, opts ...Option) *Matcher {
	if store == nil {
		store = dictionary.Empty()
	}
	m := &Matcher{
		store:  store,
		exact:  patricia.NewTrie(),
		spaced: patricia.NewTrie(),
		cache:  newResultCache(DefaultCacheSize),
	}
	for _, o := range opts {
		o(m)
	}

	for i := 0; i < store.Len(); i++ {
		pinyin := store.At(i).Pinyin
		addIndex(m.exact, utils.StripSpaces(pinyin), i)
		addIndex(m.spaced, utils.CollapseSpaces(pinyin), i)
	}
	log.Debugf("Candidate index built: %d entries", store.Len())
	return m
}

func addIndex(trie *patricia.Trie, key string, idx int) {
	if key == "" {
		return
	}
	prefix := patricia.Prefix(key)
	if item := trie.Get(prefix); item != nil {
		trie.Set(prefix, append(item.([]int), idx))
		return
	}
	trie.Insert(prefix, []int{idx})
}

// Match implements Source.
func (m *Matcher) Match(query string) []dictionary.Entry {
	normalized := utils.StripSpaces(query)
	if normalized == "" || m.store.Len() == 0 {
		return nil
	}
	// The boundary form keeps the user's own syllable spaces: "xi an" must
	// match "xi an shi" at a boundary, while "xian" must not.
	boundary := utils.CollapseSpaces(query)

	if cached, ok := m.cache.get(boundary); ok {
		return cloneEntries(cached)
	}

	var exactIdx []int
	if item := m.exact.Get(patricia.Prefix(normalized)); item != nil {
		exactIdx = append(exactIdx, item.([]int)...)
	}

	var boundaryIdx []int
	err := m.spaced.VisitSubtree(patricia.Prefix(boundary+" "), func(_ patricia.Prefix, item patricia.Item) error {
		boundaryIdx = append(boundaryIdx, item.([]int)...)
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting candidate trie: %v", err)
		return nil
	}

	results := make([]dictionary.Entry, 0, len(exactIdx)+len(boundaryIdx))
	results = append(results, m.rank(exactIdx)...)
	results = append(results, m.rank(boundaryIdx)...)

	m.cache.put(boundary, results)
	return cloneEntries(results)
}

// rank orders one tier: frequency descending, dictionary order on ties.
func (m *Matcher) rank(indices []int) []dictionary.Entry {
	sort.Ints(indices)
	entries := make([]dictionary.Entry, len(indices))
	for i, idx := range indices {
		entries[i] = m.store.At(idx)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Frequency > entries[j].Frequency
	})
	return entries
}

// Stats returns index and cache counters.
func (m *Matcher) Stats() map[string]int {
	stats := m.cache.stats()
	st := m.store.Stats()
	stats["entries"] = st.Entries
	stats["multiSyllable"] = st.MultiSyll
	stats["maxFrequency"] = st.MaxFrequency
	return stats
}

func cloneEntries(in []dictionary.Entry) []dictionary.Entry {
	if len(in) == 0 {
		return nil
	}
	out := make([]dictionary.Entry, len(in))
	copy(out, in)
	return out
}
