package candidate

import (
	"math"
	"sync"

	"github.com/YanaYuan/chinese-pinyin-ime/pkg/dictionary"
	"github.com/charmbracelet/log"
)

// resultCache keeps ranked results for recently typed queries. The store is
// immutable so entries never go stale; only the least recently used one is
// evicted when the cache is full.
type resultCache struct {
	results     map[string][]dictionary.Entry
	accessTime  map[string]int64
	accessCount int64
	hits        int64
	maxEntries  int
	mu          sync.Mutex
}

func newResultCache(maxEntries int) *resultCache {
	if maxEntries <= 0 {
		return nil
	}
	return &resultCache{
		results:    make(map[string][]dictionary.Entry, maxEntries),
		accessTime: make(map[string]int64, maxEntries),
		maxEntries: maxEntries,
	}
}

func (rc *resultCache) get(key string) ([]dictionary.Entry, bool) {
	if rc == nil {
		return nil, false
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()

	res, ok := rc.results[key]
	if !ok {
		return nil, false
	}
	rc.hits++
	rc.markAccessed(key)
	return res, true
}

func (rc *resultCache) put(key string, res []dictionary.Entry) {
	if rc == nil {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if _, exists := rc.results[key]; !exists && len(rc.results) >= rc.maxEntries {
		rc.evictLRU()
	}
	rc.results[key] = res
	rc.markAccessed(key)
}

func (rc *resultCache) stats() map[string]int {
	if rc == nil {
		return map[string]int{"cacheEntries": 0, "maxCacheEntries": 0, "cacheHits": 0}
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return map[string]int{
		"cacheEntries":    len(rc.results),
		"maxCacheEntries": rc.maxEntries,
		"cacheHits":       int(rc.hits),
	}
}

func (rc *resultCache) markAccessed(key string) {
	rc.accessCount++
	rc.accessTime[key] = rc.accessCount
}

func (rc *resultCache) evictLRU() {
	var oldestKey string
	var oldestTime int64 = math.MaxInt64

	for key, t := range rc.accessTime {
		if t < oldestTime {
			oldestTime = t
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(rc.results, oldestKey)
		delete(rc.accessTime, oldestKey)
		log.Debugf("Evicted query '%s' from result cache", oldestKey)
	}
}
