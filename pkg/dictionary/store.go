package dictionary

import (
	"strings"

	"github.com/charmbracelet/log"
)

// Store is the loaded, read-only dictionary. The zero value is not usable;
// use Load, LoadFile or Empty.
type Store struct {
	entries      []Entry
	maxFrequency int
	multiSyll    int
}

// StoreStats summarises a Store.
type StoreStats struct {
	Entries      int
	MultiSyll    int
	MaxFrequency int
}

// Empty returns a store with no entries.
func Empty() *Store {
	return &Store{}
}

// NewStore builds a store from entries, in order. It exists mainly for
// tests and tools; entries are cleaned the same way the loaders do.
func NewStore(entries []Entry) *Store {
	return newStore(entries)
}

func newStore(raw []Entry) *Store {
	s := &Store{entries: make([]Entry, 0, len(raw))}
	skipped := 0
	for _, e := range raw {
		e, ok := e.clean()
		if !ok {
			skipped++
			continue
		}
		if e.Frequency > s.maxFrequency {
			s.maxFrequency = e.Frequency
		}
		if strings.Contains(e.Pinyin, " ") {
			s.multiSyll++
		}
		s.entries = append(s.entries, e)
	}
	if skipped > 0 {
		log.Debugf("Skipped %d dictionary entries with empty text or pinyin", skipped)
	}
	return s
}

// Len returns the number of entries; a nil store has none.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// At returns the i-th entry in source order.
func (s *Store) At(i int) Entry {
	return s.entries[i]
}

// Entries returns a copy of all entries in source order.
func (s *Store) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Stats returns counts describing the store.
func (s *Store) Stats() StoreStats {
	if s == nil {
		return StoreStats{}
	}
	return StoreStats{
		Entries:      len(s.entries),
		MultiSyll:    s.multiSyll,
		MaxFrequency: s.maxFrequency,
	}
}
