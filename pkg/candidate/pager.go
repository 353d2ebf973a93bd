package candidate

import (
	"errors"

	"github.com/YanaYuan/chinese-pinyin-ime/internal/utils"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/dictionary"
)

// PageSize is the number of candidates shown per page.
const PageSize = 10

var (
	// ErrFirstPage is returned by Prev on page 0.
	ErrFirstPage = errors.New("already at first page")
	// ErrLastPage is returned by Next on the last page, or when there are no results.
	ErrLastPage = errors.New("already at last page")
	// ErrNoCandidate is returned by Select for a slot outside the current page.
	ErrNoCandidate = errors.New("no candidate at that position")
)

// Pager holds the ranked list for the current query and a 0-indexed page cursor.
type Pager struct {
	source  Source
	query   string
	results []dictionary.Entry
	page    int
}

// NewPager returns a pager over source with no active query.
func NewPager(source Source) *Pager {
	return &Pager{source: source}
}

// SetQuery re-runs the match when the normalized query differs from the
// current one and resets the page to 0. It reports whether the query changed.
func (p *Pager) SetQuery(query string) bool {
	key := utils.CollapseSpaces(query)
	if key == p.query && p.results != nil {
		return false
	}
	p.query = key
	p.page = 0
	p.results = nil
	if key != "" && p.source != nil {
		p.results = p.source.Match(query)
	}
	if p.results == nil {
		p.results = []dictionary.Entry{}
	}
	return true
}

// Reset drops the current query and results.
func (p *Pager) Reset() {
	p.query = ""
	p.results = nil
	p.page = 0
}

// Query returns the normalized active query.
func (p *Pager) Query() string { return p.query }

// Total returns the size of the full ranked list.
func (p *Pager) Total() int { return len(p.results) }

// Index returns the current 0-indexed page.
func (p *Pager) Index() int { return p.page }

// TotalPages returns ceil(Total/PageSize).
func (p *Pager) TotalPages() int {
	return (len(p.results) + PageSize - 1) / PageSize
}

// Page returns the entries on the current page.
func (p *Pager) Page() []dictionary.Entry {
	return p.PageAt(p.page)
}

// PageAt returns the entries on page i, or nil when i is out of range.
func (p *Pager) PageAt(i int) []dictionary.Entry {
	if i < 0 || i >= p.TotalPages() {
		return nil
	}
	start := i * PageSize
	end := min(start+PageSize, len(p.results))
	return cloneEntries(p.results[start:end])
}

// Next moves to the following page. On the last page it returns
// ErrLastPage and the cursor does not move.
func (p *Pager) Next() error {
	if p.page >= p.TotalPages()-1 {
		return ErrLastPage
	}
	p.page++
	return nil
}

// Prev moves to the previous page. On page 0 it returns ErrFirstPage and
// the cursor does not move.
func (p *Pager) Prev() error {
	if p.page <= 0 {
		return ErrFirstPage
	}
	p.page--
	return nil
}

// Select returns the candidate at 0-based slot on the current page.
func (p *Pager) Select(slot int) (dictionary.Entry, error) {
	page := p.Page()
	if slot < 0 || slot >= len(page) {
		return dictionary.Entry{}, ErrNoCandidate
	}
	return page[slot], nil
}
