// Package results holds the ordered outcome of one validation run and its
// presentation projections.
//
// The store preserves input-row order: results are appended as the engine
// emits them and never reordered in place. Sorting and filtering are
// non-mutating views, and the CSV export re-serializes the run for
// download.
package results

import (
	"sort"
	"strings"
	"sync"

	"bookcheck/internal/mapping"
	"bookcheck/internal/normalize"
	"bookcheck/internal/validate"
)

// SortField selects the column a view is ordered by.
type SortField string

const (
	SortByTitle  SortField = "title"
	SortByISBN   SortField = "isbn"
	SortByPrice  SortField = "price"
	SortByAuthor SortField = "author"
	SortByStatus SortField = "status"
)

// SortDirection is "asc", "desc", or "" for input order.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
	Unsorted   SortDirection = ""
)

// Store collects the ValidationResults of a single engine run. A new run
// replaces the store wholesale; runs are never merged. Reads and the
// engine's appends may overlap, so access is guarded.
type Store struct {
	mu      sync.RWMutex
	mapping mapping.Mapping
	results []validate.Result
}

// NewStore creates an empty store for a run over rows mapped by m.
func NewStore(m mapping.Mapping) *Store {
	return &Store{mapping: m}
}

// Append adds the next result in input-row order.
func (s *Store) Append(r validate.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

// Len returns the number of results appended so far.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// Results returns the results in input-row order.
func (s *Store) Results() []validate.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]validate.Result, len(s.results))
	copy(out, s.results)
	return out
}

// Counts returns how many results fall into each outcome.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int, 4)
	for _, r := range s.results {
		counts[r.Outcome.String()]++
	}
	return counts
}

// SortedView returns a copy of the results ordered by field and direction.
// The sort is stable: ties keep their original input order, and direction
// Unsorted returns input order untouched. The underlying store is never
// reordered.
func (s *Store) SortedView(field SortField, dir SortDirection) []validate.Result {
	view := s.Results()
	if dir == Unsorted {
		return view
	}

	less := s.lessFunc(field)
	if less == nil {
		return view
	}

	sort.SliceStable(view, func(i, j int) bool {
		if dir == Descending {
			return less(view[j], view[i])
		}
		return less(view[i], view[j])
	})
	return view
}

// lessFunc builds the ascending comparison for a sort field, or nil for an
// unknown field.
func (s *Store) lessFunc(field SortField) func(a, b validate.Result) bool {
	m := s.mapping
	switch field {
	case SortByTitle:
		return func(a, b validate.Result) bool {
			return a.Original.Get(m.Title) < b.Original.Get(m.Title)
		}
	case SortByISBN:
		return func(a, b validate.Result) bool {
			return a.Original.Get(m.ISBN) < b.Original.Get(m.ISBN)
		}
	case SortByAuthor:
		return func(a, b validate.Result) bool {
			return a.Original.Get(m.Author) < b.Original.Get(m.Author)
		}
	case SortByPrice:
		return func(a, b validate.Result) bool {
			return normalize.CleanPrice(a.Original.Get(m.Price)) < normalize.CleanPrice(b.Original.Get(m.Price))
		}
	case SortByStatus:
		return func(a, b validate.Result) bool {
			return a.Outcome.Rank() < b.Outcome.Rank()
		}
	default:
		return nil
	}
}

// FilteredView returns the results whose outcome the predicate keeps, in
// input order.
func (s *Store) FilteredView(keep func(validate.Outcome) bool) []validate.Result {
	all := s.Results()
	out := make([]validate.Result, 0, len(all))
	for _, r := range all {
		if keep(r.Outcome) {
			out = append(out, r)
		}
	}
	return out
}

// ParseSortField resolves a query-parameter value to a SortField.
func ParseSortField(s string) (SortField, bool) {
	switch SortField(strings.ToLower(s)) {
	case SortByTitle, SortByISBN, SortByPrice, SortByAuthor, SortByStatus:
		return SortField(strings.ToLower(s)), true
	default:
		return "", false
	}
}
