package models

import (
	"sort"
	"strings"
)

// FilterState is the search query plus facet selections of a search screen.
// Empty sets and a blank gender mean "no constraint" on that facet.
type FilterState struct {
	Query               string
	SelectedOccupancies map[int]struct{}
	SelectedCampuses    map[string]struct{}
	GenderFilter        string
	ShowRecommended     bool
}

// NewFilterState returns an unconstrained filter.
func NewFilterState() FilterState {
	return FilterState{
		SelectedOccupancies: make(map[int]struct{}),
		SelectedCampuses:    make(map[string]struct{}),
	}
}

// Clone returns a deep copy so callers can't alias the store's sets.
func (f FilterState) Clone() FilterState {
	out := f
	out.SelectedOccupancies = make(map[int]struct{}, len(f.SelectedOccupancies))
	for k := range f.SelectedOccupancies {
		out.SelectedOccupancies[k] = struct{}{}
	}
	out.SelectedCampuses = make(map[string]struct{}, len(f.SelectedCampuses))
	for k := range f.SelectedCampuses {
		out.SelectedCampuses[k] = struct{}{}
	}
	return out
}

// Occupancies returns the selected occupancies in ascending order.
func (f FilterState) Occupancies() []int {
	out := make([]int, 0, len(f.SelectedOccupancies))
	for k := range f.SelectedOccupancies {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// Campuses returns the selected campuses in lexical order.
func (f FilterState) Campuses() []string {
	out := make([]string, 0, len(f.SelectedCampuses))
	for k := range f.SelectedCampuses {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsEmpty reports whether no facet or query constrains the view.
func (f FilterState) IsEmpty() bool {
	return len(f.SelectedOccupancies) == 0 &&
		len(f.SelectedCampuses) == 0 &&
		strings.TrimSpace(f.GenderFilter) == "" &&
		strings.TrimSpace(f.Query) == ""
}

// Equal compares two filters by value.
func (f FilterState) Equal(o FilterState) bool {
	if f.Query != o.Query || f.GenderFilter != o.GenderFilter || f.ShowRecommended != o.ShowRecommended {
		return false
	}
	if len(f.SelectedOccupancies) != len(o.SelectedOccupancies) || len(f.SelectedCampuses) != len(o.SelectedCampuses) {
		return false
	}
	for k := range f.SelectedOccupancies {
		if _, ok := o.SelectedOccupancies[k]; !ok {
			return false
		}
	}
	for k := range f.SelectedCampuses {
		if _, ok := o.SelectedCampuses[k]; !ok {
			return false
		}
	}
	return true
}
