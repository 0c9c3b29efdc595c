package services

import (
	"strings"
	"sync"

	"dormhop/models"
)

// FilterStore owns the FilterState of one search screen. Every mutation is
// a set-membership update; repeating one is a no-op and does not notify.
type FilterStore struct {
	mu       sync.Mutex
	state    models.FilterState
	revision uint64
	changes  observers[models.FilterState]
}

// NewFilterStore returns a store with no constraints.
func NewFilterStore() *FilterStore {
	return &FilterStore{state: models.NewFilterState()}
}

// State returns a copy of the current filter.
func (s *FilterStore) State() models.FilterState {
	st, _ := s.Snapshot()
	return st
}

// Snapshot returns a copy of the current filter and its revision. The
// revision grows by one on every effective change.
func (s *FilterStore) Snapshot() (models.FilterState, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), s.revision
}

// Subscribe registers fn to receive the filter after every effective change.
func (s *FilterStore) Subscribe(fn func(models.FilterState)) func() {
	return s.changes.subscribe(fn)
}

// SetQuery replaces the free-text query.
func (s *FilterStore) SetQuery(query string) {
	s.update(func(st *models.FilterState) bool {
		if st.Query == query {
			return false
		}
		st.Query = query
		return true
	})
}

// ToggleOccupancy adds occupancy to the selection when selected is true and
// removes it otherwise. Non-positive occupancies are ignored.
func (s *FilterStore) ToggleOccupancy(occupancy int, selected bool) {
	if occupancy <= 0 {
		return
	}
	s.update(func(st *models.FilterState) bool {
		return toggle(st.SelectedOccupancies, occupancy, selected)
	})
}

// ToggleCampus adds campus to the selection when selected is true and
// removes it otherwise. Blank campuses are ignored.
func (s *FilterStore) ToggleCampus(campus string, selected bool) {
	campus = strings.TrimSpace(campus)
	if campus == "" {
		return
	}
	s.update(func(st *models.FilterState) bool {
		return toggle(st.SelectedCampuses, campus, selected)
	})
}

// SetGenderFilter restricts the view to one owner gender; blank clears it.
func (s *FilterStore) SetGenderFilter(gender string) {
	gender = strings.TrimSpace(gender)
	s.update(func(st *models.FilterState) bool {
		if st.GenderFilter == gender {
			return false
		}
		st.GenderFilter = gender
		return true
	})
}

// SetShowRecommended switches the base collection between all and recommended rooms.
func (s *FilterStore) SetShowRecommended(on bool) {
	s.update(func(st *models.FilterState) bool {
		if st.ShowRecommended == on {
			return false
		}
		st.ShowRecommended = on
		return true
	})
}

// Reset clears every constraint.
func (s *FilterStore) Reset() {
	s.update(func(st *models.FilterState) bool {
		fresh := models.NewFilterState()
		if st.Equal(fresh) {
			return false
		}
		*st = fresh
		return true
	})
}

func (s *FilterStore) update(mutate func(*models.FilterState) bool) {
	s.mu.Lock()
	if !mutate(&s.state) {
		s.mu.Unlock()
		return
	}
	s.revision++
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.changes.notify(snapshot)
}

func toggle[K comparable](set map[K]struct{}, key K, selected bool) bool {
	_, present := set[key]
	switch {
	case selected && !present:
		set[key] = struct{}{}
		return true
	case !selected && present:
		delete(set, key)
		return true
	default:
		return false
	}
}
