package services

import (
	"strings"

	"dormhop/models"
)

// Predicate reports whether a room belongs in a view.
type Predicate func(models.Room) bool

// OccupancyPredicate keeps rooms whose occupancy is selected. An empty
// selection keeps everything.
func OccupancyPredicate(selected map[int]struct{}) Predicate {
	if len(selected) == 0 {
		return nil
	}
	return func(r models.Room) bool {
		_, ok := selected[r.Occupancy]
		return ok
	}
}

// CampusPredicate keeps rooms on a selected campus, ignoring surrounding
// whitespace on the room's campus. An empty selection keeps everything.
func CampusPredicate(selected map[string]struct{}) Predicate {
	if len(selected) == 0 {
		return nil
	}
	return func(r models.Room) bool {
		_, ok := selected[strings.TrimSpace(r.Campus)]
		return ok
	}
}

// GenderPredicate keeps rooms whose owner gender equals gender, ignoring
// case. A blank gender keeps everything.
func GenderPredicate(gender string) Predicate {
	gender = strings.TrimSpace(gender)
	if gender == "" {
		return nil
	}
	return func(r models.Room) bool {
		return strings.EqualFold(strings.TrimSpace(r.UserGender), gender)
	}
}

// QueryPredicate keeps rooms whose dorm, room number or any amenity
// contains query, ignoring case. A blank query keeps everything.
func QueryPredicate(query string) Predicate {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	return func(r models.Room) bool {
		if strings.Contains(strings.ToLower(r.Dorm), q) ||
			strings.Contains(strings.ToLower(r.RoomNumber), q) {
			return true
		}
		for _, a := range r.Amenities {
			if strings.Contains(strings.ToLower(a), q) {
				return true
			}
		}
		return false
	}
}

// FilterPredicates returns the active predicates of f in their fixed order:
// occupancy, campus, gender, query. Unconstrained facets are omitted.
func FilterPredicates(f models.FilterState) []Predicate {
	all := []Predicate{
		OccupancyPredicate(f.SelectedOccupancies),
		CampusPredicate(f.SelectedCampuses),
		GenderPredicate(f.GenderFilter),
		QueryPredicate(f.Query),
	}
	active := all[:0]
	for _, p := range all {
		if p != nil {
			active = append(active, p)
		}
	}
	return active
}

// ApplyPredicates keeps the rooms of base that satisfy every predicate,
// preserving base order. base is never modified.
func ApplyPredicates(base []models.Room, preds []Predicate) []models.Room {
	out := make([]models.Room, 0, len(base))
outer:
	for _, r := range base {
		for _, p := range preds {
			if !p(r) {
				continue outer
			}
		}
		out = append(out, r)
	}
	return out
}

// ViewInputs is everything a derived room view depends on. A collection
// that has not loaded yet is nil and behaves as empty.
type ViewInputs struct {
	AllRooms         []models.Room
	RecommendedRooms []models.Room
	Filter           models.FilterState
}

// Compose derives the visible rooms from in. It is a pure function: equal
// inputs always give equal output.
func Compose(in ViewInputs) []models.Room {
	base := in.AllRooms
	if in.Filter.ShowRecommended {
		base = in.RecommendedRooms
	}
	return ApplyPredicates(base, FilterPredicates(in.Filter))
}

// Revision identifies one combination of view inputs.
type Revision struct {
	Rooms       uint64
	Recommended uint64
	Filter      uint64
}

// Composer memoizes Compose on input revisions so repeated reads between
// changes reuse the last result.
type Composer struct {
	valid bool
	rev   Revision
	out   []models.Room
}

// View returns the composed rooms for rev, calling inputs only when rev
// differs from the memoized one. The returned slice must not be modified.
func (c *Composer) View(rev Revision, inputs func() ViewInputs) []models.Room {
	if c.valid && c.rev == rev {
		return c.out
	}
	c.out = Compose(inputs())
	c.rev = rev
	c.valid = true
	return c.out
}

// Invalidate drops the memoized view.
func (c *Composer) Invalidate() {
	c.valid = false
	c.out = nil
}
