package ruletile

import (
	"sort"

	"github.com/milk9111/gridsystem/grid"
)

// Set is a map-backed Occupancy.
type Set map[grid.Coord]struct{}

func NewSet(cells ...grid.Coord) Set {
	s := make(Set, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

func (s Set) Add(c grid.Coord) {
	s[c] = struct{}{}
}

func (s Set) Remove(c grid.Coord) {
	delete(s, c)
}

func (s Set) Has(c grid.Coord) bool {
	_, ok := s[c]
	return ok
}

// Toggle flips c and reports whether it is now present.
func (s Set) Toggle(c grid.Coord) bool {
	if s.Has(c) {
		delete(s, c)
		return false
	}
	s[c] = struct{}{}
	return true
}

// Sorted returns the cells in row-major order.
func (s Set) Sorted() []grid.Coord {
	out := make([]grid.Coord, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

type union []Occupancy

func (u union) Has(c grid.Coord) bool {
	for _, o := range u {
		if o != nil && o.Has(c) {
			return true
		}
	}
	return false
}

// Union treats a cell as occupied when any of occs holds it. Placed tiles
// and a pending selection are usually combined this way so that tiles
// about to be painted already shape their neighbours.
func Union(occs ...Occupancy) Occupancy {
	return union(occs)
}
