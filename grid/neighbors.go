package grid

var (
	cardinalDirs = []Coord{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	diagonalDirs = []Coord{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	allRectDirs  = append(append([]Coord{}, cardinalDirs...), diagonalDirs...)

	// Pointy-top rows: odd rows are shifted half a cell toward +x.
	pointyEvenRow = []Coord{{1, 0}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}, {0, 1}}
	pointyOddRow  = []Coord{{1, 0}, {1, -1}, {0, -1}, {-1, 0}, {0, 1}, {1, 1}}

	// Flat-top columns: odd columns are shifted half a cell toward +y.
	flatEvenCol = []Coord{{0, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {1, 0}}
	flatOddCol  = []Coord{{0, 1}, {-1, 1}, {-1, 0}, {0, -1}, {1, 0}, {1, 1}}
)

// Directions returns the neighbour offsets that apply to c. diagonals only
// affects rectangular grids.
func (g Geometry) Directions(c Coord, diagonals bool) []Coord {
	switch g.Kind {
	case HexPointyTop:
		if c.Y&1 == 0 {
			return pointyEvenRow
		}
		return pointyOddRow
	case HexFlatTop:
		if c.X&1 == 0 {
			return flatEvenCol
		}
		return flatOddCol
	default:
		if diagonals {
			return allRectDirs
		}
		return cardinalDirs
	}
}

// Neighbors lists the in-bounds cells adjacent to c.
func (g Geometry) Neighbors(c Coord, diagonals bool) []Coord {
	dirs := g.Directions(c, diagonals)
	out := make([]Coord, 0, len(dirs))
	for _, d := range dirs {
		n := c.Add(d)
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// IsDiagonal reports whether a and b differ on both axes.
func IsDiagonal(a, b Coord) bool {
	return a.X != b.X && a.Y != b.Y
}
