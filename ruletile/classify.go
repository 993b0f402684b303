package ruletile

import (
	"fmt"

	"github.com/milk9111/gridsystem/grid"
)

// Pattern identifies the neighbourhood shape around a tile.
type Pattern int

const (
	Single Pattern = iota
	SingleEdge
	Cross
	InvertedTopThree
	InvertedTop
	Slash
	InvertedCorner
	CornerWithCorner
	Corner
	EdgeTwoSides
	EdgeTwoDiagonals
	EdgeDiagonalLeft
	EdgeDiagonalRight
	Edge
	Center
)

var patternNames = [...]string{
	Single:            "single",
	SingleEdge:        "single_edge",
	Cross:             "cross",
	InvertedTopThree:  "inverted_top_three",
	InvertedTop:       "inverted_top",
	Slash:             "slash",
	InvertedCorner:    "inverted_corner",
	CornerWithCorner:  "corner_with_corner",
	Corner:            "corner",
	EdgeTwoSides:      "edge_two_sides",
	EdgeTwoDiagonals:  "edge_two_diagonals",
	EdgeDiagonalLeft:  "edge_diagonal_left",
	EdgeDiagonalRight: "edge_diagonal_right",
	Edge:              "edge",
	Center:            "center",
}

// Patterns lists every pattern in classification order.
func Patterns() []Pattern {
	out := make([]Pattern, len(patternNames))
	for i := range out {
		out[i] = Pattern(i)
	}
	return out
}

func (p Pattern) String() string {
	if p < 0 || int(p) >= len(patternNames) {
		return fmt.Sprintf("pattern(%d)", int(p))
	}
	return patternNames[p]
}

func ParsePattern(s string) (Pattern, error) {
	for i, name := range patternNames {
		if name == s {
			return Pattern(i), nil
		}
	}
	return 0, fmt.Errorf("ruletile: unknown pattern %q", s)
}

func (p Pattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pattern) UnmarshalText(b []byte) error {
	v, err := ParsePattern(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Rotation is a clockwise quarter turn in degrees: 0, 90, 180 or 270.
type Rotation int

const (
	Rot0   Rotation = 0
	Rot90  Rotation = 90
	Rot180 Rotation = 180
	Rot270 Rotation = 270
)

// Result is a classification outcome.
type Result struct {
	Pattern  Pattern  `json:"pattern"`
	Rotation Rotation `json:"rotation"`
}

// Occupancy answers whether a cell holds a tile.
type Occupancy interface {
	Has(c grid.Coord) bool
}

type neighbourhood struct {
	top, bottom, left, right                   bool
	topLeft, topRight, bottomLeft, bottomRight bool
}

// +y is up.
func sample(c grid.Coord, occ Occupancy) neighbourhood {
	at := func(dx, dy int) bool { return occ.Has(grid.Coord{X: c.X + dx, Y: c.Y + dy}) }
	return neighbourhood{
		top:         at(0, 1),
		bottom:      at(0, -1),
		left:        at(-1, 0),
		right:       at(1, 0),
		topLeft:     at(-1, 1),
		topRight:    at(1, 1),
		bottomLeft:  at(-1, -1),
		bottomRight: at(1, -1),
	}
}

func (n neighbourhood) cardinals() int {
	count := 0
	for _, b := range []bool{n.top, n.bottom, n.left, n.right} {
		if b {
			count++
		}
	}
	return count
}

// Classify picks the pattern and rotation for the tile at c. Cardinal
// neighbours are counted first; diagonals only refine shapes whose
// cardinal sides are settled.
func Classify(c grid.Coord, occ Occupancy) Result {
	n := sample(c, occ)
	r := func(p Pattern, rot Rotation) Result { return Result{Pattern: p, Rotation: rot} }

	switch n.cardinals() {
	case 0:
		return r(Single, Rot0)
	case 1:
		switch {
		case n.top:
			return r(SingleEdge, Rot180)
		case n.bottom:
			return r(SingleEdge, Rot0)
		case n.left:
			return r(SingleEdge, Rot90)
		default:
			return r(SingleEdge, Rot270)
		}
	case 4:
		return classifySurrounded(n)
	}

	switch {
	case !n.top && !n.left:
		if !n.bottomRight {
			return r(CornerWithCorner, Rot0)
		}
		return r(Corner, Rot0)
	case !n.top && !n.right:
		if !n.bottomLeft {
			return r(CornerWithCorner, Rot90)
		}
		return r(Corner, Rot90)
	case !n.bottom && !n.left:
		if !n.topRight {
			return r(CornerWithCorner, Rot270)
		}
		return r(Corner, Rot270)
	case !n.bottom && !n.right:
		if !n.topLeft {
			return r(CornerWithCorner, Rot180)
		}
		return r(Corner, Rot180)
	}

	switch {
	case !n.top && !n.bottom:
		return r(EdgeTwoSides, Rot0)
	case !n.left && !n.right:
		return r(EdgeTwoSides, Rot90)
	}

	// Exactly one side is open; the two diagonals facing away from it
	// choose the edge variant.
	switch {
	case !n.top:
		return r(edgeVariant(n.bottomRight, n.bottomLeft), Rot180)
	case !n.bottom:
		return r(edgeVariant(n.topLeft, n.topRight), Rot0)
	case !n.left:
		return r(edgeVariant(n.topRight, n.bottomRight), Rot90)
	default:
		return r(edgeVariant(n.bottomLeft, n.topLeft), Rot270)
	}
}

func edgeVariant(leftDiag, rightDiag bool) Pattern {
	switch {
	case !leftDiag && !rightDiag:
		return EdgeTwoDiagonals
	case !leftDiag:
		return EdgeDiagonalLeft
	case !rightDiag:
		return EdgeDiagonalRight
	}
	return Edge
}

func classifySurrounded(n neighbourhood) Result {
	r := func(p Pattern, rot Rotation) Result { return Result{Pattern: p, Rotation: rot} }
	tl, tr, bl, br := n.topLeft, n.topRight, n.bottomLeft, n.bottomRight

	switch {
	case !tl && !tr && !bl && !br:
		return r(Cross, Rot0)

	case !tl && !tr && !bl:
		return r(InvertedTopThree, Rot0)
	case !tl && !tr && !br:
		return r(InvertedTopThree, Rot90)
	case !tr && !bl && !br:
		return r(InvertedTopThree, Rot180)
	case !tl && !bl && !br:
		return r(InvertedTopThree, Rot270)

	case !tl && !tr:
		return r(InvertedTop, Rot0)
	case !bl && !br:
		return r(InvertedTop, Rot180)
	case !tr && !br:
		return r(InvertedTop, Rot90)
	case !tl && !bl:
		return r(InvertedTop, Rot270)

	case !tr && !bl:
		return r(Slash, Rot90)
	case !tl && !br:
		return r(Slash, Rot0)

	case !tl:
		return r(InvertedCorner, Rot0)
	case !tr:
		return r(InvertedCorner, Rot90)
	case !bl:
		return r(InvertedCorner, Rot270)
	case !br:
		return r(InvertedCorner, Rot180)
	}
	return r(Center, Rot0)
}
