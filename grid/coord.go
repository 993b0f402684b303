package grid

import (
	"fmt"
	"math"
)

// Coord identifies one cell of a grid.
type Coord struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func C(x, y int) Coord {
	return Coord{X: x, Y: y}
}

func (c Coord) Add(o Coord) Coord {
	return Coord{X: c.X + o.X, Y: c.Y + o.Y}
}

func (c Coord) Sub(o Coord) Coord {
	return Coord{X: c.X - o.X, Y: c.Y - o.Y}
}

// Distance is the Euclidean distance between two cells in grid units.
func (c Coord) Distance(o Coord) float64 {
	return math.Hypot(float64(c.X-o.X), float64(c.Y-o.Y))
}

func (c Coord) String() string {
	return fmt.Sprintf("%d,%d", c.X, c.Y)
}

// ParseCoord reads the "x,y" form produced by String.
func ParseCoord(s string) (Coord, error) {
	var c Coord
	if _, err := fmt.Sscanf(s, "%d,%d", &c.X, &c.Y); err != nil {
		return Coord{}, fmt.Errorf("grid: parse coord %q: %w", s, err)
	}
	return c, nil
}

// Size is the extent of a grid: Width cells along x (columns), Height along y (rows).
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (s Size) Cells() int {
	if s.Width <= 0 || s.Height <= 0 {
		return 0
	}
	return s.Width * s.Height
}

// Contains reports whether c lies inside [0, Width) x [0, Height).
func (s Size) Contains(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < s.Width && c.Y < s.Height
}
