package grid

import "github.com/jakecoffman/cp"

// Grid stores one value per cell of a Geometry. The zero value of T means
// "empty".
type Grid[T comparable] struct {
	geom      Geometry
	cells     []T
	listeners []func()
}

func New[T comparable](geom Geometry) *Grid[T] {
	return &Grid[T]{
		geom:  geom,
		cells: make([]T, geom.Size.Cells()),
	}
}

func (g *Grid[T]) Geometry() Geometry {
	return g.geom
}

func (g *Grid[T]) Size() Size {
	return g.geom.Size
}

func (g *Grid[T]) CellSize() float64 {
	return g.geom.CellSize
}

func (g *Grid[T]) Origin() cp.Vector {
	return g.geom.Origin
}

// OnUpdated registers fn to run after every mutation.
func (g *Grid[T]) OnUpdated(fn func()) {
	if fn == nil {
		return
	}
	g.listeners = append(g.listeners, fn)
}

func (g *Grid[T]) notify() {
	for _, fn := range g.listeners {
		fn()
	}
}

// ToIndex flattens c in row-major order. It does not bounds-check.
func (g *Grid[T]) ToIndex(c Coord) int {
	return c.Y*g.geom.Size.Width + c.X
}

func (g *Grid[T]) FromIndex(i int) Coord {
	w := g.geom.Size.Width
	if w <= 0 {
		return Coord{}
	}
	return Coord{X: i % w, Y: i / w}
}

// Resize discards all contents and adopts a new size and cell size.
func (g *Grid[T]) Resize(size Size, cellSize float64) {
	g.geom.Size = size
	g.geom.CellSize = cellSize
	g.cells = make([]T, size.Cells())
	g.notify()
}

// Set stores v at c. Out-of-bounds writes are ignored; listeners still run.
func (g *Grid[T]) Set(c Coord, v T) {
	if g.geom.InBounds(c) {
		g.cells[g.ToIndex(c)] = v
	}
	g.notify()
}

// Remove clears c and returns what was there.
func (g *Grid[T]) Remove(c Coord) T {
	var zero T
	if !g.geom.InBounds(c) {
		return zero
	}
	idx := g.ToIndex(c)
	old := g.cells[idx]
	g.cells[idx] = zero
	g.notify()
	return old
}

func (g *Grid[T]) Get(c Coord) T {
	var zero T
	if !g.geom.InBounds(c) {
		return zero
	}
	return g.cells[g.ToIndex(c)]
}

func (g *Grid[T]) TryGet(c Coord) (T, bool) {
	v := g.Get(c)
	var zero T
	return v, v != zero
}

// AtWorld returns the value in the cell containing p.
func (g *Grid[T]) AtWorld(p cp.Vector) (T, bool) {
	return g.TryGet(g.geom.ToGrid(p))
}

// Each visits every cell, occupied or not, in row-major order.
func (g *Grid[T]) Each(fn func(c Coord, v T)) {
	for i, v := range g.cells {
		fn(g.FromIndex(i), v)
	}
}

// Occupied lists the cells holding a non-zero value.
func (g *Grid[T]) Occupied() []Coord {
	var zero T
	out := make([]Coord, 0, 16)
	for i, v := range g.cells {
		if v != zero {
			out = append(out, g.FromIndex(i))
		}
	}
	return out
}
