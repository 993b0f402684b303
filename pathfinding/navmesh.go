package pathfinding

import (
	"errors"
	"fmt"

	"github.com/milk9111/gridsystem/grid"
)

var ErrSnapshotSize = errors.New("pathfinding: snapshot cell count does not match size")

// Area is the baked walkability of a cell.
type Area uint8

const (
	Walkable Area = iota
	NotWalkable
)

func (a Area) String() string {
	if a == Walkable {
		return "walkable"
	}
	return "not_walkable"
}

func ParseArea(s string) (Area, error) {
	switch s {
	case "walkable":
		return Walkable, nil
	case "not_walkable":
		return NotWalkable, nil
	}
	return NotWalkable, fmt.Errorf("pathfinding: unknown area %q", s)
}

// Marker is what the bake sees for an occupied cell. A nil Mask means the
// occupant does not restrict traversal by layer; a nil Area means the
// occupant blocks the cell.
type Marker struct {
	Mask *CullingMask
	Area *Area
}

// BakeSource is the grid being baked.
type BakeSource interface {
	GridSize() grid.Size
	CellSize() float64
	Occupant(x, y int) (Marker, bool)
}

// Cell is the baked record for one grid cell.
type Cell struct {
	Area   Area        `json:"area"`
	Mask   CullingMask `json:"mask"`
	Masked bool        `json:"masked"`
}

// NavMesh is a per-cell walkability table. It is rebuilt wholesale by Bake
// and must not be queried while a bake is running.
type NavMesh struct {
	size     grid.Size
	cellSize float64
	cells    []Cell
	baked    bool
}

func NewNavMesh() *NavMesh {
	return &NavMesh{}
}

// Bake replaces every record with one derived from src.
func (n *NavMesh) Bake(src BakeSource) {
	size := src.GridSize()
	cells := make([]Cell, size.Cells())

	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			cell := Cell{Area: Walkable}
			if m, ok := src.Occupant(x, y); ok {
				cell.Area = NotWalkable
				if m.Area != nil {
					cell.Area = *m.Area
				}
				if m.Mask != nil {
					cell.Mask = *m.Mask
					cell.Masked = true
				}
			}
			cells[y*size.Width+x] = cell
		}
	}

	n.size = size
	n.cellSize = src.CellSize()
	n.cells = cells
	n.baked = true
}

func (n *NavMesh) Baked() bool {
	return n != nil && n.baked
}

func (n *NavMesh) Size() grid.Size {
	return n.size
}

func (n *NavMesh) CellSize() float64 {
	return n.cellSize
}

// Cell returns the record at c, if one was baked.
func (n *NavMesh) Cell(c grid.Coord) (Cell, bool) {
	if n == nil || !n.baked || !n.size.Contains(c) {
		return Cell{}, false
	}
	return n.cells[c.Y*n.size.Width+c.X], true
}

// IsWalkable reports whether a requester with mask may enter c. Masked
// cells admit any requester sharing a bit with the cell's mask; unmasked
// cells admit everyone when baked walkable.
func (n *NavMesh) IsWalkable(c grid.Coord, mask CullingMask) bool {
	cell, ok := n.Cell(c)
	if !ok {
		return false
	}
	if cell.Masked {
		return cell.Mask.Contains(mask)
	}
	return cell.Area == Walkable
}

// Snapshot is the persisted form of a NavMesh.
type Snapshot struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	CellSize float64 `json:"cell_size"`
	Cells    []Cell  `json:"cells"`
}

func (n *NavMesh) Snapshot() Snapshot {
	return Snapshot{
		Width:    n.size.Width,
		Height:   n.size.Height,
		CellSize: n.cellSize,
		Cells:    append([]Cell(nil), n.cells...),
	}
}

// Restore loads a previously saved bake.
func (n *NavMesh) Restore(s Snapshot) error {
	size := grid.Size{Width: s.Width, Height: s.Height}
	if len(s.Cells) != size.Cells() {
		return fmt.Errorf("%w: %d cells for %dx%d", ErrSnapshotSize, len(s.Cells), s.Width, s.Height)
	}
	n.size = size
	n.cellSize = s.CellSize
	n.cells = append([]Cell(nil), s.Cells...)
	n.baked = true
	return nil
}

// WalkableCount counts cells walkable for mask.
func (n *NavMesh) WalkableCount(mask CullingMask) int {
	count := 0
	for y := 0; y < n.size.Height; y++ {
		for x := 0; x < n.size.Width; x++ {
			if n.IsWalkable(grid.Coord{X: x, Y: y}, mask) {
				count++
			}
		}
	}
	return count
}
