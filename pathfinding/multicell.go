package pathfinding

import (
	"github.com/milk9111/gridsystem/grid"
)

// Footprint is the number of cells an agent covers, centred on its
// position. For an even width the extra column sits on the low side:
// a 2x2 agent at (5,5) covers x and y in [4,5].
type Footprint struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// SingleCell is the footprint of an ordinary agent.
var SingleCell = Footprint{Width: 1, Height: 1}

func (f Footprint) normalized() Footprint {
	if f.Width < 1 {
		f.Width = 1
	}
	if f.Height < 1 {
		f.Height = 1
	}
	return f
}

// IsSingle reports whether f covers exactly one cell.
func (f Footprint) IsSingle() bool {
	n := f.normalized()
	return n.Width == 1 && n.Height == 1
}

func (f Footprint) span(center grid.Coord) (minX, minY, maxX, maxY int) {
	n := f.normalized()
	minX = center.X - n.Width/2
	minY = center.Y - n.Height/2
	return minX, minY, minX + n.Width - 1, minY + n.Height - 1
}

// Cells lists the cells covered when the agent stands at center.
func (f Footprint) Cells(center grid.Coord) []grid.Coord {
	minX, minY, maxX, maxY := f.span(center)
	out := make([]grid.Coord, 0, (maxX-minX+1)*(maxY-minY+1))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			out = append(out, grid.Coord{X: x, Y: y})
		}
	}
	return out
}

// Covers reports whether c lies inside the footprint at center.
func (f Footprint) Covers(center, c grid.Coord) bool {
	minX, minY, maxX, maxY := f.span(center)
	return c.X >= minX && c.X <= maxX && c.Y >= minY && c.Y <= maxY
}

// CanAgentFit reports whether an agent of size can step from one position
// to the next. Only cells not already covered at from are checked.
func CanAgentFit(g Graph, to, from grid.Coord, size Footprint, mask CullingMask) bool {
	for _, c := range size.Cells(to) {
		if size.Covers(from, c) {
			continue
		}
		if !g.IsWalkable(c, mask) {
			return false
		}
	}
	return true
}

// FootprintWalkable reports whether every cell of the footprint at center
// is walkable.
func FootprintWalkable(g Graph, center grid.Coord, size Footprint, mask CullingMask) bool {
	for _, c := range size.Cells(center) {
		if !g.IsWalkable(c, mask) {
			return false
		}
	}
	return true
}

// FindPathMultiCell is FindPath for agents larger than one cell. The start
// check covers only the start cell, which the agent may partly occupy
// itself; the goal must fit the whole footprint.
func (p *Pathfinder) FindPathMultiCell(start, end grid.Coord, size Footprint, mask CullingMask) Path {
	if size.IsSingle() {
		return p.FindPath(start, end, mask)
	}
	if !p.graph.IsWalkable(start, mask) || !FootprintWalkable(p.graph, end, size, mask) {
		return Path{}
	}
	s := p.newSearch(end, mask, p.fitStep(size, mask))
	goal, _ := s.run(start, 0, false)
	if goal == nil {
		return Path{Expanded: s.expanded}
	}
	return s.retrace(goal)
}

// FindClosestPathMultiCell is FindClosestPath for agents larger than one
// cell.
func (p *Pathfinder) FindClosestPathMultiCell(start, end grid.Coord, size Footprint, mask CullingMask, limit int) Path {
	if size.IsSingle() {
		return p.FindClosestPath(start, end, mask, limit)
	}
	if path := p.FindPathMultiCell(start, end, size, mask); path.HasPath {
		return path
	}
	return p.closest(start, end, mask, limit, p.fitStep(size, mask))
}

func (p *Pathfinder) fitStep(size Footprint, mask CullingMask) stepFunc {
	return func(from, to grid.Coord) bool {
		return CanAgentFit(p.graph, to, from, size, mask)
	}
}
