package pathfinding

import (
	"errors"
	"fmt"

	"github.com/milk9111/gridsystem/common"
	"github.com/milk9111/gridsystem/grid"
)

// Default edge costs: cardinal = 10, diagonal = 14 (about 10*sqrt(2)).
const (
	DefaultStraightCost = 10
	DefaultDiagonalCost = 14
	DefaultHexCost      = 10
)

var ErrInvalidCosts = errors.New("pathfinding: invalid move costs")

// Graph is everything the search needs to know about a grid.
type Graph interface {
	Neighbors(c grid.Coord) []grid.Coord
	Heuristic(a, b grid.Coord) int
	MoveCost(a, b grid.Coord) int
	IsWalkable(c grid.Coord, mask CullingMask) bool
}

// Costs configures edge weights and connectivity.
type Costs struct {
	Straight  int
	Diagonal  int
	Hex       int
	Diagonals bool
}

func DefaultCosts() Costs {
	return Costs{
		Straight: DefaultStraightCost,
		Diagonal: DefaultDiagonalCost,
		Hex:      DefaultHexCost,
	}
}

// Validate rejects weights that would make the heuristics overestimate.
func (c Costs) Validate() error {
	if c.Straight <= 0 || c.Hex <= 0 {
		return fmt.Errorf("%w: straight=%d hex=%d", ErrInvalidCosts, c.Straight, c.Hex)
	}
	if c.Diagonals && (c.Diagonal < c.Straight || c.Diagonal > 2*c.Straight) {
		return fmt.Errorf("%w: diagonal %d outside [%d, %d]", ErrInvalidCosts, c.Diagonal, c.Straight, 2*c.Straight)
	}
	return nil
}

// NewGraph picks the adapter matching geom.Kind.
func NewGraph(geom grid.Geometry, nav *NavMesh, costs Costs) (Graph, error) {
	if err := costs.Validate(); err != nil {
		return nil, err
	}
	if geom.Kind.IsHex() {
		return &HexGraph{geom: geom, nav: nav, cost: costs.Hex}, nil
	}
	return &RectGraph{
		geom:      geom,
		nav:       nav,
		straight:  costs.Straight,
		diagonal:  costs.Diagonal,
		diagonals: costs.Diagonals,
	}, nil
}

// RectGraph adapts a rectangular grid.
type RectGraph struct {
	geom      grid.Geometry
	nav       *NavMesh
	straight  int
	diagonal  int
	diagonals bool
}

func NewRectGraph(geom grid.Geometry, nav *NavMesh, diagonals bool) *RectGraph {
	return &RectGraph{
		geom:      geom,
		nav:       nav,
		straight:  DefaultStraightCost,
		diagonal:  DefaultDiagonalCost,
		diagonals: diagonals,
	}
}

func (g *RectGraph) Neighbors(c grid.Coord) []grid.Coord {
	return g.geom.Neighbors(c, g.diagonals)
}

// Heuristic is Manhattan distance without diagonals and octile distance
// with them.
func (g *RectGraph) Heuristic(a, b grid.Coord) int {
	dx := common.Abs(a.X - b.X)
	dy := common.Abs(a.Y - b.Y)
	if !g.diagonals {
		return g.straight * (dx + dy)
	}
	return g.diagonal*common.Min(dx, dy) + g.straight*common.Abs(dx-dy)
}

func (g *RectGraph) MoveCost(a, b grid.Coord) int {
	if grid.IsDiagonal(a, b) {
		return g.diagonal
	}
	return g.straight
}

func (g *RectGraph) IsWalkable(c grid.Coord, mask CullingMask) bool {
	return g.nav.IsWalkable(c, mask)
}

// HexGraph adapts both hex orientations. All six edges cost the same.
type HexGraph struct {
	geom grid.Geometry
	nav  *NavMesh
	cost int
}

func NewHexGraph(geom grid.Geometry, nav *NavMesh) *HexGraph {
	return &HexGraph{geom: geom, nav: nav, cost: DefaultHexCost}
}

func (g *HexGraph) Neighbors(c grid.Coord) []grid.Coord {
	return g.geom.Neighbors(c, false)
}

// Heuristic is the cube-coordinate hex distance scaled by the move cost.
func (g *HexGraph) Heuristic(a, b grid.Coord) int {
	aq, ar := g.cube(a)
	bq, br := g.cube(b)
	dq := common.Abs(aq - bq)
	dr := common.Abs(ar - br)
	ds := common.Abs((-aq - ar) - (-bq - br))
	return g.cost * common.Max(dq, common.Max(dr, ds))
}

// cube converts offset coordinates to axial (q, r); s = -q-r.
func (g *HexGraph) cube(c grid.Coord) (q, r int) {
	if g.geom.Kind == grid.HexPointyTop {
		return c.X - (c.Y-(c.Y&1))/2, c.Y
	}
	return c.X, c.Y - (c.X-(c.X&1))/2
}

func (g *HexGraph) MoveCost(a, b grid.Coord) int {
	return g.cost
}

func (g *HexGraph) IsWalkable(c grid.Coord, mask CullingMask) bool {
	return g.nav.IsWalkable(c, mask)
}
