package pathfinding

import (
	"math"
	"math/rand"
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/gridsystem/grid"
)

func newRectFinder(t *testing.T, src *testSource, diagonals bool) (*Pathfinder, Graph) {
	t.Helper()
	g := NewRectGraph(rectGeometry(t, src.size.Width, src.size.Height), src.bake(), diagonals)
	return NewPathfinder(g), g
}

// checkPath verifies that consecutive waypoints are walkable neighbours
// and returns the summed move cost.
func checkPath(t *testing.T, g Graph, p Path, mask CullingMask) int {
	t.Helper()
	cost := 0
	for i, w := range p.Waypoints {
		if !g.IsWalkable(w, mask) {
			t.Fatalf("waypoint %d %v is not walkable", i, w)
		}
		if i == 0 {
			continue
		}
		prev := p.Waypoints[i-1]
		adjacent := false
		for _, n := range g.Neighbors(prev) {
			if n == w {
				adjacent = true
				break
			}
		}
		if !adjacent {
			t.Fatalf("waypoints %v -> %v are not neighbours", prev, w)
		}
		cost += g.MoveCost(prev, w)
	}
	return cost
}

func TestFindPathOpenGrid(t *testing.T) {
	tests := []struct {
		name      string
		diagonals bool
		waypoints int
		distance  float64
	}{
		{"cardinal", false, 19, 18},
		{"diagonal", true, 10, 9 * math.Sqrt2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf, g := newRectFinder(t, newTestSource(10, 10), tt.diagonals)
			p := pf.FindPath(grid.C(0, 0), grid.C(9, 9), NoneMask)
			if !p.HasPath {
				t.Fatalf("no path on an open grid")
			}
			if len(p.Waypoints) != tt.waypoints {
				t.Fatalf("waypoints = %d, want %d", len(p.Waypoints), tt.waypoints)
			}
			if math.Abs(p.TotalDistance-tt.distance) > 1e-9 {
				t.Fatalf("TotalDistance = %v, want %v", p.TotalDistance, tt.distance)
			}
			if p.Waypoints[0] != grid.C(0, 0) || p.Waypoints[len(p.Waypoints)-1] != grid.C(9, 9) {
				t.Fatalf("endpoints = %v .. %v", p.Waypoints[0], p.Waypoints[len(p.Waypoints)-1])
			}
			checkPath(t, g, p, NoneMask)
		})
	}
}

func TestFindPathStartIsGoal(t *testing.T) {
	pf, _ := newRectFinder(t, newTestSource(3, 3), false)
	p := pf.FindPath(grid.C(1, 1), grid.C(1, 1), NoneMask)
	if !p.HasPath || len(p.Waypoints) != 1 || p.TotalDistance != 0 {
		t.Fatalf("path = %+v", p)
	}
}

func TestFindPathBlocked(t *testing.T) {
	ring := []grid.Coord{
		grid.C(4, 4), grid.C(5, 4), grid.C(6, 4),
		grid.C(4, 5), grid.C(6, 5),
		grid.C(4, 6), grid.C(5, 6), grid.C(6, 6),
	}
	src := newTestSource(10, 10).block(ring...)
	pf, _ := newRectFinder(t, src, true)

	p := pf.FindPath(grid.C(0, 0), grid.C(5, 5), NoneMask)
	if p.HasPath {
		t.Fatalf("found a path into a walled cell: %v", p.Waypoints)
	}
	if p.Expanded == 0 {
		t.Fatalf("expected the search to run")
	}

	p = pf.FindPath(grid.C(0, 0), grid.C(4, 4), NoneMask)
	if p.HasPath || p.Expanded != 0 {
		t.Fatalf("unwalkable goal should fail before searching: %+v", p)
	}
	p = pf.FindPath(grid.C(-1, 0), grid.C(1, 1), NoneMask)
	if p.HasPath {
		t.Fatalf("out-of-bounds start produced a path")
	}
}

func TestFindPathMaskFiltering(t *testing.T) {
	ground := LayerBit(0)
	water := LayerBit(2)
	river := []grid.Coord{grid.C(2, 0), grid.C(2, 1), grid.C(2, 2)}
	src := newTestSource(5, 3).mask(water, river...)
	pf, g := newRectFinder(t, src, false)

	if p := pf.FindPath(grid.C(0, 1), grid.C(4, 1), ground); p.HasPath {
		t.Fatalf("ground-only requester crossed water: %v", p.Waypoints)
	}
	p := pf.FindPath(grid.C(0, 1), grid.C(4, 1), ground|water)
	if !p.HasPath {
		t.Fatalf("amphibious requester found no path")
	}
	if len(p.Waypoints) != 5 {
		t.Fatalf("waypoints = %v", p.Waypoints)
	}
	checkPath(t, g, p, ground|water)
}

func TestFindClosestPath(t *testing.T) {
	t.Run("reachable goal", func(t *testing.T) {
		pf, _ := newRectFinder(t, newTestSource(6, 6), false)
		full := pf.FindPath(grid.C(0, 0), grid.C(5, 5), NoneMask)
		closest := pf.FindClosestPath(grid.C(0, 0), grid.C(5, 5), NoneMask, 0)
		if !closest.HasPath || len(closest.Waypoints) != len(full.Waypoints) {
			t.Fatalf("closest = %+v, full = %+v", closest, full)
		}
	})

	t.Run("blocked goal stops next to it", func(t *testing.T) {
		goal := grid.C(5, 5)
		pf, g := newRectFinder(t, newTestSource(10, 10).block(goal), false)
		p := pf.FindClosestPath(grid.C(0, 5), goal, NoneMask, 0)
		if !p.HasPath {
			t.Fatalf("no fallback path")
		}
		end, _ := p.End()
		if h := g.Heuristic(end, goal); h != DefaultStraightCost {
			t.Fatalf("ended at %v with h=%d, want a neighbour of the goal", end, h)
		}
		checkPath(t, g, p, NoneMask)
	})

	t.Run("walled goal reaches lowest heuristic", func(t *testing.T) {
		goal := grid.C(5, 5)
		src := newTestSource(10, 10).block(grid.C(4, 5), grid.C(6, 5), grid.C(5, 4), grid.C(5, 6))
		pf, g := newRectFinder(t, src, false)
		p := pf.FindClosestPath(grid.C(0, 0), goal, NoneMask, 0)
		if !p.HasPath {
			t.Fatalf("no fallback path")
		}
		end, _ := p.End()
		if h := g.Heuristic(end, goal); h != 2*DefaultStraightCost {
			t.Fatalf("ended at %v with h=%d, want %d", end, h, 2*DefaultStraightCost)
		}
		if p.Expanded > DefaultSearchLimit {
			t.Fatalf("expanded %d nodes, limit %d", p.Expanded, DefaultSearchLimit)
		}
	})

	t.Run("limit bounds expansion", func(t *testing.T) {
		pf, _ := newRectFinder(t, newTestSource(20, 20).block(grid.C(19, 19)), false)
		p := pf.FindClosestPath(grid.C(0, 0), grid.C(19, 19), NoneMask, 5)
		if p.Expanded > 5 {
			t.Fatalf("expanded %d nodes, limit 5", p.Expanded)
		}
		if len(p.Waypoints) == 0 || p.Waypoints[0] != grid.C(0, 0) {
			t.Fatalf("waypoints = %v", p.Waypoints)
		}
	})

	t.Run("enclosed start", func(t *testing.T) {
		pf, _ := newRectFinder(t, newTestSource(5, 5).block(grid.C(1, 0), grid.C(0, 1)), false)
		p := pf.FindClosestPath(grid.C(0, 0), grid.C(4, 4), NoneMask, 0)
		if p.HasPath {
			t.Fatalf("enclosed start reported a path: %v", p.Waypoints)
		}
		if len(p.Waypoints) != 1 || p.Waypoints[0] != grid.C(0, 0) {
			t.Fatalf("waypoints = %v, want just the start", p.Waypoints)
		}
	})
}

// dijkstra returns the cheapest cost from start to end, or -1.
func dijkstra(g Graph, size grid.Size, start, end grid.Coord, mask CullingMask) int {
	const inf = math.MaxInt32
	dist := make(map[grid.Coord]int, size.Cells())
	done := make(map[grid.Coord]bool, size.Cells())
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			dist[grid.C(x, y)] = inf
		}
	}
	dist[start] = 0
	for {
		cur, best := grid.Coord{}, inf
		for c, d := range dist {
			if !done[c] && d < best {
				cur, best = c, d
			}
		}
		if best == inf {
			return -1
		}
		if cur == end {
			return best
		}
		done[cur] = true
		for _, n := range g.Neighbors(cur) {
			if done[n] || !g.IsWalkable(n, mask) {
				continue
			}
			if d := best + g.MoveCost(cur, n); d < dist[n] {
				dist[n] = d
			}
		}
	}
}

func TestFindPathIsOptimal(t *testing.T) {
	kinds := []struct {
		kind      grid.Kind
		diagonals bool
	}{
		{grid.Rect, false},
		{grid.Rect, true},
		{grid.HexPointyTop, false},
		{grid.HexFlatTop, false},
	}
	size := grid.Size{Width: 12, Height: 9}
	rng := rand.New(rand.NewSource(7))

	for _, k := range kinds {
		t.Run(k.kind.String(), func(t *testing.T) {
			geom, err := grid.NewGeometry(k.kind, size, 1, cp.Vector{})
			if err != nil {
				t.Fatalf("NewGeometry: %v", err)
			}
			for trial := 0; trial < 25; trial++ {
				src := newTestSource(size.Width, size.Height)
				start := grid.C(rng.Intn(size.Width), rng.Intn(size.Height))
				end := grid.C(rng.Intn(size.Width), rng.Intn(size.Height))
				for y := 0; y < size.Height; y++ {
					for x := 0; x < size.Width; x++ {
						c := grid.C(x, y)
						if c != start && c != end && rng.Intn(4) == 0 {
							src.block(c)
						}
					}
				}
				costs := DefaultCosts()
				costs.Diagonals = k.diagonals
				g, err := NewGraph(geom, src.bake(), costs)
				if err != nil {
					t.Fatalf("NewGraph: %v", err)
				}

				want := dijkstra(g, size, start, end, NoneMask)
				p := NewPathfinder(g).FindPath(start, end, NoneMask)
				if want < 0 {
					if p.HasPath {
						t.Fatalf("trial %d: path %v where none exists", trial, p.Waypoints)
					}
					continue
				}
				if !p.HasPath {
					t.Fatalf("trial %d: no path, want cost %d", trial, want)
				}
				if got := checkPath(t, g, p, NoneMask); got != want {
					t.Fatalf("trial %d: cost %d, want %d", trial, got, want)
				}
			}
		})
	}
}

func TestHeuristicAdmissible(t *testing.T) {
	for _, kind := range []grid.Kind{grid.HexPointyTop, grid.HexFlatTop} {
		geom, err := grid.NewGeometry(kind, grid.Size{Width: 9, Height: 9}, 1, cp.Vector{})
		if err != nil {
			t.Fatalf("NewGeometry: %v", err)
		}
		g := NewHexGraph(geom, newTestSource(9, 9).bake())
		origin := grid.C(4, 4)
		for _, n := range g.Neighbors(origin) {
			if h := g.Heuristic(origin, n); h != DefaultHexCost {
				t.Fatalf("%v: h(%v, %v) = %d, want %d", kind, origin, n, h, DefaultHexCost)
			}
		}
	}
}

func TestCostsValidate(t *testing.T) {
	tests := []struct {
		name  string
		costs Costs
		ok    bool
	}{
		{"defaults", DefaultCosts(), true},
		{"zero straight", Costs{Straight: 0, Diagonal: 14, Hex: 10}, false},
		{"cheap diagonal", Costs{Straight: 10, Diagonal: 5, Hex: 10, Diagonals: true}, false},
		{"cheap diagonal unused", Costs{Straight: 10, Diagonal: 5, Hex: 10}, true},
		{"long diagonal", Costs{Straight: 10, Diagonal: 21, Hex: 10, Diagonals: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.costs.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, ok=%v", err, tt.ok)
			}
		})
	}
}
