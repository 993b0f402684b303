package pathfinding

import (
	"testing"

	"github.com/milk9111/gridsystem/grid"
)

func TestFootprintCells(t *testing.T) {
	tests := []struct {
		name string
		f    Footprint
		want []grid.Coord
	}{
		{"single", SingleCell, []grid.Coord{grid.C(5, 5)}},
		{"zero is single", Footprint{}, []grid.Coord{grid.C(5, 5)}},
		{"2x2", Footprint{Width: 2, Height: 2}, []grid.Coord{grid.C(4, 4), grid.C(5, 4), grid.C(4, 5), grid.C(5, 5)}},
		{"3x1", Footprint{Width: 3, Height: 1}, []grid.Coord{grid.C(4, 5), grid.C(5, 5), grid.C(6, 5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.f.Cells(grid.C(5, 5))
			if len(got) != len(tt.want) {
				t.Fatalf("Cells = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Cells = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestCanAgentFit(t *testing.T) {
	src := newTestSource(6, 6).block(grid.C(3, 2))
	g := NewRectGraph(rectGeometry(t, 6, 6), src.bake(), false)
	size := Footprint{Width: 2, Height: 2}

	if !g.IsWalkable(grid.C(4, 3), NoneMask) {
		t.Fatalf("centre cell should be walkable")
	}
	if CanAgentFit(g, grid.C(4, 3), grid.C(5, 3), size, NoneMask) {
		t.Fatalf("agent fits over a blocked footprint cell")
	}
	if !CanAgentFit(g, grid.C(2, 5), grid.C(1, 5), size, NoneMask) {
		t.Fatalf("agent should fit in open space")
	}
	// Cells the agent already covers are not re-checked.
	if !CanAgentFit(g, grid.C(1, 1), grid.C(1, 1), size, NoneMask) {
		t.Fatalf("standing still should always fit")
	}
}

func TestFindPathMultiCell(t *testing.T) {
	size := Footprint{Width: 2, Height: 2}

	t.Run("goal footprint blocked", func(t *testing.T) {
		src := newTestSource(6, 6).block(grid.C(3, 2))
		pf, _ := newRectFinder(t, src, false)
		if p := pf.FindPathMultiCell(grid.C(1, 1), grid.C(4, 3), size, NoneMask); p.HasPath {
			t.Fatalf("goal footprint overlaps an obstacle: %v", p.Waypoints)
		}
		if p := pf.FindPath(grid.C(1, 1), grid.C(4, 3), NoneMask); !p.HasPath {
			t.Fatalf("single-cell agent should reach the goal")
		}
	})

	t.Run("route avoids obstacle", func(t *testing.T) {
		blocked := grid.C(3, 2)
		src := newTestSource(6, 6).block(blocked)
		pf, _ := newRectFinder(t, src, false)
		p := pf.FindPathMultiCell(grid.C(1, 1), grid.C(5, 5), size, NoneMask)
		if !p.HasPath {
			t.Fatalf("no path for 2x2 agent")
		}
		for _, w := range p.Waypoints {
			if size.Covers(w, blocked) {
				t.Fatalf("footprint at %v covers obstacle %v", w, blocked)
			}
		}
	})

	t.Run("narrow gap", func(t *testing.T) {
		wall := []grid.Coord{grid.C(3, 0), grid.C(3, 1), grid.C(3, 3), grid.C(3, 4)}
		src := newTestSource(7, 5).block(wall...)
		pf, _ := newRectFinder(t, src, false)
		if p := pf.FindPath(grid.C(1, 2), grid.C(6, 2), NoneMask); !p.HasPath {
			t.Fatalf("single-cell agent should pass the gap")
		}
		if p := pf.FindPathMultiCell(grid.C(1, 2), grid.C(6, 2), size, NoneMask); p.HasPath {
			t.Fatalf("2x2 agent passed a one-cell gap: %v", p.Waypoints)
		}
		p := pf.FindClosestPathMultiCell(grid.C(1, 2), grid.C(6, 2), size, NoneMask, 0)
		if !p.HasPath {
			t.Fatalf("closest fallback found nothing")
		}
		end, _ := p.End()
		if end.X >= 3 {
			t.Fatalf("closest fallback crossed the wall: %v", p.Waypoints)
		}
	})

	t.Run("single footprint delegates", func(t *testing.T) {
		pf, _ := newRectFinder(t, newTestSource(4, 4), false)
		a := pf.FindPathMultiCell(grid.C(0, 0), grid.C(3, 3), SingleCell, NoneMask)
		b := pf.FindPath(grid.C(0, 0), grid.C(3, 3), NoneMask)
		if a.HasPath != b.HasPath || len(a.Waypoints) != len(b.Waypoints) {
			t.Fatalf("multi = %+v, single = %+v", a, b)
		}
	})
}
