package pathfinding

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/gridsystem/grid"
)

type testSource struct {
	size    grid.Size
	markers map[grid.Coord]Marker
}

func newTestSource(w, h int) *testSource {
	return &testSource{size: grid.Size{Width: w, Height: h}, markers: make(map[grid.Coord]Marker)}
}

func (s *testSource) GridSize() grid.Size { return s.size }
func (s *testSource) CellSize() float64   { return 1 }
func (s *testSource) Occupant(x, y int) (Marker, bool) {
	m, ok := s.markers[grid.Coord{X: x, Y: y}]
	return m, ok
}

func (s *testSource) block(cs ...grid.Coord) *testSource {
	for _, c := range cs {
		s.markers[c] = Marker{}
	}
	return s
}

func (s *testSource) mask(m CullingMask, cs ...grid.Coord) *testSource {
	for _, c := range cs {
		mm := m
		s.markers[c] = Marker{Mask: &mm}
	}
	return s
}

func (s *testSource) bake() *NavMesh {
	n := NewNavMesh()
	n.Bake(s)
	return n
}

func rectGeometry(t *testing.T, w, h int) grid.Geometry {
	t.Helper()
	g, err := grid.NewGeometry(grid.Rect, grid.Size{Width: w, Height: h}, 1, cp.Vector{})
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	return g
}

func TestBakeMarkers(t *testing.T) {
	walk := Walkable
	water := LayerBit(2)
	src := newTestSource(4, 1)
	src.markers[grid.C(1, 0)] = Marker{}
	src.markers[grid.C(2, 0)] = Marker{Area: &walk}
	src.markers[grid.C(3, 0)] = Marker{Mask: &water}
	nav := src.bake()

	tests := []struct {
		c    grid.Coord
		mask CullingMask
		want bool
	}{
		{grid.C(0, 0), NoneMask, true},
		{grid.C(1, 0), AllMask, false},
		{grid.C(2, 0), NoneMask, true},
		{grid.C(3, 0), LayerBit(0), false},
		{grid.C(3, 0), LayerBit(0).With(2), true},
		{grid.C(3, 0), NoneMask, false},
		{grid.C(4, 0), AllMask, false},
		{grid.C(-1, 0), AllMask, false},
	}
	for _, tt := range tests {
		if got := nav.IsWalkable(tt.c, tt.mask); got != tt.want {
			t.Fatalf("IsWalkable(%v, %v) = %v, want %v", tt.c, tt.mask, got, tt.want)
		}
	}

	cell, ok := nav.Cell(grid.C(3, 0))
	if !ok || !cell.Masked || cell.Area != NotWalkable || cell.Mask != water {
		t.Fatalf("masked cell = %+v, %v", cell, ok)
	}
	if got := nav.WalkableCount(NoneMask); got != 2 {
		t.Fatalf("WalkableCount = %d, want 2", got)
	}
}

func TestBakeIsIdempotent(t *testing.T) {
	src := newTestSource(5, 4).block(grid.C(1, 1), grid.C(3, 2)).mask(LayerBit(1), grid.C(0, 3))
	nav := NewNavMesh()
	nav.Bake(src)
	first := nav.Snapshot()
	nav.Bake(src)
	if second := nav.Snapshot(); !reflect.DeepEqual(first, second) {
		t.Fatalf("rebake changed the mesh:\n%+v\n%+v", first, second)
	}
}

func TestUnbakedNavMesh(t *testing.T) {
	nav := NewNavMesh()
	if nav.Baked() {
		t.Fatalf("fresh mesh reports baked")
	}
	if nav.IsWalkable(grid.C(0, 0), AllMask) {
		t.Fatalf("unbaked mesh reports a walkable cell")
	}
	pf := NewPathfinder(NewRectGraph(rectGeometry(t, 3, 3), nav, false))
	if p := pf.FindPath(grid.C(0, 0), grid.C(2, 2), AllMask); p.HasPath {
		t.Fatalf("path on unbaked mesh: %+v", p)
	}
}

func TestSnapshotRestore(t *testing.T) {
	src := newTestSource(3, 3).block(grid.C(1, 1)).mask(LayerBit(0), grid.C(2, 2))
	nav := src.bake()

	restored := NewNavMesh()
	if err := restored.Restore(nav.Snapshot()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			c := grid.C(x, y)
			for _, m := range []CullingMask{NoneMask, LayerBit(0), LayerBit(1)} {
				if nav.IsWalkable(c, m) != restored.IsWalkable(c, m) {
					t.Fatalf("cell %v mask %v differs after restore", c, m)
				}
			}
		}
	}

	bad := nav.Snapshot()
	bad.Cells = bad.Cells[:4]
	if err := restored.Restore(bad); !errors.Is(err, ErrSnapshotSize) {
		t.Fatalf("Restore(short) = %v, want ErrSnapshotSize", err)
	}
}
