package grid

import (
	"testing"

	"github.com/jakecoffman/cp"
)

func TestGridStorage(t *testing.T) {
	geom, _ := NewGeometry(Rect, Size{Width: 4, Height: 3}, 1, cp.Vector{})
	g := New[string](geom)

	updates := 0
	g.OnUpdated(func() { updates++ })

	tests := []struct {
		name  string
		run   func()
		check func(t *testing.T)
	}{
		{
			name: "set_and_get",
			run:  func() { g.Set(Coord{X: 2, Y: 1}, "wall") },
			check: func(t *testing.T) {
				if v, ok := g.TryGet(Coord{X: 2, Y: 1}); !ok || v != "wall" {
					t.Fatalf("TryGet = %q, %v", v, ok)
				}
			},
		},
		{
			name: "out_of_bounds_set_ignored",
			run:  func() { g.Set(Coord{X: 9, Y: 9}, "lost") },
			check: func(t *testing.T) {
				if v := g.Get(Coord{X: 9, Y: 9}); v != "" {
					t.Fatalf("Get out of bounds = %q", v)
				}
			},
		},
		{
			name: "world_lookup",
			run:  func() {},
			check: func(t *testing.T) {
				p := geom.ToWorld(Coord{X: 2, Y: 1}, true)
				if v, ok := g.AtWorld(p); !ok || v != "wall" {
					t.Fatalf("AtWorld = %q, %v", v, ok)
				}
			},
		},
		{
			name: "remove",
			run: func() {
				if old := g.Remove(Coord{X: 2, Y: 1}); old != "wall" {
					t.Fatalf("Remove returned %q", old)
				}
			},
			check: func(t *testing.T) {
				if len(g.Occupied()) != 0 {
					t.Fatalf("expected empty grid, got %v", g.Occupied())
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.run()
			tc.check(t)
		})
	}

	if updates != 3 {
		t.Fatalf("expected 3 update notifications, got %d", updates)
	}
}

func TestGridIndexRoundTrip(t *testing.T) {
	geom, _ := NewGeometry(Rect, Size{Width: 5, Height: 4}, 1, cp.Vector{})
	g := New[int](geom)
	for i := 0; i < geom.Size.Cells(); i++ {
		if got := g.ToIndex(g.FromIndex(i)); got != i {
			t.Fatalf("index %d round-tripped to %d", i, got)
		}
	}
}

func TestGridResize(t *testing.T) {
	geom, _ := NewGeometry(Rect, Size{Width: 2, Height: 2}, 1, cp.Vector{})
	g := New[int](geom)
	g.Set(Coord{X: 1, Y: 1}, 7)
	g.Resize(Size{Width: 6, Height: 5}, 2)
	if g.Size() != (Size{Width: 6, Height: 5}) || g.CellSize() != 2 {
		t.Fatalf("resize not applied: %v %v", g.Size(), g.CellSize())
	}
	if len(g.Occupied()) != 0 {
		t.Fatal("resize should clear contents")
	}
	count := 0
	g.Each(func(Coord, int) { count++ })
	if count != 30 {
		t.Fatalf("Each visited %d cells, want 30", count)
	}
}

func TestParseCoord(t *testing.T) {
	c, err := ParseCoord("3,-4")
	if err != nil || c != (Coord{X: 3, Y: -4}) {
		t.Fatalf("ParseCoord = %v, %v", c, err)
	}
	if _, err := ParseCoord("nope"); err == nil {
		t.Fatal("expected error")
	}
}
