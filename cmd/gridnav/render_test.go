package main

import (
	"testing"

	"github.com/milk9111/gridsystem/grid"
	"github.com/milk9111/gridsystem/levels"
	"github.com/milk9111/gridsystem/pathfinding"
)

func TestRender(t *testing.T) {
	lvl := &levels.Level{Width: 4, Height: 2, Layout: []string{".#", ""}}
	p := pathfinding.Path{
		HasPath:   true,
		Waypoints: []grid.Coord{grid.C(0, 0), grid.C(0, 1), grid.C(1, 1), grid.C(2, 1)},
	}
	want := "S#..\n**G."
	if got := render(lvl, p); got != want {
		t.Fatalf("render =\n%s\nwant\n%s", got, want)
	}
}

func TestParseMask(t *testing.T) {
	reg := pathfinding.NewLayerRegistry("Ground", "Obstacle", "Water")
	tests := []struct {
		list string
		want pathfinding.CullingMask
	}{
		{"", pathfinding.AllMask},
		{" ", pathfinding.AllMask},
		{"Ground", 0b001},
		{"Ground, Water", 0b101},
		{"Lava", pathfinding.NoneMask},
	}
	for _, tt := range tests {
		if got := parseMask(reg, tt.list); got != tt.want {
			t.Fatalf("parseMask(%q) = %v, want %v", tt.list, got, tt.want)
		}
	}
}
