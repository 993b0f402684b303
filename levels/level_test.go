package levels

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/milk9111/gridsystem/grid"
)

func TestEmbeddedLevels(t *testing.T) {
	want := []string{"demo_hex", "demo_large", "demo_rect"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for _, name := range want {
		lvl, err := LoadLevelFromFS(name)
		if err != nil {
			t.Fatalf("LoadLevelFromFS(%s): %v", name, err)
		}
		if lvl.Rules == "" {
			continue
		}
		if _, err := LoadScript(lvl.Rules); err != nil {
			t.Fatalf("%s rules: %v", name, err)
		}
	}
}

func TestSizeFromLayout(t *testing.T) {
	lvl, err := Load("levels/demo_rect.json")
	if err != nil {
		t.Fatal(err)
	}
	if got := lvl.Size(); got != (grid.Size{Width: 10, Height: 8}) {
		t.Fatalf("Size() = %v", got)
	}
	if lvl.Kind != grid.Rect || lvl.CellSize != 1 {
		t.Fatalf("kind %v cell size %v", lvl.Kind, lvl.CellSize)
	}

	var walls int
	lvl.Symbols(func(c grid.Coord, symbol string) {
		if symbol == "#" {
			walls++
		}
		if symbol == "A" && c != grid.C(0, 0) {
			t.Fatalf("walker at %v", c)
		}
	})
	if walls != 9 {
		t.Fatalf("walls = %d, want 9", walls)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad json", `{"name": `},
		{"no size", `{"name": "x", "kind": "rect"}`},
		{"bad kind", `{"name": "x", "kind": "triangle", "width": 2, "height": 2}`},
		{"long legend key", `{"name": "x", "width": 2, "height": 2, "legend": {"##": {"kind": "obstacle"}}}`},
		{"bad area", `{"name": "x", "width": 2, "height": 2, "legend": {"#": {"kind": "modifier", "area": "mud"}}}`},
		{"unknown placement", `{"name": "x", "width": 2, "height": 2, "legend": {"#": {"kind": "tree"}}}`},
		{"entity outside", `{"name": "x", "width": 2, "height": 2, "entities": [{"kind": "agent", "layer": "Ground", "x": 5, "y": 0}]}`},
		{"negative speed", `{"name": "x", "width": 2, "height": 2, "entities": [{"kind": "agent", "layer": "Ground", "speed": -1, "x": 0, "y": 0}]}`},
		{"agent without layer", `{"name": "x", "width": 2, "height": 2, "entities": [{"kind": "agent", "x": 0, "y": 0}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Fatalf("Parse accepted %s", tt.data)
			}
		})
	}

	_, err := Parse([]byte(`{"name": "x", "width": 2, "height": 2, "legend": {"#": {"kind": "tree"}}}`))
	if !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("err = %v, want ErrInvalidLevel", err)
	}
}

func TestSaveAndLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	old := Dir
	Dir = dir
	t.Cleanup(func() { Dir = old })

	lvl := &Level{
		Name:     "tiny",
		Kind:     grid.HexFlatTop,
		CellSize: 2,
		Layout:   []string{"#.", ".#"},
		Legend:   map[string]Placement{"#": {Kind: KindObstacle, Name: "rock"}},
	}
	if err := lvl.Save(filepath.Join(dir, "tiny.json")); err != nil {
		t.Fatal(err)
	}
	got, err := Load("tiny")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, lvl) {
		t.Fatalf("Load = %+v, want %+v", got, lvl)
	}

	if err := os.MkdirAll(filepath.Join(dir, "rules"), 0o755); err != nil {
		t.Fatal(err)
	}
	src := []byte("classify := func(symbol, x, y) {}\n")
	if err := os.WriteFile(filepath.Join(dir, "rules", "local.tengo"), src, 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := LoadScript("rules/local")
	if err != nil || string(data) != string(src) {
		t.Fatalf("LoadScript = %q, %v", data, err)
	}
	if _, err := LoadScript("missing"); err == nil {
		t.Fatalf("missing script loaded")
	}
}
