package levels

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/gridsystem/grid"
)

var ErrInvalidLevel = errors.New("levels: invalid level")

// Placement kinds.
const (
	KindEmpty    = "empty"
	KindObstacle = "obstacle"
	KindModifier = "modifier"
	KindAgent    = "agent"
)

// Placement describes what to put in a cell.
type Placement struct {
	Kind   string   `json:"kind" yaml:"kind" jsonschema:"enum=empty,enum=obstacle,enum=modifier,enum=agent"`
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
	Layers []string `json:"layers,omitempty" yaml:"layers,omitempty" jsonschema:"description=Obstacle layers that may still pass"`
	Layer  string   `json:"layer,omitempty" yaml:"layer,omitempty" jsonschema:"description=Agent layer"`
	Area   string   `json:"area,omitempty" yaml:"area,omitempty" jsonschema:"enum=walkable,enum=not_walkable"`
	Width  int      `json:"width,omitempty" yaml:"width,omitempty" jsonschema:"minimum=0"`
	Height int      `json:"height,omitempty" yaml:"height,omitempty" jsonschema:"minimum=0"`
	Speed  float64  `json:"speed,omitempty" yaml:"speed,omitempty" jsonschema:"minimum=0,description=Cells per second; 1 when omitted"`
}

func (p Placement) Validate() error {
	switch p.Kind {
	case KindEmpty, KindObstacle:
	case KindModifier:
		if p.Area != "walkable" && p.Area != "not_walkable" {
			return fmt.Errorf("%w: modifier area %q", ErrInvalidLevel, p.Area)
		}
	case KindAgent:
		if strings.TrimSpace(p.Layer) == "" {
			return fmt.Errorf("%w: agent %q has no layer", ErrInvalidLevel, p.Name)
		}
		if p.Width < 0 || p.Height < 0 || p.Speed < 0 {
			return fmt.Errorf("%w: agent size %dx%d speed %v", ErrInvalidLevel, p.Width, p.Height, p.Speed)
		}
	default:
		return fmt.Errorf("%w: unknown placement kind %q", ErrInvalidLevel, p.Kind)
	}
	return nil
}

// Entity is a placement at an explicit cell.
type Entity struct {
	Placement
	X int `json:"x"`
	Y int `json:"y"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Level is a grid description. Layout row i is grid row y=i; each rune is
// looked up in Legend, with '.' and ' ' always empty.
type Level struct {
	Name     string               `json:"name"`
	Kind     grid.Kind            `json:"kind"`
	Width    int                  `json:"width,omitempty"`
	Height   int                  `json:"height,omitempty"`
	CellSize float64              `json:"cell_size"`
	Origin   Point                `json:"origin"`
	Layout   []string             `json:"layout,omitempty" jsonschema:"description=Rows from y 0 down; '.' and ' ' are empty"`
	Legend   map[string]Placement `json:"legend,omitempty"`
	Entities []Entity             `json:"entities,omitempty"`
	Rules    string               `json:"rules,omitempty" jsonschema:"description=Tengo script under levels/rules consulted before the legend"`
}

func Parse(data []byte) (*Level, error) {
	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("levels: unmarshal level: %w", err)
	}
	if lvl.CellSize == 0 {
		lvl.CellSize = 1
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	return &lvl, nil
}

// Size is the explicit size, or the layout extent when none is given.
func (l *Level) Size() grid.Size {
	w, h := l.Width, l.Height
	if h == 0 {
		h = len(l.Layout)
	}
	if w == 0 {
		for _, row := range l.Layout {
			if n := len([]rune(row)); n > w {
				w = n
			}
		}
	}
	return grid.Size{Width: w, Height: h}
}

func (l *Level) Geometry() (grid.Geometry, error) {
	return grid.NewGeometry(l.Kind, l.Size(), l.CellSize, cp.Vector{X: l.Origin.X, Y: l.Origin.Y})
}

func (l *Level) Validate() error {
	if _, err := l.Geometry(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidLevel, l.Name, err)
	}
	for sym, p := range l.Legend {
		if len([]rune(sym)) != 1 {
			return fmt.Errorf("%w: legend key %q is not one rune", ErrInvalidLevel, sym)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("legend %q: %w", sym, err)
		}
	}
	size := l.Size()
	for _, e := range l.Entities {
		if !size.Contains(grid.C(e.X, e.Y)) {
			return fmt.Errorf("%w: entity at %d,%d outside %dx%d", ErrInvalidLevel, e.X, e.Y, size.Width, size.Height)
		}
		if err := e.Placement.Validate(); err != nil {
			return fmt.Errorf("entity at %d,%d: %w", e.X, e.Y, err)
		}
	}
	return nil
}

// Symbols visits every non-empty layout rune.
func (l *Level) Symbols(fn func(c grid.Coord, symbol string)) {
	for y, row := range l.Layout {
		for x, r := range []rune(row) {
			if r == '.' || r == ' ' {
				continue
			}
			fn(grid.C(x, y), string(r))
		}
	}
}

// Lookup returns the legend entry for symbol.
func (l *Level) Lookup(symbol string) (Placement, bool) {
	p, ok := l.Legend[symbol]
	return p, ok
}

// Encode renders l as indented JSON.
func (l *Level) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("levels: marshal %s: %w", l.Name, err)
	}
	return data, nil
}

func (l *Level) Save(path string) error {
	data, err := l.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("levels: write %s: %w", path, err)
	}
	return nil
}

// String draws the layout, one row per line.
func (l *Level) String() string {
	return strings.Join(l.Layout, "\n")
}
