package ruletile

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/gridsystem/grid"
)

var ErrNoTile = errors.New("ruletile: palette has no tile for pattern")

//go:embed palettes/*.yaml
var PalettesFS embed.FS

// PaletteDir is checked before the embedded palettes.
var PaletteDir = "palettes"

// Tile is a concrete tile choice for one cell.
type Tile struct {
	Name     string   `json:"name" yaml:"name"`
	Rotation Rotation `json:"rotation" yaml:"rotation"`
}

// Brush decides what to paint at a cell.
type Brush interface {
	Paint(c grid.Coord, occ Occupancy) (Tile, error)
}

// Palette maps patterns to tile names. Patterns without an entry use the
// center tile.
type Palette struct {
	Name  string            `yaml:"name"`
	Tiles map[string]string `yaml:"tiles"`

	byPattern map[Pattern]string
}

func ParsePalette(data []byte) (*Palette, error) {
	var p Palette
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("ruletile: unmarshal palette: %w", err)
	}
	if err := p.index(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPalette reads name from PaletteDir, falling back to the embedded
// copy.
func LoadPalette(name string) (*Palette, error) {
	clean := strings.TrimPrefix(filepath.ToSlash(name), "palettes/")
	if !strings.HasSuffix(clean, ".yaml") {
		clean += ".yaml"
	}
	data, err := os.ReadFile(filepath.Join(PaletteDir, filepath.FromSlash(clean)))
	if err != nil {
		data, err = PalettesFS.ReadFile("palettes/" + clean)
		if err != nil {
			return nil, fmt.Errorf("ruletile: load %s: %w", clean, err)
		}
	}
	p, err := ParsePalette(data)
	if err != nil {
		return nil, fmt.Errorf("ruletile: palette %s: %w", clean, err)
	}
	return p, nil
}

func (p *Palette) index() error {
	p.byPattern = make(map[Pattern]string, len(p.Tiles))
	for key, tile := range p.Tiles {
		pat, err := ParsePattern(key)
		if err != nil {
			return err
		}
		p.byPattern[pat] = tile
	}
	return nil
}

// Lookup resolves a classification to a tile.
func (p *Palette) Lookup(r Result) (Tile, error) {
	if p.byPattern == nil {
		if err := p.index(); err != nil {
			return Tile{}, err
		}
	}
	if name, ok := p.byPattern[r.Pattern]; ok && name != "" {
		return Tile{Name: name, Rotation: r.Rotation}, nil
	}
	if name, ok := p.byPattern[Center]; ok && name != "" {
		return Tile{Name: name, Rotation: Rot0}, nil
	}
	return Tile{}, fmt.Errorf("%w: %v", ErrNoTile, r.Pattern)
}

// Paint classifies c and looks up the tile.
func (p *Palette) Paint(c grid.Coord, occ Occupancy) (Tile, error) {
	return p.Lookup(Classify(c, occ))
}

// Layout paints every cell of occ.
func Layout(b Brush, occ Set) (map[grid.Coord]Tile, error) {
	out := make(map[grid.Coord]Tile, len(occ))
	for _, c := range occ.Sorted() {
		t, err := b.Paint(c, occ)
		if err != nil {
			return nil, fmt.Errorf("ruletile: paint %v: %w", c, err)
		}
		out[c] = t
	}
	return out, nil
}

// ObjectBrush paints the same tile everywhere.
type ObjectBrush struct {
	Tile string
}

func (b ObjectBrush) Paint(grid.Coord, Occupancy) (Tile, error) {
	if b.Tile == "" {
		return Tile{}, fmt.Errorf("%w: object brush is empty", ErrNoTile)
	}
	return Tile{Name: b.Tile}, nil
}
