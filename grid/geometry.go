package grid

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/gridsystem/common"
)

var (
	ErrInvalidSize     = errors.New("grid: size must be positive")
	ErrInvalidCellSize = errors.New("grid: cell size must be positive")
	ErrUnknownKind     = errors.New("grid: unknown geometry kind")
)

// Kind selects the tiling of a grid.
type Kind int

const (
	Rect Kind = iota
	HexFlatTop
	HexPointyTop
)

var sqrt3Over2 = math.Sqrt(3) / 2

func (k Kind) String() string {
	switch k {
	case Rect:
		return "rect"
	case HexFlatTop:
		return "hex_flat"
	case HexPointyTop:
		return "hex_pointy"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) IsHex() bool {
	return k == HexFlatTop || k == HexPointyTop
}

// ParseKind accepts the names produced by Kind.String plus a few aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rect", "rectangular", "square":
		return Rect, nil
	case "hex_flat", "flat", "flat_top", "hex-flat":
		return HexFlatTop, nil
	case "hex_pointy", "pointy", "pointy_top", "hex-pointy":
		return HexPointyTop, nil
	}
	return Rect, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Geometry maps integer cells to world space. It holds no cell contents.
type Geometry struct {
	Kind     Kind
	Size     Size
	CellSize float64
	Origin   cp.Vector
}

func NewGeometry(kind Kind, size Size, cellSize float64, origin cp.Vector) (Geometry, error) {
	g := Geometry{Kind: kind, Size: size, CellSize: cellSize, Origin: origin}
	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}

func (g Geometry) Validate() error {
	if g.Size.Width <= 0 || g.Size.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, g.Size.Width, g.Size.Height)
	}
	if g.CellSize <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidCellSize, g.CellSize)
	}
	switch g.Kind {
	case Rect, HexFlatTop, HexPointyTop:
		return nil
	}
	return fmt.Errorf("%w: %d", ErrUnknownKind, int(g.Kind))
}

func (g Geometry) InBounds(c Coord) bool {
	return g.Size.Contains(c)
}

// ToWorld returns the world position of a cell. For rectangular grids snap
// selects the cell centre instead of its lower corner. Hex grids always
// return the centre.
func (g Geometry) ToWorld(c Coord, snap bool) cp.Vector {
	x, y := float64(c.X), float64(c.Y)
	w, h := float64(g.Size.Width), float64(g.Size.Height)
	half := cp.Vector{X: g.CellSize * 0.5, Y: g.CellSize * 0.5}

	switch g.Kind {
	case HexPointyTop:
		width := g.CellSize
		height := sqrt3Over2 * g.CellSize
		offsetX := 0.0
		if c.Y&1 == 1 {
			offsetX = width * 0.5
		}
		p := cp.Vector{
			X: x*width + offsetX - w*width*0.5,
			Y: y*height - h*height*0.5,
		}
		return p.Add(g.Origin).Add(half)
	case HexFlatTop:
		height := g.CellSize
		width := sqrt3Over2 * g.CellSize
		offsetY := 0.0
		if c.X&1 == 1 {
			offsetY = height * 0.5
		}
		p := cp.Vector{
			X: x*width - w*width*0.5,
			Y: y*height + offsetY - h*height*0.5,
		}
		return p.Add(g.Origin).Add(half)
	default:
		p := cp.Vector{X: x - w/2, Y: y - h/2}.Mult(g.CellSize).Add(g.Origin)
		if snap {
			p = p.Add(half)
		}
		return p
	}
}

// ToGrid returns the cell containing p. Positions outside the grid map to
// the nearest boundary cell.
func (g Geometry) ToGrid(p cp.Vector) Coord {
	if g.CellSize <= 0 || g.Size.Cells() == 0 {
		return Coord{}
	}
	w, h := float64(g.Size.Width), float64(g.Size.Height)
	var x, y int

	switch g.Kind {
	case HexPointyTop:
		local := p.Sub(g.Origin).Sub(cp.Vector{X: g.CellSize * 0.5, Y: g.CellSize * 0.5})
		width := g.CellSize
		height := sqrt3Over2 * g.CellSize

		q := (local.X + w*width*0.5) / width
		r := (local.Y + h*height*0.5) / height

		y = int(math.Round(r))
		offsetX := 0.0
		if y&1 == 1 {
			offsetX = 0.5
		}
		x = int(math.Round(q - offsetX))
	case HexFlatTop:
		local := p.Sub(g.Origin).Sub(cp.Vector{X: g.CellSize * 0.5, Y: g.CellSize * 0.5})
		height := g.CellSize
		width := sqrt3Over2 * g.CellSize

		colF := (local.X + w*width*0.5) / width
		rowF := (local.Y + h*height*0.5) / height

		x = int(math.Round(colF))
		offsetY := 0.0
		if x&1 == 1 {
			offsetY = 0.5
		}
		y = int(math.Round(rowF - offsetY))
	default:
		rel := p.Sub(g.Origin).Mult(1 / g.CellSize)
		x = int(math.Floor(rel.X + w/2))
		y = int(math.Floor(rel.Y + h/2))
	}

	return Coord{
		X: common.Clamp(x, 0, g.Size.Width-1),
		Y: common.Clamp(y, 0, g.Size.Height-1),
	}
}

// Snap moves p onto the centre of the cell that contains it.
func (g Geometry) Snap(p cp.Vector) cp.Vector {
	return g.ToWorld(g.ToGrid(p), true)
}

// Bounds is the world-space box spanned by the cell corners (rect) or
// cell centres padded by half a cell (hex).
func (g Geometry) Bounds() cp.BB {
	if g.Size.Cells() == 0 {
		return cp.BB{L: g.Origin.X, B: g.Origin.Y, R: g.Origin.X, T: g.Origin.Y}
	}
	if !g.Kind.IsHex() {
		lo := g.ToWorld(Coord{}, false)
		hi := g.ToWorld(Coord{X: g.Size.Width, Y: g.Size.Height}, false)
		return cp.BB{L: lo.X, B: lo.Y, R: hi.X, T: hi.Y}
	}
	bb := cp.BB{L: math.Inf(1), B: math.Inf(1), R: math.Inf(-1), T: math.Inf(-1)}
	corners := []Coord{
		{0, 0}, {1, 0}, {0, 1}, {1, 1},
		{g.Size.Width - 1, g.Size.Height - 1}, {g.Size.Width - 2, g.Size.Height - 1},
		{g.Size.Width - 1, g.Size.Height - 2}, {g.Size.Width - 2, g.Size.Height - 2},
	}
	for _, c := range corners {
		if !g.InBounds(c) {
			continue
		}
		p := g.ToWorld(c, true)
		bb.L = math.Min(bb.L, p.X)
		bb.B = math.Min(bb.B, p.Y)
		bb.R = math.Max(bb.R, p.X)
		bb.T = math.Max(bb.T, p.Y)
	}
	pad := g.CellSize * 0.5
	return cp.BB{L: bb.L - pad, B: bb.B - pad, R: bb.R + pad, T: bb.T + pad}
}
