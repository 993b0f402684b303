package pathfinding

import (
	"fmt"
	"math/bits"
	"strings"
)

// MaxLayers is the number of distinct bits a CullingMask can carry.
const MaxLayers = 32

// CullingMask selects traversal categories. Bit i belongs to the i-th
// registered layer.
type CullingMask uint32

const (
	NoneMask CullingMask = 0
	AllMask  CullingMask = ^CullingMask(0)
)

// LayerBit returns the mask holding only bit index. Indices outside
// [0, MaxLayers) yield NoneMask.
func LayerBit(index int) CullingMask {
	if index < 0 || index >= MaxLayers {
		return NoneMask
	}
	return CullingMask(1) << uint(index)
}

func (m CullingMask) With(index int) CullingMask {
	return m | LayerBit(index)
}

func (m CullingMask) Without(index int) CullingMask {
	return m &^ LayerBit(index)
}

func (m CullingMask) Union(o CullingMask) CullingMask {
	return m | o
}

func (m CullingMask) Has(index int) bool {
	b := LayerBit(index)
	return b != 0 && m&b != 0
}

// Contains reports whether m and o share at least one bit. This is not a
// subset test: {Ground, Water} contains {Water, Lava}.
func (m CullingMask) Contains(o CullingMask) bool {
	return m&o != 0
}

// Bits lists the set bit indices in ascending order.
func (m CullingMask) Bits() []int {
	out := make([]int, 0, bits.OnesCount32(uint32(m)))
	for v := uint32(m); v != 0; v &= v - 1 {
		out = append(out, bits.TrailingZeros32(v))
	}
	return out
}

func (m CullingMask) String() string {
	switch m {
	case NoneMask:
		return "none"
	case AllMask:
		return "all"
	}
	parts := make([]string, 0, 4)
	for _, b := range m.Bits() {
		parts = append(parts, fmt.Sprint(b))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
