package pathfinding

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

var (
	ErrLayerRegistryFull = errors.New("pathfinding: layer registry full")
	ErrDuplicateLayer    = errors.New("pathfinding: duplicate layer name")
	ErrEmptyLayerName    = errors.New("pathfinding: empty layer name")
)

// DefaultLayerNames seeds a fresh layer file.
var DefaultLayerNames = []string{"Ground", "Obstacle", "Water"}

// LayerRegistry maps layer names to mask bits. The bit of a name is its
// position in registration order. It must not be mutated while masks are
// being resolved from another goroutine.
type LayerRegistry struct {
	names []string
	index map[string]int
}

// NewLayerRegistry registers names in order. Invalid or duplicate names are
// logged and skipped so a damaged layer file still yields a usable registry.
func NewLayerRegistry(names ...string) *LayerRegistry {
	r := &LayerRegistry{index: make(map[string]int, len(names))}
	for _, name := range names {
		if _, err := r.Register(name); err != nil {
			log.Printf("pathfinding: skip layer %q: %v", name, err)
		}
	}
	return r
}

// Register appends name and returns its bit index.
func (r *LayerRegistry) Register(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1, ErrEmptyLayerName
	}
	if _, ok := r.index[name]; ok {
		return -1, fmt.Errorf("%w: %q", ErrDuplicateLayer, name)
	}
	if len(r.names) >= MaxLayers {
		return -1, fmt.Errorf("%w: %d layers", ErrLayerRegistryFull, len(r.names))
	}
	if r.index == nil {
		r.index = make(map[string]int)
	}
	r.names = append(r.names, name)
	r.index[name] = len(r.names) - 1
	return len(r.names) - 1, nil
}

// Remove deletes name. Every later layer moves down one bit, so masks built
// before the call are stale afterwards.
func (r *LayerRegistry) Remove(name string) bool {
	i, ok := r.Resolve(name)
	if !ok {
		return false
	}
	r.names = append(r.names[:i], r.names[i+1:]...)
	r.rebuild()
	return true
}

func (r *LayerRegistry) rebuild() {
	r.index = make(map[string]int, len(r.names))
	for i, n := range r.names {
		r.index[n] = i
	}
}

// Resolve returns the bit index of name. Surrounding whitespace is ignored,
// as in Register.
func (r *LayerRegistry) Resolve(name string) (int, bool) {
	if r == nil {
		return -1, false
	}
	i, ok := r.index[strings.TrimSpace(name)]
	return i, ok
}

// IndexOf is Resolve with -1 for unknown names.
func (r *LayerRegistry) IndexOf(name string) int {
	i, ok := r.Resolve(name)
	if !ok {
		return -1
	}
	return i
}

// Mask ORs together the bits of every resolvable name. Unknown names are
// logged and left out; empty names are ignored.
func (r *LayerRegistry) Mask(names ...string) CullingMask {
	var m CullingMask
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		i, ok := r.Resolve(name)
		if !ok {
			log.Printf("pathfinding: layer %q not registered", name)
			continue
		}
		m = m.With(i)
	}
	return m
}

// FullMask has a bit for every registered layer.
func (r *LayerRegistry) FullMask() CullingMask {
	var m CullingMask
	for i := range r.Names() {
		m = m.With(i)
	}
	return m
}

// Names returns a copy of the registered names in bit order.
func (r *LayerRegistry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.names...)
}

func (r *LayerRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// Describe renders m using layer names where known.
func (r *LayerRegistry) Describe(m CullingMask) string {
	if m == AllMask || m == NoneMask {
		return m.String()
	}
	parts := make([]string, 0, 4)
	for _, b := range m.Bits() {
		if b < r.Len() {
			parts = append(parts, r.names[b])
		} else {
			parts = append(parts, fmt.Sprintf("#%d", b))
		}
	}
	return strings.Join(parts, "|")
}
