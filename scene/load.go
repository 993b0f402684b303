package scene

import (
	"fmt"
	"log"

	"github.com/milk9111/gridsystem/ecs"
	"github.com/milk9111/gridsystem/grid"
	"github.com/milk9111/gridsystem/levels"
	"github.com/milk9111/gridsystem/pathfinding"
)

// FromLevel builds a scene from lvl. When lvl names a rules script it is
// loaded and consulted before the legend. Unknown symbols are logged and
// left empty.
func FromLevel(lvl *levels.Level, layers *pathfinding.LayerRegistry) (*Scene, error) {
	var rules *Rules
	if lvl.Rules != "" {
		r, err := LoadRules(lvl.Rules)
		if err != nil {
			return nil, err
		}
		rules = r
	}
	return Build(lvl, layers, rules)
}

// Build is FromLevel with an explicit, possibly nil, rule set.
func Build(lvl *levels.Level, layers *pathfinding.LayerRegistry, rules *Rules) (*Scene, error) {
	geom, err := lvl.Geometry()
	if err != nil {
		return nil, fmt.Errorf("scene: level %s: %w", lvl.Name, err)
	}
	s := New(geom, layers)

	var firstErr error
	lvl.Symbols(func(c grid.Coord, symbol string) {
		if firstErr != nil {
			return
		}
		p, ok := lvl.Lookup(symbol)
		if rules != nil {
			rp, override, err := rules.Classify(symbol, c)
			if err != nil {
				firstErr = err
				return
			}
			if override {
				p, ok = rp, true
			}
		}
		if !ok {
			log.Printf("scene: %s: no legend entry for %q at %v", lvl.Name, symbol, c)
			return
		}
		if _, err := s.Apply(c, p); err != nil {
			firstErr = err
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}

	for _, e := range lvl.Entities {
		if _, err := s.Apply(grid.C(e.X, e.Y), e.Placement); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Apply places p at c. Empty placements clear nothing and return 0.
func (s *Scene) Apply(c grid.Coord, p levels.Placement) (ecs.Entity, error) {
	name := p.Name
	if name == "" {
		name = p.Kind
	}
	switch p.Kind {
	case levels.KindEmpty:
		return 0, nil
	case levels.KindObstacle:
		return s.PlaceObstacle(c, name, p.Layers...)
	case levels.KindModifier:
		area, err := pathfinding.ParseArea(p.Area)
		if err != nil {
			return 0, err
		}
		return s.PlaceModifier(c, name, area)
	case levels.KindAgent:
		size := pathfinding.Footprint{Width: p.Width, Height: p.Height}
		return s.PlaceAgent(c, name, p.Layer, size, p.Speed)
	}
	return 0, fmt.Errorf("%w: unknown placement kind %q", levels.ErrInvalidLevel, p.Kind)
}
