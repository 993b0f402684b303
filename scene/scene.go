// Package scene places obstacles, modifiers and agents on a grid and
// exposes the result to the navmesh bake.
package scene

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/gridsystem/ecs"
	"github.com/milk9111/gridsystem/ecs/component"
	"github.com/milk9111/gridsystem/grid"
	"github.com/milk9111/gridsystem/pathfinding"
	"github.com/milk9111/gridsystem/ruletile"
)

var (
	ErrOutOfBounds = errors.New("scene: cell out of bounds")
	ErrOccupied    = errors.New("scene: cell occupied")
	ErrNotAgent    = errors.New("scene: entity is not an agent")
	ErrNoLayer     = errors.New("scene: agent layer not registered")
)

// DefaultAgentSpeed is used for agents placed without a speed, in cells
// per second.
const DefaultAgentSpeed = 1.0

// EventArrived is pushed when an agent reaches the end of its route.
const EventArrived = "arrived"

// Scene is a grid of entities. Each cell holds at most one entity; agents
// larger than one cell are recorded at their centre.
type Scene struct {
	grid   *grid.Grid[ecs.Entity]
	world  *ecs.World
	layers *pathfinding.LayerRegistry
	sched  *ecs.Scheduler
}

func New(geom grid.Geometry, layers *pathfinding.LayerRegistry) *Scene {
	if layers == nil {
		layers = pathfinding.NewLayerRegistry(pathfinding.DefaultLayerNames...)
	}
	s := &Scene{
		grid:   grid.New[ecs.Entity](geom),
		world:  ecs.NewWorld(),
		layers: layers,
	}
	s.sched = ecs.NewScheduler(ecs.SystemFunc(s.follow))
	return s
}

func (s *Scene) Geometry() grid.Geometry            { return s.grid.Geometry() }
func (s *Scene) Grid() *grid.Grid[ecs.Entity]       { return s.grid }
func (s *Scene) World() *ecs.World                  { return s.world }
func (s *Scene) Layers() *pathfinding.LayerRegistry { return s.layers }
func (s *Scene) GridSize() grid.Size                { return s.grid.Size() }
func (s *Scene) CellSize() float64                  { return s.grid.CellSize() }
func (s *Scene) At(c grid.Coord) ecs.Entity         { return s.grid.Get(c) }
func (s *Scene) OnChanged(fn func())                { s.grid.OnUpdated(fn) }

// Occupant reports the bake marker for a cell. Agents take precedence
// over obstacles; a modifier only overrides the area.
func (s *Scene) Occupant(x, y int) (pathfinding.Marker, bool) {
	e := s.grid.Get(grid.C(x, y))
	if e == 0 || !ecs.IsAlive(s.world, e) {
		return pathfinding.Marker{}, false
	}
	if a, ok := ecs.Get(s.world, e, component.AgentComponent.Kind()); ok {
		mask := a.Mask
		return pathfinding.Marker{Mask: &mask}, true
	}
	if o, ok := ecs.Get(s.world, e, component.ObstacleComponent.Kind()); ok {
		if !o.Masked {
			return pathfinding.Marker{}, true
		}
		mask := o.Mask
		return pathfinding.Marker{Mask: &mask}, true
	}
	if m, ok := ecs.Get(s.world, e, component.ModifierComponent.Kind()); ok {
		area := m.Area
		return pathfinding.Marker{Area: &area}, true
	}
	return pathfinding.Marker{}, true
}

func (s *Scene) reserve(c grid.Coord, name string) (ecs.Entity, error) {
	if !s.grid.Geometry().InBounds(c) {
		return 0, fmt.Errorf("%w: %v", ErrOutOfBounds, c)
	}
	if held := s.grid.Get(c); held != 0 {
		return 0, fmt.Errorf("%w: %v holds %v", ErrOccupied, c, held)
	}
	e := ecs.CreateEntity(s.world)
	if err := ecs.Add(s.world, e, component.CellComponent.Kind(), &component.Cell{Coord: c}); err != nil {
		return 0, err
	}
	if err := ecs.Add(s.world, e, component.TagComponent.Kind(), &component.Tag{Name: name}); err != nil {
		return 0, err
	}
	return e, nil
}

func attach[T any](s *Scene, e ecs.Entity, c grid.Coord, kind component.ComponentKind[T], v *T) (ecs.Entity, error) {
	if err := ecs.Add(s.world, e, kind, v); err != nil {
		ecs.DestroyEntity(s.world, e)
		return 0, err
	}
	s.grid.Set(c, e)
	return e, nil
}

// PlaceObstacle blocks c. Named layers make it passable for requesters
// on any of them.
func (s *Scene) PlaceObstacle(c grid.Coord, name string, layers ...string) (ecs.Entity, error) {
	e, err := s.reserve(c, name)
	if err != nil {
		return 0, err
	}
	o := &component.Obstacle{Layers: layers}
	if len(layers) > 0 {
		o.Mask = s.layers.Mask(layers...)
		o.Masked = true
	}
	return attach(s, e, c, component.ObstacleComponent.Kind(), o)
}

func (s *Scene) PlaceModifier(c grid.Coord, name string, area pathfinding.Area) (ecs.Entity, error) {
	e, err := s.reserve(c, name)
	if err != nil {
		return 0, err
	}
	return attach(s, e, c, component.ModifierComponent.Kind(), &component.Modifier{Area: area})
}

// PlaceAgent puts an agent on c. The layer must be registered.
func (s *Scene) PlaceAgent(c grid.Coord, name, layer string, size pathfinding.Footprint, speed float64) (ecs.Entity, error) {
	layer = strings.TrimSpace(layer)
	if _, ok := s.layers.Resolve(layer); !ok || layer == "" {
		return 0, fmt.Errorf("%w: %q", ErrNoLayer, layer)
	}
	if speed <= 0 {
		speed = DefaultAgentSpeed
	}
	e, err := s.reserve(c, name)
	if err != nil {
		return 0, err
	}
	tr := &component.Transform{Position: s.grid.Geometry().ToWorld(c, true)}
	if err := ecs.Add(s.world, e, component.TransformComponent.Kind(), tr); err != nil {
		ecs.DestroyEntity(s.world, e)
		return 0, err
	}
	a := &component.Agent{Layer: layer, Mask: s.layers.Mask(layer), Size: size, Speed: speed}
	return attach(s, e, c, component.AgentComponent.Kind(), a)
}

// Remove clears c and destroys whatever stood there.
func (s *Scene) Remove(c grid.Coord) (ecs.Entity, bool) {
	e := s.grid.Get(c)
	if e == 0 {
		return 0, false
	}
	s.grid.Remove(c)
	ecs.DestroyEntity(s.world, e)
	return e, true
}

// Agent returns the agent data and current cell of e.
func (s *Scene) Agent(e ecs.Entity) (component.Agent, grid.Coord, error) {
	a, ok := ecs.Get(s.world, e, component.AgentComponent.Kind())
	if !ok {
		return component.Agent{}, grid.Coord{}, fmt.Errorf("%w: %v", ErrNotAgent, e)
	}
	cell, _ := ecs.Get(s.world, e, component.CellComponent.Kind())
	return *a, cell.Coord, nil
}

// Agents lists agent entities in creation order.
func (s *Scene) Agents() []ecs.Entity {
	var out []ecs.Entity
	for _, e := range ecs.Entities(s.world) {
		if ecs.Has(s.world, e, component.AgentComponent.Kind()) {
			out = append(out, e)
		}
	}
	return out
}

// FindAgent looks an agent up by name.
func (s *Scene) FindAgent(name string) (ecs.Entity, bool) {
	for _, e := range s.Agents() {
		if tag, ok := ecs.Get(s.world, e, component.TagComponent.Kind()); ok && tag.Name == name {
			return e, true
		}
	}
	return 0, false
}

func (s *Scene) Name(e ecs.Entity) string {
	if tag, ok := ecs.Get(s.world, e, component.TagComponent.Kind()); ok {
		return tag.Name
	}
	return ""
}

// SetRoute starts e walking p. A path without waypoints clears the route.
// Agent speed is in cells, the follower works in world units.
func (s *Scene) SetRoute(e ecs.Entity, goal grid.Coord, p pathfinding.Path) error {
	a, _, err := s.Agent(e)
	if err != nil {
		return err
	}
	geom := s.grid.Geometry()
	f := pathfinding.NewFollower(a.Speed*geom.CellSize, func(c grid.Coord) cp.Vector { return geom.ToWorld(c, true) })
	if !f.Follow(p) {
		ecs.Remove(s.world, e, component.RouteComponent.Kind())
		return nil
	}
	return ecs.Add(s.world, e, component.RouteComponent.Kind(), &component.Route{Goal: goal, Path: p, Follower: f})
}

// Step advances every routed agent by dt seconds and returns the events
// raised along the way.
func (s *Scene) Step(dt float64) []ecs.Event {
	s.sched.Update(s.world, dt)
	return s.world.Events().Drain()
}

func (s *Scene) follow(w *ecs.World, dt float64) {
	ecs.ForEach3(w, component.AgentComponent.Kind(), component.TransformComponent.Kind(), component.RouteComponent.Kind(),
		func(e ecs.Entity, _ *component.Agent, tr *component.Transform, route *component.Route) {
			tr.Position = route.Follower.Update(tr.Position, dt)

			cell, ok := ecs.Get(w, e, component.CellComponent.Kind())
			if !ok {
				return
			}
			next := s.grid.Geometry().ToGrid(tr.Position)
			if next != cell.Coord && s.grid.Get(next) == 0 {
				s.grid.Remove(cell.Coord)
				s.grid.Set(next, e)
				cell.Coord = next
			}

			if route.Follower.State() == pathfinding.FollowIdle {
				ecs.Remove(w, e, component.RouteComponent.Kind())
				w.Events().Push(ecs.Event{Type: EventArrived, Entity: e, Data: cell.Coord})
			}
		})
}

// Position is the world position of e, or the zero vector when it has no
// transform.
func (s *Scene) Position(e ecs.Entity) cp.Vector {
	if tr, ok := ecs.Get(s.world, e, component.TransformComponent.Kind()); ok {
		return tr.Position
	}
	return cp.Vector{}
}

// Routed reports whether e is currently following a path.
func (s *Scene) Routed(e ecs.Entity) bool {
	return ecs.Has(s.world, e, component.RouteComponent.Kind())
}

// Obstacles is the occupancy of every obstacle cell, for tile layout.
func (s *Scene) Obstacles() ruletile.Set {
	out := ruletile.NewSet()
	ecs.ForEach2(s.world, component.ObstacleComponent.Kind(), component.CellComponent.Kind(),
		func(_ ecs.Entity, _ *component.Obstacle, c *component.Cell) { out.Add(c.Coord) })
	return out
}

// Tiles paints every obstacle cell with b.
func (s *Scene) Tiles(b ruletile.Brush) (map[grid.Coord]ruletile.Tile, error) {
	return ruletile.Layout(b, s.Obstacles())
}
