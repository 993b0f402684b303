// Package navigator serialises access to a scene, its baked navmesh and
// the pathfinder built on top of it. Bakes take the write lock and
// queries the read lock, so an HTTP server and a reload loop can share
// one Navigator.
package navigator

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/gridsystem/ecs"
	"github.com/milk9111/gridsystem/grid"
	"github.com/milk9111/gridsystem/levels"
	"github.com/milk9111/gridsystem/pathfinding"
	"github.com/milk9111/gridsystem/ruletile"
	"github.com/milk9111/gridsystem/scene"
	"github.com/milk9111/gridsystem/storage"
)

var (
	ErrNotBaked     = errors.New("navigator: navmesh not baked")
	ErrUnknownAgent = errors.New("navigator: unknown agent")
)

// Event types delivered to listeners.
const (
	EventBaked   = "baked"
	EventArrived = scene.EventArrived
)

// Event is published after a bake and whenever an agent reaches its goal.
type Event struct {
	Type     string        `json:"type"`
	Level    string        `json:"level"`
	Version  uint64        `json:"version"`
	Walkable int           `json:"walkable,omitempty"`
	Took     time.Duration `json:"took,omitempty"`
	Agent    string        `json:"agent,omitempty"`
	Cell     *grid.Coord   `json:"cell,omitempty"`
}

type Options struct {
	Costs pathfinding.Costs
	// Limit bounds closest-path searches; zero uses the pathfinding default.
	Limit int
	// Store, when set, receives every bake and is consulted by Restore.
	Store storage.Store
}

type Navigator struct {
	mu      sync.RWMutex
	level   string
	scene   *scene.Scene
	nav     *pathfinding.NavMesh
	finder  *pathfinding.Pathfinder
	opts    Options
	version uint64
	dirty   bool

	lmu       sync.Mutex
	listeners map[int]func(Event)
	nextID    int
}

func New(level string, s *scene.Scene, opts Options) (*Navigator, error) {
	if err := opts.Costs.Validate(); err != nil {
		return nil, err
	}
	n := &Navigator{
		opts:      opts,
		listeners: make(map[int]func(Event)),
	}
	n.attach(level, s)
	return n, nil
}

// FromLevel builds the scene for lvl and wraps it. The result is not baked.
func FromLevel(lvl *levels.Level, layers *pathfinding.LayerRegistry, opts Options) (*Navigator, error) {
	s, err := scene.FromLevel(lvl, layers)
	if err != nil {
		return nil, err
	}
	return New(lvl.Name, s, opts)
}

func (n *Navigator) attach(level string, s *scene.Scene) {
	n.level = level
	n.scene = s
	n.nav = pathfinding.NewNavMesh()
	n.finder = nil
	n.dirty = true
	s.OnChanged(func() { n.dirty = true })
}

// Subscribe registers fn for every future event and returns a function
// that removes it. Listeners run on the goroutine that raised the event
// with no navigator lock held.
func (n *Navigator) Subscribe(fn func(Event)) func() {
	n.lmu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	n.lmu.Unlock()

	return func() {
		n.lmu.Lock()
		delete(n.listeners, id)
		n.lmu.Unlock()
	}
}

func (n *Navigator) publish(events ...Event) {
	if len(events) == 0 {
		return
	}
	n.lmu.Lock()
	fns := make([]func(Event), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.lmu.Unlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}

// Bake rebuilds the navmesh from the scene, persists it when a store is
// configured and notifies listeners.
func (n *Navigator) Bake() (Event, error) {
	n.mu.Lock()
	start := time.Now()
	if err := n.bakeLocked(); err != nil {
		n.mu.Unlock()
		return Event{}, err
	}
	ev := Event{
		Type:     EventBaked,
		Level:    n.level,
		Version:  n.version,
		Walkable: n.nav.WalkableCount(pathfinding.NoneMask),
		Took:     time.Since(start),
	}
	snap := n.nav.Snapshot()
	n.mu.Unlock()

	if n.opts.Store != nil {
		if err := n.opts.Store.SaveNavMesh(ev.Level, snap); err != nil {
			log.Printf("navigator: persist %s: %v", ev.Level, err)
		}
	}
	n.publish(ev)
	return ev, nil
}

func (n *Navigator) bakeLocked() error {
	n.nav.Bake(n.scene)
	return n.rebuildLocked()
}

func (n *Navigator) rebuildLocked() error {
	g, err := pathfinding.NewGraph(n.scene.Geometry(), n.nav, n.opts.Costs)
	if err != nil {
		return err
	}
	n.finder = pathfinding.NewPathfinder(g)
	n.version++
	n.dirty = false
	return nil
}

// Restore loads the last persisted bake for the current level instead of
// baking from the scene.
func (n *Navigator) Restore() (Event, error) {
	if n.opts.Store == nil {
		return Event{}, fmt.Errorf("navigator: restore %s: no store configured", n.Level())
	}
	snap, err := n.opts.Store.LoadNavMesh(n.Level())
	if err != nil {
		return Event{}, err
	}

	n.mu.Lock()
	if size := n.scene.GridSize(); size != (grid.Size{Width: snap.Width, Height: snap.Height}) {
		n.mu.Unlock()
		return Event{}, fmt.Errorf("%w: stored %dx%d, scene %dx%d",
			pathfinding.ErrSnapshotSize, snap.Width, snap.Height, size.Width, size.Height)
	}
	if err := n.nav.Restore(snap); err != nil {
		n.mu.Unlock()
		return Event{}, err
	}
	if err := n.rebuildLocked(); err != nil {
		n.mu.Unlock()
		return Event{}, err
	}
	ev := Event{
		Type:     EventBaked,
		Level:    n.level,
		Version:  n.version,
		Walkable: n.nav.WalkableCount(pathfinding.NoneMask),
	}
	n.mu.Unlock()

	n.publish(ev)
	return ev, nil
}

// Reload swaps in a freshly built scene and bakes it.
func (n *Navigator) Reload(lvl *levels.Level, layers *pathfinding.LayerRegistry) (Event, error) {
	s, err := scene.FromLevel(lvl, layers)
	if err != nil {
		return Event{}, err
	}
	n.mu.Lock()
	n.attach(lvl.Name, s)
	n.mu.Unlock()
	return n.Bake()
}

func (n *Navigator) Level() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.level
}

func (n *Navigator) Version() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.version
}

func (n *Navigator) Baked() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.nav.Baked()
}

// Dirty reports whether the scene changed since the last bake.
func (n *Navigator) Dirty() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.dirty
}

func (n *Navigator) Geometry() grid.Geometry {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.scene.Geometry()
}

func (n *Navigator) Layers() *pathfinding.LayerRegistry {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.scene.Layers()
}

func (n *Navigator) Snapshot() pathfinding.Snapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.nav.Snapshot()
}

// CellInfo describes one cell for callers outside the lock.
type CellInfo struct {
	Coord    grid.Coord       `json:"coord"`
	World    cp.Vector        `json:"world"`
	Baked    bool             `json:"baked"`
	Cell     pathfinding.Cell `json:"cell"`
	Occupant string           `json:"occupant,omitempty"`
}

func (n *Navigator) Cell(c grid.Coord) (CellInfo, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	geom := n.scene.Geometry()
	if !geom.InBounds(c) {
		return CellInfo{}, fmt.Errorf("%w: %v", scene.ErrOutOfBounds, c)
	}
	info := CellInfo{Coord: c, World: geom.ToWorld(c, true)}
	info.Cell, info.Baked = n.nav.Cell(c)
	if e := n.scene.At(c); e != 0 {
		info.Occupant = n.scene.Name(e)
	}
	return info, nil
}

func (n *Navigator) pathfinderLocked(op string) *pathfinding.Pathfinder {
	if n.finder == nil {
		log.Printf("navigator: %s on %s before bake", op, n.level)
		return nil
	}
	return n.finder
}

// FindPath searches from start to end for a requester with mask. With
// closest set an unreachable goal yields the path to the reachable cell
// nearest to it.
func (n *Navigator) FindPath(start, end grid.Coord, mask pathfinding.CullingMask, closest bool) pathfinding.Path {
	n.mu.RLock()
	defer n.mu.RUnlock()

	pf := n.pathfinderLocked("find path")
	if pf == nil {
		return pathfinding.Path{}
	}
	if closest {
		return pf.FindClosestPath(start, end, mask, n.opts.Limit)
	}
	return pf.FindPath(start, end, mask)
}

// FindPathFor searches on behalf of a named agent using its layer mask
// and footprint.
func (n *Navigator) FindPathFor(agent string, end grid.Coord, closest bool) (pathfinding.Path, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, p, err := n.agentPathLocked(agent, end, closest)
	return p, err
}

func (n *Navigator) agentPathLocked(agent string, end grid.Coord, closest bool) (ecs.Entity, pathfinding.Path, error) {
	e, ok := n.scene.FindAgent(agent)
	if !ok {
		return 0, pathfinding.Path{}, fmt.Errorf("%w: %q", ErrUnknownAgent, agent)
	}
	a, start, err := n.scene.Agent(e)
	if err != nil {
		return 0, pathfinding.Path{}, err
	}
	pf := n.pathfinderLocked("find path for " + agent)
	if pf == nil {
		return e, pathfinding.Path{}, ErrNotBaked
	}
	if closest {
		return e, pf.FindClosestPathMultiCell(start, end, a.Size, a.Mask, n.opts.Limit), nil
	}
	return e, pf.FindPathMultiCell(start, end, a.Size, a.Mask), nil
}

// Send routes a named agent towards end. A path that cannot be found
// leaves the agent where it is.
func (n *Navigator) Send(agent string, end grid.Coord, closest bool) (pathfinding.Path, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	e, p, err := n.agentPathLocked(agent, end, closest)
	if err != nil {
		return p, err
	}
	if len(p.Waypoints) < 2 {
		return p, nil
	}
	return p, n.scene.SetRoute(e, end, p)
}

// Step advances routed agents and publishes their arrivals.
func (n *Navigator) Step(dt float64) []Event {
	n.mu.Lock()
	raised := n.scene.Step(dt)
	out := make([]Event, 0, len(raised))
	for _, ev := range raised {
		if ev.Type != scene.EventArrived {
			continue
		}
		cell, _ := ev.Data.(grid.Coord)
		out = append(out, Event{
			Type:    EventArrived,
			Level:   n.level,
			Version: n.version,
			Agent:   n.scene.Name(ev.Entity),
			Cell:    &cell,
		})
	}
	n.mu.Unlock()

	n.publish(out...)
	return out
}

// AgentInfo is a read-only view of one agent.
type AgentInfo struct {
	Name     string                `json:"name"`
	Layer    string                `json:"layer"`
	Cell     grid.Coord            `json:"cell"`
	Position cp.Vector             `json:"position"`
	Size     pathfinding.Footprint `json:"size"`
	Moving   bool                  `json:"moving"`
}

func (n *Navigator) Agents() []AgentInfo {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var out []AgentInfo
	for _, e := range n.scene.Agents() {
		a, c, err := n.scene.Agent(e)
		if err != nil {
			continue
		}
		out = append(out, AgentInfo{
			Name:     n.scene.Name(e),
			Layer:    a.Layer,
			Cell:     c,
			Position: n.scene.Position(e),
			Size:     a.Size,
			Moving:   n.scene.Routed(e),
		})
	}
	return out
}

// Place applies p at c. The navmesh is stale until the next Bake.
func (n *Navigator) Place(c grid.Coord, p levels.Placement) error {
	if err := p.Validate(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := n.scene.Apply(c, p)
	return err
}

func (n *Navigator) Remove(c grid.Coord) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.scene.Remove(c)
	return ok
}

// Tiles lays obstacle tiles out with b.
func (n *Navigator) Tiles(b ruletile.Brush) (map[grid.Coord]ruletile.Tile, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.scene.Tiles(b)
}
