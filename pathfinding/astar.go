package pathfinding

import (
	"container/heap"

	"github.com/milk9111/gridsystem/grid"
)

// DefaultSearchLimit bounds closest-path searches when no limit is given.
const DefaultSearchLimit = 1000

// Path is the result of one search. Waypoints run from start to goal
// inclusive; TotalDistance is their summed Euclidean length in cells.
// Expanded counts the nodes popped by the run that produced the result.
type Path struct {
	HasPath       bool         `json:"has_path"`
	TotalDistance float64      `json:"total_distance"`
	Waypoints     []grid.Coord `json:"waypoints"`
	Expanded      int          `json:"expanded"`
}

// End returns the last waypoint.
func (p Path) End() (grid.Coord, bool) {
	if len(p.Waypoints) == 0 {
		return grid.Coord{}, false
	}
	return p.Waypoints[len(p.Waypoints)-1], true
}

// Pathfinder runs A* over a Graph. It keeps no state between calls, so one
// value may serve any number of sequential searches.
type Pathfinder struct {
	graph Graph
}

func NewPathfinder(g Graph) *Pathfinder {
	return &Pathfinder{graph: g}
}

func (p *Pathfinder) Graph() Graph {
	return p.graph
}

// FindPath returns the cheapest path from start to end for a requester with
// mask. Both endpoints must be walkable.
func (p *Pathfinder) FindPath(start, end grid.Coord, mask CullingMask) Path {
	if !p.graph.IsWalkable(start, mask) || !p.graph.IsWalkable(end, mask) {
		return Path{}
	}
	s := p.newSearch(end, mask, p.walkableStep(mask))
	goal, _ := s.run(start, 0, false)
	if goal == nil {
		return Path{Expanded: s.expanded}
	}
	return s.retrace(goal)
}

// FindClosestPath tries FindPath first. When the goal cannot be reached it
// searches again, at most limit expansions, and returns the path to the
// visited cell with the smallest heuristic to end. The re-run still needs
// a walkable start but does not check end.
func (p *Pathfinder) FindClosestPath(start, end grid.Coord, mask CullingMask, limit int) Path {
	if path := p.FindPath(start, end, mask); path.HasPath {
		return path
	}
	return p.closest(start, end, mask, limit, p.walkableStep(mask))
}

func (p *Pathfinder) closest(start, end grid.Coord, mask CullingMask, limit int, step stepFunc) Path {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if !p.graph.IsWalkable(start, mask) {
		return Path{Waypoints: []grid.Coord{start}}
	}
	s := p.newSearch(end, mask, step)
	goal, best := s.run(start, limit, true)
	if goal != nil {
		return s.retrace(goal)
	}
	if best == nil || best.parent == nil {
		return Path{Waypoints: []grid.Coord{start}, Expanded: s.expanded}
	}
	return s.retrace(best)
}

func (p *Pathfinder) walkableStep(mask CullingMask) stepFunc {
	return func(_, to grid.Coord) bool {
		return p.graph.IsWalkable(to, mask)
	}
}

// stepFunc reports whether the search may move from one cell to the next.
type stepFunc func(from, to grid.Coord) bool

type node struct {
	pos    grid.Coord
	parent *node
	g      int
	h      int
	f      int
	seq    int
	index  int
}

// openSet orders by f, then by insertion order.
type openSet []*node

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}
func (o *openSet) Push(x any) {
	n := x.(*node)
	n.index = len(*o)
	*o = append(*o, n)
}
func (o *openSet) Pop() any {
	old := *o
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*o = old[:last]
	return n
}

type search struct {
	graph    Graph
	mask     CullingMask
	end      grid.Coord
	step     stepFunc
	open     openSet
	pending  map[grid.Coord]*node
	closed   map[grid.Coord]struct{}
	seq      int
	expanded int
}

func (p *Pathfinder) newSearch(end grid.Coord, mask CullingMask, step stepFunc) *search {
	return &search{
		graph:   p.graph,
		mask:    mask,
		end:     end,
		step:    step,
		open:    make(openSet, 0, 64),
		pending: make(map[grid.Coord]*node, 128),
		closed:  make(map[grid.Coord]struct{}, 128),
	}
}

func (s *search) push(pos grid.Coord, parent *node, g int) *node {
	h := s.graph.Heuristic(pos, s.end)
	n := &node{pos: pos, parent: parent, g: g, h: h, f: g + h, seq: s.seq}
	s.seq++
	heap.Push(&s.open, n)
	s.pending[pos] = n
	return n
}

// run expands nodes until the goal is popped, the open set empties, or
// limit expansions have happened (limit <= 0 means no bound). In closest
// mode it also tracks the lowest-h node and stops once a popped node is
// next to the goal.
func (s *search) run(start grid.Coord, limit int, closest bool) (goal, best *node) {
	best = s.push(start, nil, 0)

	for s.open.Len() > 0 {
		if limit > 0 && s.expanded >= limit {
			break
		}
		current := heap.Pop(&s.open).(*node)
		delete(s.pending, current.pos)
		s.closed[current.pos] = struct{}{}
		s.expanded++

		if current.pos == s.end {
			return current, current
		}
		if closest {
			if current.h < best.h {
				best = current
			}
			if s.nextToGoal(current.pos) {
				break
			}
		}

		for _, n := range s.graph.Neighbors(current.pos) {
			if _, done := s.closed[n]; done {
				continue
			}
			if !s.step(current.pos, n) {
				continue
			}
			g := current.g + s.graph.MoveCost(current.pos, n)
			if existing, ok := s.pending[n]; ok {
				if g < existing.g {
					existing.parent = current
					existing.g = g
					existing.f = g + existing.h
					heap.Fix(&s.open, existing.index)
				}
				continue
			}
			s.push(n, current, g)
		}
	}
	return nil, best
}

func (s *search) nextToGoal(c grid.Coord) bool {
	for _, n := range s.graph.Neighbors(c) {
		if n == s.end {
			return true
		}
	}
	return false
}

func (s *search) retrace(end *node) Path {
	waypoints := make([]grid.Coord, 0, end.g/10+1)
	distance := 0.0
	for n := end; n != nil; n = n.parent {
		if n.parent != nil {
			distance += n.pos.Distance(n.parent.pos)
		}
		waypoints = append(waypoints, n.pos)
	}
	for i, j := 0, len(waypoints)-1; i < j; i, j = i+1, j-1 {
		waypoints[i], waypoints[j] = waypoints[j], waypoints[i]
	}
	return Path{
		HasPath:       len(waypoints) > 0,
		TotalDistance: distance,
		Waypoints:     waypoints,
		Expanded:      s.expanded,
	}
}
