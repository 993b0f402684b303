package pathfinding

import (
	"github.com/jakecoffman/cp"

	"github.com/milk9111/gridsystem/common"
	"github.com/milk9111/gridsystem/grid"
)

// DefaultArriveTolerance is how close, in world units, a follower must get
// to a waypoint before moving on.
const DefaultArriveTolerance = 0.1

type FollowState int

const (
	FollowIdle FollowState = iota
	FollowMoving
)

func (s FollowState) String() string {
	if s == FollowMoving {
		return "moving"
	}
	return "idle"
}

// Follower walks a position along the waypoints of a Path.
type Follower struct {
	Speed     float64
	Tolerance float64

	project func(grid.Coord) cp.Vector
	state   FollowState
	path    Path
	index   int
}

// NewFollower creates an idle Follower moving speed world units per second.
// project maps cells to world positions, usually Geometry.ToWorld.
func NewFollower(speed float64, project func(grid.Coord) cp.Vector) *Follower {
	return &Follower{Speed: speed, Tolerance: DefaultArriveTolerance, project: project}
}

// Follow starts walking p from its first waypoint. A path without
// waypoints leaves the follower idle.
func (f *Follower) Follow(p Path) bool {
	if !p.HasPath || len(p.Waypoints) == 0 {
		f.Stop()
		return false
	}
	f.path = p
	f.index = 0
	f.state = FollowMoving
	return true
}

func (f *Follower) Stop() {
	f.state = FollowIdle
	f.path = Path{}
	f.index = 0
}

func (f *Follower) State() FollowState {
	return f.state
}

// Index is the waypoint currently being approached.
func (f *Follower) Index() int {
	return f.index
}

// Target is the world position of the current waypoint.
func (f *Follower) Target() (cp.Vector, bool) {
	if f.state != FollowMoving || f.index >= len(f.path.Waypoints) {
		return cp.Vector{}, false
	}
	return f.project(f.path.Waypoints[f.index]), true
}

// Update advances pos by Speed*dt along the path and returns the new
// position. Distance left over after reaching a waypoint carries on to the
// next one. The follower goes idle after the last waypoint.
func (f *Follower) Update(pos cp.Vector, dt float64) cp.Vector {
	if f.state != FollowMoving {
		return pos
	}
	budget := f.Speed * dt
	for f.index < len(f.path.Waypoints) {
		target := f.project(f.path.Waypoints[f.index])
		d := pos.Distance(target)
		if d <= f.Tolerance {
			pos = target
			f.index++
			continue
		}
		if budget <= 0 {
			break
		}
		if budget >= d {
			pos = target
			budget -= d
			f.index++
			continue
		}
		t := budget / d
		pos = cp.Vector{X: common.Lerp(pos.X, target.X, t), Y: common.Lerp(pos.Y, target.Y, t)}
		break
	}
	if f.index >= len(f.path.Waypoints) {
		f.state = FollowIdle
	}
	return pos
}
