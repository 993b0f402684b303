package component

import (
	"github.com/milk9111/gridsystem/grid"
	"github.com/milk9111/gridsystem/pathfinding"
)

// Obstacle blocks its cell. With Masked set, requesters sharing a bit with
// Mask may still pass.
type Obstacle struct {
	Layers []string
	Mask   pathfinding.CullingMask
	Masked bool
}

var ObstacleComponent = NewComponent[Obstacle]()

// Modifier overrides the baked area of its cell instead of blocking it.
type Modifier struct {
	Area pathfinding.Area
}

var ModifierComponent = NewComponent[Modifier]()

// Agent is something that moves along paths. Its own cell is baked with
// its layer mask so agents of the same layer can pass each other. Speed is
// in cells per second.
type Agent struct {
	Layer string
	Mask  pathfinding.CullingMask
	Size  pathfinding.Footprint
	Speed float64
}

var AgentComponent = NewComponent[Agent]()

// Cell is the grid cell an entity stands on.
type Cell struct {
	Coord grid.Coord
}

var CellComponent = NewComponent[Cell]()

type Tag struct {
	Name string
}

var TagComponent = NewComponent[Tag]()
