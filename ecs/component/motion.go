package component

import (
	"github.com/jakecoffman/cp"

	"github.com/milk9111/gridsystem/grid"
	"github.com/milk9111/gridsystem/pathfinding"
)

type Transform struct {
	Position cp.Vector
}

var TransformComponent = NewComponent[Transform]()

// Route is an agent's current path and the follower walking it.
type Route struct {
	Goal     grid.Coord
	Path     pathfinding.Path
	Follower *pathfinding.Follower
}

var RouteComponent = NewComponent[Route]()
