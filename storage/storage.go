// Package storage persists baked navmeshes and layer names.
package storage

import (
	"errors"

	"github.com/milk9111/gridsystem/pathfinding"
)

var ErrNotFound = errors.New("storage: not found")

// Store keeps navmesh snapshots by level name plus one layer-name list.
type Store interface {
	SaveNavMesh(level string, snap pathfinding.Snapshot) error
	LoadNavMesh(level string) (pathfinding.Snapshot, error)
	SaveLayers(names []string) error
	LoadLayers() ([]string, error)
	Close() error
}
