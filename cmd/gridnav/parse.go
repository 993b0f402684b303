package main

import (
	"strings"

	"github.com/milk9111/gridsystem/pathfinding"
)

// parseMask resolves a comma separated layer list. Empty means no
// filtering.
func parseMask(layers *pathfinding.LayerRegistry, list string) pathfinding.CullingMask {
	if strings.TrimSpace(list) == "" {
		return pathfinding.AllMask
	}
	names := strings.Split(list, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return layers.Mask(names...)
}
