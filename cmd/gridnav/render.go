package main

import (
	"strings"

	"github.com/milk9111/gridsystem/levels"
	"github.com/milk9111/gridsystem/pathfinding"
)

// render draws the level layout with the path marked: S start, G goal
// and * in between.
func render(lvl *levels.Level, p pathfinding.Path) string {
	size := lvl.Size()
	rows := make([][]rune, size.Height)
	for y := range rows {
		rows[y] = []rune(strings.Repeat(".", size.Width))
		if y < len(lvl.Layout) {
			for x, r := range []rune(lvl.Layout[y]) {
				if x < size.Width {
					rows[y][x] = r
				}
			}
		}
	}

	for i, c := range p.Waypoints {
		if !size.Contains(c) {
			continue
		}
		mark := '*'
		switch i {
		case 0:
			mark = 'S'
		case len(p.Waypoints) - 1:
			mark = 'G'
		}
		rows[c.Y][c.X] = mark
	}

	lines := make([]string, len(rows))
	for y, row := range rows {
		lines[y] = string(row)
	}
	return strings.Join(lines, "\n")
}
