package motionplan

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/viam-labs/mazecore/geometry"
	"github.com/viam-labs/mazecore/maze"
)

// Smooth greedily replaces runs of the eight-connected path with a
// direct segment whenever that segment is diagonal-safe, used only
// for the final optimal path (not exploration-time replans).
func Smooth(cm *CostMap, m *maze.Maze, path []geometry.GridCell) []geometry.GridCell {
	if len(path) < 3 {
		return path
	}
	out := []geometry.GridCell{path[0]}
	i := 0
	for i < len(path)-1 {
		j := len(path) - 1
		for ; j > i+1; j-- {
			if segmentSafe(cm, m, path[i], path[j]) {
				break
			}
		}
		out = append(out, path[j])
		i = j
	}
	return out
}

// segmentSafe checks the direct path[i]->path[j] jump against the same
// diagonal-safety rule used for single-step moves, sampled along the
// whole span rather than just one cell's width.
func segmentSafe(cm *CostMap, m *maze.Maze, a, b geometry.GridCell) bool {
	worldA := cm.grid.GridToWorld(a)
	worldB := cm.grid.GridToWorld(b)
	dist := worldA.Sub(worldB).Norm()
	steps := int(dist/diagSampleStep) + 1

	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		p := r2.Point{X: worldA.X + t*(worldB.X-worldA.X), Y: worldA.Y + t*(worldB.Y-worldA.Y)}
		if m.DistanceToNearestWall(p) < diagSafeDistance {
			return false
		}
		cell := cm.grid.WorldToGrid(p)
		if !cm.inBounds(cell) || math.IsInf(cm.At(cell), 1) {
			return false
		}
	}
	return true
}
