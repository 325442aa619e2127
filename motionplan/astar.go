package motionplan

import (
	"container/heap"
	"math"

	"github.com/golang/geo/r2"

	"github.com/viam-labs/mazecore/geometry"
	"github.com/viam-labs/mazecore/maze"
)

// ErrNoPath is returned when the search exhausts its open set (or its
// expansion budget during exploration) without reaching the goal.
type ErrNoPath struct{}

func (ErrNoPath) Error() string { return "motionplan: no path found" }

// ExpansionCap is the hard expansion budget applied during
// exploration-time replans; optimal final-path queries pass 0 (no cap).
const ExpansionCap = 1000

var diagonalOffsets = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

type node struct {
	cell     geometry.GridCell
	g        float64
	f        float64
	parent   *node
	heapIdx  int
}

type openSet []*node

func (s openSet) Len() int { return len(s) }
func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	// Deterministic tie-break: lower grid index first.
	if s[i].cell.J != s[j].cell.J {
		return s[i].cell.J < s[j].cell.J
	}
	return s[i].cell.I < s[j].cell.I
}
func (s openSet) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
	s[i].heapIdx, s[j].heapIdx = i, j
}
func (s *openSet) Push(x interface{}) {
	n := x.(*node)
	n.heapIdx = len(*s)
	*s = append(*s, n)
}
func (s *openSet) Pop() interface{} {
	old := *s
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.heapIdx = -1
	*s = old[:n-1]
	return item
}

func octile(a, b geometry.GridCell) float64 {
	di := math.Abs(float64(a.I - b.I))
	dj := math.Abs(float64(a.J - b.J))
	lo, hi := math.Min(di, dj), math.Max(di, dj)
	return hi-lo + lo*math.Sqrt2
}

// Plan runs eight-connected A* from start to goal over cm, using m
// for diagonal safety checks. expansionCap limits the number of node
// expansions; pass 0 for no cap (used for the final optimal path).
func Plan(cm *CostMap, m *maze.Maze, start, goal geometry.GridCell, expansionCap int) ([]geometry.GridCell, error) {
	open := &openSet{}
	heap.Init(open)
	startNode := &node{cell: start, g: 0, f: octile(start, goal)}
	heap.Push(open, startNode)

	best := map[geometry.GridCell]*node{start: startNode}
	closed := map[geometry.GridCell]bool{}

	expansions := 0
	for open.Len() > 0 {
		if expansionCap > 0 && expansions >= expansionCap {
			return nil, ErrNoPath{}
		}
		cur := heap.Pop(open).(*node)
		if closed[cur.cell] {
			continue
		}
		closed[cur.cell] = true
		expansions++

		if cur.cell == goal {
			return reconstruct(cur), nil
		}

		for _, off := range diagonalOffsets {
			next := geometry.GridCell{I: cur.cell.I + off[0], J: cur.cell.J + off[1]}
			if closed[next] {
				continue
			}
			stepCost := cm.At(next)
			if math.IsInf(stepCost, 1) {
				continue
			}
			isDiagonal := off[0] != 0 && off[1] != 0
			if isDiagonal && !diagonalSafe(cm, m, cur.cell, next) {
				continue
			}

			moveCost := 1.0
			if isDiagonal {
				moveCost = math.Sqrt2
			}
			g := cur.g + moveCost + stepCost
			if existing, ok := best[next]; ok && existing.g <= g {
				continue
			}
			n := &node{cell: next, g: g, f: g + octile(next, goal), parent: cur}
			best[next] = n
			heap.Push(open, n)
		}
	}
	return nil, ErrNoPath{}
}

func reconstruct(n *node) []geometry.GridCell {
	var path []geometry.GridCell
	for cur := n; cur != nil; cur = cur.parent {
		path = append([]geometry.GridCell{cur.cell}, path...)
	}
	return path
}

// diagonalSafe implements the no-corner-cut rule (4.6.2): both
// orthogonal intermediates must be non-occupied, and every sampled
// point along the diagonal must stay at least diagSafeDistance from
// every wall.
func diagonalSafe(cm *CostMap, m *maze.Maze, from, to geometry.GridCell) bool {
	cornerA := geometry.GridCell{I: to.I, J: from.J}
	cornerB := geometry.GridCell{I: from.I, J: to.J}
	if math.IsInf(cm.At(cornerA), 1) || math.IsInf(cm.At(cornerB), 1) {
		return false
	}

	worldFrom := cm.grid.GridToWorld(from)
	worldTo := cm.grid.GridToWorld(to)
	steps := int(math.Hypot(float64(to.I-from.I), float64(to.J-from.J)) / diagSampleStep)
	if steps < 1 {
		steps = 1
	}
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		px := worldFrom.X + t*(worldTo.X-worldFrom.X)
		py := worldFrom.Y + t*(worldTo.Y-worldFrom.Y)
		if m.DistanceToNearestWall(r2.Point{X: px, Y: py}) < diagSafeDistance {
			return false
		}
	}
	return true
}
