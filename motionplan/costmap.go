// Package motionplan implements the eight-connected A* path planner
// (C6): cost-map construction from the occupancy grid, diagonal
// corner-safety rules, and optional path smoothing.
package motionplan

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/viam-labs/mazecore/geometry"
	"github.com/viam-labs/mazecore/maze"
	"github.com/viam-labs/mazecore/occupancy"
)

const (
	dSafe            = 0.5
	unknownCost      = 50.0
	occupiedOccThresh = 0.8
	exitPenalty      = 10000.0
	diagSafeDistance = 0.4
	diagSampleStep   = 0.1
)

// CostMap is a dense per-cell movement cost derived from an occupancy
// grid, with optional penalties layered on top for the controller's
// post-exit "finish exploration" sub-state.
type CostMap struct {
	grid   *occupancy.Grid
	m      *maze.Maze
	cost   []float64
	cols   int
	rows   int
}

// ExitHalfPlane describes the outward side of a discovered exit, used
// to penalize cells that lie beyond it once exploration should stay
// inside the maze.
type ExitHalfPlane struct {
	Point   r2.Point
	Heading float64 // outward-facing normal direction
	Active  bool
}

// BuildCostMap computes cost(c) for every cell of grid per the spec's
// distance-transform formula, optionally adding the exit-avoidance
// penalty.
func BuildCostMap(grid *occupancy.Grid, m *maze.Maze, exit ExitHalfPlane) *CostMap {
	cols, rows := grid.Dims()
	cm := &CostMap{grid: grid, m: m, cost: make([]float64, cols*rows), cols: cols, rows: rows}

	occupiedCells := make([]geometry.GridCell, 0)
	occThreshold := occupiedOccThresh * logOccConst()
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			c := geometry.GridCell{I: i, J: j}
			if grid.LogOdds(c) > occThreshold {
				occupiedCells = append(occupiedCells, c)
			}
		}
	}

	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			c := geometry.GridCell{I: i, J: j}
			idx := j*cols + i
			switch grid.StateAt(c) {
			case occupancy.Occupied:
				cm.cost[idx] = math.Inf(1)
				continue
			case occupancy.Unknown:
				cm.cost[idx] = unknownCost
			default:
				d := nearestOccupiedDistance(c, occupiedCells) * grid.CellSize()
				clipped := clip(dSafe-d, 0, dSafe)
				cm.cost[idx] = clipped * clipped
			}

			if exit.Active {
				world := grid.GridToWorld(c)
				if onOutwardSide(world, exit) {
					cm.cost[idx] += exitPenalty
				}
			}
		}
	}
	return cm
}

func logOccConst() float64 { return math.Log(0.9 / 0.1) }

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nearestOccupiedDistance(c geometry.GridCell, occupied []geometry.GridCell) float64 {
	if len(occupied) == 0 {
		return math.Inf(1)
	}
	best := math.Inf(1)
	for _, o := range occupied {
		di := float64(c.I - o.I)
		dj := float64(c.J - o.J)
		d := math.Hypot(di, dj)
		if d < best {
			best = d
		}
	}
	return best
}

func onOutwardSide(p r2.Point, exit ExitHalfPlane) bool {
	nx, ny := math.Cos(exit.Heading), math.Sin(exit.Heading)
	dx, dy := p.X-exit.Point.X, p.Y-exit.Point.Y
	return dx*nx+dy*ny > 0
}

// At returns the movement cost of entering cell c.
func (cm *CostMap) At(c geometry.GridCell) float64 {
	if c.I < 0 || c.I >= cm.cols || c.J < 0 || c.J >= cm.rows {
		return math.Inf(1)
	}
	return cm.cost[c.J*cm.cols+c.I]
}

func (cm *CostMap) inBounds(c geometry.GridCell) bool {
	return c.I >= 0 && c.I < cm.cols && c.J >= 0 && c.J < cm.rows
}
