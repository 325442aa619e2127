// Package occupancy implements the log-odds 2D occupancy grid mapper
// (C4). The grid covers the maze's extended region at 0.1m
// resolution; every ray of a scan is traversed with Bresenham
// rasterization and applies an inverse-sensor-model update to every
// cell it passes through.
package occupancy

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/viam-labs/mazecore/geometry"
	"github.com/viam-labs/mazecore/maze"
	"github.com/viam-labs/mazecore/rangesim"
)

const (
	// Resolution is the occupancy cell size, in meters.
	Resolution = 0.1
	// LogOddsMin and LogOddsMax are the saturation bounds every cell is
	// clamped to after each update.
	LogOddsMin = -10.0
	LogOddsMax = 10.0
	// KnownThreshold is the |log-odds| magnitude above which a cell is
	// considered known (occupied if positive, free if negative).
	KnownThreshold = 2.0

	margin = maze.ExtendedMargin
)

var (
	logFree = math.Log(0.3 / 0.7)
	logOcc  = math.Log(0.9 / 0.1)
)

// Grid is the log-odds occupancy map.
type Grid struct {
	cols, rows int
	cells      []float64
	width      float64
	height     float64
	resolution float64
}

// NewGrid constructs an all-unknown (log-odds 0) grid covering the
// extended region of a maze with the given nominal width and height, at
// the given cell resolution (a non-positive resolution falls back to
// the package default).
func NewGrid(width, height, resolution float64) *Grid {
	if resolution <= 0 {
		resolution = Resolution
	}
	cols := int(math.Ceil((width+2*margin)/resolution)) + 1
	rows := int(math.Ceil((height+2*margin)/resolution)) + 1
	return &Grid{cols: cols, rows: rows, cells: make([]float64, cols*rows), width: width, height: height, resolution: resolution}
}

// CellSize returns this grid's cell resolution, in meters.
func (g *Grid) CellSize() float64 { return g.resolution }

// WorldToGrid maps a world point onto a grid index.
func (g *Grid) WorldToGrid(p r2.Point) geometry.GridCell {
	return geometry.GridCell{
		I: int(math.Floor((p.X + margin) / g.resolution)),
		J: int(math.Floor((p.Y + margin) / g.resolution)),
	}
}

// GridToWorld returns the world coordinate of a cell's center.
func (g *Grid) GridToWorld(c geometry.GridCell) r2.Point {
	return r2.Point{
		X: (float64(c.I)+0.5)*g.resolution - margin,
		Y: (float64(c.J)+0.5)*g.resolution - margin,
	}
}

func (g *Grid) inBounds(c geometry.GridCell) bool {
	return c.I >= 0 && c.I < g.cols && c.J >= 0 && c.J < g.rows
}

func (g *Grid) index(c geometry.GridCell) int { return c.J*g.cols + c.I }

// LogOdds returns the current log-odds value of cell c, or 0 (unknown)
// if c is out of bounds.
func (g *Grid) LogOdds(c geometry.GridCell) float64 {
	if !g.inBounds(c) {
		return 0
	}
	return g.cells[g.index(c)]
}

// Dims returns the grid's column and row counts.
func (g *Grid) Dims() (cols, rows int) { return g.cols, g.rows }

// State is the semantic decoding of a cell's log-odds.
type State int

const (
	Unknown State = iota
	Free
	Occupied
)

// StateAt decodes the semantic state of cell c.
func (g *Grid) StateAt(c geometry.GridCell) State {
	l := g.LogOdds(c)
	switch {
	case l > KnownThreshold:
		return Occupied
	case l < -KnownThreshold:
		return Free
	default:
		return Unknown
	}
}

func (g *Grid) add(c geometry.GridCell, delta float64) {
	if !g.inBounds(c) {
		return
	}
	idx := g.index(c)
	v := g.cells[idx] + delta
	if v > LogOddsMax {
		v = LogOddsMax
	}
	if v < LogOddsMin {
		v = LogOddsMin
	}
	g.cells[idx] = v
}

// Update applies the inverse-sensor model of scan s, observed from
// pose p, to the grid. Rays flagged as frame hits are free-space-only
// observations: they must never place an obstacle cell on the outer
// frame. A scan whose rays are all at or below the sensor's minimum
// range is treated as noise and skipped entirely (Scan-empty policy).
func (g *Grid) Update(p geometry.Pose, s rangesim.Scan, maxRange float64) {
	const minRange = 0.01
	allBelowMin := true
	for _, ray := range s.Rays {
		if ray.Distance > minRange {
			allBelowMin = false
			break
		}
	}
	if allBelowMin {
		return
	}

	const eps = 1e-6
	origin := g.WorldToGrid(p.Point())

	for _, ray := range s.Rays {
		endpoint := r2.Point{
			X: p.X + ray.Distance*math.Cos(ray.Angle),
			Y: p.Y + ray.Distance*math.Sin(ray.Angle),
		}
		end := g.WorldToGrid(endpoint)

		path := geometry.Bresenham(origin, end)
		if len(path) > 0 {
			for _, c := range path[:len(path)-1] {
				g.add(c, logFree)
			}
		}

		isMaxRange := ray.Distance >= maxRange-eps
		if !isMaxRange && !ray.FrameHit {
			g.add(end, logOcc)
		} else {
			g.add(end, logFree)
		}
	}
}

// ExplorationRatio is known_cells / maze_area_cells, capped at 1.0,
// where maze_area_cells counts only cells within the nominal (not
// extended) maze extent.
func (g *Grid) ExplorationRatio() float64 {
	known, total := 0, 0
	minC := g.WorldToGrid(r2.Point{X: 0, Y: 0})
	maxC := g.WorldToGrid(r2.Point{X: g.width, Y: g.height})
	for j := minC.J; j <= maxC.J; j++ {
		for i := minC.I; i <= maxC.I; i++ {
			c := geometry.GridCell{I: i, J: j}
			if !g.inBounds(c) {
				continue
			}
			total++
			if g.StateAt(c) != Unknown {
				known++
			}
		}
	}
	if total == 0 {
		return 0
	}
	ratio := float64(known) / float64(total)
	if ratio > 1.0 {
		ratio = 1.0
	}
	return ratio
}

// Snapshot returns a copy of the grid as signed bytes clamped from
// log-odds, for external consumers that only need a value view.
func (g *Grid) Snapshot() [][]int8 {
	out := make([][]int8, g.rows)
	for j := 0; j < g.rows; j++ {
		row := make([]int8, g.cols)
		for i := 0; i < g.cols; i++ {
			l := g.cells[j*g.cols+i]
			if l > 127 {
				l = 127
			}
			if l < -128 {
				l = -128
			}
			row[i] = int8(l)
		}
		out[j] = row
	}
	return out
}
