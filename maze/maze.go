// Package maze owns the static geometry of the environment: the wall
// segments, the start point, and a dilated obstacle raster used for
// fast step-validity checks (C2). Once built, a Maze is never mutated.
package maze

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"go.uber.org/multierr"

	"github.com/viam-labs/mazecore/geometry"
)

const (
	// RasterResolution is the cell size of the obstacle raster, in meters.
	RasterResolution = 0.05
	// RobotRadius is the dilation radius applied to rasterized walls.
	RobotRadius = 0.15
	// ExtendedMargin is the margin (in meters) added on every side of
	// the nominal maze extent to form the extended region.
	ExtendedMargin = 2.0
)

// Record is the external map input: a set of wall segments plus a
// start point and optional goal point, as produced by a map loader
// external to the core engine.
type Record struct {
	Segments   []geometry.Segment
	Start      r2.Point
	Goal       *r2.Point
}

// ErrMalformedMap is returned when a Record fails validation at load
// time: non-finite coordinates, zero-length segments, or a start point
// that sits on an obstacle.
type ErrMalformedMap struct {
	Reason string
}

func (e *ErrMalformedMap) Error() string {
	return fmt.Sprintf("maze: malformed map: %s", e.Reason)
}

// Maze is the immutable, once-built environment model.
type Maze struct {
	Segments   []geometry.Segment
	Start      r2.Point
	Goal       *r2.Point
	Width      float64
	Height     float64
	raster     *raster
}

// raster is the dilated obstacle grid covering [0,W]x[0,H] at
// RasterResolution.
type raster struct {
	cols, rows int
	occupied   []bool
}

func (r *raster) index(i, j int) int { return j*r.cols + i }

func (r *raster) inBounds(i, j int) bool {
	return i >= 0 && i < r.cols && j >= 0 && j < r.rows
}

func (r *raster) isOccupied(i, j int) bool {
	if !r.inBounds(i, j) {
		return false
	}
	return r.occupied[r.index(i, j)]
}

// New validates record and builds a Maze, rasterizing and dilating
// every wall segment. Width/Height are derived from the bounding box
// of all segments and the start/goal points (clamped to be at least
// 0), matching the spec's "no implicit outer boundary" rule: a maze
// with gaps in its boundary is free to extend indefinitely into the
// extended region.
func New(record Record) (*Maze, error) {
	if err := validate(record); err != nil {
		return nil, err
	}

	width, height := extent(record)

	m := &Maze{
		Segments: append([]geometry.Segment(nil), record.Segments...),
		Start:    record.Start,
		Goal:     record.Goal,
		Width:    width,
		Height:   height,
	}

	// The obstacle raster is built from the physical walls only: the
	// virtual entrance wall below is a planning-time fiction (it keeps
	// StepOK from letting the robot walk straight back out) and must
	// never dilate into an occupied cell at the start point itself.
	m.raster = buildRaster(m.Segments, width, height)

	if m.raster.isOccupied(worldToRasterIndex(m.Start.X), worldToRasterIndex(m.Start.Y)) {
		return nil, &ErrMalformedMap{Reason: "start point lies on an obstacle"}
	}

	m.insertVirtualEntranceWall()

	return m, nil
}

// validate collects every independent malformed-map reason (rather than
// stopping at the first) via multierr, so a caller fixing a bad map
// sees all its problems in one pass instead of one per retry.
func validate(record Record) error {
	var errs error
	if len(record.Segments) == 0 {
		errs = multierr.Append(errs, &ErrMalformedMap{Reason: "no wall segments supplied"})
	}
	if !finite(record.Start.X) || !finite(record.Start.Y) {
		errs = multierr.Append(errs, &ErrMalformedMap{Reason: "start point has non-finite coordinates"})
	}
	for i, s := range record.Segments {
		if !finite(s.A.X) || !finite(s.A.Y) || !finite(s.B.X) || !finite(s.B.Y) {
			errs = multierr.Append(errs, &ErrMalformedMap{Reason: fmt.Sprintf("segment %d has non-finite coordinates", i)})
			continue
		}
		if s.Length() < 1e-9 {
			errs = multierr.Append(errs, &ErrMalformedMap{Reason: fmt.Sprintf("segment %d has zero length", i)})
		}
	}
	return errs
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func extent(record Record) (float64, float64) {
	maxX, maxY := 0.0, 0.0
	for _, s := range record.Segments {
		maxX = math.Max(maxX, math.Max(s.A.X, s.B.X))
		maxY = math.Max(maxY, math.Max(s.A.Y, s.B.Y))
	}
	maxX = math.Max(maxX, record.Start.X)
	maxY = math.Max(maxY, record.Start.Y)
	if record.Goal != nil {
		maxX = math.Max(maxX, record.Goal.X)
		maxY = math.Max(maxY, record.Goal.Y)
	}
	return maxX, maxY
}

// insertVirtualEntranceWall inserts a short wall segment across the
// robot's own entrance when the start point lies exactly on the
// nominal boundary, so the exploration controller does not walk
// straight back out through its own point of entry on tick zero. At
// most one such wall is ever added.
func (m *Maze) insertVirtualEntranceWall() {
	const eps = 1e-6
	onBoundary := m.Start.X <= eps || m.Start.Y <= eps ||
		math.Abs(m.Start.X-m.Width) <= eps || math.Abs(m.Start.Y-m.Height) <= eps
	if !onBoundary {
		return
	}

	const halfWidth = 0.2
	var seg geometry.Segment
	switch {
	case m.Start.Y <= eps:
		seg = geometry.Segment{A: r2.Point{X: m.Start.X - halfWidth, Y: 0}, B: r2.Point{X: m.Start.X + halfWidth, Y: 0}}
	case math.Abs(m.Start.Y-m.Height) <= eps:
		seg = geometry.Segment{A: r2.Point{X: m.Start.X - halfWidth, Y: m.Height}, B: r2.Point{X: m.Start.X + halfWidth, Y: m.Height}}
	case m.Start.X <= eps:
		seg = geometry.Segment{A: r2.Point{X: 0, Y: m.Start.Y - halfWidth}, B: r2.Point{X: 0, Y: m.Start.Y + halfWidth}}
	default:
		seg = geometry.Segment{A: r2.Point{X: m.Width, Y: m.Start.Y - halfWidth}, B: r2.Point{X: m.Width, Y: m.Start.Y + halfWidth}}
	}
	m.Segments = append(m.Segments, seg)
}

func worldToRasterIndex(v float64) int {
	return int(math.Floor(v / RasterResolution))
}

func buildRaster(segments []geometry.Segment, width, height float64) *raster {
	cols := int(math.Ceil(width/RasterResolution)) + 1
	rows := int(math.Ceil(height/RasterResolution)) + 1
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	r := &raster{cols: cols, rows: rows, occupied: make([]bool, cols*rows)}

	raw := make([]bool, cols*rows)
	for _, s := range segments {
		rasterizeSegment(raw, cols, rows, s)
	}

	dilationCells := int(math.Ceil(RobotRadius / RasterResolution))
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			if !raw[j*cols+i] {
				continue
			}
			for dj := -dilationCells; dj <= dilationCells; dj++ {
				for di := -dilationCells; di <= dilationCells; di++ {
					ni, nj := i+di, j+dj
					if ni < 0 || ni >= cols || nj < 0 || nj >= rows {
						continue
					}
					dist := math.Hypot(float64(di), float64(dj)) * RasterResolution
					if dist <= RobotRadius {
						r.occupied[nj*cols+ni] = true
					}
				}
			}
		}
	}
	return r
}

func rasterizeSegment(raw []bool, cols, rows int, s geometry.Segment) {
	a := geometry.GridCell{I: worldToRasterIndex(s.A.X), J: worldToRasterIndex(s.A.Y)}
	b := geometry.GridCell{I: worldToRasterIndex(s.B.X), J: worldToRasterIndex(s.B.Y)}
	for _, c := range geometry.Bresenham(a, b) {
		if c.I < 0 || c.I >= cols || c.J < 0 || c.J >= rows {
			continue
		}
		raw[c.J*cols+c.I] = true
	}
}

// StepOK reports whether the open segment from a to b crosses no wall
// and whether b lies within the extended region. A straight-line
// crossing test against every wall segment is used rather than raster
// sampling, since walls are a small, static set and exactness matters
// for corner-safety checks in the planner.
func (m *Maze) StepOK(a, b r2.Point) bool {
	if !m.InExtendedRegion(b) {
		return false
	}
	d := b.Sub(a)
	length := d.Norm()
	if length < 1e-9 {
		return true
	}
	theta := math.Atan2(d.Y, d.X)
	for _, s := range m.Segments {
		hit := geometry.RaySegmentIntersect(a, theta, s)
		if hit.Hit && hit.Distance < length-1e-9 {
			return false
		}
	}
	return true
}

// InExtendedRegion reports whether p lies within [-2, W+2] x [-2, H+2].
func (m *Maze) InExtendedRegion(p r2.Point) bool {
	return p.X >= -ExtendedMargin && p.X <= m.Width+ExtendedMargin &&
		p.Y >= -ExtendedMargin && p.Y <= m.Height+ExtendedMargin
}

// OuterFrame returns the four segments bounding the extended region,
// used to classify rays that escape through a boundary gap.
func (m *Maze) OuterFrame() [4]geometry.Segment {
	minX, minY := -ExtendedMargin, -ExtendedMargin
	maxX, maxY := m.Width+ExtendedMargin, m.Height+ExtendedMargin
	return [4]geometry.Segment{
		{A: r2.Point{X: minX, Y: minY}, B: r2.Point{X: maxX, Y: minY}},
		{A: r2.Point{X: maxX, Y: minY}, B: r2.Point{X: maxX, Y: maxY}},
		{A: r2.Point{X: maxX, Y: maxY}, B: r2.Point{X: minX, Y: maxY}},
		{A: r2.Point{X: minX, Y: maxY}, B: r2.Point{X: minX, Y: minY}},
	}
}

// IsObstacleAt reports whether the dilated raster marks the cell
// containing world point p as occupied. Points outside [0,W]x[0,H]
// are never considered occupied by the raster (it has no coverage
// there); callers needing extended-region obstacle checks should
// combine this with wall-segment distance tests.
func (m *Maze) IsObstacleAt(p r2.Point) bool {
	i, j := worldToRasterIndex(p.X), worldToRasterIndex(p.Y)
	return m.raster.isOccupied(i, j)
}

// DistanceToNearestWall returns the minimum distance from p to any
// wall segment.
func (m *Maze) DistanceToNearestWall(p r2.Point) float64 {
	best := math.Inf(1)
	for _, s := range m.Segments {
		if d := geometry.PointSegmentDistance(p, s); d < best {
			best = d
		}
	}
	return best
}
