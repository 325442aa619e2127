// Package geometry is the stateless 2D geometry kernel (C1): segment
// and ray primitives, Bresenham rasterization, angle normalization and
// SE(2) composition. Every other package in the engine builds on this
// one; it owns no state and performs no allocation beyond its return
// values.
package geometry

import (
	"math"

	"github.com/golang/geo/r2"
)

// Segment is an ordered pair of points in metric coordinates. It is
// immutable once constructed.
type Segment struct {
	A, B r2.Point
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return s.B.Sub(s.A).Norm()
}

// Pose is a 2D rigid-body pose (x, y, theta). Theta is normalized to
// (-pi, pi].
type Pose struct {
	X, Y, Theta float64
}

// Point returns the pose's translation component.
func (p Pose) Point() r2.Point { return r2.Point{X: p.X, Y: p.Y} }

// Wrap normalizes an angle (in radians) to the half-open interval
// (-pi, pi].
func Wrap(theta float64) float64 {
	wrapped := math.Mod(theta+math.Pi, 2*math.Pi)
	if wrapped <= 0 {
		wrapped += 2 * math.Pi
	}
	return wrapped - math.Pi
}

// Compose returns the SE(2) composition a*b: b expressed in a's frame,
// projected into the world frame.
func Compose(a, b Pose) Pose {
	sin, cos := math.Sincos(a.Theta)
	return Pose{
		X:     a.X + cos*b.X - sin*b.Y,
		Y:     a.Y + sin*b.X + cos*b.Y,
		Theta: Wrap(a.Theta + b.Theta),
	}
}

// Inverse returns the SE(2) inverse of p.
func Inverse(p Pose) Pose {
	sin, cos := math.Sincos(p.Theta)
	return Pose{
		X:     -cos*p.X - sin*p.Y,
		Y:     sin*p.X - cos*p.Y,
		Theta: Wrap(-p.Theta),
	}
}

// ToLocal expresses the world-frame point p in the local frame of origin.
func ToLocal(origin Pose, p r2.Point) r2.Point {
	d := p.Sub(origin.Point())
	sin, cos := math.Sincos(origin.Theta)
	return r2.Point{
		X: cos*d.X + sin*d.Y,
		Y: -sin*d.X + cos*d.Y,
	}
}

// ToWorld projects a local-frame point p into the world frame of origin.
func ToWorld(origin Pose, p r2.Point) r2.Point {
	sin, cos := math.Sincos(origin.Theta)
	return r2.Point{
		X: origin.X + cos*p.X - sin*p.Y,
		Y: origin.Y + sin*p.X + cos*p.Y,
	}
}

// PointSegmentDistance returns the minimum distance from p to the
// closed segment s.
func PointSegmentDistance(p r2.Point, s Segment) float64 {
	ab := s.B.Sub(s.A)
	denom := ab.Dot(ab)
	if denom == 0 {
		return p.Sub(s.A).Norm()
	}
	t := p.Sub(s.A).Dot(ab) / denom
	t = math.Max(0, math.Min(1, t))
	proj := r2.Point{X: s.A.X + t*ab.X, Y: s.A.Y + t*ab.Y}
	return p.Sub(proj).Norm()
}

// RayHit describes the closest intersection of a ray with a segment.
type RayHit struct {
	Distance float64
	Point    r2.Point
	Hit      bool
}

// RaySegmentIntersect casts a ray from origin at angle theta (radians)
// against segment s, returning the closest positive-distance hit, if
// any. The ray is treated as semi-infinite.
func RaySegmentIntersect(origin r2.Point, theta float64, s Segment) RayHit {
	dx, dy := math.Cos(theta), math.Sin(theta)

	ex, ey := s.B.X-s.A.X, s.B.Y-s.A.Y
	denom := dx*ey - dy*ex
	if math.Abs(denom) < 1e-12 {
		return RayHit{}
	}

	fx, fy := s.A.X-origin.X, s.A.Y-origin.Y
	// Solve origin + t*d = A + u*e for t (ray param) and u (segment param).
	t := (fx*ey - fy*ex) / denom
	u := (fx*dy - fy*dx) / denom

	if t < 0 || u < 0 || u > 1 {
		return RayHit{}
	}

	pt := r2.Point{X: origin.X + t*dx, Y: origin.Y + t*dy}
	return RayHit{Distance: t, Point: pt, Hit: true}
}

// GridCell is an integer grid index.
type GridCell struct {
	I, J int
}

// Bresenham returns the ordered sequence of grid cells visited by the
// line from a to b, inclusive of both endpoints.
func Bresenham(a, b GridCell) []GridCell {
	dx := abs(b.I - a.I)
	dy := -abs(b.J - a.J)
	sx, sy := 1, 1
	if a.I > b.I {
		sx = -1
	}
	if a.J > b.J {
		sy = -1
	}
	err := dx + dy

	cells := make([]GridCell, 0, dx-dy+1)
	cur := a
	for {
		cells = append(cells, cur)
		if cur == b {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			cur.I += sx
		}
		if e2 <= dx {
			err += dx
			cur.J += sy
		}
	}
	return cells
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
