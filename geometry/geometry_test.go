package geometry

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestWrap(t *testing.T) {
	test.That(t, Wrap(0), test.ShouldAlmostEqual, 0)
	test.That(t, Wrap(math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, Wrap(-math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, Wrap(3*math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, Wrap(2*math.Pi+0.1), test.ShouldAlmostEqual, 0.1)

	// Idempotence: wrap(wrap(theta)) == wrap(theta) for arbitrary finite theta.
	for _, theta := range []float64{0, 1.2, -1.2, 10, -10, 100.5} {
		test.That(t, Wrap(Wrap(theta)), test.ShouldAlmostEqual, Wrap(theta))
	}
}

func TestComposeInverse(t *testing.T) {
	a := Pose{X: 1, Y: 2, Theta: math.Pi / 4}
	composed := Compose(a, Inverse(a))
	test.That(t, composed.X, test.ShouldAlmostEqual, 0)
	test.That(t, composed.Y, test.ShouldAlmostEqual, 0)
	test.That(t, composed.Theta, test.ShouldAlmostEqual, 0)
}

func TestToLocalToWorldRoundTrip(t *testing.T) {
	origin := Pose{X: 3, Y: -1, Theta: 0.7}
	world := r2.Point{X: 5, Y: 2}
	local := ToLocal(origin, world)
	roundTrip := ToWorld(origin, local)
	test.That(t, roundTrip.X, test.ShouldAlmostEqual, world.X)
	test.That(t, roundTrip.Y, test.ShouldAlmostEqual, world.Y)
}

func TestPointSegmentDistance(t *testing.T) {
	s := Segment{A: r2.Point{X: 0, Y: 0}, B: r2.Point{X: 10, Y: 0}}
	test.That(t, PointSegmentDistance(r2.Point{X: 5, Y: 3}, s), test.ShouldAlmostEqual, 3)
	test.That(t, PointSegmentDistance(r2.Point{X: -2, Y: 0}, s), test.ShouldAlmostEqual, 2)
	test.That(t, PointSegmentDistance(r2.Point{X: 12, Y: 4}, s), test.ShouldAlmostEqual, math.Hypot(2, 4))
}

func TestRaySegmentIntersect(t *testing.T) {
	s := Segment{A: r2.Point{X: 5, Y: -5}, B: r2.Point{X: 5, Y: 5}}
	hit := RaySegmentIntersect(r2.Point{X: 0, Y: 0}, 0, s)
	test.That(t, hit.Hit, test.ShouldBeTrue)
	test.That(t, hit.Distance, test.ShouldAlmostEqual, 5)

	miss := RaySegmentIntersect(r2.Point{X: 0, Y: 0}, math.Pi, s)
	test.That(t, miss.Hit, test.ShouldBeFalse)

	parallel := RaySegmentIntersect(r2.Point{X: 0, Y: 0}, math.Pi/2, Segment{A: r2.Point{X: 1, Y: 5}, B: r2.Point{X: 3, Y: 5}})
	test.That(t, parallel.Hit, test.ShouldBeFalse)
}

func TestBresenhamEndpoints(t *testing.T) {
	cells := Bresenham(GridCell{0, 0}, GridCell{4, 2})
	test.That(t, cells[0], test.ShouldResemble, GridCell{0, 0})
	test.That(t, cells[len(cells)-1], test.ShouldResemble, GridCell{4, 2})

	// Every consecutive pair is 8-connected (no gaps).
	for i := 1; i < len(cells); i++ {
		di := cells[i].I - cells[i-1].I
		dj := cells[i].J - cells[i-1].J
		test.That(t, abs(di) <= 1 && abs(dj) <= 1, test.ShouldBeTrue)
	}
}

func TestBresenhamSinglePoint(t *testing.T) {
	cells := Bresenham(GridCell{2, 2}, GridCell{2, 2})
	test.That(t, cells, test.ShouldResemble, []GridCell{{2, 2}})
}
