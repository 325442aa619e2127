package maze

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"github.com/viam-labs/mazecore/geometry"
)

func boxRecord() Record {
	return Record{
		Segments: []geometry.Segment{
			{A: r2.Point{X: 0, Y: 0}, B: r2.Point{X: 4, Y: 0}},
			{A: r2.Point{X: 4, Y: 0}, B: r2.Point{X: 4, Y: 4}},
			{A: r2.Point{X: 4, Y: 4}, B: r2.Point{X: 0, Y: 4}},
			{A: r2.Point{X: 0, Y: 4}, B: r2.Point{X: 0, Y: 0}},
		},
		Start: r2.Point{X: 2, Y: 1},
	}
}

func TestNewValidatesCoordinates(t *testing.T) {
	rec := boxRecord()
	rec.Start = r2.Point{X: math.NaN(), Y: 0}
	_, err := New(rec)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewRejectsZeroLengthSegment(t *testing.T) {
	rec := boxRecord()
	rec.Segments = append(rec.Segments, geometry.Segment{A: r2.Point{X: 1, Y: 1}, B: r2.Point{X: 1, Y: 1}})
	_, err := New(rec)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewRejectsStartOnObstacle(t *testing.T) {
	rec := boxRecord()
	rec.Start = r2.Point{X: 0, Y: 2}
	_, err := New(rec)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestStepOKBlockedByWall(t *testing.T) {
	m, err := New(boxRecord())
	test.That(t, err, test.ShouldBeNil)

	test.That(t, m.StepOK(r2.Point{X: 2, Y: 1}, r2.Point{X: 2, Y: 2}), test.ShouldBeTrue)
	test.That(t, m.StepOK(r2.Point{X: 2, Y: 3.9}, r2.Point{X: 2, Y: 4.5}), test.ShouldBeFalse)
}

func TestStepOKOutsideExtendedRegion(t *testing.T) {
	m, err := New(boxRecord())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.StepOK(r2.Point{X: 2, Y: 1}, r2.Point{X: 100, Y: 100}), test.ShouldBeFalse)
}

func TestOuterFrameSurroundsMaze(t *testing.T) {
	m, err := New(boxRecord())
	test.That(t, err, test.ShouldBeNil)
	frame := m.OuterFrame()
	test.That(t, len(frame), test.ShouldEqual, 4)
	for _, p := range []r2.Point{{X: -2, Y: -2}, {X: 6, Y: 6}, {X: -2, Y: 6}, {X: 6, Y: -2}} {
		test.That(t, m.InExtendedRegion(p), test.ShouldBeTrue)
	}
	test.That(t, m.InExtendedRegion(r2.Point{X: -2.1, Y: 0}), test.ShouldBeFalse)
}

func TestDilationIsMonotonic(t *testing.T) {
	m, err := New(boxRecord())
	test.That(t, err, test.ShouldBeNil)
	// Every cell directly on a wall must remain occupied after dilation,
	// since dilation can only add occupied cells, never remove them.
	test.That(t, m.IsObstacleAt(r2.Point{X: 0.01, Y: 0.01}), test.ShouldBeTrue)
}

func TestVirtualEntranceWallWhenStartOnBoundary(t *testing.T) {
	rec := boxRecord()
	// Move the bottom wall away from the start so the start sits
	// exactly on y=0 without being flagged as on-obstacle.
	rec.Segments[0] = geometry.Segment{A: r2.Point{X: 0, Y: -1}, B: r2.Point{X: 4, Y: -1}}
	rec.Start = r2.Point{X: 2, Y: 0}
	m, err := New(rec)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(m.Segments), test.ShouldEqual, 5)
}

func TestDistanceToNearestWall(t *testing.T) {
	m, err := New(boxRecord())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.DistanceToNearestWall(r2.Point{X: 2, Y: 2}), test.ShouldAlmostEqual, 2)
}
