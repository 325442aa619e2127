package explore

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"github.com/viam-labs/mazecore/geometry"
)

func TestGoToGoalTurnsInPlaceWhenBearingLarge(t *testing.T) {
	pose := geometry.Pose{X: 0, Y: 0, Theta: 0}
	target := r2.Point{X: 0, Y: 1}
	m := GoToGoal(pose, target, 0.5, 1.0)
	test.That(t, m.Linear, test.ShouldAlmostEqual, 0.0)
	test.That(t, m.Angular, test.ShouldAlmostEqual, 1.0)
}

func TestGoToGoalDrivesForwardWhenAligned(t *testing.T) {
	pose := geometry.Pose{X: 0, Y: 0, Theta: 0}
	target := r2.Point{X: 1, Y: 0}
	m := GoToGoal(pose, target, 0.5, 1.0)
	test.That(t, m.Linear, test.ShouldAlmostEqual, 0.5)
	test.That(t, m.Angular, test.ShouldAlmostEqual, 0.0)
}

func TestGoToGoalClampsAngularRate(t *testing.T) {
	pose := geometry.Pose{X: 0, Y: 0, Theta: 0}
	target := r2.Point{X: 1, Y: 0.1} // small bearing error, within threshold
	m := GoToGoal(pose, target, 0.5, 0.01)
	test.That(t, math.Abs(m.Angular) <= 0.01, test.ShouldBeTrue)
}

func TestIntegrateStraightLine(t *testing.T) {
	pose := geometry.Pose{X: 0, Y: 0, Theta: 0}
	next := Integrate(pose, Motion{Linear: 1, Angular: 0}, 1.0)
	test.That(t, next.X, test.ShouldAlmostEqual, 1.0)
	test.That(t, next.Y, test.ShouldAlmostEqual, 0.0)
}

func TestIntegrateTurnThenMove(t *testing.T) {
	pose := geometry.Pose{X: 0, Y: 0, Theta: 0}
	next := Integrate(pose, Motion{Linear: 1, Angular: math.Pi / 2}, 1.0)
	test.That(t, next.Theta, test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, next.X, test.ShouldAlmostEqual, 0.0, 1e-9)
	test.That(t, next.Y, test.ShouldAlmostEqual, 1.0, 1e-9)
}

func TestPositionHistoryRecentlyVisited(t *testing.T) {
	h := NewPositionHistory()
	h.Push(r2.Point{X: 0, Y: 0})
	test.That(t, h.IsRecentlyVisited(r2.Point{X: 0.1, Y: 0.1}, 0.1), test.ShouldBeTrue)
	test.That(t, h.IsRecentlyVisited(r2.Point{X: 5, Y: 5}, 0.1), test.ShouldBeFalse)
}

func TestPositionHistoryWindowLimitedToLastTen(t *testing.T) {
	h := NewPositionHistory()
	for i := 0; i < 20; i++ {
		h.Push(r2.Point{X: float64(i) * 10, Y: 0})
	}
	// The very first pushed position (far outside the last-10 window)
	// should no longer count as recently visited.
	test.That(t, h.IsRecentlyVisited(r2.Point{X: 0, Y: 0}, 0.1), test.ShouldBeFalse)
}

func TestPositionHistoryCapacityBound(t *testing.T) {
	h := NewPositionHistory()
	for i := 0; i < 100; i++ {
		h.Push(r2.Point{X: float64(i), Y: 0})
	}
	test.That(t, len(h.positions) <= recentPositionsCapacity, test.ShouldBeTrue)
}

func TestPhaseStringer(t *testing.T) {
	test.That(t, PhaseExploringMaze.String(), test.ShouldEqual, "EXPLORING_MAZE")
	test.That(t, PhaseMissionComplete.String(), test.ShouldEqual, "MISSION_COMPLETE")
}
