package explore

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"github.com/viam-labs/mazecore/config"
	"github.com/viam-labs/mazecore/geometry"
	"github.com/viam-labs/mazecore/maze"
)

func boxWithGap(t *testing.T) *maze.Maze {
	t.Helper()
	m, err := maze.New(maze.Record{
		Segments: []geometry.Segment{
			{A: r2.Point{X: 0, Y: 0}, B: r2.Point{X: 4, Y: 0}},
			{A: r2.Point{X: 4, Y: 0}, B: r2.Point{X: 4, Y: 4}},
			{A: r2.Point{X: 4, Y: 4}, B: r2.Point{X: 2.5, Y: 4}},
			{A: r2.Point{X: 1.5, Y: 4}, B: r2.Point{X: 0, Y: 4}},
			{A: r2.Point{X: 0, Y: 4}, B: r2.Point{X: 0, Y: 0}},
		},
		Start: r2.Point{X: 2, Y: 1},
	})
	test.That(t, err, test.ShouldBeNil)
	return m
}

func sealedBox(t *testing.T) *maze.Maze {
	t.Helper()
	m, err := maze.New(maze.Record{
		Segments: []geometry.Segment{
			{A: r2.Point{X: 0, Y: 0}, B: r2.Point{X: 4, Y: 0}},
			{A: r2.Point{X: 4, Y: 0}, B: r2.Point{X: 4, Y: 4}},
			{A: r2.Point{X: 4, Y: 4}, B: r2.Point{X: 0, Y: 4}},
			{A: r2.Point{X: 0, Y: 4}, B: r2.Point{X: 0, Y: 0}},
		},
		Start: r2.Point{X: 2, Y: 1},
	})
	test.That(t, err, test.ShouldBeNil)
	return m
}

func TestNewEngineStartsAtMazeStart(t *testing.T) {
	m := sealedBox(t)
	e := NewEngine(m, config.Default())
	snap := e.Snapshot()
	test.That(t, snap.Pose.X, test.ShouldAlmostEqual, m.Start.X)
	test.That(t, snap.Pose.Y, test.ShouldAlmostEqual, m.Start.Y)
	test.That(t, snap.Phase, test.ShouldEqual, PhaseExploringMaze)
}

func TestStepAdvancesTickAndPose(t *testing.T) {
	m := sealedBox(t)
	e := NewEngine(m, config.Default())
	e.Step()
	snap := e.Snapshot()
	test.That(t, snap.Tick, test.ShouldEqual, 1)
}

func TestCancelIsObservable(t *testing.T) {
	m := sealedBox(t)
	e := NewEngine(m, config.Default())
	test.That(t, e.Cancelled(), test.ShouldBeFalse)
	e.Cancel()
	test.That(t, e.Cancelled(), test.ShouldBeTrue)
}

func TestSealedBoxEventuallyReturnsToStart(t *testing.T) {
	m := sealedBox(t)
	cfg := config.Default()
	e := NewEngine(m, cfg)

	reachedReturning := false
	for i := 0; i < 20000; i++ {
		e.Step()
		if phase := e.Snapshot().Phase; phase != PhaseExploringMaze {
			reachedReturning = phase == PhaseReturningToStart
			break
		}
	}
	test.That(t, reachedReturning, test.ShouldBeTrue)
}

func TestMissionTimeoutAbortsCleanly(t *testing.T) {
	m := sealedBox(t)
	cfg := config.Default()
	cfg.MissionTimeoutSeconds = 0.02 // smaller than one tick's dt
	e := NewEngine(m, cfg)

	e.Step()
	snap := e.Snapshot()
	test.That(t, snap.Phase, test.ShouldEqual, PhaseMissionTimeout)

	// Once timed out, the engine must stop issuing motion.
	before := e.Snapshot().Pose
	e.Step()
	after := e.Snapshot().Pose
	test.That(t, after.X, test.ShouldAlmostEqual, before.X)
	test.That(t, after.Y, test.ShouldAlmostEqual, before.Y)
}

func TestOpenBoxEventuallyFindsExitCandidate(t *testing.T) {
	m := boxWithGap(t)
	cfg := config.Default()
	e := NewEngine(m, cfg)

	for i := 0; i < 30000; i++ {
		e.Step()
		if e.exit.Confirmed {
			break
		}
	}
	test.That(t, e.exit.Confirmed, test.ShouldBeTrue)
}
