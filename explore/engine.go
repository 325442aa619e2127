package explore

import (
	"math"

	"github.com/golang/geo/r2"
	"go.uber.org/atomic"

	"github.com/viam-labs/mazecore/config"
	"github.com/viam-labs/mazecore/frontier"
	"github.com/viam-labs/mazecore/geometry"
	"github.com/viam-labs/mazecore/logging"
	"github.com/viam-labs/mazecore/maze"
	"github.com/viam-labs/mazecore/motionplan"
	"github.com/viam-labs/mazecore/occupancy"
	"github.com/viam-labs/mazecore/rangesim"
	"github.com/viam-labs/mazecore/slam"
)

var log = logging.NewLogger("explore.engine")

const dt = 0.03 // seconds per tick, within the spec's 20-50ms band

// PhaseEvent is emitted whenever the mission phase transitions.
type PhaseEvent struct {
	Tick int
	From Phase
	To   Phase
}

// Snapshot is a value-type view of engine state for external
// observers; it holds copies, never references into engine-owned
// state, so subscribers cannot mutate or race with the tick loop.
type Snapshot struct {
	Tick    int
	Pose    geometry.Pose
	Grid    [][]int8
	Path    []geometry.GridCell
	Phase   Phase
	Inner   InnerState
	Exit    ExitInfo
	ExplorationRatio float64
}

// Engine owns every mutable piece of exploration/SLAM state and
// advances it one tick at a time via Step. No other component mutates
// the occupancy grid, frontier set, or pose graph.
type Engine struct {
	cfg  config.Engine
	m    *maze.Maze
	grid *occupancy.Grid
	fe   *frontier.Engine
	graph *slam.Graph

	pose  geometry.Pose
	tick  int
	phase Phase
	inner InnerState

	path       []geometry.GridCell
	pathIdx    int
	target     r2.Point
	hasTarget  bool
	confirmTarget r2.Point
	exit       ExitInfo

	history *PositionHistory
	consecutivePlanFailures int
	reverseTicksRemaining int

	lastKeyframeID int
	cancelled      atomic.Bool

	events []PhaseEvent
}

// NewEngine constructs an engine over m with the given configuration,
// seeded at the maze's start pose.
func NewEngine(m *maze.Maze, cfg config.Engine) *Engine {
	e := &Engine{
		cfg:     cfg,
		m:       m,
		grid:    occupancy.NewGrid(m.Width, m.Height, cfg.GridResolution),
		fe:      frontier.NewEngine(),
		graph:   slam.NewGraph(),
		pose:    geometry.Pose{X: m.Start.X, Y: m.Start.Y, Theta: 0},
		phase:   PhaseExploringMaze,
		inner:   StateFindTarget,
		history: NewPositionHistory(),
	}
	e.lastKeyframeID = -e.cfg.KeyframeInterval // force a keyframe on the first Step (tick 1)
	return e
}

// Cancel requests the tick loop stop at the end of the current tick.
func (e *Engine) Cancel() { e.cancelled.Store(true) }

// Cancelled reports whether Cancel has been called.
func (e *Engine) Cancelled() bool { return e.cancelled.Load() }

// Snapshot returns a value-type view of current engine state.
func (e *Engine) Snapshot() Snapshot {
	path := append([]geometry.GridCell(nil), e.path...)
	return Snapshot{
		Tick:             e.tick,
		Pose:             e.pose,
		Grid:             e.grid.Snapshot(),
		Path:             path,
		Phase:            e.phase,
		Inner:            e.inner,
		Exit:             e.exit,
		ExplorationRatio: e.grid.ExplorationRatio(),
	}
}

// Events drains and returns every phase-transition event recorded
// since the last call.
func (e *Engine) Events() []PhaseEvent {
	out := e.events
	e.events = nil
	return out
}

// Step advances the engine by one tick: motion integration, scan,
// occupancy update, keyframe handling, frontier update, controller
// step — in that fixed order, matching the spec's tick loop.
func (e *Engine) Step() {
	e.tick++

	motion := e.controllerMotion()
	e.pose = Integrate(e.pose, motion, dt)
	e.history.Push(e.pose.Point())

	scan := rangesim.Simulate(e.m, e.pose, rangesim.Config{MaxRange: e.cfg.MaxRange, NumRays: e.cfg.ScanRays})
	e.grid.Update(e.pose, scan, e.cfg.MaxRange)

	e.handleKeyframe(scan)

	if e.tick%5 == 0 {
		e.fe.Update(e.tick, e.grid, e.m)
	}

	e.controllerStep(scan)
}

func (e *Engine) handleKeyframe(scan rangesim.Scan) {
	if e.tick-e.lastKeyframeID < e.cfg.KeyframeInterval {
		return
	}
	e.lastKeyframeID = e.tick
	cloud := slam.LocalCloudFromScan(scan, e.pose)
	id := e.graph.AddNode(e.pose, cloud)
	if id > 0 {
		z := slam.ComposeOdometry(e.graph.Pose(id-1), e.pose)
		e.graph.AddEdge(id-1, id, z, slam.OdometryIdentityInformation, slam.EdgeOdometry)
	}
	if id >= 10 {
		slam.SearchLoopClosure(e.graph, id, e.cfg.LoopSearchRadius, e.cfg.ICPMaxError)
	}
	slam.Optimize(e.graph)
}

func (e *Engine) isVisited(p r2.Point) bool {
	return e.history.IsRecentlyVisited(p, e.grid.CellSize())
}

func (e *Engine) transitionPhase(to Phase) {
	if to == e.phase {
		return
	}
	e.events = append(e.events, PhaseEvent{Tick: e.tick, From: e.phase, To: to})
	e.phase = to
}

func (e *Engine) controllerMotion() Motion {
	switch e.phase {
	case PhaseExploringMaze:
		return e.exploringMotion()
	case PhaseReturningToStart:
		return GoToGoal(e.pose, e.m.Start, e.cfg.LinearSpeed, e.cfg.AngularSpeed)
	case PhaseGoingToExit:
		return GoToGoal(e.pose, e.exit.Pose.Point(), e.cfg.LinearSpeed, e.cfg.AngularSpeed)
	default:
		return Motion{}
	}
}

// elapsedSeconds returns the simulated wall-clock time the mission has
// run, in seconds, used against config.Engine.MissionTimeoutSeconds.
// The engine has no real-time dependency of its own (the tick loop is
// driven purely by calls to Step), so tick*dt is the mission's clock.
func (e *Engine) elapsedSeconds() float64 {
	return float64(e.tick) * dt
}

func (e *Engine) exploringMotion() Motion {
	switch e.inner {
	case StateConfirmingExit:
		return GoToGoal(e.pose, e.confirmTarget, e.cfg.LinearSpeed, e.cfg.AngularSpeed)
	case StateReturningToMaze:
		return GoToGoal(e.pose, e.inwardOfExit(), e.cfg.LinearSpeed, e.cfg.AngularSpeed)
	case StateFollowPath:
		if e.reverseTicksRemaining > 0 {
			return Motion{Linear: reverseSpeed}
		}
		if e.hasTarget && e.pathIdx < len(e.path) {
			wp := e.grid.GridToWorld(e.path[e.pathIdx])
			return GoToGoal(e.pose, wp, e.cfg.LinearSpeed, e.cfg.AngularSpeed)
		}
		return Motion{}
	default:
		return Motion{}
	}
}

func (e *Engine) inwardOfExit() r2.Point {
	return r2.Point{
		X: e.exit.Pose.X - returnInwardDistance*math.Cos(e.exit.Pose.Theta),
		Y: e.exit.Pose.Y - returnInwardDistance*math.Sin(e.exit.Pose.Theta),
	}
}

// controllerStep re-evaluates mission and inner state after this
// tick's motion/scan/map update have been applied.
func (e *Engine) controllerStep(scan rangesim.Scan) {
	if e.phase != PhaseMissionComplete && e.phase != PhaseMissionTimeout &&
		e.cfg.MissionTimeoutSeconds > 0 && e.elapsedSeconds() >= e.cfg.MissionTimeoutSeconds {
		log.Warnw("mission wall-clock budget exceeded, aborting cleanly", "tick", e.tick, "elapsed_seconds", e.elapsedSeconds())
		e.transitionPhase(PhaseMissionTimeout)
		return
	}

	ratio := e.grid.ExplorationRatio()

	switch e.phase {
	case PhaseExploringMaze:
		e.stepExploring(scan, ratio)
		noFrontier := !e.hasReachableFrontier()
		if ratio >= e.cfg.ExplorationThreshold || (noFrontier && e.exit.Confirmed) {
			e.transitionPhase(PhaseReturningToStart)
		}
	case PhaseReturningToStart:
		if WithinRadius(e.pose.Point(), e.m.Start, startArrivalRadius) {
			if e.exit.Confirmed {
				e.transitionPhase(PhaseGoingToExit)
			} else {
				e.transitionPhase(PhaseMissionComplete)
			}
		}
	case PhaseGoingToExit:
		if WithinRadius(e.pose.Point(), e.exit.Pose.Point(), exitArrivalRadius) {
			e.transitionPhase(PhaseMissionComplete)
		}
	}
}

func (e *Engine) hasReachableFrontier() bool {
	_, ok := e.fe.Select(e.pose.Point(), e.isVisited)
	return ok
}

func scanInefficiency(scan rangesim.Scan, maxRange float64) float64 {
	return float64(scan.Misses(maxRange)) / float64(len(scan.Rays))
}

func (e *Engine) stepExploring(scan rangesim.Scan, ratio float64) {
	inefficiency := scanInefficiency(scan, e.cfg.MaxRange)

	if e.inner != StateConfirmingExit && e.inner != StateReturningToMaze &&
		!e.exit.Confirmed && inefficiency > e.cfg.ExitInefficiencyThreshold {
		e.confirmTarget = r2.Point{
			X: e.pose.X + confirmAheadDistance*math.Cos(e.pose.Theta),
			Y: e.pose.Y + confirmAheadDistance*math.Sin(e.pose.Theta),
		}
		e.inner = StateConfirmingExit
		e.hasTarget = false
		return
	}

	switch e.inner {
	case StateConfirmingExit:
		if WithinRadius(e.pose.Point(), e.confirmTarget, confirmArrivalRadius) {
			if inefficiency > e.cfg.ExitInefficiencyThreshold {
				e.exit = ExitInfo{Pose: e.pose, Confirmed: true}
				e.inner = StateReturningToMaze
			} else {
				e.inner = StateFindTarget
			}
		}
	case StateReturningToMaze:
		if WithinRadius(e.pose.Point(), e.inwardOfExit(), confirmArrivalRadius) {
			e.inner = StateFindTarget
		}
	case StateFindTarget:
		e.findTarget()
	case StateFollowPath:
		e.followPath(scan)
	}
}

func (e *Engine) findTarget() {
	result, ok := e.fe.Select(e.pose.Point(), e.isVisited)
	if !ok {
		log.Infow("exploration complete: no reachable frontier", "tick", e.tick)
		e.hasTarget = false
		return
	}

	cm := motionplan.BuildCostMap(e.grid, e.m, motionplan.ExitHalfPlane{})
	start := e.grid.WorldToGrid(e.pose.Point())
	goal := e.grid.WorldToGrid(result.Frontier.World)

	path, err := motionplan.Plan(cm, e.m, start, goal, motionplan.ExpansionCap)
	if err != nil || pathCost(cm, path) > planCostLimit {
		e.consecutivePlanFailures++
		if e.consecutivePlanFailures >= 2 {
			e.history.Clear()
			e.consecutivePlanFailures = 0
		}
		log.Warnw("plan failed or too costly", "tick", e.tick)
		return
	}

	e.consecutivePlanFailures = 0
	e.path = path
	e.pathIdx = 1
	e.target = result.Frontier.World
	e.hasTarget = true
	e.inner = StateFollowPath
}

func pathCost(cm *motionplan.CostMap, path []geometry.GridCell) float64 {
	total := 0.0
	for _, c := range path {
		v := cm.At(c)
		if math.IsInf(v, 1) {
			return math.Inf(1)
		}
		total += v
	}
	return total
}

func (e *Engine) followPath(scan rangesim.Scan) {
	if e.reverseTicksRemaining > 0 {
		e.reverseTicksRemaining--
		if e.reverseTicksRemaining == 0 {
			e.inner = StateFindTarget
		}
		return
	}
	if blockedAhead(scan, e.pose.Theta) {
		e.hasTarget = false
		e.reverseTicksRemaining = reverseDurationTicks
		return
	}
	if !e.hasTarget || e.pathIdx >= len(e.path) {
		e.inner = StateFindTarget
		return
	}
	wp := e.grid.GridToWorld(e.path[e.pathIdx])
	if WithinRadius(e.pose.Point(), wp, e.grid.CellSize()) {
		e.pathIdx++
		if e.pathIdx >= len(e.path) {
			e.inner = StateFindTarget
			e.hasTarget = false
		}
	}
}

// blockedAhead implements the path-blocked detection rule: the
// front-60-degree sector of the scan, measured relative to heading,
// has at least 60% of its readings below 0.3m.
func blockedAhead(scan rangesim.Scan, heading float64) bool {
	inSector, closeHits := 0, 0
	for _, ray := range scan.Rays {
		a := geometry.Wrap(ray.Angle - heading)
		if math.Abs(a) > frontSectorHalfAngle {
			continue
		}
		inSector++
		if ray.Distance < frontSectorMinRange {
			closeHits++
		}
	}
	if inSector == 0 {
		return false
	}
	return float64(closeHits)/float64(inSector) >= frontSectorFraction
}
