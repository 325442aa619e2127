// Package explore implements the two-level exploration controller
// (C8): mission phase sequencing, frontier-driven target selection,
// exit detection, and the go-to-goal motion law, tying together every
// other component into the engine's per-tick step function.
package explore

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/viam-labs/mazecore/geometry"
)

// Phase is the top-level mission phase.
type Phase int

const (
	PhaseExploringMaze Phase = iota
	PhaseReturningToStart
	PhaseGoingToExit
	PhaseMissionComplete
	// PhaseMissionTimeout is entered when the wall-clock mission budget
	// (config.Engine.MissionTimeoutSeconds) is exceeded before the
	// mission otherwise completes. It is terminal, like
	// PhaseMissionComplete: the engine stops issuing motion once here.
	PhaseMissionTimeout
)

func (p Phase) String() string {
	switch p {
	case PhaseExploringMaze:
		return "EXPLORING_MAZE"
	case PhaseReturningToStart:
		return "RETURNING_TO_START"
	case PhaseGoingToExit:
		return "GOING_TO_EXIT"
	case PhaseMissionComplete:
		return "MISSION_COMPLETE"
	case PhaseMissionTimeout:
		return "MISSION_TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// InnerState is the sub-state active while Phase is PhaseExploringMaze.
type InnerState int

const (
	StateFindTarget InnerState = iota
	StateFollowPath
	StateConfirmingExit
	StateReturningToMaze
)

func (s InnerState) String() string {
	switch s {
	case StateFindTarget:
		return "FIND_TARGET"
	case StateFollowPath:
		return "FOLLOW_PATH"
	case StateConfirmingExit:
		return "CONFIRMING_EXIT"
	case StateReturningToMaze:
		return "RETURNING_TO_MAZE"
	default:
		return "UNKNOWN"
	}
}

const (
	startArrivalRadius     = 0.3
	exitArrivalRadius      = 0.3
	confirmArrivalRadius   = 0.2
	confirmAheadDistance   = 1.0
	returnInwardDistance   = 1.5
	bearingErrorThreshold  = 15.0 * math.Pi / 180.0
	angularGain            = 2.5
	planCostLimit          = 5000.0
	recentlyVisitedRadiusCells = 3
	recentPositionsWindow  = 10
	recentPositionsCapacity = 50
	frontSectorHalfAngle   = 30.0 * math.Pi / 180.0
	frontSectorMinRange    = 0.3
	frontSectorFraction    = 0.6
	reverseSpeed           = -0.5
	reverseDurationTicks   = 10
)

// Motion is the velocity command issued to the kinematics integrator.
type Motion struct {
	Linear  float64
	Angular float64
}

// ExitInfo records the confirmed exit, if any.
type ExitInfo struct {
	Pose      geometry.Pose
	Confirmed bool
}

// PositionHistory is the bounded ring buffer of recent robot positions
// used for both the "recently visited" filter and the blocked-path
// recovery policy.
type PositionHistory struct {
	positions []r2.Point
}

// NewPositionHistory returns an empty history.
func NewPositionHistory() *PositionHistory {
	return &PositionHistory{}
}

// Push appends p, evicting the oldest entry once capacity is reached.
func (h *PositionHistory) Push(p r2.Point) {
	h.positions = append(h.positions, p)
	if len(h.positions) > recentPositionsCapacity {
		h.positions = h.positions[len(h.positions)-recentPositionsCapacity:]
	}
}

// IsRecentlyVisited reports whether p lies within
// recentlyVisitedRadiusCells grid cells (at the given resolution) of
// any of the last recentPositionsWindow pushed positions.
func (h *PositionHistory) IsRecentlyVisited(p r2.Point, resolution float64) bool {
	n := len(h.positions)
	start := 0
	if n > recentPositionsWindow {
		start = n - recentPositionsWindow
	}
	radius := float64(recentlyVisitedRadiusCells) * resolution
	for i := start; i < n; i++ {
		if p.Sub(h.positions[i]).Norm() <= radius {
			return true
		}
	}
	return false
}

// Clear empties the history, used when the controller gives up on
// avoiding previously visited cells after repeated planning failure.
func (h *PositionHistory) Clear() {
	h.positions = nil
}

// GoToGoal implements the go-to-goal motion law of the spec: a
// bearing-gated bang-bang/proportional controller with no collision
// awareness (that responsibility belongs to the planner).
func GoToGoal(pose geometry.Pose, target r2.Point, linearSpeed, angularSpeed float64) Motion {
	bearing := math.Atan2(target.Y-pose.Y, target.X-pose.X)
	eHeading := geometry.Wrap(bearing - pose.Theta)

	if math.Abs(eHeading) > bearingErrorThreshold {
		sign := 1.0
		if eHeading < 0 {
			sign = -1.0
		}
		return Motion{Linear: 0, Angular: sign * angularSpeed}
	}

	omega := angularGain * eHeading
	if omega > angularSpeed {
		omega = angularSpeed
	}
	if omega < -angularSpeed {
		omega = -angularSpeed
	}
	return Motion{Linear: linearSpeed, Angular: omega}
}

// Integrate advances pose by one timestep dt under motion, per the
// spec's kinematic integration rule: heading updates first, then
// position advances along the new heading.
func Integrate(pose geometry.Pose, motion Motion, dt float64) geometry.Pose {
	theta := geometry.Wrap(pose.Theta + motion.Angular*dt)
	return geometry.Pose{
		X:     pose.X + motion.Linear*math.Cos(theta)*dt,
		Y:     pose.Y + motion.Linear*math.Sin(theta)*dt,
		Theta: theta,
	}
}

// WithinRadius reports whether a and b are within r of each other.
func WithinRadius(a, b r2.Point, r float64) bool {
	return a.Sub(b).Norm() <= r
}
