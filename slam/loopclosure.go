package slam

import (
	"github.com/golang/geo/r2"

	"github.com/viam-labs/mazecore/geometry"
	"github.com/viam-labs/mazecore/pointcloud"
)

const (
	loopClosureMinGap = 10
	// DefaultLoopClosureRadius and DefaultLoopClosureMaxResidual are used when the caller
	// supplies a non-positive override.
	DefaultLoopClosureRadius      = 2.0
	DefaultLoopClosureMaxResidual = 0.5
	loopClosureMaxCandidates      = 10
)

// SearchLoopClosure scans keyframes older than (k - loopClosureMinGap)
// whose stored pose lies within radius of the pose at k, running ICP
// against each candidate and adding a loop-closure edge for the first
// one whose residual clears maxResidual. A non-positive radius or
// maxResidual falls back to the package defaults. At most
// loopClosureMaxCandidates keyframes (the most recent qualifying ones)
// are examined per call, imposing a soft per-tick budget on ICP
// attempts rather than scanning the full keyframe history. Returns true
// if an edge was added.
func SearchLoopClosure(g *Graph, k int, radius, maxResidual float64) bool {
	if radius <= 0 {
		radius = DefaultLoopClosureRadius
	}
	if maxResidual <= 0 {
		maxResidual = DefaultLoopClosureMaxResidual
	}

	current := g.Keyframe(k)
	examined := 0
	for j := k - loopClosureMinGap - 1; j >= 0 && examined < loopClosureMaxCandidates; j-- {
		examined++
		candidate := g.Keyframe(j)
		if (r2.Point{X: current.Pose.X, Y: current.Pose.Y}).Sub(r2.Point{X: candidate.Pose.X, Y: candidate.Pose.Y}).Norm() > radius {
			continue
		}

		targetTree := pointcloud.NewKDTree(candidate.Cloud)
		result := pointcloud.RegisterICP(current.Cloud, targetTree, pointcloud.ICPResult{})
		if result.Residual >= maxResidual {
			continue
		}

		z := Measurement{
			DX:     result.Translation.X,
			DY:     result.Translation.Y,
			DTheta: geometry.Wrap(result.Theta),
		}
		g.AddEdge(j, k, z, LoopClosureInformation, EdgeLoopClosure)
		return true
	}
	return false
}
