// Package slam implements the pose-graph SLAM back-end (C7): dense
// keyframe/node/edge storage, Gauss-Newton pose optimization, and
// ICP-driven loop closure.
package slam

import (
	"github.com/golang/geo/r2"

	"github.com/viam-labs/mazecore/geometry"
	"github.com/viam-labs/mazecore/pointcloud"
)

// Keyframe pairs a pose estimate with the local point cloud captured
// at that pose.
type Keyframe struct {
	Pose  geometry.Pose
	Cloud *pointcloud.PointCloud
}

// EdgeKind distinguishes odometry edges (consecutive ids) from loop
// closure edges (arbitrary ids).
type EdgeKind int

const (
	EdgeOdometry EdgeKind = iota
	EdgeLoopClosure
)

// Measurement is the relative pose (Δx, Δy, Δθ) expressed in the
// "from" node's local frame.
type Measurement struct {
	DX, DY, DTheta float64
}

// Edge constrains two nodes by a relative-pose measurement and its
// information (inverse covariance) matrix, a 3x3 stored row-major.
type Edge struct {
	From, To    int
	Measurement Measurement
	Information [9]float64
	Kind        EdgeKind
}

// Graph is the dense, append-only pose graph: nodes (mutable pose
// estimates) and edges (immutable constraints) keyed by small integer
// ids, plus the keyframes that back loop-closure search.
type Graph struct {
	nodes     []geometry.Pose
	keyframes []Keyframe
	edges     []Edge
}

// NewGraph returns an empty pose graph.
func NewGraph() *Graph {
	return &Graph{}
}

// AddNode appends a new keyframe (pose, cloud), returning its id.
func (g *Graph) AddNode(pose geometry.Pose, cloud *pointcloud.PointCloud) int {
	id := len(g.nodes)
	g.nodes = append(g.nodes, pose)
	g.keyframes = append(g.keyframes, Keyframe{Pose: pose, Cloud: cloud})
	return id
}

// AddEdge appends a constraint edge between existing nodes i and j.
func (g *Graph) AddEdge(i, j int, z Measurement, information [9]float64, kind EdgeKind) {
	g.edges = append(g.edges, Edge{From: i, To: j, Measurement: z, Information: information, Kind: kind})
}

// NodeCount returns the number of nodes currently in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Pose returns the current pose estimate for node id.
func (g *Graph) Pose(id int) geometry.Pose { return g.nodes[id] }

// Keyframe returns the keyframe stored at id.
func (g *Graph) Keyframe(id int) Keyframe { return g.keyframes[id] }

// Edges returns the graph's edges.
func (g *Graph) Edges() []Edge { return g.edges }

// OdometryIdentityInformation is the fixed information matrix used for
// freshly-composed odometry edges; loop-closure edges use a much
// tighter one (see LoopClosureInformation).
var OdometryIdentityInformation = [9]float64{
	100, 0, 0,
	0, 100, 0,
	0, 0, 300,
}

// LoopClosureInformation is several orders of magnitude tighter than
// odometry, reflecting ICP's higher confidence once it converges.
var LoopClosureInformation = [9]float64{
	100000, 0, 0,
	0, 100000, 0,
	0, 0, 300000,
}

// ComposeOdometry returns the measurement stored on the (k-1, k)
// odometry edge: pose k expressed in frame k-1.
func ComposeOdometry(prev, cur geometry.Pose) Measurement {
	local := geometry.ToLocal(prev, r2.Point{X: cur.X, Y: cur.Y})
	return Measurement{
		DX:     local.X,
		DY:     local.Y,
		DTheta: geometry.Wrap(cur.Theta - prev.Theta),
	}
}
