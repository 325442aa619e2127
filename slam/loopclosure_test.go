package slam

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/viam-labs/mazecore/geometry"
	"github.com/viam-labs/mazecore/pointcloud"
)

func makeRingCloud() *pointcloud.PointCloud {
	pc := pointcloud.New()
	for i := 0; i < 20; i++ {
		theta := float64(i) / 20 * 2 * math.Pi
		pc.Set(r3.Vector{X: math.Cos(theta), Y: math.Sin(theta)})
	}
	return pc
}

func TestSearchLoopClosureFindsRevisit(t *testing.T) {
	g := NewGraph()
	cloud := makeRingCloud()

	for i := 0; i <= 15; i++ {
		pose := geometry.Pose{X: float64(i) * 0.01, Y: 0, Theta: 0}
		g.AddNode(pose, cloud)
	}
	// Node 15 revisits node 0's pose closely enough and with a nearly
	// identical cloud; the search should add a loop-closure edge.
	found := SearchLoopClosure(g, 15, DefaultLoopClosureRadius, DefaultLoopClosureMaxResidual)
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, len(g.Edges()), test.ShouldEqual, 1)
	test.That(t, g.Edges()[0].Kind, test.ShouldEqual, EdgeLoopClosure)
}

func TestSearchLoopClosureRespectsMinGap(t *testing.T) {
	g := NewGraph()
	cloud := makeRingCloud()
	for i := 0; i <= 5; i++ {
		g.AddNode(geometry.Pose{X: 0, Y: 0, Theta: 0}, cloud)
	}
	found := SearchLoopClosure(g, 5, DefaultLoopClosureRadius, DefaultLoopClosureMaxResidual)
	test.That(t, found, test.ShouldBeFalse)
}

func TestSearchLoopClosureUsesCallerRadius(t *testing.T) {
	g := NewGraph()
	cloud := makeRingCloud()
	for i := 0; i <= 15; i++ {
		pose := geometry.Pose{X: float64(i) * 0.01, Y: 0, Theta: 0}
		g.AddNode(pose, cloud)
	}
	// Node 15 is 0.15m from node 0: within the default radius, but
	// outside a caller-supplied tighter radius.
	found := SearchLoopClosure(g, 15, 0.05, DefaultLoopClosureMaxResidual)
	test.That(t, found, test.ShouldBeFalse)
}

func TestSearchLoopClosureRespectsRadius(t *testing.T) {
	g := NewGraph()
	cloud := makeRingCloud()
	for i := 0; i <= 15; i++ {
		pose := geometry.Pose{X: 0, Y: 0, Theta: 0}
		if i == 15 {
			pose = geometry.Pose{X: 10, Y: 10, Theta: 0}
		}
		g.AddNode(pose, cloud)
	}
	found := SearchLoopClosure(g, 15, DefaultLoopClosureRadius, DefaultLoopClosureMaxResidual)
	test.That(t, found, test.ShouldBeFalse)
}
