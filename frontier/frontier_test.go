package frontier

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"github.com/viam-labs/mazecore/geometry"
	"github.com/viam-labs/mazecore/maze"
	"github.com/viam-labs/mazecore/occupancy"
	"github.com/viam-labs/mazecore/rangesim"
)

func openBoxMaze(t *testing.T) *maze.Maze {
	t.Helper()
	m, err := maze.New(maze.Record{
		Segments: []geometry.Segment{
			{A: r2.Point{X: 0, Y: 0}, B: r2.Point{X: 8, Y: 0}},
			{A: r2.Point{X: 8, Y: 0}, B: r2.Point{X: 8, Y: 8}},
			{A: r2.Point{X: 8, Y: 8}, B: r2.Point{X: 0, Y: 8}},
			{A: r2.Point{X: 0, Y: 8}, B: r2.Point{X: 0, Y: 0}},
		},
		Start: r2.Point{X: 4, Y: 4},
	})
	test.That(t, err, test.ShouldBeNil)
	return m
}

func TestUpdateProducesFrontiersAroundRobot(t *testing.T) {
	m := openBoxMaze(t)
	grid := occupancy.NewGrid(m.Width, m.Height, occupancy.Resolution)
	scan := rangesim.Simulate(m, geometry.Pose{X: 4, Y: 4, Theta: 0}, rangesim.DefaultConfig())
	grid.Update(geometry.Pose{X: 4, Y: 4, Theta: 0}, scan, rangesim.DefaultConfig().MaxRange)

	eng := NewEngine()
	eng.Update(1, grid, m)
	test.That(t, eng.Count(), test.ShouldBeGreaterThan, 0)

	for _, f := range eng.All() {
		test.That(t, f.Value, test.ShouldBeGreaterThanOrEqualTo, 0)
		test.That(t, f.BirthTick, test.ShouldEqual, 1)
	}
}

func TestFrontierAgesOutWhenSurrounded(t *testing.T) {
	m := openBoxMaze(t)
	grid := occupancy.NewGrid(m.Width, m.Height, occupancy.Resolution)
	eng := NewEngine()

	c := geometry.GridCell{I: 50, J: 50}
	eng.frontiers[c] = &Frontier{Cell: c, World: grid.GridToWorld(c), BirthTick: 0, LastSeenTick: 0, NearbyUnknownCount: 0}
	eng.age(10)
	_, stillThere := eng.frontiers[c]
	test.That(t, stillThere, test.ShouldBeFalse)
}

func TestSelectPrefersAccessibleOverExtended(t *testing.T) {
	eng := NewEngine()
	accessible := &Frontier{Cell: geometry.GridCell{I: 1, J: 1}, World: r2.Point{X: 1, Y: 1}, Accessible: true, Value: 0.1}
	extended := &Frontier{Cell: geometry.GridCell{I: 2, J: 2}, World: r2.Point{X: 20, Y: 20}, Accessible: false, Value: 0.9}
	eng.frontiers[accessible.Cell] = accessible
	eng.frontiers[extended.Cell] = extended

	result, ok := eng.Select(r2.Point{X: 0, Y: 0}, nil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, result.FromAccessibleSet, test.ShouldBeTrue)
	test.That(t, result.Frontier, test.ShouldEqual, accessible)
}

func TestSelectFallsBackToExtendedWhenNoAccessible(t *testing.T) {
	eng := NewEngine()
	extended := &Frontier{Cell: geometry.GridCell{I: 2, J: 2}, World: r2.Point{X: 20, Y: 20}, Accessible: false, Value: 0.9}
	eng.frontiers[extended.Cell] = extended

	result, ok := eng.Select(r2.Point{X: 0, Y: 0}, nil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, result.FromAccessibleSet, test.ShouldBeFalse)
	test.That(t, result.Frontier, test.ShouldEqual, extended)
}

func TestSelectFiltersRecentlyVisited(t *testing.T) {
	eng := NewEngine()
	f := &Frontier{Cell: geometry.GridCell{I: 1, J: 1}, World: r2.Point{X: 1, Y: 1}, Accessible: true, Value: 0.5}
	eng.frontiers[f.Cell] = f

	_, ok := eng.Select(r2.Point{X: 0, Y: 0}, func(p r2.Point) bool { return true })
	test.That(t, ok, test.ShouldBeFalse)
}
