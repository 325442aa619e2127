// Package frontier extracts, scores and ages the boundary cells between
// known-free and unknown occupancy regions (C5). Each frontier cell is
// tracked and scored on its own; cells are not grouped into clusters. The
// exploration controller (C8) consumes its output to pick the next
// target.
package frontier

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"

	"github.com/viam-labs/mazecore/geometry"
	"github.com/viam-labs/mazecore/maze"
	"github.com/viam-labs/mazecore/occupancy"
)

const (
	outerMargin          = 0.1
	minWallDistance       = 0.3
	ageRemovalTicks       = 5
	ageHardCap            = 20
	ageHardCapValue       = 0.3
	unknownWindowHalf     = 2
	boundaryBonusNear     = 0.8
	boundaryBonusMid      = 0.6
	boundaryBonusFar      = 0.4
)

// Frontier is one boundary cell between known-free and unknown space,
// with the bookkeeping needed to score and age it.
type Frontier struct {
	Cell               geometry.GridCell
	World              r2.Point
	BirthTick          int
	LastSeenTick       int
	DiscoveryCount     int
	NearbyUnknownCount int
	Accessible         bool
	Value              float64
}

// Engine owns the live set of frontiers, keyed by grid cell so lookups
// and updates during aging are O(1).
type Engine struct {
	frontiers map[geometry.GridCell]*Frontier
}

// NewEngine constructs an empty frontier engine.
func NewEngine() *Engine {
	return &Engine{frontiers: map[geometry.GridCell]*Frontier{}}
}

// Count returns the number of live frontiers.
func (e *Engine) Count() int { return len(e.frontiers) }

// All returns every live frontier, ordered by grid index for
// deterministic iteration.
func (e *Engine) All() []*Frontier {
	out := make([]*Frontier, 0, len(e.frontiers))
	for _, f := range e.frontiers {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cell.J != out[j].Cell.J {
			return out[i].Cell.J < out[j].Cell.J
		}
		return out[i].Cell.I < out[j].Cell.I
	})
	return out
}

// Update recomputes the candidate set from the current grid, validates
// candidates, refreshes bookkeeping for cells still present, ages out
// stale entries, and rescales value for every surviving frontier. m
// must be the same maze the grid was built over.
func (e *Engine) Update(tick int, grid *occupancy.Grid, m *maze.Maze) {
	seen := map[geometry.GridCell]bool{}
	cols, rows := grid.Dims()

	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			c := geometry.GridCell{I: i, J: j}
			if grid.StateAt(c) != occupancy.Free {
				continue
			}
			for _, n := range neighbors8(c) {
				if grid.StateAt(n) != occupancy.Unknown {
					continue
				}
				if !e.validate(n, c, grid, m) {
					continue
				}
				seen[n] = true
				e.touch(n, grid, m, tick)
			}
		}
	}

	e.age(tick)
	e.rescore(m)
}

func neighbors8(c geometry.GridCell) []geometry.GridCell {
	out := make([]geometry.GridCell, 0, 8)
	for dj := -1; dj <= 1; dj++ {
		for di := -1; di <= 1; di++ {
			if di == 0 && dj == 0 {
				continue
			}
			out = append(out, geometry.GridCell{I: c.I + di, J: c.J + dj})
		}
	}
	return out
}

func (e *Engine) validate(candidate, freeParent geometry.GridCell, grid *occupancy.Grid, m *maze.Maze) bool {
	world := grid.GridToWorld(candidate)
	if !inExtendedMinusMargin(world, m) {
		return false
	}
	if countUnknown3x3(candidate, grid) < 2 {
		return false
	}
	if m.DistanceToNearestWall(world) < minWallDistance {
		return false
	}
	if m.InExtendedRegion(world) && world.X >= 0 && world.X <= m.Width && world.Y >= 0 && world.Y <= m.Height {
		parentWorld := grid.GridToWorld(freeParent)
		if !m.StepOK(parentWorld, world) {
			return false
		}
	}
	return true
}

func inExtendedMinusMargin(p r2.Point, m *maze.Maze) bool {
	lo := -maze.ExtendedMargin + outerMargin
	hiX := m.Width + maze.ExtendedMargin - outerMargin
	hiY := m.Height + maze.ExtendedMargin - outerMargin
	return p.X >= lo && p.X <= hiX && p.Y >= lo && p.Y <= hiY
}

func countUnknown3x3(c geometry.GridCell, grid *occupancy.Grid) int {
	n := 0
	for dj := -1; dj <= 1; dj++ {
		for di := -1; di <= 1; di++ {
			if di == 0 && dj == 0 {
				continue
			}
			if grid.StateAt(geometry.GridCell{I: c.I + di, J: c.J + dj}) == occupancy.Unknown {
				n++
			}
		}
	}
	return n
}

func countUnknown5x5(c geometry.GridCell, grid *occupancy.Grid) int {
	n := 0
	for dj := -unknownWindowHalf; dj <= unknownWindowHalf; dj++ {
		for di := -unknownWindowHalf; di <= unknownWindowHalf; di++ {
			if di == 0 && dj == 0 {
				continue
			}
			if grid.StateAt(geometry.GridCell{I: c.I + di, J: c.J + dj}) == occupancy.Unknown {
				n++
			}
		}
	}
	return n
}

func (e *Engine) touch(c geometry.GridCell, grid *occupancy.Grid, m *maze.Maze, tick int) {
	f, ok := e.frontiers[c]
	if !ok {
		world := grid.GridToWorld(c)
		f = &Frontier{
			Cell:      c,
			World:     world,
			BirthTick: tick,
			Accessible: world.X >= 0 && world.X <= m.Width && world.Y >= 0 && world.Y <= m.Height,
		}
		e.frontiers[c] = f
	}
	f.LastSeenTick = tick
	f.DiscoveryCount++
	f.NearbyUnknownCount = countUnknown5x5(c, grid)
}

func (e *Engine) age(tick int) {
	for c, f := range e.frontiers {
		stale := (tick-f.LastSeenTick) > ageRemovalTicks && f.NearbyUnknownCount == 0
		old := (tick-f.BirthTick) > ageHardCap && f.Value < ageHardCapValue
		if stale || old {
			delete(e.frontiers, c)
		}
	}
}

func (e *Engine) rescore(m *maze.Maze) {
	for _, f := range e.frontiers {
		nearby := math.Min(float64(f.NearbyUnknownCount)/10.0, 1.0)
		discovery := math.Min(float64(f.DiscoveryCount)/5.0, 1.0)
		bonus := boundaryBonus(f.World, m)
		age := ageDecay(f)
		f.Value = 0.4*nearby + 0.2*discovery + 0.3*bonus + 0.1*age
	}
}

func boundaryBonus(w r2.Point, m *maze.Maze) float64 {
	d := m.DistanceToNearestWall(w)
	var bonus float64
	switch {
	case d <= 1.0:
		bonus = boundaryBonusNear
	case d <= 2.0:
		bonus = boundaryBonusMid
	default:
		bonus = boundaryBonusFar
	}
	if !m.InExtendedRegion(w) || w.X < 0 || w.X > m.Width || w.Y < 0 || w.Y > m.Height {
		bonus /= 2
	}
	return bonus
}

func ageDecay(f *Frontier) float64 {
	return 1.0 / (1.0 + float64(f.DiscoveryCount))
}

// SelectResult is the outcome of a frontier selection, pairing the
// chosen frontier with whether it came from the accessible interior
// set or the extended fallback set.
type SelectResult struct {
	Frontier         *Frontier
	FromAccessibleSet bool
}

// Select picks the best frontier for the controller to pursue, given
// the robot's current world position. Accessible (interior) frontiers
// are preferred; the extended-region set is only consulted when no
// accessible frontier exists.
func (e *Engine) Select(robot r2.Point, isVisited func(r2.Point) bool) (SelectResult, bool) {
	accessible := e.candidateSet(robot, isVisited, true)
	if len(accessible) > 0 {
		return SelectResult{Frontier: accessible[0], FromAccessibleSet: true}, true
	}
	extended := e.candidateSet(robot, isVisited, false)
	if len(extended) > 0 {
		return SelectResult{Frontier: extended[0], FromAccessibleSet: false}, true
	}
	return SelectResult{}, false
}

const dMax = 10.0

func (e *Engine) candidateSet(robot r2.Point, isVisited func(r2.Point) bool, accessibleOnly bool) []*Frontier {
	all := e.All()
	var pool []*Frontier
	for _, f := range all {
		if accessibleOnly && !f.Accessible {
			continue
		}
		if !accessibleOnly && f.Accessible {
			continue
		}
		if isVisited != nil && isVisited(f.World) {
			continue
		}
		pool = append(pool, f)
	}
	sort.SliceStable(pool, func(i, j int) bool {
		si := selectionScore(pool[i], robot)
		sj := selectionScore(pool[j], robot)
		if si != sj {
			return si > sj
		}
		if pool[i].Cell.J != pool[j].Cell.J {
			return pool[i].Cell.J < pool[j].Cell.J
		}
		return pool[i].Cell.I < pool[j].Cell.I
	})
	return pool
}

func selectionScore(f *Frontier, robot r2.Point) float64 {
	d := f.World.Sub(robot).Norm()
	return 0.6*f.Value + 0.4*(1-math.Min(d/dMax, 1.0))
}
