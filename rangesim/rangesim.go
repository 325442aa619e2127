// Package rangesim simulates the robot's 360-degree range sensor
// against a maze (C3). Every ray reports its distance clipped to max
// range, and is flagged as a "frame hit" when it escapes through a
// boundary gap so that its closest obstruction is the extended region's
// outer frame; a frame hit beyond max range is also a max-range miss.
// Frame hits must never be treated as obstacles by the mapper.
package rangesim

import (
	"math"

	"github.com/viam-labs/mazecore/geometry"
	"github.com/viam-labs/mazecore/maze"
)

// Config controls scan generation.
type Config struct {
	MaxRange float64
	NumRays  int
}

// DefaultConfig matches the spec's defaults: 4m range, 90 rays.
func DefaultConfig() Config {
	return Config{MaxRange: 4.0, NumRays: 90}
}

// Ray is a single simulated reading.
type Ray struct {
	Angle    float64 // absolute angle in the world frame
	Distance float64 // meters, clipped to MaxRange
	// FrameHit is true when the closest obstruction along this ray is
	// the extended region's outer frame rather than an interior wall;
	// such rays must contribute only free-space evidence to the mapper.
	FrameHit bool
}

// Scan is the full set of readings produced by one sensor sweep.
type Scan struct {
	Rays []Ray
}

// BoundaryOnlyHits returns the count of rays whose closest obstruction
// was the outer frame rather than an interior wall, whether or not the
// frame lies within MaxRange. The controller's scan inefficiency does
// not use this count; it counts max-range readings only (see Misses).
func (s Scan) BoundaryOnlyHits() int {
	n := 0
	for _, r := range s.Rays {
		if r.FrameHit {
			n++
		}
	}
	return n
}

// Misses returns the count of rays that returned exactly MaxRange.
func (s Scan) Misses(maxRange float64) int {
	n := 0
	for _, r := range s.Rays {
		if r.Distance >= maxRange-1e-9 {
			n++
		}
	}
	return n
}

// Simulate casts cfg.NumRays equi-spaced rays from pose p against m,
// returning the resulting scan. The function is total: every ray
// resolves to a finite distance, whether or not anything was hit.
func Simulate(m *maze.Maze, p geometry.Pose, cfg Config) Scan {
	scan := Scan{Rays: make([]Ray, cfg.NumRays)}
	frame := m.OuterFrame()
	origin := p.Point()

	for i := 0; i < cfg.NumRays; i++ {
		theta := geometry.Wrap(p.Theta + 2*math.Pi*float64(i)/float64(cfg.NumRays))

		interiorDist := math.Inf(1)
		for _, s := range m.Segments {
			hit := geometry.RaySegmentIntersect(origin, theta, s)
			if hit.Hit && hit.Distance > 1e-9 && hit.Distance < interiorDist {
				interiorDist = hit.Distance
			}
		}

		frameDist := math.Inf(1)
		for _, s := range frame {
			hit := geometry.RaySegmentIntersect(origin, theta, s)
			if hit.Hit && hit.Distance > 1e-9 && hit.Distance < frameDist {
				frameDist = hit.Distance
			}
		}

		// The frame hit only counts when no interior segment is at
		// least as close; ties go to the interior hit.
		bestDist := interiorDist
		frameHit := false
		if frameDist < interiorDist {
			bestDist = frameDist
			frameHit = true
		}

		if math.IsInf(bestDist, 1) || bestDist > cfg.MaxRange {
			scan.Rays[i] = Ray{Angle: theta, Distance: cfg.MaxRange, FrameHit: frameHit}
			continue
		}
		scan.Rays[i] = Ray{Angle: theta, Distance: bestDist, FrameHit: frameHit}
	}
	return scan
}
