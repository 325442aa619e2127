// Package pointcloud stores the local point clouds attached to SLAM
// keyframes and provides the KD-tree and ICP machinery (C7) used for
// loop-closure detection. Points are kept as r3.Vector with Z always
// zero, matching how the wider ecosystem represents even planar data.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// PointCloud is a dense, ordered collection of points in a local
// Cartesian frame.
type PointCloud struct {
	points []r3.Vector
}

// New returns an empty point cloud.
func New() *PointCloud {
	return &PointCloud{}
}

// Set appends p to the cloud.
func (pc *PointCloud) Set(p r3.Vector) {
	pc.points = append(pc.points, p)
}

// Points returns the cloud's points in insertion order.
func (pc *PointCloud) Points() []r3.Vector {
	return pc.points
}

// Size returns the number of points in the cloud.
func (pc *PointCloud) Size() int {
	return len(pc.points)
}

// Transform returns a new cloud with every point transformed by the
// SE(2) rigid transform (rotation theta about Z, then translation).
func (pc *PointCloud) Transform(theta float64, translation r3.Vector) *PointCloud {
	out := New()
	cos, sin := math.Cos(theta), math.Sin(theta)
	for _, p := range pc.points {
		out.Set(r3.Vector{
			X: cos*p.X - sin*p.Y + translation.X,
			Y: sin*p.X + cos*p.Y + translation.Y,
			Z: 0,
		})
	}
	return out
}
