package slam

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/viam-labs/mazecore/geometry"
	"github.com/viam-labs/mazecore/pointcloud"
	"github.com/viam-labs/mazecore/rangesim"
)

const (
	keyframeMinRange = 0.010
	keyframeMaxRange = 3.990
)

// LocalCloudFromScan builds the robot-local point cloud stored on a
// keyframe, keeping only rays whose distance falls strictly between
// keyframeMinRange and keyframeMaxRange. scan's ray angles are world
// frame; pose.Theta is subtracted to express each point in the robot's
// local frame at capture time.
func LocalCloudFromScan(scan rangesim.Scan, pose geometry.Pose) *pointcloud.PointCloud {
	pc := pointcloud.New()
	for _, ray := range scan.Rays {
		if ray.Distance <= keyframeMinRange || ray.Distance >= keyframeMaxRange {
			continue
		}
		localAngle := geometry.Wrap(ray.Angle - pose.Theta)
		pc.Set(r3.Vector{
			X: ray.Distance * math.Cos(localAngle),
			Y: ray.Distance * math.Sin(localAngle),
		})
	}
	return pc
}
