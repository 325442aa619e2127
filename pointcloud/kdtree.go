package pointcloud

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

// KDTree is a static 2D (Z always 0) k-d tree built once per cloud,
// used for nearest-neighbor association during ICP.
type KDTree struct {
	root *kdNode
	size int
}

type kdNode struct {
	point       r3.Vector
	left, right *kdNode
	axis        int
}

// NewKDTree builds a balanced k-d tree over pc's points. The cloud must
// not be mutated afterward; the tree holds no back-reference to it.
func NewKDTree(pc *PointCloud) *KDTree {
	pts := append([]r3.Vector(nil), pc.points...)
	root, size := buildKD(pts, 0)
	return &KDTree{root: root, size: size}
}

func buildKD(pts []r3.Vector, depth int) (*kdNode, int) {
	if len(pts) == 0 {
		return nil, 0
	}
	axis := depth % 2
	sort.Slice(pts, func(i, j int) bool {
		if axis == 0 {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	mid := len(pts) / 2
	n := &kdNode{point: pts[mid], axis: axis}
	left, leftN := buildKD(pts[:mid], depth+1)
	right, rightN := buildKD(pts[mid+1:], depth+1)
	n.left, n.right = left, right
	return n, 1 + leftN + rightN
}

// Size returns the number of points held in the tree.
func (t *KDTree) Size() int { return t.size }

// NearestNeighbor returns the closest point to query and its Euclidean
// distance. ok is false for an empty tree.
func (t *KDTree) NearestNeighbor(query r3.Vector) (r3.Vector, float64, bool) {
	if t.root == nil {
		return r3.Vector{}, 0, false
	}
	best := t.root
	bestDist := sqDist(query, t.root.point)
	searchKD(t.root, query, &best, &bestDist)
	return best.point, math.Sqrt(bestDist), true
}

func searchKD(n *kdNode, query r3.Vector, best **kdNode, bestDist *float64) {
	if n == nil {
		return
	}
	d := sqDist(query, n.point)
	if d < *bestDist {
		*bestDist = d
		*best = n
	}

	var diff, queryAxis, nodeAxis float64
	if n.axis == 0 {
		queryAxis, nodeAxis = query.X, n.point.X
	} else {
		queryAxis, nodeAxis = query.Y, n.point.Y
	}
	diff = queryAxis - nodeAxis

	near, far := n.left, n.right
	if diff > 0 {
		near, far = n.right, n.left
	}
	searchKD(near, query, best, bestDist)
	if diff*diff < *bestDist {
		searchKD(far, query, best, bestDist)
	}
}

func sqDist(a, b r3.Vector) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

