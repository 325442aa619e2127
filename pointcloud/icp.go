package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

const (
	icpMaxIterations  = 20
	icpMinPoints      = 5
	icpConvergeDelta  = 1e-3
)

// ICPResult carries the estimated rigid transform that best aligns
// source onto target, along with the mean-squared residual used as the
// loop-closure acceptance gate.
type ICPResult struct {
	Theta      float64
	Translation r3.Vector
	Residual   float64
	Iterations int
	Converged  bool
}

// RegisterICP estimates the SE(2) transform that aligns source onto
// target, seeded from guess, via point-to-point ICP against target's
// k-d tree. Clouds smaller than icpMinPoints return the identity
// transform with an infinite residual rather than attempting a fit.
func RegisterICP(source *PointCloud, targetTree *KDTree, guess ICPResult) ICPResult {
	if source.Size() < icpMinPoints || targetTree.Size() < icpMinPoints {
		return ICPResult{Residual: math.Inf(1)}
	}

	theta, translation := guess.Theta, guess.Translation
	prevError := math.Inf(1)

	var result ICPResult
	for iter := 0; iter < icpMaxIterations; iter++ {
		transformed := source.Transform(theta, translation)
		srcMatched := make([]r3.Vector, 0, transformed.Size())
		dstMatched := make([]r3.Vector, 0, transformed.Size())
		sumSq := 0.0

		for _, p := range transformed.Points() {
			nn, dist, ok := targetTree.NearestNeighbor(p)
			if !ok {
				continue
			}
			srcMatched = append(srcMatched, p)
			dstMatched = append(dstMatched, nn)
			sumSq += dist * dist
		}
		if len(srcMatched) == 0 {
			return ICPResult{Residual: math.Inf(1)}
		}
		meanErr := sumSq / float64(len(srcMatched))

		dTheta, dTranslation := estimateRigid(srcMatched, dstMatched)
		// estimateRigid's transform maps the already-cumulative-transformed
		// cloud onto target, so composing it onto the running (theta,
		// translation) is homogeneous-transform composition, not a bare
		// vector add: the existing translation must be rotated by dTheta
		// before dTranslation is applied.
		dCos, dSin := math.Cos(dTheta), math.Sin(dTheta)
		rotatedTranslation := r3.Vector{
			X: dCos*translation.X - dSin*translation.Y,
			Y: dSin*translation.X + dCos*translation.Y,
		}
		theta += dTheta
		translation = rotatedTranslation.Add(dTranslation)

		result = ICPResult{Theta: theta, Translation: translation, Residual: meanErr, Iterations: iter + 1}
		if math.Abs(prevError-meanErr) < icpConvergeDelta {
			result.Converged = true
			break
		}
		prevError = meanErr
	}
	return result
}

// estimateRigid solves the point-to-point least-squares rigid alignment
// between matched correspondences via SVD (Kabsch/Umeyama), returning
// the small incremental rotation and translation to apply this
// iteration.
func estimateRigid(src, dst []r3.Vector) (float64, r3.Vector) {
	n := len(src)
	var srcCentroid, dstCentroid r3.Vector
	for i := 0; i < n; i++ {
		srcCentroid = srcCentroid.Add(src[i])
		dstCentroid = dstCentroid.Add(dst[i])
	}
	srcCentroid = srcCentroid.Mul(1 / float64(n))
	dstCentroid = dstCentroid.Mul(1 / float64(n))

	h := mat.NewDense(2, 2, nil)
	for i := 0; i < n; i++ {
		sx, sy := src[i].X-srcCentroid.X, src[i].Y-srcCentroid.Y
		dx, dy := dst[i].X-dstCentroid.X, dst[i].Y-dstCentroid.Y
		h.Set(0, 0, h.At(0, 0)+sx*dx)
		h.Set(0, 1, h.At(0, 1)+sx*dy)
		h.Set(1, 0, h.At(1, 0)+sy*dx)
		h.Set(1, 1, h.At(1, 1)+sy*dy)
	}

	var svd mat.SVD
	ok := svd.Factorize(h, mat.SVDFull)
	if !ok {
		return 0, r3.Vector{}
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var r mat.Dense
	r.Mul(&v, u.T())
	if det2(&r) < 0 {
		v.Set(0, 1, -v.At(0, 1))
		v.Set(1, 1, -v.At(1, 1))
		r.Mul(&v, u.T())
	}

	theta := math.Atan2(r.At(1, 0), r.At(0, 0))
	rotatedCentroid := r3.Vector{
		X: r.At(0, 0)*srcCentroid.X + r.At(0, 1)*srcCentroid.Y,
		Y: r.At(1, 0)*srcCentroid.X + r.At(1, 1)*srcCentroid.Y,
	}
	translation := dstCentroid.Sub(rotatedCentroid)
	return theta, translation
}

func det2(m *mat.Dense) float64 {
	return m.At(0, 0)*m.At(1, 1) - m.At(0, 1)*m.At(1, 0)
}
