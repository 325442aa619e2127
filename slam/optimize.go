package slam

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/viam-labs/mazecore/geometry"
	"github.com/viam-labs/mazecore/logging"
)

const maxGaussNewtonIterations = 20

var optimizerLog = logging.NewLogger("slam.optimizer")

// Optimize runs Gauss-Newton over the full pose graph, mutating node
// pose estimates in place. Node 0 is anchored by adding the identity
// to the (0,0) block of H. A singular H is solved through its
// pseudo-inverse; an iteration whose solve fails is logged and skipped
// rather than treated as fatal.
func Optimize(g *Graph) {
	n := g.NodeCount()
	if n == 0 {
		return
	}
	x := poseVector(g)

	for iter := 0; iter < maxGaussNewtonIterations; iter++ {
		h := mat.NewDense(3*n, 3*n, nil)
		b := mat.NewVecDense(3*n, nil)

		for _, e := range g.edges {
			accumulate(h, b, x, e)
		}
		for k := 0; k < 3; k++ {
			h.Set(k, k, h.At(k, k)+1)
		}

		delta, ok := solve(h, b)
		if !ok {
			optimizerLog.Warnw("singular information matrix, skipping iteration", "iteration", iter)
			continue
		}
		for i := 0; i < 3*n; i++ {
			x[i] += delta.AtVec(i)
		}
		x[2] = geometry.Wrap(x[2])
	}

	applyPoseVector(g, x)
}

func poseVector(g *Graph) []float64 {
	n := g.NodeCount()
	x := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		p := g.nodes[i]
		x[3*i], x[3*i+1], x[3*i+2] = p.X, p.Y, p.Theta
	}
	return x
}

func applyPoseVector(g *Graph, x []float64) {
	for i := range g.nodes {
		g.nodes[i] = geometry.Pose{X: x[3*i], Y: x[3*i+1], Theta: geometry.Wrap(x[3*i+2])}
	}
}

// accumulate adds edge e's contribution to the linearized system H,b
// evaluated at the current estimate x.
func accumulate(h *mat.Dense, b *mat.VecDense, x []float64, e Edge) {
	i, j := e.From, e.To
	xi, yi, thetai := x[3*i], x[3*i+1], x[3*i+2]
	xj, yj, thetaj := x[3*j], x[3*j+1], x[3*j+2]

	sin, cos := math.Sincos(thetai)
	dx, dy := xj-xi, yj-yi

	// e_t = R(theta_i)^T (t_j - t_i) - t_z ; e_theta = wrap(theta_j - theta_i - theta_z)
	et0 := cos*dx + sin*dy - e.Measurement.DX
	et1 := -sin*dx + cos*dy - e.Measurement.DY
	eTheta := geometry.Wrap(thetaj - thetai - e.Measurement.DTheta)
	err := []float64{et0, et1, eTheta}

	// de/dxi (3x3): derivative of e_t w.r.t (xi, yi, thetai), and e_theta.
	dRtDtheta0 := -sin*dx + cos*dy
	dRtDtheta1 := -cos*dx - sin*dy

	ji := [3][3]float64{
		{-cos, -sin, dRtDtheta0},
		{sin, -cos, dRtDtheta1},
		{0, 0, -1},
	}
	jj := [3][3]float64{
		{cos, sin, 0},
		{-sin, cos, 0},
		{0, 0, 1},
	}

	omega := e.Information
	// H block additions: J^T Omega J for (i,i), (i,j), (j,i), (j,j); b: J^T Omega e.
	addBlock(h, b, i, i, ji, ji, omega, err)
	addBlock(h, b, i, j, ji, jj, omega, nil)
	addBlock(h, b, j, i, jj, ji, omega, nil)
	addBlock(h, b, j, j, jj, jj, omega, err)
}

// addBlock adds (Ja^T Omega Jb) to the (blockA, blockB) block of H, and
// if errVec is non-nil, adds (Ja^T Omega e) to b's blockA rows. Ja/Jb
// are 3x3 Jacobians of the same 3-vector error w.r.t. node a and b.
func addBlock(h *mat.Dense, b *mat.VecDense, blockA, blockB int, ja, jb [3][3]float64, omega [9]float64, errVec []float64) {
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			sum := 0.0
			for k := 0; k < 3; k++ {
				for l := 0; l < 3; l++ {
					sum += ja[k][r] * omega[k*3+l] * jb[l][c]
				}
			}
			h.Set(blockA*3+r, blockB*3+c, h.At(blockA*3+r, blockB*3+c)+sum)
		}
	}
	if errVec == nil {
		return
	}
	for r := 0; r < 3; r++ {
		sum := 0.0
		for k := 0; k < 3; k++ {
			for l := 0; l < 3; l++ {
				sum += ja[k][r] * omega[k*3+l] * errVec[l]
			}
		}
		b.SetVec(blockA*3+r, b.AtVec(blockA*3+r)+sum)
	}
}

// solve computes Delta = -H^-1 b, falling back to the Moore-Penrose
// pseudo-inverse when H is singular.
func solve(h *mat.Dense, b *mat.VecDense) (*mat.VecDense, bool) {
	n, _ := h.Dims()
	var lu mat.LU
	lu.Factorize(h)
	if lu.Cond() > 1e14 || math.IsInf(lu.Cond(), 1) {
		var svd mat.SVD
		if !svd.Factorize(h, mat.SVDFull) {
			return nil, false
		}
		var hInv mat.Dense
		var u, v mat.Dense
		svd.UTo(&u)
		svd.VTo(&v)
		values := svd.Values(nil)
		sInv := mat.NewDense(n, n, nil)
		for i, s := range values {
			if s > 1e-9 {
				sInv.Set(i, i, 1/s)
			}
		}
		var tmp mat.Dense
		tmp.Mul(&v, sInv)
		hInv.Mul(&tmp, u.T())

		delta := mat.NewVecDense(n, nil)
		delta.MulVec(&hInv, b)
		delta.ScaleVec(-1, delta)
		return delta, true
	}

	delta := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(delta, false, b); err != nil {
		return nil, false
	}
	delta.ScaleVec(-1, delta)
	return delta, true
}
