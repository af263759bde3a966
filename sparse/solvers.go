package sparse

import (
	"bytes"
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"
)

type Solver interface {
	Solve(A Matrix, b []float64) (soln []float64, err error)
	Status() string
}

// Preconditioner is a function that takes a (e.g. residual) vector r and
// applies a preconditioning operator to it, storing the result in z.
type Preconditioner func(z, r []float64)

// Identity returns the no-op preconditioner - the fallback when a stronger
// factorization is unavailable or has failed to build.
func Identity() Preconditioner {
	return func(z, r []float64) { copy(z, r) }
}

// GaussSeidel returns a preconditioner performing nsweep symmetric
// Gauss-Seidel passes (one forward plus one backward sweep each) over A
// starting from a zero guess.
func GaussSeidel(A Matrix, nsweep int) Preconditioner {
	size, _ := A.Dims()
	return func(z, r []float64) {
		for i := range z {
			z[i] = 0
		}
		for n := 0; n < nsweep; n++ {
			for i := 0; i < size; i++ {
				sweepUpdate(A, z, r, i)
			}
			for i := size - 1; i >= 0; i-- {
				sweepUpdate(A, z, r, i)
			}
		}
	}
}

func sweepUpdate(A Matrix, z, r []float64, i int) {
	tot := 0.0
	div := 0.0
	for _, nonzero := range A.SweepRow(i) {
		if nonzero.J == i {
			div = nonzero.Val
		} else {
			tot += nonzero.Val * z[nonzero.J]
		}
	}
	z[i] = (r[i] - tot) / div
}

// CG implements a preconditioned linear conjugate gradient solver (see
// http://wikipedia.org/wiki/Conjugate_gradient_method).  A must be symmetric
// positive definite.
type CG struct {
	MaxIter int
	Tol     float64
	// Preconditioner is applied once per iteration.  If nil, the scalar
	// incomplete LU of A is used.
	Preconditioner Preconditioner
	niter          int
	ndof           int
	resids         []float64
}

func (cg *CG) Status() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "CG Solver Stats:\n")
	fmt.Fprintf(&buf, "    %v dof\n", cg.ndof)
	fmt.Fprintf(&buf, "    converged in %v iterations", cg.niter)
	return buf.String()
}

// Niter returns the number of iterations performed by the most recent solve.
func (cg *CG) Niter() int { return cg.niter }

// History returns the residual norm recorded at each iteration of the most
// recent solve.
func (cg *CG) History() []float64 { return cg.resids }

func (cg *CG) Solve(A Matrix, b []float64) (x []float64, err error) {
	if cg.Preconditioner == nil {
		cg.Preconditioner = IncompleteLU(A)
	}

	size := len(b)
	cg.ndof = size
	cg.resids = cg.resids[:0]

	x = make([]float64, size)
	r := make([]float64, size)
	z := make([]float64, size)
	p := make([]float64, size)
	rnext := make([]float64, size)
	znext := make([]float64, size)

	vecSub(r, b, Mul(A, x))
	cg.Preconditioner(z, r)
	copy(p, z)

	for cg.niter = 1; cg.niter <= cg.MaxIter; cg.niter++ {
		alpha := dot(r, z) / dot(p, Mul(A, p))
		vecAdd(x, x, vecMult(p, alpha))             // xnext = x+alpha*p
		vecSub(rnext, r, vecMult(Mul(A, p), alpha)) // rnext = r-alpha*A*p
		diff := math.Sqrt(dot(rnext, rnext))
		cg.resids = append(cg.resids, diff)
		if diff < cg.Tol {
			break
		}
		cg.Preconditioner(znext, rnext)
		beta := dot(znext, rnext) / dot(z, r)
		vecAdd(p, znext, vecMult(p, beta)) // pnext = znext + beta*p
		r, rnext = rnext, r
		z, znext = znext, z
	}

	return x, nil
}

// GMRES implements a restarted generalized minimal residual solver with
// flexible right preconditioning; it handles nonsymmetric systems that CG
// cannot.
type GMRES struct {
	MaxIter int
	// Restart is the Krylov subspace dimension before a restart.  Zero means
	// the default of 30.
	Restart int
	Tol     float64
	// Preconditioner is applied to each Krylov basis vector.  If nil, no
	// preconditioning is performed.
	Preconditioner Preconditioner
	niter          int
	ndof           int
	resids         []float64
}

func (g *GMRES) Status() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "GMRES Solver Stats:\n")
	fmt.Fprintf(&buf, "    %v dof\n", g.ndof)
	fmt.Fprintf(&buf, "    converged in %v iterations", g.niter)
	return buf.String()
}

// Niter returns the number of iterations performed by the most recent solve.
func (g *GMRES) Niter() int { return g.niter }

// History returns the residual norm recorded at each iteration of the most
// recent solve.
func (g *GMRES) History() []float64 { return g.resids }

func (g *GMRES) Solve(A Matrix, b []float64) (x []float64, err error) {
	precon := g.Preconditioner
	if precon == nil {
		precon = Identity()
	}
	restart := g.Restart
	if restart <= 0 {
		restart = 30
	}
	if restart > len(b) {
		restart = len(b)
	}

	size := len(b)
	g.ndof = size
	g.niter = 0
	g.resids = g.resids[:0]

	x = make([]float64, size)

	// Krylov basis and (preconditioned) correction basis
	v := make([][]float64, restart+1)
	z := make([][]float64, restart)
	for i := range v {
		v[i] = make([]float64, size)
	}
	for i := range z {
		z[i] = make([]float64, size)
	}

	// Hessenberg columns plus the Givens rotations that keep it triangular
	h := make([][]float64, restart+1)
	for i := range h {
		h[i] = make([]float64, restart)
	}
	cs := make([]float64, restart)
	sn := make([]float64, restart)
	gamma := make([]float64, restart+1)

	r := make([]float64, size)
	for g.niter < g.MaxIter {
		vecSub(r, b, Mul(A, x))
		beta := math.Sqrt(dot(r, r))
		if beta < g.Tol {
			return x, nil
		}

		for i := range gamma {
			gamma[i] = 0
		}
		gamma[0] = beta
		for i := range r {
			v[0][i] = r[i] / beta
		}

		j := 0
		for ; j < restart && g.niter < g.MaxIter; j++ {
			g.niter++
			precon(z[j], v[j])
			w := Mul(A, z[j])

			// modified Gram-Schmidt orthogonalization
			for i := 0; i <= j; i++ {
				h[i][j] = dot(w, v[i])
				vecSub(w, w, vecMult(v[i], h[i][j]))
			}
			h[j+1][j] = math.Sqrt(dot(w, w))
			if h[j+1][j] != 0 {
				for i := range w {
					v[j+1][i] = w[i] / h[j+1][j]
				}
			}

			// previously computed rotations applied to the new column
			for i := 0; i < j; i++ {
				h[i][j], h[i+1][j] = cs[i]*h[i][j]+sn[i]*h[i+1][j],
					-sn[i]*h[i][j]+cs[i]*h[i+1][j]
			}

			// new rotation annihilating the subdiagonal entry.  A fully
			// vanished column means the subspace cannot grow; restart from
			// the current iterate instead of dividing by zero.
			denom := math.Hypot(h[j][j], h[j+1][j])
			if denom == 0 {
				break
			}
			cs[j] = h[j][j] / denom
			sn[j] = h[j+1][j] / denom
			h[j][j] = denom
			h[j+1][j] = 0
			gamma[j+1] = -sn[j] * gamma[j]
			gamma[j] = cs[j] * gamma[j]

			resid := math.Abs(gamma[j+1])
			g.resids = append(g.resids, resid)
			if resid < g.Tol {
				j++
				break
			}
		}

		// back-substitute the triangularized least-squares system and
		// accumulate the correction
		y := make([]float64, j)
		for i := j - 1; i >= 0; i-- {
			tot := gamma[i]
			for k := i + 1; k < j; k++ {
				tot -= h[i][k] * y[k]
			}
			y[i] = tot / h[i][i]
		}
		for i := 0; i < j; i++ {
			vecAdd(x, x, vecMult(z[i], y[i]))
		}

		vecSub(r, b, Mul(A, x))
		if math.Sqrt(dot(r, r)) < g.Tol {
			return x, nil
		}
	}
	return x, fmt.Errorf("sparse: GMRES stalled after %v iterations", g.niter)
}

// DenseLU solves the system directly through gonum's dense LU factorization.
// It is meant as a reference for testing the iterative solvers on small
// systems, not for production matrices.
type DenseLU struct{}

func (DenseLU) Status() string { return "" }

func (DenseLU) Solve(A Matrix, b []float64) ([]float64, error) {
	var u mat64.Vector
	if err := u.SolveVec(A, mat64.NewVector(len(b), b)); err != nil {
		return nil, err
	}
	return u.RawVector().Data, nil
}
