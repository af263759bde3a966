package sparse

import "fmt"

// LU holds an LU factorization of a matrix A used for solving A*x=b.  L
// carries unit-diagonal lower multipliers and U the upper factor.  If either
// is a RestrictByPattern the factorization becomes incomplete: any fill-in
// outside the pattern is silently discarded.
type LU struct {
	L, U Matrix
}

// IncompleteLU computes the zero fill-in incomplete LU factorization of A and
// returns a preconditioner that approximates the solve of A*z=r with two
// triangular sweeps over the factors.
func IncompleteLU(A Matrix) Preconditioner {
	size, _ := A.Dims()
	lu := &LU{
		L: RestrictByPattern{Matrix: NewSparse(size), Pattern: A},
		U: RestrictByPattern{Matrix: NewSparse(size), Pattern: A},
	}
	lu.Factorize(A)
	return func(z, r []float64) {
		if _, err := lu.Solve(r, z); err != nil {
			panic(err)
		}
	}
}

// Factorize computes the factors of A using unpivoted row elimination in
// increasing row order.  A itself is left untouched.
func (lu *LU) Factorize(A Matrix) *LU {
	size, _ := A.Dims()
	if lu.L == nil {
		lu.L = NewSparse(size)
	}
	if lu.U == nil {
		lu.U = NewSparse(size)
	}
	Copy(lu.U, A)

	U := lu.U
	for i := 0; i < size; i++ {
		lu.L.Set(i, i, 1)
		for k := 0; k < i; k++ {
			aik := U.At(i, k)
			if aik == 0 {
				continue
			}
			mult := aik / U.At(k, k)
			lu.L.Set(i, k, mult)
			for _, nonzero := range U.SweepRow(k) {
				if nonzero.J > k {
					U.Set(i, nonzero.J, U.At(i, nonzero.J)-mult*nonzero.Val)
				}
			}
		}
	}
	return lu
}

// Solve performs the forward and backward substitution sweeps over the
// factors, storing the solution of A*x=b into result (allocated when nil).
// Entries of U below the diagonal (stale multiplier slots) are ignored.
func (lu *LU) Solve(b, result []float64) ([]float64, error) {
	if result == nil {
		result = make([]float64, len(b))
	}

	// Solve L*y = b via forward substitution; L has a unit diagonal.
	y := make([]float64, len(b))
	for i := 0; i < len(b); i++ {
		tot := 0.0
		for _, nonzero := range lu.L.SweepRow(i) {
			if nonzero.J < i {
				tot += y[nonzero.J] * nonzero.Val
			}
		}
		y[i] = b[i] - tot
	}

	// Solve U*x = y via backward substitution
	for i := len(b) - 1; i >= 0; i-- {
		tot := 0.0
		for _, nonzero := range lu.U.SweepRow(i) {
			if nonzero.J > i {
				tot += result[nonzero.J] * nonzero.Val
			}
		}
		div := lu.U.At(i, i)
		if div == 0 {
			return nil, fmt.Errorf("sparse: zero pivot at row %v", i)
		}
		result[i] = (y[i] - tot) / div
	}
	return result, nil
}
