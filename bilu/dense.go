package bilu

import "math"

// Small dense kernels over column-major n x n blocks.  Entry (i, j) of a
// block d lives at d[i+j*n].

// luFactor overwrites d with its LU factors using partial (row) pivoting,
// recording the row interchange chosen at each step in piv.  The unit
// diagonal of L is implicit.  It reports false when a pivot magnitude is at
// or below tol, or is NaN or Inf.
func luFactor(d []float64, n int, piv []int, tol float64) bool {
	for j := 0; j < n; j++ {
		p := j
		max := math.Abs(d[j+j*n])
		for i := j + 1; i < n; i++ {
			if a := math.Abs(d[i+j*n]); a > max {
				max, p = a, i
			}
		}
		piv[j] = p
		if p != j {
			for c := 0; c < n; c++ {
				d[j+c*n], d[p+c*n] = d[p+c*n], d[j+c*n]
			}
		}

		pivot := d[j+j*n]
		if math.IsNaN(pivot) || math.IsInf(pivot, 0) || math.Abs(pivot) <= tol {
			return false
		}
		for i := j + 1; i < n; i++ {
			mult := d[i+j*n] / pivot
			d[i+j*n] = mult
			for c := j + 1; c < n; c++ {
				d[i+c*n] -= mult * d[j+c*n]
			}
		}
	}
	return true
}

// luSolve overwrites x with the solution of the factored system, i.e.
// x <- U^-1 L^-1 P x.
func luSolve(d []float64, n int, piv []int, x []float64) {
	for j := 0; j < n; j++ {
		if p := piv[j]; p != j {
			x[j], x[p] = x[p], x[j]
		}
	}
	for j := 0; j < n; j++ {
		xj := x[j]
		for i := j + 1; i < n; i++ {
			x[i] -= d[i+j*n] * xj
		}
	}
	for j := n - 1; j >= 0; j-- {
		xj := x[j] / d[j+j*n]
		x[j] = xj
		for i := 0; i < j; i++ {
			x[i] -= d[i+j*n] * xj
		}
	}
}

// luRightSolve overwrites the m x n column-major block b with b times the
// inverse of the factored system, i.e. b <- b U^-1 L^-1 P.  Right-multiplying
// by the permutation becomes a sequence of column interchanges applied in
// reverse pivot order.
func luRightSolve(d []float64, n int, piv []int, b []float64, m int) {
	for r := 0; r < m; r++ {
		// row r of b times U^-1: forward over columns
		for j := 0; j < n; j++ {
			v := b[r+j*m]
			for t := 0; t < j; t++ {
				v -= b[r+t*m] * d[t+j*n]
			}
			b[r+j*m] = v / d[j+j*n]
		}
		// then times L^-1 (unit diagonal): backward over columns
		for j := n - 1; j >= 0; j-- {
			v := b[r+j*m]
			for t := j + 1; t < n; t++ {
				v -= b[r+t*m] * d[t+j*n]
			}
			b[r+j*m] = v
		}
	}
	for j := n - 1; j >= 0; j-- {
		if p := piv[j]; p != j {
			for r := 0; r < m; r++ {
				b[r+j*m], b[r+p*m] = b[r+p*m], b[r+j*m]
			}
		}
	}
}

// mulSub computes c -= a*b for n x n column-major blocks.
func mulSub(c, a, b []float64, n int) {
	for j := 0; j < n; j++ {
		for k := 0; k < n; k++ {
			bkj := b[k+j*n]
			if bkj == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				c[i+j*n] -= a[i+k*n] * bkj
			}
		}
	}
}

// mulVecSub computes y -= a*x for an n x n column-major block and length-n
// vectors.
func mulVecSub(y, a, x []float64, n int) {
	for j := 0; j < n; j++ {
		xj := x[j]
		if xj == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			y[i] -= a[i+j*n] * xj
		}
	}
}
