// Package bilu implements a block incomplete-LU preconditioner with zero
// fill-in (block ILU(0)).  A scalar sparse matrix is partitioned into dense
// blocks of a fixed size, factored in place over its block sparsity pattern,
// and then applied as an approximate inverse operator inside an iterative
// solver.
package bilu

import "github.com/madhusnk/blocksolve/sparse"

// ILU is a block ILU(0) preconditioner instance.  It owns its pattern and
// block store exclusively: Factorize mutates the store destructively (the
// pre-factorization matrix values cannot be recovered from it), and a
// successfully factored instance is read-only thereafter, so Apply may be
// called concurrently from multiple goroutines with independent vectors.
//
// The lifecycle is New (extract pattern, gather values), Factorize exactly
// once, then any number of Apply calls.  To factor updated matrix values with
// the same structure, Refresh gathers a fresh copy of the store.
type ILU struct {
	pat *Pattern
	// ab holds every pattern block contiguously, column-major.  After
	// Factorize, block (i,k) with k<i holds the lower multiplier L_ik,
	// block (i,j) with j>i the updated upper values U_ij, and block (i,i)
	// the Schur-updated (but unfactored) diagonal values.
	ab []float64
	// db and ipiv hold the pivoted dense LU factors of each Schur-updated
	// diagonal block, BlockSize^2 floats and BlockSize pivots per block row.
	db   []float64
	ipiv []int

	pivTol   float64
	factored bool
	// set when a factorization halted partway; the store is then neither
	// gathered values nor a complete factorization
	failed bool
}

// Option configures an ILU instance at construction.
type Option func(*ILU)

// PivotTolerance sets the magnitude at or below which a diagonal pivot is
// treated as numerically unreliable during Factorize.  The default is zero:
// only an exactly singular pivot fails.
func PivotTolerance(tol float64) Option {
	return func(m *ILU) { m.pivTol = tol }
}

// New extracts the block pattern of A at the given block size and gathers the
// scalar entries into the instance's block store.  A is read-only and is not
// retained.  The returned instance still needs Factorize before Apply.
func New(A sparse.Matrix, blockSize int, opts ...Option) (*ILU, error) {
	pat, err := NewPattern(A, blockSize)
	if err != nil {
		return nil, err
	}

	bb := blockSize * blockSize
	m := &ILU{
		pat:  pat,
		ab:   make([]float64, pat.NumBlocks()*bb),
		db:   make([]float64, pat.N*bb),
		ipiv: make([]int, pat.N*blockSize),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := pat.gather(A, m.ab); err != nil {
		return nil, err
	}
	return m, nil
}

// Pattern returns the extracted block sparsity structure.
func (m *ILU) Pattern() *Pattern { return m.pat }

// BlockData returns the raw block store.  Before Factorize it holds the
// gathered matrix values; afterwards the factorization described on ILU.
// Mutating it invalidates the instance.
func (m *ILU) BlockData() []float64 { return m.ab }

// Refresh re-gathers block values from A, which must have the same dimension
// and a structure contained in the existing pattern, and clears the factored
// state so Factorize can run again.  A failed gather destroys the block store,
// so the instance then rejects Apply and Factorize until a Refresh succeeds.
func (m *ILU) Refresh(A sparse.Matrix) error {
	// gather zeroes the store before writing, so any prior factorization is
	// gone even when it errors partway
	m.factored = false
	if err := m.pat.gather(A, m.ab); err != nil {
		m.failed = true
		return err
	}
	m.failed = false
	return nil
}

// Factorize computes the block ILU(0) factorization in place.  Block rows are
// eliminated in increasing order; for each previously completed pivot row k
// appearing in row i, the multiplier L_ik overwrites slot (i,k) and the Schur
// update is applied to every block (i,j), j>k, whose counterpart (k,j) is
// also in the pattern.  Would-be fill outside the pattern is discarded.  Each
// Schur-updated diagonal block is then factored densely with partial
// pivoting.
//
// A diagonal block that fails to factor yields a NumericalError carrying its
// block row; the instance is left unusable until Refresh.  Calling Factorize
// on an already-factored instance is a StructuralError.
func (m *ILU) Factorize() error {
	if m.factored {
		return structErrf("store already factored; Refresh with a fresh gather to re-factorize")
	}
	if m.failed {
		return structErrf("store holds a halted factorization; Refresh with a fresh gather first")
	}

	p := m.pat
	nb := p.BlockSize
	bb := nb * nb
	for i := 0; i < p.N; i++ {
		start, end := p.RowStart[i], p.RowStart[i+1]
		for kk := start; kk < end; kk++ {
			k := p.ColIndex[kk]
			if k >= i {
				break
			}

			// L_ik = A_ik * inv(A_kk), using pivot row k's stored factors
			lik := m.ab[kk*bb : (kk+1)*bb]
			luRightSolve(m.db[k*bb:(k+1)*bb], nb, m.ipiv[k*nb:(k+1)*nb], lik, nb)

			// Schur update of the remainder of row i against pivot row k
			for jj := kk + 1; jj < end; jj++ {
				kj := p.find(k, p.ColIndex[jj])
				if kj < 0 {
					continue
				}
				mulSub(m.ab[jj*bb:(jj+1)*bb], lik, m.ab[kj*bb:(kj+1)*bb], nb)
			}
		}

		dk := p.diag[i]
		copy(m.db[i*bb:(i+1)*bb], m.ab[dk*bb:(dk+1)*bb])
		if !luFactor(m.db[i*bb:(i+1)*bb], nb, m.ipiv[i*nb:(i+1)*nb], m.pivTol) {
			m.failed = true
			return &NumericalError{BlockRow: i}
		}
	}
	m.factored = true
	return nil
}

// Apply computes x ~= inv(A)*b by block forward substitution over the lower
// multipliers followed by block backward substitution over the upper values
// and the factored diagonals.  It never mutates the block store, is
// deterministic, and allocates its own scratch, so concurrent calls with
// independent vectors are safe.  x and b must have length N*BlockSize; x may
// alias b.
func (m *ILU) Apply(x, b []float64) error {
	if !m.factored {
		return structErrf("apply before a successful factorization")
	}
	p := m.pat
	nb := p.BlockSize
	if len(b) != p.N*nb || len(x) != len(b) {
		return structErrf("vector length %v (out %v), want %v", len(b), len(x), p.N*nb)
	}
	bb := nb * nb

	// forward sweep: y_i = b_i - sum_{k<i} L_ik*y_k, accumulated in x
	for i := 0; i < p.N; i++ {
		yi := x[i*nb : (i+1)*nb]
		copy(yi, b[i*nb:(i+1)*nb])
		for kk := p.RowStart[i]; kk < p.RowStart[i+1]; kk++ {
			k := p.ColIndex[kk]
			if k >= i {
				break
			}
			mulVecSub(yi, m.ab[kk*bb:(kk+1)*bb], x[k*nb:(k+1)*nb], nb)
		}
	}

	// backward sweep: x_i = solve_ii(y_i - sum_{j>i} U_ij*x_j)
	work := make([]float64, nb)
	for i := p.N - 1; i >= 0; i-- {
		copy(work, x[i*nb:(i+1)*nb])
		for jj := p.diag[i] + 1; jj < p.RowStart[i+1]; jj++ {
			j := p.ColIndex[jj]
			mulVecSub(work, m.ab[jj*bb:(jj+1)*bb], x[j*nb:(j+1)*nb], nb)
		}
		luSolve(m.db[i*bb:(i+1)*bb], nb, m.ipiv[i*nb:(i+1)*nb], work)
		copy(x[i*nb:(i+1)*nb], work)
	}
	return nil
}

// Preconditioner adapts the factored operator to the solver package's
// preconditioner contract.  The instance must have been factored; an apply
// failure inside a solver iteration panics, matching the other
// preconditioner constructors in the sparse package.
func (m *ILU) Preconditioner() sparse.Preconditioner {
	return func(z, r []float64) {
		if err := m.Apply(z, r); err != nil {
			panic(err)
		}
	}
}
