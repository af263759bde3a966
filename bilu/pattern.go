package bilu

import (
	"sort"

	"github.com/madhusnk/blocksolve/sparse"
)

// Pattern is the block-compressed-row sparsity structure derived from a
// scalar matrix at a fixed block size.  Block (i, j) is part of the pattern
// iff the scalar matrix stores at least one entry inside that block's
// footprint; explicitly stored zeros count as present.
type Pattern struct {
	// N is the number of block rows (= block columns).
	N int
	// BlockSize is the number of scalar rows/columns per block.
	BlockSize int
	// RowStart[i]:RowStart[i+1] bounds row i's slice of ColIndex.
	// RowStart[N] is the total nonzero-block count.
	RowStart []int
	// ColIndex holds the block-column index of every nonzero block, sorted
	// ascending within each row slice.
	ColIndex []int

	// diag[i] is the linear block index of diagonal block (i, i).
	diag []int
}

// NewPattern scans A and derives its block sparsity structure.  It returns a
// StructuralError if A is not square, the block size is less than one, the
// dimension is not a multiple of the block size, or any block row lacks its
// diagonal block.  A is read-only.
func NewPattern(A sparse.Matrix, blockSize int) (*Pattern, error) {
	rows, cols := A.Dims()
	if rows != cols {
		return nil, structErrf("matrix is %vx%v, want square", rows, cols)
	}
	if blockSize < 1 {
		return nil, structErrf("block size %v, want >= 1", blockSize)
	}
	if rows%blockSize != 0 {
		return nil, structErrf("matrix dimension %v is not a multiple of block size %v", rows, blockSize)
	}

	n := rows / blockSize
	p := &Pattern{
		N:         n,
		BlockSize: blockSize,
		RowStart:  make([]int, n+1),
		diag:      make([]int, n),
	}

	mark := make([]bool, n)
	for i := 0; i < n; i++ {
		var blockCols []int
		for bi := 0; bi < blockSize; bi++ {
			for _, nonzero := range A.SweepRow(i*blockSize + bi) {
				j := nonzero.J / blockSize
				if !mark[j] {
					mark[j] = true
					blockCols = append(blockCols, j)
				}
			}
		}
		sort.Ints(blockCols)

		p.diag[i] = -1
		for _, j := range blockCols {
			if j == i {
				p.diag[i] = len(p.ColIndex)
			}
			p.ColIndex = append(p.ColIndex, j)
			mark[j] = false
		}
		p.RowStart[i+1] = len(p.ColIndex)

		if p.diag[i] < 0 {
			return nil, structErrf("block row %v has no diagonal block", i)
		}
	}
	return p, nil
}

// NumBlocks returns the total number of nonzero blocks.
func (p *Pattern) NumBlocks() int { return p.RowStart[p.N] }

// find returns the linear index of block (i, j), or -1 if it is not part of
// the pattern.  Row slices are sorted, so a binary search suffices.
func (p *Pattern) find(i, j int) int {
	lo, hi := p.RowStart[i], p.RowStart[i+1]
	k := lo + sort.SearchInts(p.ColIndex[lo:hi], j)
	if k < hi && p.ColIndex[k] == j {
		return k
	}
	return -1
}

// gather densely materializes every pattern block from A's scalar entries
// into ab (column-major, BlockSize^2 floats per block).  Footprint positions
// with no stored entry are zero.  An entry of A outside the pattern is a
// StructuralError; that cannot happen when ab was sized from a pattern
// extracted from the same A.
func (p *Pattern) gather(A sparse.Matrix, ab []float64) error {
	rows, cols := A.Dims()
	if rows != cols || rows != p.N*p.BlockSize {
		return structErrf("matrix is %vx%v, want %vx%v", rows, cols, p.N*p.BlockSize, p.N*p.BlockSize)
	}

	nb := p.BlockSize
	bb := nb * nb
	for i := range ab {
		ab[i] = 0
	}
	for i := 0; i < p.N; i++ {
		for bi := 0; bi < nb; bi++ {
			for _, nonzero := range A.SweepRow(i*nb + bi) {
				j := nonzero.J / nb
				k := p.find(i, j)
				if k < 0 {
					return structErrf("entry (%v,%v) falls outside the block pattern", nonzero.I, nonzero.J)
				}
				bj := nonzero.J - j*nb
				ab[k*bb+bj*nb+bi] = nonzero.Val
			}
		}
	}
	return nil
}
