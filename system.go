package main

import (
	"math"

	"github.com/madhusnk/blocksolve/bilu"
	"github.com/madhusnk/blocksolve/sparse"
)

// BuildCoupled assembles the test system: nfields coupled species on an
// n x n grid with a 5-point diffusion stencil, dense reaction coupling
// between the fields of each node, and an upwind convective drift of
// strength peclet in the x direction.  peclet must be below 1 to keep the
// rows diagonally dominant; a nonzero value makes the operator nonsymmetric.
// The scalar matrix has one nfields x nfields dense block per node pair, so
// its natural block size is nfields.  The right-hand side is all ones.
func BuildCoupled(n, nfields int, peclet float64) (*sparse.Sparse, []float64) {
	size := n * n * nfields
	A := sparse.NewSparse(size)

	couple := func(f, g int) float64 { return 0.5 / float64(1+abs(f-g)) }

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			node := y*n + x
			for f := 0; f < nfields; f++ {
				row := node*nfields + f

				// reaction coupling within the node block
				diag := 4.0 + 1.0
				for g := 0; g < nfields; g++ {
					if g == f {
						continue
					}
					c := couple(f, g)
					diag += c
					A.Set(row, node*nfields+g, c)
				}
				A.Set(row, row, diag)

				// diffusion plus drift toward neighbor nodes; missing
				// neighbors are Dirichlet boundaries
				if x > 0 {
					A.Set(row, (node-1)*nfields+f, -1-peclet)
				}
				if x < n-1 {
					A.Set(row, (node+1)*nfields+f, -1+peclet)
				}
				if y > 0 {
					A.Set(row, (node-n)*nfields+f, -1)
				}
				if y < n-1 {
					A.Set(row, (node+n)*nfields+f, -1)
				}
			}
		}
	}

	b := make([]float64, size)
	for i := range b {
		b[i] = 1
	}
	return A, b
}

// blockRCM computes a reverse Cuthill-McKee ordering over A's block
// adjacency graph and expands it to a scalar dof mapping that keeps each
// block contiguous, so the reordered matrix is still partitionable at the
// same block size.
func blockRCM(A sparse.Matrix, blockSize int) ([]int, error) {
	pat, err := bilu.NewPattern(A, blockSize)
	if err != nil {
		return nil, err
	}

	adj := sparse.NewSparse(pat.N)
	for i := 0; i < pat.N; i++ {
		for k := pat.RowStart[i]; k < pat.RowStart[i+1]; k++ {
			adj.Set(i, pat.ColIndex[k], 1)
		}
	}
	blockMap := sparse.RCM(adj)

	mapping := make([]int, pat.N*blockSize)
	for i, to := range blockMap {
		for f := 0; f < blockSize; f++ {
			mapping[i*blockSize+f] = to*blockSize + f
		}
	}
	return mapping, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func norm(v []float64) float64 {
	tot := 0.0
	for _, x := range v {
		tot += x * x
	}
	return math.Sqrt(tot)
}
