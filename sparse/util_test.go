package sparse

import (
	"math"
	"math/rand"
	"testing"

	"github.com/gonum/matrix/mat64"
)

func TestRCM_Permutation(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	size := 35
	A := randSparse(rng, size, 6, 8)

	mapping := RCM(A)
	if len(mapping) != size {
		t.Fatalf("mapping length %v, want %v", len(mapping), size)
	}
	seen := make([]bool, size)
	for _, to := range mapping {
		if to < 0 || to >= size || seen[to] {
			t.Fatalf("mapping is not a permutation: %v", mapping)
		}
		seen[to] = true
	}
}

func TestRCM_SolveAgrees(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	size := 30
	tol := 1e-6

	A := randSparse(rng, size, 5, 0)
	b := make([]float64, size)
	for i := range b {
		b[i] = float64(i + 1)
	}

	var want mat64.Vector
	want.SolveVec(mat64.DenseCopyOf(A), mat64.NewVector(size, b))

	mapping := RCM(A)
	permuted := NewSparse(size)
	Permute(permuted, A, mapping)
	pb := make([]float64, size)
	for i, to := range mapping {
		pb[to] = b[i]
	}

	cg := &CG{MaxIter: 1000, Tol: 1e-10}
	px, err := cg.Solve(permuted, pb)
	if err != nil {
		t.Fatal(err)
	}

	// re-sequence solution back to the original ordering
	x := make([]float64, size)
	for i, to := range mapping {
		x[i] = px[to]
	}
	for i := range x {
		if math.Abs(x[i]-want.At(i, 0)) > tol {
			t.Fatalf("solutions don't match:\ngot %v\nwant %v", x, want.RawVector().Data)
		}
	}
}

func TestRCM_Bandwidth(t *testing.T) {
	// a path graph assembled in scrambled order should come back with small
	// bandwidth after reordering
	size := 40
	perm := rand.New(rand.NewSource(4)).Perm(size)
	A := NewSparse(size)
	for i := 0; i < size; i++ {
		A.Set(perm[i], perm[i], 4)
		if i > 0 {
			A.Set(perm[i], perm[i-1], -1)
			A.Set(perm[i-1], perm[i], -1)
		}
	}

	mapping := RCM(A)
	permuted := NewSparse(size)
	Permute(permuted, A, mapping)

	bw := 0
	for i := 0; i < size; i++ {
		for _, nonzero := range permuted.SweepRow(i) {
			if d := abs(i - nonzero.J); d > bw {
				bw = d
			}
		}
	}
	// a path relabels to bandwidth 1; allow slack for tie-breaking choices
	if bw > 3 {
		t.Errorf("bandwidth after RCM is %v, want <= 3", bw)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
