package sparse

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/gonum/matrix/mat64"
)

func TestLU_Factorize(t *testing.T) {
	size := 3
	data := []float64{
		4, 12, -16,
		12, 37, -43,
		-16, -43, 98,
	}
	wantLdata := []float64{
		1, 0, 0,
		3, 1, 0,
		-4, 5, 1,
	}
	wantUdata := []float64{
		4, 12, -16,
		0, 1, 5,
		0, 0, 9,
	}
	tol := 1e-6

	A := makeSparse(size, data)
	wantL := makeSparse(size, wantLdata)
	wantU := makeSparse(size, wantUdata)

	var lu LU
	lu.Factorize(A)
	for i := 0; i < size; i++ {
		for j := 0; j <= i; j++ {
			if math.Abs(lu.L.At(i, j)-wantL.At(i, j)) > tol {
				t.Errorf("factorization L's don't match:\ngot\n% .3v\nwant\n% .3v", mat64.Formatted(lu.L), mat64.Formatted(wantL))
			}
		}
		for j := i; j < size; j++ {
			if math.Abs(lu.U.At(i, j)-wantU.At(i, j)) > tol {
				t.Errorf("factorization U's don't match:\ngot\n% .3v\nwant\n% .3v", mat64.Formatted(lu.U), mat64.Formatted(wantU))
			}
		}
		if t.Failed() {
			return
		}
	}
}

func testLU(rng *rand.Rand, size, nfill int) (string, func(t *testing.T)) {
	return fmt.Sprintf("size=%v,nfill=%v", size, nfill), func(t *testing.T) {
		const tol = 1e-6
		s := randSparse(rng, size, nfill, 0)
		f := make([]float64, size)
		for i := range f {
			f[i] = 1
		}

		d := mat64.DenseCopyOf(s)
		var want mat64.Vector
		want.SolveVec(d, mat64.NewVector(size, f))

		var lu LU
		lu.Factorize(s)
		got, err := lu.Solve(f, nil)
		if err != nil {
			t.Fatal(err)
		}
		for i := range got {
			if math.Abs(got[i]-want.At(i, 0)) > tol {
				if size < 35 {
					t.Errorf("solutions don't match:\ngot %v\nwant %v", got, want.RawVector().Data)
				} else {
					t.Errorf("solutions don't match")
				}
				break
			}
		}
	}
}

func TestLU_Solve(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	t.Run(testLU(rng, 5, 5))
	t.Run(testLU(rng, 10, 3))
	t.Run(testLU(rng, 15, 3))
	t.Run(testLU(rng, 50, 5))

	if !testing.Short() {
		t.Run(testLU(rng, 150, 15))
		t.Run(testLU(rng, 251, 12))
	}
}

// A tridiagonal matrix factors without fill, so the incomplete factorization
// degenerates to an exact one and the preconditioner must solve the system.
func TestIncompleteLU_ExactOnTridiagonal(t *testing.T) {
	const size = 30
	const tol = 1e-8

	A := NewSparse(size)
	for i := 0; i < size; i++ {
		A.Set(i, i, 4)
		if i > 0 {
			A.Set(i, i-1, -1)
		}
		if i < size-1 {
			A.Set(i, i+1, -1)
		}
	}
	b := make([]float64, size)
	for i := range b {
		b[i] = float64(i%5) + 1
	}

	var want mat64.Vector
	want.SolveVec(mat64.DenseCopyOf(A), mat64.NewVector(size, b))

	precon := IncompleteLU(A)
	z := make([]float64, size)
	precon(z, b)
	for i := range z {
		if math.Abs(z[i]-want.At(i, 0)) > tol {
			t.Fatalf("solutions don't match:\ngot %v\nwant %v", z, want.RawVector().Data)
		}
	}
}
