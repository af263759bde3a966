package sparse

import (
	"math"
	"math/rand"
	"testing"

	"github.com/gonum/matrix/mat64"
)

// randSparse builds a symmetric, diagonally dominant matrix with roughly
// fillPerRow off-diagonal entries per row.  If off is nonzero it is used for
// every off-diagonal value; otherwise values are uniform random.
func randSparse(rng *rand.Rand, size, fillPerRow int, off float64) *Sparse {
	s := NewSparse(size)
	for i := 0; i < size; i++ {
		s.Set(i, i, 9)
	}

	for i := 0; i < size; i++ {
		nfill := fillPerRow / 2
		if i%7 == 0 {
			nfill = fillPerRow / 3
		}
		for n := 0; n < nfill; n++ {
			j := rng.Intn(size)
			if i == j {
				continue
			}

			v := off
			if v == 0 {
				v = rng.Float64()
			}
			s.Set(i, j, v)
			s.Set(j, i, v)
		}
	}
	return s
}

func makeSparse(size int, data []float64) *Sparse {
	A := NewSparse(size)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			if data[i*size+j] != 0 {
				A.Set(i, j, data[i*size+j])
			}
		}
	}
	return A
}

func TestSparse_SetAt(t *testing.T) {
	s := NewSparse(3)
	s.Set(0, 1, 2.5)
	s.Set(2, 0, -1)
	s.Set(1, 1, 0) // explicit zero stays structural

	if got := s.At(0, 1); got != 2.5 {
		t.Errorf("At(0,1): got %v, want 2.5", got)
	}
	if got := s.At(0, 2); got != 0 {
		t.Errorf("At(0,2): got %v, want 0", got)
	}
	if !s.Has(1, 1) {
		t.Errorf("explicit zero at (1,1) should be structurally present")
	}
	if s.Has(0, 2) {
		t.Errorf("(0,2) was never set and should be structurally absent")
	}
}

func TestSparse_SweepOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := randSparse(rng, 40, 8, 0)

	for i := 0; i < 40; i++ {
		row := s.SweepRow(i)
		for k := 1; k < len(row); k++ {
			if row[k-1].J >= row[k].J {
				t.Fatalf("row %v sweep not in ascending column order: %v", i, row)
			}
		}
		col := s.SweepCol(i)
		for k := 1; k < len(col); k++ {
			if col[k-1].I >= col[k].I {
				t.Fatalf("col %v sweep not in ascending row order: %v", i, col)
			}
		}
	}
}

func TestMul(t *testing.T) {
	size := 4
	data := []float64{
		2, 1, 0, 0,
		1, 3, 0, 4,
		0, 0, 1, 0,
		5, 0, 0, 2,
	}
	A := makeSparse(size, data)
	x := []float64{1, 2, 3, 4}
	want := []float64{4, 23, 3, 13}

	got := Mul(A, x)
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("Mul: got %v, want %v\nA=\n% v", got, want, mat64.Formatted(A))
		}
	}
}

func TestRestrictByPattern(t *testing.T) {
	pattern := NewSparse(3)
	pattern.Set(0, 0, 1)
	pattern.Set(1, 1, 0) // explicit zero is still part of the pattern
	pattern.Set(2, 1, 1)

	r := RestrictByPattern{Matrix: NewSparse(3), Pattern: pattern}
	r.Set(0, 0, 5)
	r.Set(1, 1, 6)
	r.Set(2, 1, 7)
	r.Set(0, 2, 8) // outside the pattern, dropped
	r.Set(2, 2, 9) // outside the pattern, dropped

	if got := r.At(0, 0); got != 5 {
		t.Errorf("At(0,0): got %v, want 5", got)
	}
	if got := r.At(1, 1); got != 6 {
		t.Errorf("At(1,1): got %v, want 6", got)
	}
	if got := r.At(2, 1); got != 7 {
		t.Errorf("At(2,1): got %v, want 7", got)
	}
	if r.Has(0, 2) || r.Has(2, 2) {
		t.Errorf("entries outside the pattern should have been dropped")
	}
}

func TestPermute(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	size := 20
	A := randSparse(rng, size, 4, 0)
	mapping := rng.Perm(size)

	permuted := NewSparse(size)
	Permute(permuted, A, mapping)

	for i := 0; i < size; i++ {
		for _, nonzero := range A.SweepRow(i) {
			want := nonzero.Val
			if got := permuted.At(mapping[i], mapping[nonzero.J]); got != want {
				t.Fatalf("permuted(%v,%v): got %v, want %v", mapping[i], mapping[nonzero.J], got, want)
			}
		}
	}
}
