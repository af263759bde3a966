package sparse

import (
	"sort"

	"github.com/gonum/matrix/mat64"
)

// Nonzero is a single structurally stored matrix entry.  An entry whose Val
// is zero is still part of the matrix structure.
type Nonzero struct {
	I, J int
	Val  float64
}

// Matrix is the read-only-plus-assembly surface shared by all solvers and
// preconditioners in this package.  It extends the gonum mat64 interface so
// matrices can be formatted and fed to dense reference routines directly.
type Matrix interface {
	mat64.Matrix
	// Set assigns the value at (i, j), creating the entry if it does not
	// exist.  Explicitly set zeros remain part of the structure.
	Set(i, j int, v float64)
	// Has reports whether (i, j) is a structurally stored entry.
	Has(i, j int) bool
	// SweepRow returns row i's stored entries in ascending column order.
	SweepRow(i int) []Nonzero
	// SweepCol returns column j's stored entries in ascending row order.
	SweepCol(j int) []Nonzero
}

// Sparse is a square, map-backed sparse matrix.  Both row-wise and
// column-wise indexes are maintained so sweeps in either direction are cheap.
type Sparse struct {
	// map[row]map[col]val
	rows []map[int]float64
	// map[col]map[row]val
	cols []map[int]float64
	size int
}

func NewSparse(size int) *Sparse {
	return &Sparse{
		rows: make([]map[int]float64, size),
		cols: make([]map[int]float64, size),
		size: size,
	}
}

func (s *Sparse) Dims() (int, int) { return s.size, s.size }
func (s *Sparse) T() mat64.Matrix  { return mat64.Transpose{Matrix: s} }

func (s *Sparse) At(i, j int) float64 { return s.rows[i][j] }

func (s *Sparse) Has(i, j int) bool {
	_, ok := s.rows[i][j]
	return ok
}

func (s *Sparse) Set(i, j int, v float64) {
	if s.rows[i] == nil {
		s.rows[i] = make(map[int]float64)
	}
	if s.cols[j] == nil {
		s.cols[j] = make(map[int]float64)
	}
	s.rows[i][j] = v
	s.cols[j][i] = v
}

// SweepRow returns row i's entries sorted by column.  Sorting makes every
// traversal order deterministic regardless of map iteration order.
func (s *Sparse) SweepRow(i int) []Nonzero {
	nonzeros := make([]Nonzero, 0, len(s.rows[i]))
	for j, v := range s.rows[i] {
		nonzeros = append(nonzeros, Nonzero{I: i, J: j, Val: v})
	}
	sort.Slice(nonzeros, func(a, b int) bool { return nonzeros[a].J < nonzeros[b].J })
	return nonzeros
}

func (s *Sparse) SweepCol(j int) []Nonzero {
	nonzeros := make([]Nonzero, 0, len(s.cols[j]))
	for i, v := range s.cols[j] {
		nonzeros = append(nonzeros, Nonzero{I: i, J: j, Val: v})
	}
	sort.Slice(nonzeros, func(a, b int) bool { return nonzeros[a].I < nonzeros[b].I })
	return nonzeros
}

// RestrictByPattern filters all Set calls, dropping entries that are not
// structurally present in Pattern.  Passing one as the destination of a
// factorization computes an incomplete (zero fill-in) variant of it.
type RestrictByPattern struct {
	Matrix
	Pattern Matrix
}

func (m RestrictByPattern) Set(i, j int, v float64) {
	if !m.Pattern.Has(i, j) {
		return
	}
	m.Matrix.Set(i, j, v)
}

// Copy clears dst's entries conceptually by overwriting every stored entry of
// src into dst.  dst must start empty for an exact structural copy.
func Copy(dst, src Matrix) {
	size, _ := src.Dims()
	for i := 0; i < size; i++ {
		for _, nonzero := range src.SweepRow(i) {
			dst.Set(i, nonzero.J, nonzero.Val)
		}
	}
}

// Mul computes the matrix-vector product A*x.
func Mul(A Matrix, x []float64) []float64 {
	size, _ := A.Dims()
	result := make([]float64, size)
	for i := 0; i < size; i++ {
		tot := 0.0
		for _, nonzero := range A.SweepRow(i) {
			tot += nonzero.Val * x[nonzero.J]
		}
		result[i] = tot
	}
	return result
}

// Permute stores src entries into dst with i and j indices remapped through
// mapping - i.e. src.At(i, j) lands at dst.At(mapping[i], mapping[j]).
func Permute(dst, src Matrix, mapping []int) {
	size, _ := src.Dims()
	for i := 0; i < size; i++ {
		for _, nonzero := range src.SweepRow(i) {
			dst.Set(mapping[i], mapping[nonzero.J], nonzero.Val)
		}
	}
}
