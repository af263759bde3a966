package sparse

import "sort"

func vecAdd(result, a, b []float64) {
	if len(a) != len(b) {
		panic("inconsistent lengths for vector addition")
	}
	for i := range a {
		result[i] = a[i] + b[i]
	}
}

func vecSub(result, a, b []float64) {
	if len(a) != len(b) {
		panic("inconsistent lengths for vector subtraction")
	}
	for i := range a {
		result[i] = a[i] - b[i]
	}
}

// dot performs a vector*vector dot product.
func dot(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("inconsistent lengths for dot product")
	}
	v := 0.0
	for i := range a {
		v += a[i] * b[i]
	}
	return v
}

func vecMult(v []float64, mult float64) []float64 {
	result := make([]float64, len(v))
	for i := range v {
		result[i] = mult * v[i]
	}
	return result
}

// RCM provides an alternate degree-of-freedom reordering for an assembled
// matrix that gives better bandwidth properties for factorizations.  The
// returned slice maps old indices to new ones.
func RCM(A Matrix) []int {
	size, _ := A.Dims()

	degreemap := make([]int, size)
	for i := range degreemap {
		degreemap[i] = i
	}
	sort.SliceStable(degreemap, func(i, j int) bool {
		return len(A.SweepRow(degreemap[i])) < len(A.SweepRow(degreemap[j]))
	})
	startrow := degreemap[0]

	// breadth-first search across adjacency/connections between nodes/dofs
	mapping := make(map[int]int, size)
	mapping[startrow] = 0
	nextlevel := []int{startrow}
	for len(mapping) < size {
		if len(nextlevel) == 0 {
			// Matrix does not represent a fully connected graph.  Restart
			// from the lowest-degree dof that hasn't been remapped yet.
			for _, k := range degreemap {
				if _, ok := mapping[k]; !ok {
					mapping[k] = len(mapping)
					nextlevel = []int{k}
					break
				}
			}
		}
		nextlevel = nextRCMLevel(A, mapping, nextlevel)
	}

	reverse := make([]int, size)
	for i := range reverse {
		reverse[i] = size - 1 - i
	}

	slice := make([]int, size)
	for from, to := range mapping {
		slice[from] = reverse[to]
	}
	return slice
}

func nextRCMLevel(A Matrix, mapping map[int]int, level []int) []int {
	var nextlevel []int
	tmp := []int{}
	for _, i := range level {
		tmp = tmp[:0]
		for _, nonzero := range A.SweepRow(i) {
			if _, ok := mapping[nonzero.J]; !ok {
				tmp = append(tmp, nonzero.J)
			}
		}

		// visit neighbors in increasing degree order, batched by source row
		sort.SliceStable(tmp, func(a, b int) bool {
			return len(A.SweepRow(tmp[a])) < len(A.SweepRow(tmp[b]))
		})
		for _, index := range tmp {
			if _, ok := mapping[index]; ok {
				continue
			}
			mapping[index] = len(mapping)
			nextlevel = append(nextlevel, index)
		}
	}
	return nextlevel
}
