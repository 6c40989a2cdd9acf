package feature

import (
	"encoding/json"
	"slices"
)

// Vector accumulates weights per feature index.
type Vector struct {
	dim     int
	weights map[int]float64
}

// NewVector creates an empty vector of the given dimension. A dimension
// of zero leaves the vector unbounded.
func NewVector(dim int) *Vector {
	return &Vector{dim: dim, weights: make(map[int]float64)}
}

// Add adds w to the weight at idx. Negative indices (NotFound) are
// ignored. An entry whose weight returns to zero is removed.
func (v *Vector) Add(idx int, w float64) {
	if idx < 0 {
		return
	}
	sum := v.weights[idx] + w
	if sum == 0 {
		delete(v.weights, idx)
		return
	}
	v.weights[idx] = sum
}

// Get returns the weight at idx.
func (v *Vector) Get(idx int) float64 {
	return v.weights[idx]
}

// Dim returns the vector dimension.
func (v *Vector) Dim() int {
	return v.dim
}

// Nnz returns the number of non-zero entries.
func (v *Vector) Nnz() int {
	return len(v.weights)
}

// Indices returns the non-zero indices in increasing order.
func (v *Vector) Indices() []int {
	idx := make([]int, 0, len(v.weights))
	for i := range v.weights {
		idx = append(idx, i)
	}
	slices.Sort(idx)
	return idx
}

// Entry is one (index, weight) pair. It marshals to a two-element array.
type Entry struct {
	Index  int
	Weight float64
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Index, e.Weight})
}

// Entries returns the non-zero entries ordered by index.
func (v *Vector) Entries() []Entry {
	idx := v.Indices()
	out := make([]Entry, len(idx))
	for i, j := range idx {
		out[i] = Entry{Index: j, Weight: v.weights[j]}
	}
	return out
}

// Reset removes every entry, keeping the dimension.
func (v *Vector) Reset() {
	clear(v.weights)
}
