// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package distance

import (
	"gonum.org/v1/gonum/mat"

	"github.com/alexeid/phylo-mds/tree"
)

// DefProgressStep is the default number of columns
// between two progress reports
// of a distance matrix fill.
const DefProgressStep = 10

// A Progress function receives the indexes
// of the last computed cell of a distance matrix
// and the size of the matrix.
// If it returns a non-nil error,
// the fill is aborted
// and the error is returned unchanged.
type Progress func(i, j, n int) error

// A Matrix is a symmetric matrix
// of pairwise distances between trees,
// with a zero diagonal.
type Matrix struct {
	n int
	v []float64
}

// NewMatrix returns the pairwise distance matrix
// of a set of trees under a metric.
func NewMatrix(ts []*tree.Tree, m Metric) *Matrix {
	mx, _ := NewMatrixProgress(ts, m, 0, nil)
	return mx
}

// NewMatrixProgress returns the pairwise distance matrix
// of a set of trees under a metric,
// reporting progress after every step computed columns
// (DefProgressStep if step is not positive)
// with the indexes of the last computed cell.
// Only cells above the diagonal are computed;
// the rest are mirrored.
func NewMatrixProgress(ts []*tree.Tree, m Metric, step int, progress Progress) (*Matrix, error) {
	if step <= 0 {
		step = DefProgressStep
	}
	n := len(ts)
	mx := &Matrix{
		n: n,
		v: make([]float64, n*n),
	}
	cols := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := m.Between(ts[i], ts[j])
			mx.v[i*n+j] = d
			mx.v[j*n+i] = d

			cols++
			if progress != nil && cols%step == 0 {
				if err := progress(i, j, n); err != nil {
					return nil, err
				}
			}
		}
	}
	return mx, nil
}

// Len returns the number of trees
// (rows and columns) of the matrix.
func (m *Matrix) Len() int {
	return m.n
}

// At returns the distance
// between the i-th and j-th trees.
func (m *Matrix) At(i, j int) float64 {
	return m.v[i*m.n+j]
}

// Sym returns the matrix
// as a gonum symmetric dense matrix.
func (m *Matrix) Sym() *mat.SymDense {
	s := mat.NewSymDense(m.n, nil)
	for i := 0; i < m.n; i++ {
		for j := i; j < m.n; j++ {
			s.SetSym(i, j, m.v[i*m.n+j])
		}
	}
	return s
}
