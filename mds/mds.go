// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package mds implements classical multidimensional scaling
// of a distance matrix into two dimensions.
package mds

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrNoConvergence is returned
// when the eigendecomposition
// of the centered distance matrix fails.
var ErrNoConvergence = errors.New("mds: eigendecomposition failed")

// A Point is a location
// in the two dimensional projection.
type Point struct {
	X float64
	Y float64
}

// Classical returns the classical
// (Torgerson) multidimensional scaling
// of a symmetric distance matrix
// into two dimensions.
//
// The distances are squared and double centered,
// and the projection is built
// from the two largest eigenpairs
// of the centered matrix.
// If the second eigenvalue is not positive
// the second axis is zero;
// if the first eigenvalue is not positive
// all coordinates are zero.
// The sign of each axis is arbitrary,
// so the projection is defined
// up to a reflection of the axes.
func Classical(d mat.Symmetric) ([]Point, error) {
	n := d.Symmetric()
	if n == 0 {
		return nil, fmt.Errorf("mds: empty distance matrix")
	}

	// squared distances
	// and their row and grand means
	d2 := make([]float64, n*n)
	rowMean := make([]float64, n)
	grand := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := d.At(i, j)
			if math.IsInf(v, 0) || math.IsNaN(v) {
				return nil, fmt.Errorf("mds: non-finite distance at (%d, %d)", i, j)
			}
			v *= v
			d2[i*n+j] = v
			rowMean[i] += v / float64(n)
			grand += v / float64(n*n)
		}
	}

	// double centering
	b := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			b.SetSym(i, j, -0.5*(d2[i*n+j]-rowMean[i]-rowMean[j]+grand))
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(b, true); !ok {
		return nil, ErrNoConvergence
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// eigenvalues are in ascending order
	l1, l2 := vals[n-1], 0.0
	if n > 1 {
		l2 = vals[n-2]
	}

	pts := make([]Point, n)
	if l1 <= 0 {
		return pts, nil
	}
	s1 := math.Sqrt(l1)
	s2 := 0.0
	if l2 > 0 {
		s2 = math.Sqrt(l2)
	}
	for i := 0; i < n; i++ {
		pts[i].X = vecs.At(i, n-1) * s1
		if s2 > 0 {
			pts[i].Y = vecs.At(i, n-2) * s2
		}
	}
	return pts, nil
}
