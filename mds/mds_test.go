// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package mds_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/alexeid/phylo-mds/mds"
)

func euclid(a, b mds.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func TestClassicalTriangle(t *testing.T) {
	d := mat.NewSymDense(3, []float64{
		0, 1, 1,
		1, 0, 1,
		1, 1, 0,
	})
	pts, err := mds.Classical(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pts) != 3 {
		t.Fatalf("got %d points, want 3", len(pts))
	}
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if got := euclid(pts[i], pts[j]); math.Abs(got-1) > 1e-9 {
				t.Errorf("distance (%d, %d): got %.12f, want 1", i, j, got)
			}
		}
	}
}

// An embedded point cloud must be recovered
// up to rotation and reflection.
func TestClassicalRecovery(t *testing.T) {
	cloud := []mds.Point{
		{X: 0, Y: 0},
		{X: 2, Y: 0},
		{X: 1, Y: 3},
		{X: -2, Y: 1.5},
		{X: 0.5, Y: -2},
	}
	n := len(cloud)
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d.SetSym(i, j, euclid(cloud[i], cloud[j]))
		}
	}

	pts, err := mds.Classical(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			got := euclid(pts[i], pts[j])
			want := d.At(i, j)
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("distance (%d, %d): got %.12f, want %.12f", i, j, got, want)
			}
		}
	}
}

func TestClassicalDegenerate(t *testing.T) {
	// all points at the same location
	d := mat.NewSymDense(3, nil)
	pts, err := mds.Classical(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range pts {
		if p.X != 0 || p.Y != 0 {
			t.Errorf("point %d: got (%g, %g), want origin", i, p.X, p.Y)
		}
	}

	// collinear points project on a single axis
	line := mat.NewSymDense(3, []float64{
		0, 1, 2,
		1, 0, 1,
		2, 1, 0,
	})
	pts, err = mds.Classical(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range pts {
		if math.Abs(p.Y) > 1e-9 {
			t.Errorf("point %d: second axis %g, want 0", i, p.Y)
		}
	}
	if got := euclid(pts[0], pts[2]); math.Abs(got-2) > 1e-9 {
		t.Errorf("extreme points: distance %g, want 2", got)
	}
}

func TestClassicalNonFinite(t *testing.T) {
	d := mat.NewSymDense(2, []float64{
		0, math.Inf(1),
		math.Inf(1), 0,
	})
	if _, err := mds.Classical(d); err == nil {
		t.Errorf("non-finite distances: expecting error")
	}
}
