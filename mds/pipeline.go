// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package mds

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/alexeid/phylo-mds/distance"
	"github.com/alexeid/phylo-mds/tree"
)

// ErrInsufficientTrees is returned
// when there are not enough trees
// for a projection.
var ErrInsufficientTrees = errors.New("mds: at least two trees required")

// A Summary holds aggregate values
// of a tree space projection.
type Summary struct {
	// Number of input trees,
	// before burn-in and sampling.
	Trees int

	// Number of projected trees.
	Sampled int

	// Number of trees discarded as burn-in.
	Burnin int

	Metric distance.Metric

	// Off-diagonal distance statistics.
	MinDist  float64
	MeanDist float64
	MaxDist  float64
}

// A Projection is the result
// of a tree space projection:
// the pairwise distances of the sampled trees,
// their coordinates on the two dimensional projection,
// and a label per sampled tree.
type Projection struct {
	Dist   *distance.Matrix
	Points []Point

	// Labels of the sampled trees,
	// of the form "Tree <n>"
	// where n is the position of the tree
	// (starting at 1)
	// in the input tree set.
	Labels []string

	Summary Summary
}

// Pipeline projects a set of trees
// into a two dimensional tree space.
//
// The first floor(n*burnin) trees are discarded.
// If more than maxTrees trees remain
// (and maxTrees is positive),
// maxTrees of them are drawn without replacement
// using a generator seeded with seed,
// and kept in their original order.
// The pairwise distances of the retained trees
// are measured with the given metric
// and projected with Classical,
// reporting progress on the distance fill.
func Pipeline(ts []*tree.Tree, metric distance.Metric, maxTrees int, burnin float64, seed int64, progress distance.Progress) (*Projection, error) {
	if math.IsNaN(burnin) || burnin < 0 || burnin >= 1 {
		return nil, fmt.Errorf("mds: invalid burn-in fraction %g", burnin)
	}
	burn := int(float64(len(ts)) * burnin)
	kept := ts[burn:]
	sel := make([]int, len(kept))
	for i := range sel {
		sel[i] = i
	}

	if maxTrees > 0 && len(kept) > maxTrees {
		rng := rand.New(rand.NewSource(seed))
		for i := 0; i < maxTrees; i++ {
			j := i + rng.Intn(len(sel)-i)
			sel[i], sel[j] = sel[j], sel[i]
		}
		sel = sel[:maxTrees]
		slices.Sort(sel)
	}
	if len(sel) < 2 {
		return nil, fmt.Errorf("%w: %d trees after burn-in", ErrInsufficientTrees, len(sel))
	}

	sample := make([]*tree.Tree, len(sel))
	labels := make([]string, len(sel))
	for i, s := range sel {
		sample[i] = kept[s]
		labels[i] = fmt.Sprintf("Tree %d", burn+s+1)
	}

	mx, err := distance.NewMatrixProgress(sample, metric, 0, progress)
	if err != nil {
		return nil, err
	}
	pts, err := Classical(mx.Sym())
	if err != nil {
		return nil, err
	}

	dist := make([]float64, 0, len(sel)*(len(sel)-1)/2)
	for i := 0; i < mx.Len(); i++ {
		for j := i + 1; j < mx.Len(); j++ {
			dist = append(dist, mx.At(i, j))
		}
	}

	return &Projection{
		Dist:   mx,
		Points: pts,
		Labels: labels,
		Summary: Summary{
			Trees:    len(ts),
			Sampled:  len(sel),
			Burnin:   burn,
			Metric:   metric,
			MinDist:  floats.Min(dist),
			MeanDist: stat.Mean(dist, nil),
			MaxDist:  floats.Max(dist),
		},
	}, nil
}
