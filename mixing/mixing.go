// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package mixing implements the dissonance diagnostic
// for the mixing of an MCMC tree sample.
//
// The sample is split into several chains,
// a conditional clade distribution is grown
// for each chain and for the pooled sample,
// one tree per chain at each step,
// and the dissonance at each step is the difference
// between the pooled entropy
// and the mean per-chain entropy.
// A well mixed sample has chains
// that agree with the pool,
// so the dissonance stays near zero.
package mixing

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/alexeid/phylo-mds/ccd"
	"github.com/alexeid/phylo-mds/taxa"
	"github.com/alexeid/phylo-mds/tree"
)

// ErrInsufficientTrees is returned
// when there are not enough trees
// for the requested number of chains.
var ErrInsufficientTrees = errors.New("mixing: not enough trees")

// A Progress function receives the number
// of finished steps of a dissonance run.
// If it returns a non-nil error,
// the run is aborted
// and the error is returned unchanged.
type Progress func(step, total int) error

// A Result holds the per-step trace
// and the summary of a dissonance run.
type Result struct {
	// Number of chains.
	Chains int

	// Number of steps
	// (trees added per chain).
	Steps int

	// ChainEntropy[j][i] is the entropy of chain j
	// after step i.
	ChainEntropy [][]float64

	// PooledEntropy[i] is the entropy
	// of the pooled distribution after step i.
	PooledEntropy []float64

	// Dissonance[i] is the pooled entropy
	// minus the mean chain entropy
	// after step i.
	Dissonance []float64

	// Summary of the dissonance trace.
	Final float64
	Mean  float64
	Min   float64
	Max   float64

	// Final dissonance relative
	// to the mean final chain entropy
	// (0 when the entropy is 0).
	Relative float64

	// Interpretation of the relative dissonance.
	Interpretation string

	// Probability comparison of the two chains,
	// only for two-chain runs
	// over a large enough tree space.
	Compare *Comparison
}

// WithinChain runs the dissonance diagnostic
// on a single tree sample,
// split into the indicated number
// of contiguous equal-sized blocks
// (the last block absorbs the remainder).
func WithinChain(ts []*tree.Tree, splits int, progress Progress) (*Result, error) {
	if splits < 2 {
		return nil, fmt.Errorf("mixing: invalid number of splits %d", splits)
	}
	if len(ts) < 2*splits {
		return nil, fmt.Errorf("%w: %d trees for %d splits", ErrInsufficientTrees, len(ts), splits)
	}

	m := len(ts) / splits
	sets := make([][]*tree.Tree, splits)
	for j := range sets {
		end := (j + 1) * m
		if j == splits-1 {
			end = len(ts)
		}
		sets[j] = ts[j*m : end]
	}
	return Chains(sets, progress)
}

// Chains runs the dissonance diagnostic
// on two or more tree samples.
// All samples are truncated
// to the length of the shortest one.
func Chains(sets [][]*tree.Tree, progress Progress) (*Result, error) {
	k := len(sets)
	if k < 2 {
		return nil, fmt.Errorf("mixing: at least two chains required, got %d", k)
	}
	m := len(sets[0])
	for _, s := range sets[1:] {
		m = min(m, len(s))
	}
	if m < 1 {
		return nil, fmt.Errorf("%w: empty chain", ErrInsufficientTrees)
	}

	var names []string
	for _, s := range sets {
		for _, t := range s {
			names = append(names, t.Terms()...)
		}
	}
	ix := taxa.NewIndex(names)

	chains := make([]*ccd.CCD, k)
	for j := range chains {
		chains[j] = ccd.New(ix)
	}
	pooled := ccd.New(ix)

	r := &Result{
		Chains:        k,
		Steps:         m,
		ChainEntropy:  make([][]float64, k),
		PooledEntropy: make([]float64, 0, m),
		Dissonance:    make([]float64, 0, m),
	}
	for i := 0; i < m; i++ {
		sum := 0.0
		for j, c := range chains {
			if err := c.AddTree(sets[j][i]); err != nil {
				return nil, err
			}
			h := c.Entropy()
			r.ChainEntropy[j] = append(r.ChainEntropy[j], h)
			sum += h

			if err := pooled.AddTree(sets[j][i]); err != nil {
				return nil, err
			}
		}
		h := pooled.Entropy()
		r.PooledEntropy = append(r.PooledEntropy, h)
		r.Dissonance = append(r.Dissonance, h-sum/float64(k))

		if progress != nil {
			if err := progress(i+1, m); err != nil {
				return nil, err
			}
		}
	}

	r.Final = r.Dissonance[m-1]
	r.Mean = stat.Mean(r.Dissonance, nil)
	r.Min = floats.Min(r.Dissonance)
	r.Max = floats.Max(r.Dissonance)

	avg := 0.0
	for j := range chains {
		avg += r.ChainEntropy[j][m-1] / float64(k)
	}
	if avg > 0 {
		r.Relative = r.Final / avg
	}
	r.Interpretation = interpret(r.Relative)

	if k == 2 && avg > compareEntropyMin {
		r.Compare = compareChains(chains[0], chains[1], sets[0][:m], sets[1][:m])
	}
	return r, nil
}

// interpret buckets a relative dissonance
// into a verbal interpretation.
func interpret(rel float64) string {
	switch {
	case rel < 0.001:
		return "Exceptional mixing"
	case rel < 0.01:
		return "Excellent mixing"
	case rel < 0.02:
		return "Very good mixing"
	case rel < 0.05:
		return "Good mixing"
	case rel < 0.10:
		return "Moderate mixing"
	case rel < 0.20:
		return "Poor mixing"
	}
	return "Very poor mixing"
}
