// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package mixing

import (
	"math"

	"github.com/alexeid/phylo-mds/ccd"
	"github.com/alexeid/phylo-mds/tree"
)

// compareEntropyMin is the mean final chain entropy
// above which a two-chain run
// also compares the tree probabilities
// assigned by the two chains.
// Below it the tree space is small enough
// that the dissonance trace alone is informative.
const compareEntropyMin = 10.0

// compareSample is the maximum number of trees
// sampled from each chain for the comparison.
const compareSample = 1000

// A Comparison confronts the probabilities
// that two chains assign
// to the trees sampled by either of them.
type Comparison struct {
	// Number of trees compared.
	Sampled int

	// Trees to which the first
	// (or the second)
	// chain assigns the higher probability.
	FirstHigher  int
	SecondHigher int

	// Trees with a positive probability
	// in exactly one of the chains.
	InOneOnly int

	// Root mean square of the log probability
	// difference over the trees
	// with a positive probability in both chains.
	RMSLogDiff float64

	// Root mean square of the probability difference
	// relative to the mean probability,
	// over the same trees.
	RMSRelDiff float64
}

func compareChains(c1, c2 *ccd.CCD, s1, s2 []*tree.Tree) *Comparison {
	cmp := &Comparison{}

	sample := make([]*tree.Tree, 0, 2*compareSample)
	sample = append(sample, subsample(s1)...)
	sample = append(sample, subsample(s2)...)

	var sumLog, sumRel float64
	var finite int
	for _, t := range sample {
		lp1 := c1.TreeLogProbability(t)
		lp2 := c2.TreeLogProbability(t)
		cmp.Sampled++

		if lp1 > lp2 {
			cmp.FirstHigher++
		} else if lp2 > lp1 {
			cmp.SecondHigher++
		}

		in1 := !math.IsInf(lp1, -1)
		in2 := !math.IsInf(lp2, -1)
		if in1 != in2 {
			cmp.InOneOnly++
			continue
		}
		if !in1 {
			continue
		}

		d := lp1 - lp2
		sumLog += d * d
		p1 := math.Exp(lp1)
		p2 := math.Exp(lp2)
		rel := math.Abs(p1-p2) / ((p1 + p2) / 2)
		sumRel += rel * rel
		finite++
	}
	if finite > 0 {
		cmp.RMSLogDiff = math.Sqrt(sumLog / float64(finite))
		cmp.RMSRelDiff = math.Sqrt(sumRel / float64(finite))
	}
	return cmp
}

// subsample takes up to compareSample trees,
// evenly spaced over the chain,
// so repeated runs give the same report.
func subsample(ts []*tree.Tree) []*tree.Tree {
	if len(ts) <= compareSample {
		return ts
	}
	sub := make([]*tree.Tree, compareSample)
	for i := range sub {
		sub[i] = ts[i*len(ts)/compareSample]
	}
	return sub
}
