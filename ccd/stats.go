// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ccd

import (
	"slices"
	"strings"
)

// DefTopClades is the number of top clades
// reported by Statistics.
const DefTopClades = 10

// A CladeStat is a per clade summary row.
type CladeStat struct {
	// Taxon names of the clade in ascending order.
	Taxa []string

	// Marginal probability of the clade.
	Probability float64

	// Mean height of the tree nodes
	// in which the clade was observed.
	MeanHeight float64

	// Number of trees containing the clade.
	Occurrences int
}

// Statistics is a summary
// of a conditional clade distribution.
type Statistics struct {
	Trees  int
	Clades int
	Leaves int

	Entropy      float64
	EntropyLewis float64

	MaxLogTreeProbability float64
	MaxTreeProbability    float64

	// The non-terminal,
	// non-root clades
	// with the highest marginal probability
	// (at most DefTopClades of them).
	TopClades []CladeStat
}

// Statistics returns a summary of the distribution.
func (c *CCD) Statistics() Statistics {
	st := Statistics{
		Trees:                 c.NumTrees(),
		Clades:                c.NumClades(),
		Leaves:                c.NumLeaves(),
		Entropy:               c.Entropy(),
		EntropyLewis:          c.EntropyLewis(),
		MaxLogTreeProbability: c.MaxLogTreeProbability(),
	}
	st.MaxTreeProbability = c.MaxTreeProbability()

	var top []*Clade
	for _, cl := range c.Clades() {
		if cl.IsLeaf() || cl.IsRoot() {
			continue
		}
		top = append(top, cl)
	}
	slices.SortFunc(top, func(a, b *Clade) int {
		if a.Probability() > b.Probability() {
			return -1
		}
		if a.Probability() < b.Probability() {
			return 1
		}
		return strings.Compare(a.bits.String(), b.bits.String())
	})
	if len(top) > DefTopClades {
		top = top[:DefTopClades]
	}
	for _, cl := range top {
		st.TopClades = append(st.TopClades, CladeStat{
			Taxa:        cl.Names(),
			Probability: cl.Probability(),
			MeanHeight:  cl.MeanHeight(),
			Occurrences: cl.Occurrences(),
		})
	}
	return st
}
