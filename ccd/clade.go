// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ccd

import (
	"github.com/alexeid/phylo-mds/taxa"
)

// A Clade is a vertex
// of the conditional clade distribution graph:
// a set of taxa
// observed as the descendants of a node
// in at least one of the source trees.
//
// A clade records how many trees it was observed in,
// the partitions that split it into two child clades,
// and the clades it is a child of.
// The same clade object is shared
// by every tree and partition that contains it.
type Clade struct {
	ccd  *CCD
	bits *taxa.Set

	occ        int
	sumHeights float64

	partitions []*Partition
	parents    map[*Clade]bool

	// cached values,
	// valid only while the CCD is unchanged
	prob    float64
	maxLog  float64
	maxPart *Partition
}

// Taxa returns the set of taxa of the clade.
func (cl *Clade) Taxa() *taxa.Set {
	return cl.bits
}

// Names returns the taxon names of the clade
// in ascending order.
func (cl *Clade) Names() []string {
	return cl.bits.Names(cl.ccd.ix)
}

// Size returns the number of taxa in the clade.
func (cl *Clade) Size() int {
	return cl.bits.Count()
}

// IsLeaf reports whether the clade
// is a single taxon.
func (cl *Clade) IsLeaf() bool {
	return cl.bits.Count() == 1
}

// IsRoot reports whether the clade
// is the root clade
// (the full taxon set).
func (cl *Clade) IsRoot() bool {
	return cl == cl.ccd.root
}

// Occurrences returns the number of source trees
// in which the clade was observed.
func (cl *Clade) Occurrences() int {
	return cl.occ
}

// MeanHeight returns the mean height
// of the tree nodes
// in which the clade was observed.
func (cl *Clade) MeanHeight() float64 {
	if cl.occ == 0 {
		return 0
	}
	return cl.sumHeights / float64(cl.occ)
}

// Partitions returns the partitions of the clade.
// The iteration order is the order of first observation
// and carries no meaning.
func (cl *Clade) Partitions() []*Partition {
	ps := make([]*Partition, len(cl.partitions))
	copy(ps, cl.partitions)
	return ps
}

// Probability returns the marginal probability
// of observing the clade
// in a tree drawn from the distribution.
func (cl *Clade) Probability() float64 {
	cl.ccd.ensure()
	return cl.prob
}
