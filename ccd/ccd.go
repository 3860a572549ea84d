// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package ccd implements conditional clade distributions:
// a factorized probability model
// over rooted binary tree topologies,
// estimated from the clade frequencies
// of a sample of trees.
//
// The distribution is a directed acyclic graph:
// clades
// (sets of taxa)
// are the vertices,
// and each partition of a clade
// into two child clades
// is a hyperedge
// weighted by the frequency of the split
// among the trees that contain the clade.
// Clades are shared across trees and partitions,
// so the graph is usually much smaller
// than the tree sample it summarizes.
package ccd

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/alexeid/phylo-mds/taxa"
	"github.com/alexeid/phylo-mds/tree"
)

// ErrUnknownTaxon is returned when a tree
// contains a terminal
// that is not in the taxon index of the distribution.
var ErrUnknownTaxon = errors.New("ccd: taxon not in index")

// A CCD is a conditional clade distribution.
//
// The distribution is a single owner structure:
// it must not be mutated concurrently,
// and clade sets handed to it are kept by reference.
type CCD struct {
	ix     *taxa.Index
	root   *Clade
	clades map[string]*Clade

	numTrees int
	dirty    bool
}

// New creates an empty distribution
// over the taxa of an index.
// The taxon index is frozen:
// every tree added to the distribution
// must have its terminals in the index.
func New(ix *taxa.Index) *CCD {
	c := &CCD{
		ix:     ix,
		clades: make(map[string]*Clade),
	}
	c.root = c.cladeOf(taxa.Full(ix.Len()))
	return c
}

// FromTrees creates a distribution
// from a sample of trees,
// discarding the first floor(n*burnin) trees.
// The taxon index is built
// from the union of the terminals
// of the retained trees.
func FromTrees(ts []*tree.Tree, burnin float64) (*CCD, error) {
	return FromTreesProgress(ts, burnin, nil)
}

// FromTreesProgress is like FromTrees,
// reporting progress after each ingested tree.
// A non-nil error from the callback
// aborts the construction
// and is returned unchanged.
func FromTreesProgress(ts []*tree.Tree, burnin float64, progress func(done, total int) error) (*CCD, error) {
	if math.IsNaN(burnin) || burnin < 0 || burnin >= 1 {
		return nil, fmt.Errorf("ccd: invalid burn-in fraction %g", burnin)
	}
	kept := ts[int(float64(len(ts))*burnin):]
	if len(kept) == 0 {
		return nil, fmt.Errorf("ccd: no trees left after burn-in")
	}

	var names []string
	for _, t := range kept {
		names = append(names, t.Terms()...)
	}
	c := New(taxa.NewIndex(names))

	for i, t := range kept {
		if err := c.AddTree(t); err != nil {
			return nil, err
		}
		if progress != nil {
			if err := progress(i+1, len(kept)); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Taxa returns the taxon index of the distribution.
func (c *CCD) Taxa() *taxa.Index {
	return c.ix
}

// NumTrees returns the number of trees
// the distribution was built from.
func (c *CCD) NumTrees() int {
	return c.numTrees
}

// NumLeaves returns the number of taxa
// in the taxon index.
func (c *CCD) NumLeaves() int {
	return c.ix.Len()
}

// NumClades returns the number of distinct clades
// observed in the source trees,
// including the terminal clades and the root clade.
func (c *CCD) NumClades() int {
	return len(c.clades)
}

// Root returns the root clade
// (the full taxon set).
func (c *CCD) Root() *Clade {
	return c.root
}

// Clade returns the clade with the given taxon set,
// or nil if the clade was never observed.
func (c *CCD) Clade(bits *taxa.Set) *Clade {
	return c.clades[bits.String()]
}

// Clades returns all clades of the distribution,
// sorted by size
// and then by taxon content,
// so the order is deterministic.
func (c *CCD) Clades() []*Clade {
	cls := make([]*Clade, 0, len(c.clades))
	for _, cl := range c.clades {
		cls = append(cls, cl)
	}
	slices.SortFunc(cls, func(a, b *Clade) int {
		if d := a.bits.Count() - b.bits.Count(); d != 0 {
			return d
		}
		return strings.Compare(a.bits.String(), b.bits.String())
	})
	return cls
}

// AddTree adds a tree to the distribution,
// increasing the observation counts
// of every clade and partition of the tree.
//
// Every terminal of the tree must be in the taxon index;
// an unknown terminal returns ErrUnknownTaxon.
// A tree does not need to span the whole index:
// a taxon absent from the tree
// simply gets no contribution from it,
// so its marginal probability can fall below 1.
// If AddTree returns an error
// the distribution is partially updated
// and must be discarded.
func (c *CCD) AddTree(t *tree.Tree) error {
	root := t.Root()
	if root == -1 {
		return fmt.Errorf("ccd: on tree %q: empty tree", t.Name())
	}
	if _, err := c.cladify(t, root); err != nil {
		return err
	}
	c.numTrees++
	c.dirty = true
	return nil
}

// cladify visits a tree node in post-order,
// records its clade
// (and, for internal nodes, its partition)
// and returns the taxon set of the node.
func (c *CCD) cladify(t *tree.Tree, id int) (*taxa.Set, error) {
	children := t.Children(id)
	if len(children) == 0 {
		p, ok := c.ix.Pos(t.Label(id))
		if !ok {
			return nil, fmt.Errorf("ccd: on tree %q: %w: %q", t.Name(), ErrUnknownTaxon, t.Label(id))
		}
		bits := taxa.NewSet(c.ix.Len())
		bits.Add(p)
		cl := c.cladeOf(bits)
		cl.occ++
		cl.sumHeights += t.Height(id)
		return cl.bits, nil
	}
	if len(children) != 2 {
		return nil, fmt.Errorf("ccd: on tree %q: node %d has %d children: %w", t.Name(), id, len(children), tree.ErrNotBinary)
	}

	b1, err := c.cladify(t, children[0])
	if err != nil {
		return nil, err
	}
	b2, err := c.cladify(t, children[1])
	if err != nil {
		return nil, err
	}

	cl := c.cladeOf(b1.Union(b2))
	cl.occ++
	cl.sumHeights += t.Height(id)

	p := cl.partitionOf(c.clades[b1.String()], c.clades[b2.String()])
	p.occ++
	p.sumHeights += t.Height(id)
	return cl.bits, nil
}

// cladeOf returns the clade with the given taxon set,
// creating it on first observation.
// The set is kept by reference.
func (c *CCD) cladeOf(bits *taxa.Set) *Clade {
	key := bits.String()
	if cl, ok := c.clades[key]; ok {
		return cl
	}
	cl := &Clade{
		ccd:     c,
		bits:    bits,
		parents: make(map[*Clade]bool),
	}
	c.clades[key] = cl
	return cl
}

// partitionOf returns the partition of a clade
// into the two indicated children,
// creating it on first observation.
func (cl *Clade) partitionOf(c1, c2 *Clade) *Partition {
	for _, p := range cl.partitions {
		if p.isPair(c1, c2) {
			return p
		}
	}
	p := &Partition{
		parent: cl,
		child1: c1,
		child2: c2,
	}
	cl.partitions = append(cl.partitions, p)
	c1.parents[cl] = true
	c2.parents[cl] = true
	return p
}

// ensure brings the cached probabilities up to date:
// it normalizes the conditional clade probabilities
// and propagates the clade marginals
// after any change of the tree sample.
// Every getter that depends on probabilities
// must call it first.
func (c *CCD) ensure() {
	if !c.dirty {
		return
	}
	c.normalize()
	c.propagate()
	c.dirty = false
}

// normalize sets the conditional clade probability
// of every partition
// to its observed frequency among the splits
// of its parent clade.
func (c *CCD) normalize() {
	for _, cl := range c.clades {
		if len(cl.partitions) == 0 {
			continue
		}
		sum := 0
		for _, p := range cl.partitions {
			sum += p.occ
		}
		for _, p := range cl.partitions {
			p.ccp = 0
			p.logCCP = math.Inf(-1)
			if p.occ > 0 {
				p.ccp = float64(p.occ) / float64(sum)
				p.logCCP = math.Log(p.ccp)
			}
		}
	}
}

// propagate computes the marginal probability
// of every clade,
// spreading the root probability of 1
// down the graph in topological order:
// a clade is expanded only after
// every clade containing it has been expanded.
// A clade that can not be reached from the root clade
// (the top clade of a tree
// that does not span the whole taxon index)
// keeps a probability of 0.
func (c *CCD) propagate() {
	for _, cl := range c.clades {
		cl.prob = 0
	}
	c.root.prob = 1

	// the gating below must ignore parents
	// that will never be expanded
	reach := make(map[*Clade]bool, len(c.clades))
	stack := []*Clade{c.root}
	reach[c.root] = true
	for len(stack) > 0 {
		cl := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range cl.partitions {
			for _, k := range []*Clade{p.child1, p.child2} {
				if reach[k] {
					continue
				}
				reach[k] = true
				stack = append(stack, k)
			}
		}
	}

	visits := make(map[*Clade]int, len(reach))
	queue := []*Clade{c.root}
	for len(queue) > 0 {
		cl := queue[0]
		queue = queue[1:]

		touched := make(map[*Clade]bool)
		for _, p := range cl.partitions {
			p.child1.prob += cl.prob * p.ccp
			p.child2.prob += cl.prob * p.ccp
			touched[p.child1] = true
			touched[p.child2] = true
		}
		for k := range touched {
			visits[k]++
			reachParents := 0
			for pc := range k.parents {
				if reach[pc] {
					reachParents++
				}
			}
			if visits[k] == reachParents {
				queue = append(queue, k)
			}
		}
	}

	// clip rounding noise
	for _, cl := range c.clades {
		if cl.prob > 1 && cl.prob <= 1+probEps {
			cl.prob = 1
		}
	}
}

// probEps is the tolerance used to clip
// clade probabilities
// that exceed 1 by rounding noise.
const probEps = 1e-5
