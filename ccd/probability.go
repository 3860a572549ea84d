// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ccd

import (
	"fmt"
	"log"
	"math"

	"github.com/alexeid/phylo-mds/taxa"
	"github.com/alexeid/phylo-mds/tree"
)

// Entropy returns the entropy of the distribution
// over tree topologies,
// computed as the sum over all partitions
// of the partition probability
// times its negative log conditional probability.
func (c *CCD) Entropy() float64 {
	c.ensure()
	h := 0.0
	for _, cl := range c.clades {
		for _, p := range cl.partitions {
			if p.ccp <= 0 {
				continue
			}
			h -= cl.prob * p.ccp * p.logCCP
		}
	}
	return h
}

// EntropyLewis returns the entropy of the distribution
// in the recursive per-clade form of Lewis et al.:
// the entropy of a terminal clade is 0,
// and the entropy of a clade is the expectation,
// over its partitions,
// of the entropy of the two children
// minus the log conditional probability of the split.
//
// On a distribution built from a single tree
// both entropy forms are 0;
// in general they differ when a clade
// has more than one parent.
func (c *CCD) EntropyLewis() float64 {
	c.ensure()
	memo := make(map[*Clade]float64, len(c.clades))
	return c.lewis(c.root, memo)
}

func (c *CCD) lewis(cl *Clade, memo map[*Clade]float64) float64 {
	if cl.IsLeaf() {
		return 0
	}
	if h, ok := memo[cl]; ok {
		return h
	}
	h := 0.0
	for _, p := range cl.partitions {
		if p.ccp <= 0 {
			continue
		}
		h += p.ccp * (c.lewis(p.child1, memo) + c.lewis(p.child2, memo) - p.logCCP)
	}
	memo[cl] = h
	return h
}

// MaxLogTreeProbability returns the log probability
// of the most probable tree topology
// under the distribution.
func (c *CCD) MaxLogTreeProbability() float64 {
	c.ensure()
	c.maxSubtree()
	return c.root.maxLog
}

// MaxTreeProbability returns the probability
// of the most probable tree topology
// under the distribution.
func (c *CCD) MaxTreeProbability() float64 {
	return math.Exp(c.MaxLogTreeProbability())
}

// maxSubtree computes,
// for every clade,
// the log probability of the most probable subtree
// rooted at the clade,
// by iterative relaxation:
// terminal clades start at 0,
// and a clade is finalized
// once all the children of its partitions
// have been finalized.
func (c *CCD) maxSubtree() {
	final := make(map[*Clade]bool, len(c.clades))
	for _, cl := range c.clades {
		cl.maxLog = math.Inf(-1)
		cl.maxPart = nil
		if cl.IsLeaf() {
			cl.maxLog = 0
			final[cl] = true
		}
	}

	for changed := true; changed; {
		changed = false
		for _, cl := range c.clades {
			if final[cl] {
				continue
			}
			ready := true
			for _, p := range cl.partitions {
				if !final[p.child1] || !final[p.child2] {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}
			for _, p := range cl.partitions {
				if p.ccp <= 0 {
					continue
				}
				if v := p.logCCP + p.child1.maxLog + p.child2.maxLog; v > cl.maxLog {
					cl.maxLog = v
					cl.maxPart = p
				}
			}
			if math.IsInf(cl.maxLog, -1) {
				log.Printf("ccd: clade {%s}: no viable partition", cl.bits)
			}
			final[cl] = true
			changed = true
		}
	}
}

// MaxTree returns the most probable tree topology
// under the distribution.
// Node heights are the mean observed heights
// of the corresponding clades,
// and branch lengths are the height differences.
func (c *CCD) MaxTree() (*tree.Tree, error) {
	c.ensure()
	c.maxSubtree()
	if math.IsInf(c.root.maxLog, -1) {
		return nil, fmt.Errorf("ccd: no tree with a positive probability")
	}

	t := tree.New("max-probability")
	if err := c.growMaxTree(t, c.root, -1); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (c *CCD) growMaxTree(t *tree.Tree, cl *Clade, parent int) error {
	label := ""
	if cl.IsLeaf() {
		p, _ := cl.bits.NextSet(0)
		label = c.ix.Name(p)
	}
	brLen := -1.0
	if parent != -1 {
		// mean clade heights are not always consistent
		// along a path of the summary tree
		brLen = max(t.Height(parent)-cl.MeanHeight(), 0)
	}
	id, err := t.Add(parent, label, brLen)
	if err != nil {
		return err
	}
	t.SetHeight(id, cl.MeanHeight())
	if cl.IsLeaf() {
		return nil
	}
	if cl.maxPart == nil {
		return fmt.Errorf("ccd: clade {%s}: no viable partition", cl.bits)
	}
	if err := c.growMaxTree(t, cl.maxPart.child1, id); err != nil {
		return err
	}
	return c.growMaxTree(t, cl.maxPart.child2, id)
}

// TreeLogProbability returns the log probability
// of the topology of a tree
// under the distribution.
// If any clade or partition of the tree
// was never observed,
// or a terminal is not in the taxon index,
// the probability is 0
// and the log probability is -Inf.
func (c *CCD) TreeLogProbability(t *tree.Tree) float64 {
	c.ensure()
	logP, _ := c.cladeLogProb(t, t.Root())
	return logP
}

// cladeLogProb accumulates the log conditional
// probabilities of the partitions of a subtree,
// returning -Inf as soon as a clade or partition
// is not part of the distribution.
func (c *CCD) cladeLogProb(t *tree.Tree, id int) (float64, *taxa.Set) {
	children := t.Children(id)
	if len(children) == 0 {
		p, ok := c.ix.Pos(t.Label(id))
		if !ok {
			return math.Inf(-1), nil
		}
		bits := taxa.NewSet(c.ix.Len())
		bits.Add(p)
		return 0, bits
	}
	if len(children) != 2 {
		return math.Inf(-1), nil
	}

	l1, b1 := c.cladeLogProb(t, children[0])
	if b1 == nil {
		return math.Inf(-1), nil
	}
	l2, b2 := c.cladeLogProb(t, children[1])
	if b2 == nil {
		return math.Inf(-1), nil
	}

	bits := b1.Union(b2)
	cl := c.clades[bits.String()]
	if cl == nil {
		return math.Inf(-1), nil
	}
	c1 := c.clades[b1.String()]
	c2 := c.clades[b2.String()]
	for _, p := range cl.partitions {
		if p.isPair(c1, c2) {
			if p.ccp <= 0 {
				return math.Inf(-1), nil
			}
			return l1 + l2 + p.logCCP, bits
		}
	}
	return math.Inf(-1), nil
}
