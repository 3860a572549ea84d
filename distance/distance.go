// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package distance implements distance metrics
// between pairs of rooted phylogenetic trees,
// and the pairwise distance matrix of a tree set.
package distance

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/alexeid/phylo-mds/tree"
)

// A Metric is a tree to tree distance metric.
type Metric string

// Valid metrics.
const (
	// Robinson-Foulds distance:
	// the size of the symmetric difference
	// of the non-trivial splits of the two trees.
	RobinsonFoulds Metric = "rf"

	// Subtree prune and regraft distance,
	// approximated as ceil(RF/2).
	// This is a lower bound of the true SPR distance.
	SPR Metric = "spr"

	// Mean absolute difference of the path lengths
	// between pairs of terminals
	// shared by the two trees.
	Path Metric = "path"
)

// ParseMetric returns the metric with a given name.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(s)); m {
	case RobinsonFoulds, SPR, Path:
		return m, nil
	}
	return "", fmt.Errorf("unknown distance metric %q", s)
}

// Between returns the distance between two trees
// under the metric.
func (m Metric) Between(t1, t2 *tree.Tree) float64 {
	switch m {
	case RobinsonFoulds:
		return float64(RF(t1, t2))
	case SPR:
		return float64(SPRDist(t1, t2))
	case Path:
		return PathDist(t1, t2)
	}
	panic(fmt.Sprintf("unknown distance metric %q", string(m)))
}

// RF returns the Robinson-Foulds distance
// between two trees:
// the number of non-trivial splits
// present in exactly one of the two trees.
func RF(t1, t2 *tree.Tree) int {
	s1 := splits(t1)
	s2 := splits(t2)

	d := 0
	for s := range s1 {
		if !s2[s] {
			d++
		}
	}
	for s := range s2 {
		if !s1[s] {
			d++
		}
	}
	return d
}

// SPRDist returns the approximate
// subtree prune and regraft distance
// between two trees,
// defined as ceil(RF/2).
func SPRDist(t1, t2 *tree.Tree) int {
	return (RF(t1, t2) + 1) / 2
}

// splits returns the set of non-trivial splits of a tree.
// Each split is keyed by its two sides,
// each side being the sorted terminal labels;
// the sides are ordered by their string form
// so that the key is independent
// of the rooting of the edge.
func splits(t *tree.Tree) map[string]bool {
	terms := t.Terms()

	sp := make(map[string]bool)
	for _, n := range t.Nodes() {
		if t.IsRoot(n) || t.IsTerm(n) {
			continue
		}
		in := make(map[string]bool)
		for _, l := range termsUnder(t, n) {
			in[l] = true
		}
		side := make([]string, 0, len(in))
		other := make([]string, 0, len(terms)-len(in))
		for _, l := range terms {
			if in[l] {
				side = append(side, l)
				continue
			}
			other = append(other, l)
		}
		if len(side) == 0 || len(other) == 0 {
			continue
		}
		a := strings.Join(side, "\t")
		b := strings.Join(other, "\t")
		if b < a {
			a, b = b, a
		}
		sp[a+"\n"+b] = true
	}
	return sp
}

// termsUnder returns the labels of the terminals
// descending from a node.
func termsUnder(t *tree.Tree, id int) []string {
	if t.IsTerm(id) {
		return []string{t.Label(id)}
	}
	var ls []string
	for _, c := range t.Children(id) {
		ls = append(ls, termsUnder(t, c)...)
	}
	return ls
}

// PathDist returns the path distance between two trees:
// the mean absolute difference
// of the branch length path between two terminals,
// over all pairs of terminals
// present in both trees.
// An undefined branch length counts as 1.
// If the trees share less than two terminals,
// the distance is +Inf.
func PathDist(t1, t2 *tree.Tree) float64 {
	p1 := pathLengths(t1)
	p2 := pathLengths(t2)

	var sum float64
	var n int
	for k, d1 := range p1 {
		d2, ok := p2[k]
		if !ok {
			continue
		}
		sum += math.Abs(d1 - d2)
		n++
	}
	if n == 0 {
		return math.Inf(1)
	}
	return sum / float64(n)
}

// pathLengths returns the branch length path
// between every unordered pair of terminals of a tree,
// keyed by the sorted pair of labels.
func pathLengths(t *tree.Tree) map[string]float64 {
	terms := t.Terms()
	slices.Sort(terms)

	paths := make(map[string]float64, len(terms)*(len(terms)-1)/2)
	for i, a := range terms {
		ai, _ := t.TermID(a)

		// cumulative distance from a
		// to each of its ancestors
		toAnc := make(map[int]float64)
		d := 0.0
		for n := ai; n != -1; n = t.Parent(n) {
			toAnc[n] = d
			d += t.BranchLength(n)
		}

		for _, b := range terms[i+1:] {
			bi, _ := t.TermID(b)
			d := 0.0
			n := bi
			for {
				if up, ok := toAnc[n]; ok {
					d += up
					break
				}
				d += t.BranchLength(n)
				n = t.Parent(n)
			}
			paths[a+"\t"+b] = d
		}
	}
	return paths
}
