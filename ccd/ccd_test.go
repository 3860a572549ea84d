// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ccd_test

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/alexeid/phylo-mds/ccd"
	"github.com/alexeid/phylo-mds/taxa"
	"github.com/alexeid/phylo-mds/tree"
	"github.com/alexeid/phylo-mds/treeio"
)

func readTrees(t testing.TB, data string) []*tree.Tree {
	t.Helper()
	ts, err := treeio.Read(strings.NewReader(data), treeio.Newick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ts
}

func TestSingleTree(t *testing.T) {
	ts := readTrees(t, "((A,B),C);")
	d, err := ccd.FromTrees(ts, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.NumTrees() != 1 {
		t.Errorf("trees: got %d, want 1", d.NumTrees())
	}
	if d.NumLeaves() != 3 {
		t.Errorf("leaves: got %d, want 3", d.NumLeaves())
	}
	// A, B, C, (A,B), and the root
	if d.NumClades() != 5 {
		t.Errorf("clades: got %d, want 5", d.NumClades())
	}

	// every clade is in every tree
	for _, cl := range d.Clades() {
		if p := cl.Probability(); math.Abs(p-1) > 1e-12 {
			t.Errorf("clade {%s}: probability %g, want 1", cl.Taxa(), p)
		}
	}

	if h := d.Entropy(); math.Abs(h) > 1e-12 {
		t.Errorf("entropy: got %g, want 0", h)
	}
	if h := d.EntropyLewis(); math.Abs(h) > 1e-12 {
		t.Errorf("Lewis entropy: got %g, want 0", h)
	}
	if p := d.MaxTreeProbability(); math.Abs(p-1) > 1e-12 {
		t.Errorf("max tree probability: got %g, want 1", p)
	}
	if lp := d.TreeLogProbability(ts[0]); math.Abs(lp) > 1e-12 {
		t.Errorf("tree log probability: got %g, want 0", lp)
	}
}

func TestThreeTopologies(t *testing.T) {
	ts := readTrees(t, "((A,B),C);\n((A,C),B);\n((B,C),A);")
	d, err := ccd.FromTrees(ts, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	root := d.Root()
	if got := len(root.Partitions()); got != 3 {
		t.Fatalf("root partitions: got %d, want 3", got)
	}
	for _, p := range root.Partitions() {
		if math.Abs(p.CCP()-1.0/3) > 1e-12 {
			t.Errorf("root partition: ccp %g, want 1/3", p.CCP())
		}
	}

	want := math.Log(3)
	if h := d.Entropy(); math.Abs(h-want) > 1e-9 {
		t.Errorf("entropy: got %g, want %g", h, want)
	}
	if h := d.EntropyLewis(); math.Abs(h-want) > 1e-9 {
		t.Errorf("Lewis entropy: got %g, want %g", h, want)
	}
}

func TestCladeFrequencies(t *testing.T) {
	ts := readTrees(t, "((A,B),C);\n((A,B),C);\n((A,C),B);")
	d, err := ccd.FromTrees(ts, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	root := d.Root()
	ps := root.Partitions()
	if len(ps) != 2 {
		t.Fatalf("root partitions: got %d, want 2", len(ps))
	}
	ccps := []float64{ps[0].CCP(), ps[1].CCP()}
	if ccps[0] < ccps[1] {
		ccps[0], ccps[1] = ccps[1], ccps[0]
	}
	if math.Abs(ccps[0]-2.0/3) > 1e-12 || math.Abs(ccps[1]-1.0/3) > 1e-12 {
		t.Errorf("root ccps: got %v, want {2/3, 1/3}", ccps)
	}

	if p := d.MaxTreeProbability(); math.Abs(p-2.0/3) > 1e-12 {
		t.Errorf("max tree probability: got %g, want 2/3", p)
	}
	want := math.Log(2.0 / 3)
	if lp := d.TreeLogProbability(ts[0]); math.Abs(lp-want) > 1e-12 {
		t.Errorf("tree log probability: got %g, want %g", lp, want)
	}

	// the clade {A,B} is in two of the three trees
	ab := taxa.NewSet(3)
	pa, _ := d.Taxa().Pos("A")
	pb, _ := d.Taxa().Pos("B")
	ab.Add(pa)
	ab.Add(pb)
	cl := d.Clade(ab)
	if cl == nil {
		t.Fatalf("clade {A, B} not found")
	}
	if cl.Occurrences() != 2 {
		t.Errorf("clade {A, B}: occurrences %d, want 2", cl.Occurrences())
	}
	if p := cl.Probability(); math.Abs(p-2.0/3) > 1e-12 {
		t.Errorf("clade {A, B}: probability %g, want 2/3", p)
	}

	mt, err := d.MaxTree()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := distanceRF(t, mt, ts[0]); got != 0 {
		t.Errorf("max tree: RF distance to the best topology %d, want 0", got)
	}
}

// distanceRF is a minimal split comparison
// used to check the topology of the max tree.
func distanceRF(t testing.TB, t1, t2 *tree.Tree) int {
	t.Helper()
	sp := func(tr *tree.Tree) map[string]bool {
		m := make(map[string]bool)
		var walk func(id int) []string
		walk = func(id int) []string {
			if tr.IsTerm(id) {
				return []string{tr.Label(id)}
			}
			var ls []string
			for _, c := range tr.Children(id) {
				ls = append(ls, walk(c)...)
			}
			if !tr.IsRoot(id) {
				s := append([]string{}, ls...)
				slices.Sort(s)
				m[strings.Join(s, "|")] = true
			}
			return ls
		}
		walk(tr.Root())
		return m
	}
	s1, s2 := sp(t1), sp(t2)
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

func TestPartitionSums(t *testing.T) {
	ts := readTrees(t, "(((A,B),(C,D)),E);\n((((A,B),C),D),E);\n(((A,(B,C)),D),E);\n(((A,B),(C,D)),E);")
	d, err := ccd.FromTrees(ts, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, cl := range d.Clades() {
		if cl.IsLeaf() {
			continue
		}
		occ := 0
		sum := 0.0
		for _, p := range cl.Partitions() {
			occ += p.Occurrences()
			sum += p.CCP()
		}
		if occ != cl.Occurrences() {
			t.Errorf("clade {%s}: partition occurrences %d, clade occurrences %d", cl.Taxa(), occ, cl.Occurrences())
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("clade {%s}: ccp sum %g, want 1", cl.Taxa(), sum)
		}
		if p := cl.Probability(); p < 0 || p > 1 {
			t.Errorf("clade {%s}: probability %g out of range", cl.Taxa(), p)
		}
	}

	if h := d.Entropy(); h < -1e-12 {
		t.Errorf("entropy: got %g, want >= 0", h)
	}
	if h := d.EntropyLewis(); h < -1e-12 {
		t.Errorf("Lewis entropy: got %g, want >= 0", h)
	}

	// trees used in the construction have a positive probability
	for i, tr := range ts {
		if lp := d.TreeLogProbability(tr); math.IsInf(lp, -1) {
			t.Errorf("tree %d: log probability is -Inf", i)
		}
	}

	// an unseen topology has a zero probability
	unseen := readTrees(t, "((((A,D),C),B),E);")
	if lp := d.TreeLogProbability(unseen[0]); !math.IsInf(lp, -1) {
		t.Errorf("unseen tree: log probability %g, want -Inf", lp)
	}

	// an unknown taxon has a zero probability
	alien := readTrees(t, "((A,B),X);")
	if lp := d.TreeLogProbability(alien[0]); !math.IsInf(lp, -1) {
		t.Errorf("alien tree: log probability %g, want -Inf", lp)
	}
}

func TestBurnin(t *testing.T) {
	ts := readTrees(t, "((A,C),B);\n((A,C),B);\n((A,B),C);\n((A,B),C);")
	d, err := ccd.FromTrees(ts, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.NumTrees() != 2 {
		t.Errorf("trees after burn-in: got %d, want 2", d.NumTrees())
	}
	// only the post burn-in topology remains
	if h := d.Entropy(); math.Abs(h) > 1e-12 {
		t.Errorf("entropy: got %g, want 0", h)
	}

	if _, err := ccd.FromTrees(ts, 2); err == nil {
		t.Errorf("invalid burn-in: expecting error")
	}
	if _, err := ccd.FromTrees(nil, 0); err == nil {
		t.Errorf("no trees: expecting error")
	}
}

func TestAddTreeErrors(t *testing.T) {
	ts := readTrees(t, "((A,B),C);")
	d, err := ccd.FromTrees(ts, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	alien := readTrees(t, "((A,B),X);")
	if err := d.AddTree(alien[0]); !errors.Is(err, ccd.ErrUnknownTaxon) {
		t.Errorf("alien tree: got error %v, want %v", err, ccd.ErrUnknownTaxon)
	}
}

func TestPartialCoverage(t *testing.T) {
	// trees over overlapping,
	// but different,
	// taxon sets;
	// no single tree spans the whole index
	ts := readTrees(t, "((A,B),C);\n((A,B),D);")
	d, err := ccd.FromTrees(ts, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.NumTrees() != 2 {
		t.Errorf("trees: got %d, want 2", d.NumTrees())
	}
	if d.NumLeaves() != 4 {
		t.Errorf("leaves: got %d, want 4", d.NumLeaves())
	}

	// the partition occurrence sum invariant
	// holds with partial trees too
	for _, cl := range d.Clades() {
		if cl.IsLeaf() || cl.Occurrences() == 0 {
			continue
		}
		occ := 0
		sum := 0.0
		for _, p := range cl.Partitions() {
			occ += p.Occurrences()
			sum += p.CCP()
		}
		if occ != cl.Occurrences() {
			t.Errorf("clade {%s}: partition occurrences %d, clade occurrences %d", cl.Taxa(), occ, cl.Occurrences())
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("clade {%s}: ccp sum %g, want 1", cl.Taxa(), sum)
		}
	}

	// no tree contains the full taxon set,
	// so no probability mass reaches the terminals
	pa, _ := d.Taxa().Pos("A")
	a := taxa.NewSet(4)
	a.Add(pa)
	cl := d.Clade(a)
	if cl == nil {
		t.Fatalf("terminal clade A not found")
	}
	if cl.Occurrences() != 2 {
		t.Errorf("terminal A: occurrences %d, want 2", cl.Occurrences())
	}
	if p := cl.Probability(); p >= 1 {
		t.Errorf("terminal A: probability %g, want < 1", p)
	}

	if h := d.Entropy(); h < -1e-12 {
		t.Errorf("entropy: got %g, want >= 0", h)
	}
	// the subtrees of both source trees
	// are known to the distribution
	for i, tr := range ts {
		if lp := d.TreeLogProbability(tr); math.IsInf(lp, -1) {
			t.Errorf("tree %d: log probability is -Inf", i)
		}
	}
}

func TestPartialCoverageMixed(t *testing.T) {
	// one full tree and one partial tree:
	// the partial tree still contributes
	// to the clades it contains
	ts := readTrees(t, "((A,B),(C,D));\n((A,B),C);")
	d, err := ccd.FromTrees(ts, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pa, _ := d.Taxa().Pos("A")
	pb, _ := d.Taxa().Pos("B")
	ab := taxa.NewSet(4)
	ab.Add(pa)
	ab.Add(pb)
	cl := d.Clade(ab)
	if cl == nil {
		t.Fatalf("clade {A, B} not found")
	}
	if cl.Occurrences() != 2 {
		t.Errorf("clade {A, B}: occurrences %d, want 2", cl.Occurrences())
	}
	if p := cl.Probability(); math.Abs(p-1) > 1e-12 {
		t.Errorf("clade {A, B}: probability %g, want 1", p)
	}

	// the top clade of the partial tree
	// is never a child of any other clade,
	// so it gets no probability mass
	pc, _ := d.Taxa().Pos("C")
	abc := ab.Clone()
	abc.Add(pc)
	top := d.Clade(abc)
	if top == nil {
		t.Fatalf("clade {A, B, C} not found")
	}
	if p := top.Probability(); p != 0 {
		t.Errorf("clade {A, B, C}: probability %g, want 0", p)
	}

	if h := d.Entropy(); h < -1e-12 {
		t.Errorf("entropy: got %g, want >= 0", h)
	}
}

func TestProgress(t *testing.T) {
	ts := readTrees(t, "((A,B),C);\n((A,C),B);\n((B,C),A);")

	var calls int
	_, err := ccd.FromTreesProgress(ts, 0, func(done, total int) error {
		calls++
		if total != 3 {
			t.Errorf("progress: total %d, want 3", total)
		}
		if done != calls {
			t.Errorf("progress: done %d at call %d", done, calls)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("progress calls: got %d, want 3", calls)
	}

	cancel := errors.New("stop")
	if _, err := ccd.FromTreesProgress(ts, 0, func(done, total int) error {
		return cancel
	}); !errors.Is(err, cancel) {
		t.Errorf("cancellation: got error %v, want %v", err, cancel)
	}
}

func TestStatistics(t *testing.T) {
	ts := readTrees(t, "((A,B),C);\n((A,B),C);\n((A,C),B);")
	d, err := ccd.FromTrees(ts, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := d.Statistics()
	if st.Trees != 3 || st.Leaves != 3 {
		t.Errorf("statistics: got %d trees, %d leaves", st.Trees, st.Leaves)
	}
	if math.Abs(st.MaxTreeProbability-2.0/3) > 1e-12 {
		t.Errorf("max tree probability: got %g, want 2/3", st.MaxTreeProbability)
	}
	if len(st.TopClades) == 0 {
		t.Fatalf("no top clades")
	}
	top := st.TopClades[0]
	if math.Abs(top.Probability-2.0/3) > 1e-12 {
		t.Errorf("top clade: probability %g, want 2/3", top.Probability)
	}
	if len(top.Taxa) != 2 || top.Taxa[0] != "A" || top.Taxa[1] != "B" {
		t.Errorf("top clade: taxa %v, want [A B]", top.Taxa)
	}
	for i := 1; i < len(st.TopClades); i++ {
		if st.TopClades[i].Probability > st.TopClades[i-1].Probability {
			t.Errorf("top clades are not sorted")
		}
	}
}
