// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package tree

import (
	"fmt"

	"github.com/js-arias/timetree"
)

// millionYears is the unit used to scale
// the ages of a time calibrated tree
// into branch length units.
const millionYears = 1_000_000

// FromTimetree creates a tree
// from a time calibrated timetree tree.
// Ages in years are scaled to million years,
// so branch lengths and node heights
// are in million year units.
func FromTimetree(src *timetree.Tree) (*Tree, error) {
	t := New(src.Name())
	ids := make(map[int]int, len(src.Nodes()))
	if err := copyTimetree(t, src, ids, src.Root(), -1); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	// Heights are set only after the full copy:
	// with fossil terminals the tree is not ultrametric
	// and the ages can not be recovered
	// from the branch lengths alone.
	for sid, nid := range ids {
		t.SetHeight(nid, float64(src.Age(sid))/millionYears)
	}
	return t, nil
}

func copyTimetree(t *Tree, src *timetree.Tree, ids map[int]int, id, parent int) error {
	brLen := -1.0
	if parent != -1 {
		brLen = float64(src.Age(src.Parent(id))-src.Age(id)) / millionYears
	}
	nid, err := t.Add(parent, src.Taxon(id), brLen)
	if err != nil {
		return fmt.Errorf("on tree %q: %v", src.Name(), err)
	}
	ids[id] = nid
	for _, c := range src.Children(id) {
		if err := copyTimetree(t, src, ids, c, nid); err != nil {
			return err
		}
	}
	return nil
}
