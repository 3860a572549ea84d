// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package tree implements rooted,
// strictly binary phylogenetic trees.
//
// Nodes are identified by integer IDs
// assigned in the order of addition,
// with the root always at ID 0.
// Each node has an optional label
// (terminal nodes must be labelled),
// an optional branch length
// (the length of the branch to its parent,
// defaulting to 1 when undefined),
// and a height
// (the distance to its most distant descendant terminal).
package tree

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNotBinary is returned
// when a tree operation would produce,
// or encounters,
// a non-binary node.
var ErrNotBinary = errors.New("tree: non-binary node")

// ErrUnlabeled is returned
// when a terminal node has no label.
var ErrUnlabeled = errors.New("tree: unlabeled terminal")

type node struct {
	id       int
	parent   int
	children []int
	label    string

	// branch length to the parent,
	// negative if undefined
	brLen float64

	height float64
}

// A Tree is a rooted binary phylogenetic tree.
type Tree struct {
	name  string
	nodes []*node

	terms     map[string]int
	hasHeight bool
}

// New creates a new empty tree with a given name.
func New(name string) *Tree {
	return &Tree{name: name}
}

// Add adds a node as a child of the indicated node
// and returns the ID of the added node.
// Use parent = -1 to add the root
// (valid only on an empty tree).
// The label can be empty for internal nodes.
// A negative branch length means an undefined length
// (reported as the default of 1).
//
// A node can have at most two children;
// adding a third child returns ErrNotBinary.
func (t *Tree) Add(parent int, label string, brLen float64) (int, error) {
	if parent == -1 {
		if len(t.nodes) > 0 {
			return -1, fmt.Errorf("tree %q: root already defined", t.name)
		}
		t.nodes = append(t.nodes, &node{
			id:     0,
			parent: -1,
			label:  label,
			brLen:  brLen,
		})
		t.terms = nil
		return 0, nil
	}
	if parent < 0 || parent >= len(t.nodes) {
		return -1, fmt.Errorf("tree %q: invalid parent node %d", t.name, parent)
	}
	p := t.nodes[parent]
	if len(p.children) >= 2 {
		return -1, fmt.Errorf("tree %q: node %d: %w", t.name, parent, ErrNotBinary)
	}
	n := &node{
		id:     len(t.nodes),
		parent: parent,
		label:  label,
		brLen:  brLen,
	}
	t.nodes = append(t.nodes, n)
	p.children = append(p.children, n.id)
	t.terms = nil
	t.hasHeight = false
	return n.id, nil
}

// Name returns the name of the tree.
func (t *Tree) Name() string {
	return t.name
}

// SetName sets the name of the tree.
func (t *Tree) SetName(name string) {
	t.name = name
}

// Root returns the ID of the root node,
// or -1 if the tree is empty.
func (t *Tree) Root() int {
	if len(t.nodes) == 0 {
		return -1
	}
	return 0
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Nodes returns the IDs of all nodes in the tree.
func (t *Tree) Nodes() []int {
	ns := make([]int, len(t.nodes))
	for i := range t.nodes {
		ns[i] = i
	}
	return ns
}

// Children returns the IDs of the children of a node.
func (t *Tree) Children(id int) []int {
	n := t.nodes[id]
	children := make([]int, len(n.children))
	copy(children, n.children)
	return children
}

// Parent returns the ID of the parent of a node,
// or -1 for the root.
func (t *Tree) Parent(id int) int {
	return t.nodes[id].parent
}

// IsRoot reports whether a node is the root.
func (t *Tree) IsRoot(id int) bool {
	return t.nodes[id].parent == -1
}

// IsTerm reports whether a node is a terminal.
func (t *Tree) IsTerm(id int) bool {
	return len(t.nodes[id].children) == 0
}

// Label returns the label of a node,
// or an empty string if the node is unlabeled.
func (t *Tree) Label(id int) string {
	return t.nodes[id].label
}

// BranchLength returns the length of the branch
// between a node and its parent.
// An undefined branch length is reported as 1.
// The root branch length is 0.
func (t *Tree) BranchLength(id int) float64 {
	n := t.nodes[id]
	if n.parent == -1 {
		return 0
	}
	if n.brLen < 0 {
		return 1
	}
	return n.brLen
}

// Height returns the height of a node:
// the maximum path length,
// in branch length units,
// from the node to any of its descendant terminals.
func (t *Tree) Height(id int) float64 {
	if !t.hasHeight {
		t.updateHeights(t.Root())
		t.hasHeight = true
	}
	return t.nodes[id].height
}

// SetHeight sets an explicit height for a node,
// overriding the height derived from branch lengths.
func (t *Tree) SetHeight(id int, h float64) {
	t.nodes[id].height = h
	t.hasHeight = true
}

func (t *Tree) updateHeights(id int) float64 {
	n := t.nodes[id]
	n.height = 0
	for _, c := range n.children {
		h := t.updateHeights(c) + t.BranchLength(c)
		if h > n.height {
			n.height = h
		}
	}
	return n.height
}

// Terms returns the labels of the terminals of the tree,
// in ascending lexicographic order.
func (t *Tree) Terms() []string {
	t.indexTerms()
	ts := make([]string, 0, len(t.terms))
	for l := range t.terms {
		ts = append(ts, l)
	}
	slices.Sort(ts)
	return ts
}

// TermID returns the node ID of the terminal
// with the indicated label.
func (t *Tree) TermID(label string) (int, bool) {
	t.indexTerms()
	id, ok := t.terms[label]
	return id, ok
}

func (t *Tree) indexTerms() {
	if t.terms != nil {
		return
	}
	t.terms = make(map[string]int)
	for _, n := range t.nodes {
		if len(n.children) == 0 && n.label != "" {
			t.terms[n.label] = n.id
		}
	}
}

// Validate checks that the tree is well formed:
// non-empty,
// every internal node has exactly two children,
// and every terminal has a unique label.
func (t *Tree) Validate() error {
	if len(t.nodes) == 0 {
		return fmt.Errorf("tree %q: empty tree", t.name)
	}
	seen := make(map[string]bool, len(t.nodes))
	for _, n := range t.nodes {
		if len(n.children) == 1 {
			return fmt.Errorf("tree %q: node %d: single child: %w", t.name, n.id, ErrNotBinary)
		}
		if len(n.children) > 0 {
			continue
		}
		if n.label == "" {
			return fmt.Errorf("tree %q: node %d: %w", t.name, n.id, ErrUnlabeled)
		}
		if seen[n.label] {
			return fmt.Errorf("tree %q: node %d: repeated terminal %q", t.name, n.id, n.label)
		}
		seen[n.label] = true
	}
	return nil
}
