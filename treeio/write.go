// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package treeio

import (
	"strconv"
	"strings"

	"github.com/alexeid/phylo-mds/tree"
)

// NewickString returns the parenthetical form of a tree,
// with branch lengths,
// ended by a semicolon.
func NewickString(t *tree.Tree) string {
	var sb strings.Builder
	writeClade(&sb, t, t.Root())
	sb.WriteByte(';')
	return sb.String()
}

func writeClade(sb *strings.Builder, t *tree.Tree, id int) {
	children := t.Children(id)
	if len(children) > 0 {
		sb.WriteByte('(')
		for i, c := range children {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeClade(sb, t, c)
		}
		sb.WriteByte(')')
	}
	sb.WriteString(quoteLabel(t.Label(id)))
	if !t.IsRoot(id) {
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(t.BranchLength(id), 'g', -1, 64))
	}
}

func quoteLabel(label string) string {
	if label == "" {
		return ""
	}
	if strings.ContainsAny(label, "():,;[] \t'") {
		return "'" + strings.ReplaceAll(label, "'", "''") + "'"
	}
	return label
}
