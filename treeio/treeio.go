// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package treeio implements reading
// of phylogenetic tree files.
//
// Three formats are supported:
// newick files
// (one or more parenthetical trees ended by semicolons),
// nexus files
// (the trees block,
// with or without a translate table),
// and tab-delimited timetree collections
// as used by PhyGeo.
// The format can be given explicitly
// or detected from the content of the file.
package treeio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alexeid/phylo-mds/tree"
	"github.com/js-arias/timetree"
)

// ErrFormat is returned when a file format
// is unknown or unsupported.
var ErrFormat = errors.New("treeio: unknown tree format")

// A Format is a tree file format.
type Format string

// Valid formats.
const (
	// Detect the format from the file content.
	Auto Format = "auto"

	// Parenthetical trees ended by semicolons.
	Newick Format = "newick"

	// A nexus file with a trees block.
	Nexus Format = "nexus"

	// A tab-delimited timetree collection.
	Tab Format = "tab"

	// Detected but unsupported formats.
	PhyloXML Format = "phyloxml"
	NeXML    Format = "nexml"
	PhyJSON  Format = "phyjson"
)

// Detect returns the format of a tree file
// from its content.
// The heuristic looks at the first marker of the file:
// "#nexus" for nexus,
// "(" for newick,
// "<" (including "<?xml") for NeXML
// if "nexml" occurs in the first 512 bytes
// and for phyloXML otherwise,
// "{" for phyJSON,
// a tab character on the first line
// for a timetree collection,
// and newick otherwise.
func Detect(data []byte) Format {
	s := bytes.TrimLeftFunc(data, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	low := strings.ToLower(string(s[:min(len(s), 512)]))
	switch {
	case strings.HasPrefix(low, "#nexus"):
		return Nexus
	case strings.HasPrefix(low, "<?xml"), strings.HasPrefix(low, "<"):
		if strings.Contains(low, "nexml") {
			return NeXML
		}
		return PhyloXML
	case strings.HasPrefix(low, "{"):
		return PhyJSON
	case strings.HasPrefix(low, "("):
		return Newick
	}
	if i := strings.IndexByte(low, '\n'); i >= 0 {
		low = low[:i]
	}
	if strings.IndexByte(low, '\t') >= 0 {
		return Tab
	}
	return Newick
}

// Read reads all trees from a tree file.
// If the format is Auto,
// it is detected from the file content.
// Trees without a name in the file
// are named "tree-1", "tree-2", and so on,
// by their position in the file.
func Read(r io.Reader, f Format) ([]*tree.Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("treeio: %v", err)
	}
	if f == Auto || f == "" {
		f = Detect(data)
	}
	switch f {
	case Newick:
		return readNewick(data, nil)
	case Nexus:
		return readNexus(data)
	case Tab:
		return readTab(data)
	case PhyloXML, NeXML, PhyJSON:
		return nil, fmt.Errorf("%w: %q is not supported", ErrFormat, f)
	}
	return nil, fmt.Errorf("%w: %q", ErrFormat, f)
}

func readTab(data []byte) ([]*tree.Tree, error) {
	c, err := timetree.ReadTSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("treeio: %v", err)
	}
	var ts []*tree.Tree
	for _, name := range c.Names() {
		t, err := tree.FromTimetree(c.Tree(name))
		if err != nil {
			return nil, fmt.Errorf("treeio: %v", err)
		}
		ts = append(ts, t)
	}
	if len(ts) == 0 {
		return nil, fmt.Errorf("%w: no trees found", ErrFormat)
	}
	return ts, nil
}
