// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package taxa implements an index of taxon names
// and sets of taxa backed by bit sets.
//
// The index assigns a stable bit position to each taxon name
// (names are sorted in lexicographic ascending order),
// so a set of taxa can be stored
// as a fixed-width bit vector.
package taxa

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/fredericlemoine/bitset"
)

// An Index is a bijection
// between a set of taxon names
// and the bit positions [0, Len).
type Index struct {
	names []string
	pos   map[string]int
}

// NewIndex creates a new index
// from a collection of taxon names.
// Names are de-duplicated
// and sorted in ascending order
// before positions are assigned.
func NewIndex(names []string) *Index {
	ns := make([]string, len(names))
	copy(ns, names)
	slices.Sort(ns)
	ns = slices.Compact(ns)

	ix := &Index{
		names: ns,
		pos:   make(map[string]int, len(ns)),
	}
	for i, n := range ns {
		ix.pos[n] = i
	}
	return ix
}

// Len returns the number of taxa in the index.
func (ix *Index) Len() int {
	return len(ix.names)
}

// Pos returns the bit position of a taxon name.
func (ix *Index) Pos(name string) (int, bool) {
	p, ok := ix.pos[name]
	return p, ok
}

// Name returns the taxon name at a bit position.
func (ix *Index) Name(i int) string {
	return ix.names[i]
}

// Names returns the taxon names in ascending order.
func (ix *Index) Names() []string {
	ns := make([]string, len(ix.names))
	copy(ns, ix.names)
	return ns
}

// A Set is a fixed-width set of taxa
// stored as a bit vector.
// Sets combined or compared with each other
// must have the same width.
type Set struct {
	ln   int
	bits *bitset.BitSet
}

// NewSet creates an empty set for ln taxa.
func NewSet(ln int) *Set {
	return &Set{
		ln:   ln,
		bits: bitset.New(uint(ln)),
	}
}

// Full creates a set with all ln taxa present.
func Full(ln int) *Set {
	s := NewSet(ln)
	s.AddRange(0, ln)
	return s
}

// FromString creates a set of width ln
// from the canonical string form of a set
// (ascending positions joined by commas).
func FromString(s string, ln int) (*Set, error) {
	ns := NewSet(ln)
	if s == "" {
		return ns, nil
	}
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid set %q: %v", s, err)
		}
		if v < 0 || v >= ln {
			return nil, fmt.Errorf("invalid set %q: position %d out of range", s, v)
		}
		ns.Add(v)
	}
	return ns, nil
}

// Add adds the taxon at position i.
func (s *Set) Add(i int) {
	s.bits.Set(uint(i))
}

// AddRange adds all positions in [lo, hi).
func (s *Set) AddRange(lo, hi int) {
	for i := lo; i < hi; i++ {
		s.bits.Set(uint(i))
	}
}

// Del removes the taxon at position i.
func (s *Set) Del(i int) {
	s.bits.Clear(uint(i))
}

// Has reports whether the taxon at position i
// is in the set.
func (s *Set) Has(i int) bool {
	return s.bits.Test(uint(i))
}

// Len returns the width of the set
// (the number of taxa in its index,
// not the number of taxa present).
func (s *Set) Len() int {
	return s.ln
}

// Count returns the number of taxa in the set.
func (s *Set) Count() int {
	return int(s.bits.Count())
}

// NextSet returns the position of the first taxon
// at or after position i,
// and false if there is none.
func (s *Set) NextSet(i int) (int, bool) {
	p, ok := s.bits.NextSet(uint(i))
	if !ok || int(p) >= s.ln {
		return 0, false
	}
	return int(p), true
}

// Union returns a new set
// with the taxa of s and o.
func (s *Set) Union(o *Set) *Set {
	return &Set{
		ln:   s.ln,
		bits: s.bits.Union(o.bits),
	}
}

// Intersection returns a new set
// with the taxa present in both s and o.
func (s *Set) Intersection(o *Set) *Set {
	return &Set{
		ln:   s.ln,
		bits: s.bits.Intersection(o.bits),
	}
}

// SymmetricDifference returns a new set
// with the taxa present in exactly one of s and o.
func (s *Set) SymmetricDifference(o *Set) *Set {
	return &Set{
		ln:   s.ln,
		bits: s.bits.SymmetricDifference(o.bits),
	}
}

// Intersects reports whether s and o
// share at least one taxon.
func (s *Set) Intersects(o *Set) bool {
	return s.bits.Intersection(o.bits).Any()
}

// Equal reports whether s and o
// contain exactly the same taxa.
func (s *Set) Equal(o *Set) bool {
	return s.ln == o.ln && s.bits.Equal(o.bits)
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	return &Set{
		ln:   s.ln,
		bits: s.bits.Clone(),
	}
}

// String returns the canonical string form of the set:
// the positions of the taxa present,
// in ascending order,
// joined by commas.
// Two sets of the same width are equal
// if, and only if, their strings are equal,
// so the string can be used as a map key.
func (s *Set) String() string {
	var sb strings.Builder
	first := true
	for i, ok := s.NextSet(0); ok; i, ok = s.NextSet(i + 1) {
		if !first {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(i))
		first = false
	}
	return sb.String()
}

// Names returns the names of the taxa in the set,
// in ascending order,
// resolved against an index.
func (s *Set) Names(ix *Index) []string {
	ns := make([]string, 0, s.Count())
	for i, ok := s.NextSet(0); ok; i, ok = s.NextSet(i + 1) {
		ns = append(ns, ix.Name(i))
	}
	return ns
}
