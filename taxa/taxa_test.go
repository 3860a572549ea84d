// Copyright © 2025 The phylo-mds authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package taxa_test

import (
	"reflect"
	"testing"

	"github.com/alexeid/phylo-mds/taxa"
)

func TestIndex(t *testing.T) {
	ix := taxa.NewIndex([]string{"Homo", "Pan", "Gorilla", "Pan", "Pongo"})
	if ix.Len() != 4 {
		t.Errorf("index length: got %d, want %d", ix.Len(), 4)
	}

	want := []string{"Gorilla", "Homo", "Pan", "Pongo"}
	if got := ix.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("index names: got %v, want %v", got, want)
	}
	for i, n := range want {
		p, ok := ix.Pos(n)
		if !ok {
			t.Errorf("taxon %q: not in index", n)
			continue
		}
		if p != i {
			t.Errorf("taxon %q: got position %d, want %d", n, p, i)
		}
		if ix.Name(i) != n {
			t.Errorf("position %d: got taxon %q, want %q", i, ix.Name(i), n)
		}
	}
	if _, ok := ix.Pos("Hylobates"); ok {
		t.Errorf("taxon %q: should not be in index", "Hylobates")
	}
}

func TestSet(t *testing.T) {
	s := taxa.NewSet(70)
	for _, i := range []int{0, 3, 33, 69} {
		s.Add(i)
	}
	if s.Count() != 4 {
		t.Errorf("count: got %d, want %d", s.Count(), 4)
	}
	if !s.Has(33) {
		t.Errorf("position 33 should be set")
	}
	if s.Has(34) {
		t.Errorf("position 34 should not be set")
	}

	s.Del(3)
	if s.Has(3) {
		t.Errorf("position 3 should be removed")
	}
	s.Add(3)

	if got := s.String(); got != "0,3,33,69" {
		t.Errorf("string form: got %q, want %q", got, "0,3,33,69")
	}

	var got []int
	for i, ok := s.NextSet(0); ok; i, ok = s.NextSet(i + 1) {
		got = append(got, i)
	}
	if want := []int{0, 3, 33, 69}; !reflect.DeepEqual(got, want) {
		t.Errorf("set positions: got %v, want %v", got, want)
	}
}

func TestSetOps(t *testing.T) {
	a := taxa.NewSet(10)
	a.AddRange(0, 5)
	b := taxa.NewSet(10)
	b.AddRange(3, 8)

	if got := a.Union(b).String(); got != "0,1,2,3,4,5,6,7" {
		t.Errorf("union: got %q", got)
	}
	if got := a.Intersection(b).String(); got != "3,4" {
		t.Errorf("intersection: got %q", got)
	}
	if got := a.SymmetricDifference(b).String(); got != "0,1,2,5,6,7" {
		t.Errorf("symmetric difference: got %q", got)
	}
	if !a.Intersects(b) {
		t.Errorf("sets should intersect")
	}

	c := taxa.NewSet(10)
	c.Add(9)
	if a.Intersects(c) {
		t.Errorf("sets should not intersect")
	}

	full := taxa.Full(10)
	if full.Count() != 10 {
		t.Errorf("full set: got %d positions, want %d", full.Count(), 10)
	}
	if !a.Union(b).Union(c).Intersects(full) {
		t.Errorf("full set should intersect everything")
	}
}

func TestSetRoundTrip(t *testing.T) {
	sets := []*taxa.Set{
		taxa.NewSet(70),
		taxa.Full(70),
	}
	s := taxa.NewSet(70)
	for _, i := range []int{0, 31, 32, 63, 64, 69} {
		s.Add(i)
	}
	sets = append(sets, s)

	for _, s := range sets {
		got, err := taxa.FromString(s.String(), s.Len())
		if err != nil {
			t.Errorf("set %q: unexpected error: %v", s, err)
			continue
		}
		if !got.Equal(s) {
			t.Errorf("set %q: round trip gives %q", s, got)
		}
	}

	if _, err := taxa.FromString("1,200", 70); err == nil {
		t.Errorf("out of range set: expecting error")
	}
	if _, err := taxa.FromString("1,x", 70); err == nil {
		t.Errorf("invalid set: expecting error")
	}
}

func TestSetClone(t *testing.T) {
	s := taxa.NewSet(10)
	s.Add(2)
	c := s.Clone()
	c.Add(5)
	if s.Has(5) {
		t.Errorf("clone should be independent")
	}
	if !c.Has(2) {
		t.Errorf("clone should keep position 2")
	}
}
