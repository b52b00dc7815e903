// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_ZeroValue(t *testing.T) {
	var s Set
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has(0))
	assert.Empty(t, s.Indices())
	assert.Equal(t, "{}", s.String())
	assert.Equal(t, Set{}, FromIndices())
	assert.Equal(t, Set{}, FromIndices(-1, -4))
}

func TestSet_FromIndices(t *testing.T) {
	s := FromIndices(0, 3, 9, 3)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has(0))
	assert.True(t, s.Has(3))
	assert.True(t, s.Has(9))
	assert.False(t, s.Has(1))
	assert.False(t, s.Has(100))
	assert.Equal(t, []int{0, 3, 9}, s.Indices())
	assert.Equal(t, "{0,3,9}", s.String())
}

func TestSet_CanonicalEquality(t *testing.T) {
	// Intersecting away the high bits must trim to the same encoding as a
	// set built directly.
	a := FromIndices(1, 20)
	b := FromIndices(1, 2)
	assert.True(t, a.Intersect(b) == FromIndices(1))
	assert.Equal(t, FromIndices(1).Key(), a.Intersect(b).Key())

	empty := FromIndices(20).Intersect(FromIndices(3))
	assert.True(t, empty.IsEmpty())
	assert.True(t, empty == Set{})
}

func TestSet_Operations(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Set
		intersect []int
		union     []int
		aSubsetB  bool
	}{
		{
			name:      "disjoint",
			a:         FromIndices(0, 1),
			b:         FromIndices(8, 9),
			intersect: []int{},
			union:     []int{0, 1, 8, 9},
			aSubsetB:  false,
		},
		{
			name:      "subset",
			a:         FromIndices(2),
			b:         FromIndices(2, 17),
			intersect: []int{2},
			union:     []int{2, 17},
			aSubsetB:  true,
		},
		{
			name:      "longer a is not subset",
			a:         FromIndices(2, 30),
			b:         FromIndices(2),
			intersect: []int{2},
			union:     []int{2, 30},
			aSubsetB:  false,
		},
		{
			name:      "empty is subset of anything",
			a:         Set{},
			b:         FromIndices(5),
			intersect: []int{},
			union:     []int{5},
			aSubsetB:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.intersect, tt.a.Intersect(tt.b).Indices())
			assert.Equal(t, tt.intersect, tt.b.Intersect(tt.a).Indices())
			assert.Equal(t, tt.union, tt.a.Union(tt.b).Indices())
			assert.Equal(t, tt.union, tt.b.Union(tt.a).Indices())
			assert.Equal(t, tt.aSubsetB, tt.a.IsSubset(tt.b))
		})
	}
}

func TestSet_UnionDoesNotMutateOperands(t *testing.T) {
	a := FromIndices(1)
	b := FromIndices(2)
	_ = a.Union(b)
	assert.Equal(t, []int{1}, a.Indices())
	assert.Equal(t, []int{2}, b.Indices())
}

func TestSet_With(t *testing.T) {
	s := FromIndices(1).With(12)
	assert.Equal(t, []int{1, 12}, s.Indices())
	assert.Equal(t, s, s.With(1))
	assert.Equal(t, s, s.With(-3))
}

func TestIndex_RoundTrip(t *testing.T) {
	idx := NewIndex([]string{"S", "A", "B", "A", "T"})
	assert.Equal(t, 4, idx.Len())

	i, ok := idx.Of("B")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	assert.Equal(t, "B", idx.Node(2))

	_, ok = idx.Of("Z")
	assert.False(t, ok)

	s := idx.SetOf("T", "S", "Z")
	assert.Equal(t, []string{"S", "T"}, idx.Members(s))
	assert.True(t, idx.Contains(s, "T"))
	assert.False(t, idx.Contains(s, "A"))
	assert.False(t, idx.Contains(s, "Z"))
}
