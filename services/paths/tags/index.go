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

// Index interns a fixed universe of nodes to dense integer positions so
// that sets of those nodes can be stored as bitsets.
//
// Positions follow the order of the slice passed to NewIndex. Callers that
// need deterministic tag encodings should pass nodes in a deterministic order.
type Index[N comparable] struct {
	nodes []N
	pos   map[N]int
}

// NewIndex interns nodes. Duplicates keep their first position.
func NewIndex[N comparable](nodes []N) *Index[N] {
	idx := &Index[N]{
		nodes: make([]N, 0, len(nodes)),
		pos:   make(map[N]int, len(nodes)),
	}
	for _, n := range nodes {
		if _, ok := idx.pos[n]; ok {
			continue
		}
		idx.pos[n] = len(idx.nodes)
		idx.nodes = append(idx.nodes, n)
	}
	return idx
}

// Len returns the size of the universe.
func (x *Index[N]) Len() int {
	return len(x.nodes)
}

// Of returns the position of n and whether n is interned.
func (x *Index[N]) Of(n N) (int, bool) {
	i, ok := x.pos[n]
	return i, ok
}

// Node returns the node at position i. It panics if i is out of range.
func (x *Index[N]) Node(i int) N {
	return x.nodes[i]
}

// SetOf builds the set of the given nodes. Nodes outside the universe are
// ignored.
func (x *Index[N]) SetOf(nodes ...N) Set {
	positions := make([]int, 0, len(nodes))
	for _, n := range nodes {
		if i, ok := x.pos[n]; ok {
			positions = append(positions, i)
		}
	}
	return FromIndices(positions...)
}

// Contains reports whether n is interned and a member of s.
func (x *Index[N]) Contains(s Set, n N) bool {
	i, ok := x.pos[n]
	return ok && s.Has(i)
}

// Members decodes s into nodes, in index order.
func (x *Index[N]) Members(s Set) []N {
	indices := s.Indices()
	out := make([]N, 0, len(indices))
	for _, i := range indices {
		if i < len(x.nodes) {
			out = append(out, x.nodes[i])
		}
	}
	return out
}
