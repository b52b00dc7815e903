// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package reach

import (
	"slices"

	"github.com/AleutianAI/pathsgraph/services/paths/graph"
	"github.com/AleutianAI/pathsgraph/services/paths/pathsgraph"
	"github.com/AleutianAI/pathsgraph/services/paths/tags"
)

// Past maps each raw node to its ancestor closure.
type Past map[pathsgraph.Node]tags.Set

// AncestorClosure computes past[w] for every node up to upToLevel.
//
// Description:
//
//	Forward dynamic programming over levels in strictly increasing order:
//	past[source] = {source} and past[w] = {w} ∪ past[u] for every
//	predecessor u of w. Each level only reads sets of the level below, and
//	sets are immutable values, so ancestors share their encodings instead
//	of being copied node by node.
//
// Inputs:
//   - g: Leveled graph. Nodes at level 0 other than source are ignored.
//   - idx: Index covering every node of g.
//   - source: The level-0 node.
//   - upToLevel: Last level to compute (inclusive).
//
// Outputs:
//   - Past: Closure of source and of every node at levels 1..upToLevel.
//     Empty when source is not in g.
func AncestorClosure(g *graph.Digraph[pathsgraph.Node], idx *tags.Index[pathsgraph.Node], source pathsgraph.Node, upToLevel int) Past {
	past := make(Past)
	if !g.HasNode(source) {
		return past
	}
	past[source] = idx.SetOf(source)

	levels := ByLevel(g)
	for level := 1; level <= upToLevel && level < len(levels); level++ {
		for _, w := range levels[level] {
			set := idx.SetOf(w)
			for _, u := range g.Predecessors(w) {
				set = set.Union(past[u])
			}
			past[w] = set
		}
	}
	return past
}

// ByLevel groups the nodes of g by level, each level sorted by name.
// Nodes with negative levels are dropped.
func ByLevel(g *graph.Digraph[pathsgraph.Node]) [][]pathsgraph.Node {
	nodes := g.Nodes()
	slices.SortFunc(nodes, pathsgraph.Compare)

	var levels [][]pathsgraph.Node
	for _, n := range nodes {
		if n.Level < 0 {
			continue
		}
		for len(levels) <= n.Level {
			levels = append(levels, nil)
		}
		levels[n.Level] = append(levels[n.Level], n)
	}
	return levels
}

// LocalTags computes the tag-set of x: the nodes of x's ancestor closure
// that lie on some source-to-x path which does not revisit x's name.
//
// Description:
//
//	Restricts g to past[x], taints every other node whose name is equal
//	to x's name under equal, and prunes relative to (source, x).
//
// Outputs:
//   - tags.Set: Surviving nodes. Empty when x cannot be reached from
//     source without repeating its name.
func LocalTags(g *graph.Digraph[pathsgraph.Node], idx *tags.Index[pathsgraph.Node], past Past, source, x pathsgraph.Node, equal NameEqualFunc) tags.Set {
	h := g.Induced(idx.Members(past[x]))

	var taint []pathsgraph.Node
	for _, v := range h.Nodes() {
		if v != x && equal(v.Name, x.Name) {
			taint = append(taint, v)
		}
	}

	pruned := Prune(h, taint, source, x)
	return idx.SetOf(pruned.Nodes()...)
}
