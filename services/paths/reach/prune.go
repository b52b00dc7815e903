// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package reach is the reachability and tag engine used by the cycle-free
// paths graph builder.
//
// It provides dead-end pruning of leveled graphs relative to a source and a
// target, and the ancestor closure ("past") of every node, represented as
// tag-sets over an interned node index.
package reach

import (
	"github.com/AleutianAI/pathsgraph/services/paths/graph"
)

// Prune removes taint nodes and then every node that cannot lie on a
// source-to-target path.
//
// Description:
//
//	Works on a copy of g. The taint nodes are removed first; then a
//	work-list repeatedly removes any node other than source with no
//	incoming edges and any node other than target with no outgoing
//	edges, re-examining the neighbors of each removed node, until a fixed
//	point is reached. Source and target are never removed by the degree
//	rules.
//
//	For acyclic graphs the result contains exactly the nodes lying on
//	some source-to-target path.
//
// Inputs:
//   - g: Graph to prune. Not modified.
//   - taint: Nodes to remove before the fixed point. Absent nodes are ignored.
//   - source, target: Path endpoints.
//
// Outputs:
//   - *graph.Digraph[N]: The pruned copy. Empty when source or target is
//     absent, tainted, or when no source-to-target path survives
//     (source left without outgoing edges or target without incoming
//     edges).
//
// Limitations:
//   - source == target is treated as a single protected node; the result
//     is whatever survives the degree rules around it.
func Prune[N comparable](g *graph.Digraph[N], taint []N, source, target N) *graph.Digraph[N] {
	if !g.HasNode(source) || !g.HasNode(target) {
		return graph.New[N]()
	}

	h := g.Clone()
	work := make([]N, 0, h.NodeCount())

	for _, n := range taint {
		if !h.HasNode(n) {
			continue
		}
		work = append(work, h.Predecessors(n)...)
		work = append(work, h.Successors(n)...)
		h.RemoveNode(n)
	}
	if !h.HasNode(source) || !h.HasNode(target) {
		return graph.New[N]()
	}

	work = append(work, h.Nodes()...)
	for len(work) > 0 {
		n := work[len(work)-1]
		work = work[:len(work)-1]

		if !h.HasNode(n) || !isDeadEnd(h, n, source, target) {
			continue
		}
		work = append(work, h.Predecessors(n)...)
		work = append(work, h.Successors(n)...)
		h.RemoveNode(n)
	}

	if source != target && (h.OutDegree(source) == 0 || h.InDegree(target) == 0) {
		return graph.New[N]()
	}
	return h
}

// isDeadEnd reports whether n cannot be on a source-to-target path given
// its current degrees.
func isDeadEnd[N comparable](g *graph.Digraph[N], n, source, target N) bool {
	if n != source && g.InDegree(n) == 0 {
		return true
	}
	return n != target && g.OutDegree(n) == 0
}
