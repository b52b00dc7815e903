// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the weighted directed graph container shared by the
// paths graph, the reachability engine and the cycle-free paths graph.
//
// Nodes are plain comparable values. The graph stores adjacency in both
// directions so that in-degree and out-degree lookups are O(1), which the
// dead-end pruning work-list relies on.
//
// # Thread Safety
//
// Digraph is NOT safe for concurrent mutation. Concurrent reads are safe as
// long as no goroutine mutates the graph.
package graph

// Edge is a weighted directed edge between two nodes.
type Edge[N comparable] struct {
	From   N
	To     N
	Weight float64
}

// Digraph is a weighted directed graph with adjacency maps in both directions.
//
// A node exists in the graph if it was added explicitly or is an endpoint of
// an edge. Parallel edges are not supported: adding an existing edge
// overwrites its weight.
type Digraph[N comparable] struct {
	succ map[N]map[N]float64
	pred map[N]map[N]float64

	edgeCount int
}

// New creates an empty graph.
func New[N comparable]() *Digraph[N] {
	return &Digraph[N]{
		succ: make(map[N]map[N]float64),
		pred: make(map[N]map[N]float64),
	}
}

// AddNode adds n if it is not already present.
func (g *Digraph[N]) AddNode(n N) {
	if _, ok := g.succ[n]; ok {
		return
	}
	g.succ[n] = make(map[N]float64)
	g.pred[n] = make(map[N]float64)
}

// AddEdge adds the edge from -> to with the given weight, adding both
// endpoints if needed.
func (g *Digraph[N]) AddEdge(from, to N, weight float64) {
	g.AddNode(from)
	g.AddNode(to)
	if _, exists := g.succ[from][to]; !exists {
		g.edgeCount++
	}
	g.succ[from][to] = weight
	g.pred[to][from] = weight
}

// RemoveNode removes n and every edge incident to it. Removing an absent
// node is a no-op.
func (g *Digraph[N]) RemoveNode(n N) {
	out, ok := g.succ[n]
	if !ok {
		return
	}
	for s := range out {
		delete(g.pred[s], n)
		g.edgeCount--
	}
	// A self loop was already dropped from pred[n] by the loop above.
	for p := range g.pred[n] {
		delete(g.succ[p], n)
		g.edgeCount--
	}
	delete(g.succ, n)
	delete(g.pred, n)
}

// HasNode reports whether n is in the graph.
func (g *Digraph[N]) HasNode(n N) bool {
	_, ok := g.succ[n]
	return ok
}

// HasEdge reports whether the edge from -> to exists.
func (g *Digraph[N]) HasEdge(from, to N) bool {
	_, ok := g.succ[from][to]
	return ok
}

// Weight returns the weight of from -> to and whether the edge exists.
func (g *Digraph[N]) Weight(from, to N) (float64, bool) {
	w, ok := g.succ[from][to]
	return w, ok
}

// NodeCount returns the number of nodes.
func (g *Digraph[N]) NodeCount() int {
	return len(g.succ)
}

// EdgeCount returns the number of edges.
func (g *Digraph[N]) EdgeCount() int {
	return g.edgeCount
}

// IsEmpty reports whether the graph has no nodes.
func (g *Digraph[N]) IsEmpty() bool {
	return len(g.succ) == 0
}

// InDegree returns the number of edges ending at n.
func (g *Digraph[N]) InDegree(n N) int {
	return len(g.pred[n])
}

// OutDegree returns the number of edges starting at n.
func (g *Digraph[N]) OutDegree(n N) int {
	return len(g.succ[n])
}

// Nodes returns all nodes in unspecified order.
func (g *Digraph[N]) Nodes() []N {
	nodes := make([]N, 0, len(g.succ))
	for n := range g.succ {
		nodes = append(nodes, n)
	}
	return nodes
}

// Successors returns the direct successors of n in unspecified order.
func (g *Digraph[N]) Successors(n N) []N {
	out := make([]N, 0, len(g.succ[n]))
	for s := range g.succ[n] {
		out = append(out, s)
	}
	return out
}

// Predecessors returns the direct predecessors of n in unspecified order.
func (g *Digraph[N]) Predecessors(n N) []N {
	in := make([]N, 0, len(g.pred[n]))
	for p := range g.pred[n] {
		in = append(in, p)
	}
	return in
}

// Edges returns all edges in unspecified order.
func (g *Digraph[N]) Edges() []Edge[N] {
	edges := make([]Edge[N], 0, g.edgeCount)
	for from, out := range g.succ {
		for to, w := range out {
			edges = append(edges, Edge[N]{From: from, To: to, Weight: w})
		}
	}
	return edges
}

// Clone returns a deep copy of the graph.
func (g *Digraph[N]) Clone() *Digraph[N] {
	c := &Digraph[N]{
		succ:      make(map[N]map[N]float64, len(g.succ)),
		pred:      make(map[N]map[N]float64, len(g.pred)),
		edgeCount: g.edgeCount,
	}
	for n, out := range g.succ {
		m := make(map[N]float64, len(out))
		for s, w := range out {
			m[s] = w
		}
		c.succ[n] = m
	}
	for n, in := range g.pred {
		m := make(map[N]float64, len(in))
		for p, w := range in {
			m[p] = w
		}
		c.pred[n] = m
	}
	return c
}

// Induced returns the subgraph induced by nodes: every listed node that is
// present in g, plus every edge of g whose endpoints are both listed.
// The receiver is not modified.
func (g *Digraph[N]) Induced(nodes []N) *Digraph[N] {
	keep := make(map[N]struct{}, len(nodes))
	for _, n := range nodes {
		if g.HasNode(n) {
			keep[n] = struct{}{}
		}
	}

	h := New[N]()
	for n := range keep {
		h.AddNode(n)
		for s, w := range g.succ[n] {
			if _, ok := keep[s]; ok {
				h.AddEdge(n, s, w)
			}
		}
	}
	return h
}

// Equal reports whether g and other have the same nodes and the same
// weighted edges.
func (g *Digraph[N]) Equal(other *Digraph[N]) bool {
	if g.NodeCount() != other.NodeCount() || g.EdgeCount() != other.EdgeCount() {
		return false
	}
	for n, out := range g.succ {
		otherOut, ok := other.succ[n]
		if !ok || len(otherOut) != len(out) {
			return false
		}
		for s, w := range out {
			if ow, ok := otherOut[s]; !ok || ow != w {
				return false
			}
		}
	}
	return true
}
