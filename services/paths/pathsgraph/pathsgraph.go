// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pathsgraph defines the raw paths graph: the leveled graph of all
// walks of a fixed length between a source and a target.
//
// A raw node is a (level, name) pair. The same name may appear at several
// levels, which is how revisits of a vertex (cycles) show up. Level 0 holds
// only the source and level PathLength holds only the target; every edge
// goes from level i to level i+1.
//
// Paths graphs are produced by an external builder and are treated as
// immutable input once handed to the cycle-free paths graph builder.
package pathsgraph

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/AleutianAI/pathsgraph/services/paths/graph"
)

// DefaultWeight is the edge weight used for unweighted graphs.
const DefaultWeight = 1.0

// Node is a raw paths graph node.
type Node struct {
	Level int
	Name  string
}

// String renders the node as "name@level".
func (n Node) String() string {
	return fmt.Sprintf("%s@%d", n.Name, n.Level)
}

// Compare orders nodes by level, then name.
func Compare(a, b Node) int {
	if c := cmp.Compare(a.Level, b.Level); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

// PathsGraph is the raw paths graph for one path length.
type PathsGraph struct {
	SourceName string
	TargetName string
	PathLength int

	// Graph holds the leveled nodes and weighted edges.
	Graph *graph.Digraph[Node]
}

// New creates an empty paths graph for the given endpoints and length.
func New(sourceName, targetName string, pathLength int) *PathsGraph {
	return &PathsGraph{
		SourceName: sourceName,
		TargetName: targetName,
		PathLength: pathLength,
		Graph:      graph.New[Node](),
	}
}

// AddEdge adds a weighted edge between two raw nodes.
func (p *PathsGraph) AddEdge(from, to Node, weight float64) {
	p.Graph.AddEdge(from, to, weight)
}

// SourceNode returns the level-0 source node.
func (p *PathsGraph) SourceNode() Node {
	return Node{Level: 0, Name: p.SourceName}
}

// TargetNode returns the target node at level PathLength.
func (p *PathsGraph) TargetNode() Node {
	return Node{Level: p.PathLength, Name: p.TargetName}
}

// IsEmpty reports whether the graph has no nodes.
func (p *PathsGraph) IsEmpty() bool {
	return p == nil || p.Graph == nil || p.Graph.IsEmpty()
}

// Validate checks the level structure of a non-empty paths graph.
//
// Description:
//
//	Rejects graphs whose level 0 is not exactly {source}, whose level
//	PathLength is not exactly {target}, that contain nodes outside
//	[0, PathLength], or that have edges not going from level i to i+1.
//	An empty graph is valid: it represents "no paths".
//
// Outputs:
//
//	error - Non-nil, wrapping ErrMalformed, on the first violation found.
func (p *PathsGraph) Validate() error {
	if p.IsEmpty() {
		return nil
	}
	if p.PathLength < 1 {
		return fmt.Errorf("%w: path length %d must be at least 1", ErrMalformed, p.PathLength)
	}
	nodes := p.Graph.Nodes()
	slices.SortFunc(nodes, Compare)

	var first, last []Node
	for _, n := range nodes {
		switch {
		case n.Level < 0 || n.Level > p.PathLength:
			return fmt.Errorf("%w: node %s outside levels 0..%d", ErrMalformed, n, p.PathLength)
		case n.Level == 0:
			first = append(first, n)
		case n.Level == p.PathLength:
			last = append(last, n)
		}
	}
	if len(first) != 1 || first[0] != p.SourceNode() {
		return fmt.Errorf("%w: level 0 must contain exactly %s, found %v", ErrMalformed, p.SourceNode(), first)
	}
	if len(last) != 1 || last[0] != p.TargetNode() {
		return fmt.Errorf("%w: level %d must contain exactly %s, found %v", ErrMalformed, p.PathLength, p.TargetNode(), last)
	}

	for _, e := range p.Graph.Edges() {
		if e.To.Level != e.From.Level+1 {
			return fmt.Errorf("%w: edge %s -> %s skips levels", ErrMalformed, e.From, e.To)
		}
	}
	return nil
}

// Walks enumerates every source-to-target walk in the graph.
//
// Description:
//
//	Depth-first enumeration of all walks, cycle-free or not. The number of
//	walks grows exponentially with the path length, so this is meant for
//	small graphs (tests, diagnostics). Walks are returned in lexicographic
//	order of their node names.
//
// Inputs:
//   - ctx: Checked between expansions; cancellation aborts enumeration.
//   - limit: Maximum number of walks; 0 means unlimited.
//
// Outputs:
//   - [][]Node: The walks, each starting at the source and ending at the target.
//   - error: ctx.Err() on cancellation, ErrWalkLimitExceeded past the limit.
func (p *PathsGraph) Walks(ctx context.Context, limit int) ([][]Node, error) {
	if p.IsEmpty() || !p.Graph.HasNode(p.SourceNode()) {
		return nil, nil
	}

	target := p.TargetNode()
	var walks [][]Node
	var walk []Node

	var visit func(n Node) error
	visit = func(n Node) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		walk = append(walk, n)
		defer func() { walk = walk[:len(walk)-1] }()

		if n == target {
			if limit > 0 && len(walks) >= limit {
				return ErrWalkLimitExceeded
			}
			walks = append(walks, slices.Clone(walk))
			return nil
		}

		succ := p.Graph.Successors(n)
		slices.SortFunc(succ, Compare)
		for _, s := range succ {
			if err := visit(s); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(p.SourceNode()); err != nil {
		return nil, err
	}
	return walks, nil
}

// Names projects a walk to its node names.
func Names(walk []Node) []string {
	names := make([]string, len(walk))
	for i, n := range walk {
		names[i] = n.Name
	}
	return names
}

// IsCycleFree reports whether no name repeats along the walk.
func IsCycleFree(walk []Node) bool {
	seen := make(map[string]struct{}, len(walk))
	for _, n := range walk {
		if _, dup := seen[n.Name]; dup {
			return false
		}
		seen[n.Name] = struct{}{}
	}
	return true
}
