// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cfpg

import (
	"cmp"
	"fmt"

	"github.com/AleutianAI/pathsgraph/services/paths/graph"
	"github.com/AleutianAI/pathsgraph/services/paths/pathsgraph"
	"github.com/AleutianAI/pathsgraph/services/paths/tags"
)

// Node is a CFPG node: a copy of the raw node (Level, Name) identified by
// its tag-set. Copies of the same raw node with different Tags are
// distinct nodes.
type Node struct {
	Level int
	Name  string

	// Tags is the set of raw nodes a cycle-free path through this copy may
	// have passed. Decode with Cfpg.TagNodes.
	Tags tags.Set
}

// Raw returns the raw paths graph node this copy was split from.
func (n Node) Raw() pathsgraph.Node {
	return pathsgraph.Node{Level: n.Level, Name: n.Name}
}

// String renders the node as "name@level{tag indices}".
func (n Node) String() string {
	return fmt.Sprintf("%s@%d%s", n.Name, n.Level, n.Tags)
}

// CompareNodes orders nodes by level, name, then tag encoding.
func CompareNodes(a, b Node) int {
	if c := pathsgraph.Compare(a.Raw(), b.Raw()); c != 0 {
		return c
	}
	return cmp.Compare(a.Tags.Key(), b.Tags.Key())
}

// Cfpg is a built cycle-free paths graph.
//
// An empty Cfpg (no nodes, no edges) is a valid result meaning that no
// cycle-free path of PathLength exists between the endpoints.
type Cfpg struct {
	SourceName string
	TargetName string
	PathLength int

	// Source is the level-0 node. Meaningful only when the graph is not empty.
	Source Node

	// Target is the level-PathLength node. Meaningful only when the graph
	// is not empty.
	Target Node

	// Graph holds the split nodes and the weighted edges between them.
	Graph *graph.Digraph[Node]

	// Index decodes tag-sets into raw nodes. Nil for an empty Cfpg.
	Index *tags.Index[pathsgraph.Node]

	// BuildID identifies the build that produced this graph.
	BuildID string
}

func emptyCfpg(pg *pathsgraph.PathsGraph, buildID string) *Cfpg {
	c := &Cfpg{
		Graph:   graph.New[Node](),
		BuildID: buildID,
	}
	if pg != nil {
		c.SourceName = pg.SourceName
		c.TargetName = pg.TargetName
		c.PathLength = pg.PathLength
	}
	return c
}

// IsEmpty reports whether the graph has no nodes.
func (c *Cfpg) IsEmpty() bool {
	return c.Graph == nil || c.Graph.IsEmpty()
}

// NodeCount returns the number of nodes.
func (c *Cfpg) NodeCount() int {
	if c.Graph == nil {
		return 0
	}
	return c.Graph.NodeCount()
}

// EdgeCount returns the number of edges.
func (c *Cfpg) EdgeCount() int {
	if c.Graph == nil {
		return 0
	}
	return c.Graph.EdgeCount()
}

// TagNodes decodes the tag-set of n into raw nodes, in index order.
func (c *Cfpg) TagNodes(n Node) []pathsgraph.Node {
	if c.Index == nil {
		return nil
	}
	return c.Index.Members(n.Tags)
}

// levelNode is one split copy produced while building a level, together
// with the links needed by the next (lower) level.
type levelNode struct {
	node Node
	raw  pathsgraph.Node

	// succs are copies at the level above, already final.
	succs []Node

	// preds are raw nodes at the level below that may feed this copy.
	preds []pathsgraph.Node
}

// levelResult is the immutable outcome of building one level.
type levelResult struct {
	level int
	nodes []levelNode
}
