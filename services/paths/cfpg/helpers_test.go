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
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/pathsgraph/services/paths/pathsgraph"
	"github.com/AleutianAI/pathsgraph/services/paths/reach"
)

func rn(level int, name string) pathsgraph.Node {
	return pathsgraph.Node{Level: level, Name: name}
}

// plainEdge is an edge of an ordinary (unleveled) directed graph.
type plainEdge struct {
	from, to string
	weight   float64
}

// unroll builds the raw paths graph of all walks of pathLength from source
// to target in the plain graph given by edges.
func unroll(edges []plainEdge, source, target string, pathLength int) *pathsgraph.PathsGraph {
	out := make(map[string][]plainEdge)
	for _, e := range edges {
		out[e.from] = append(out[e.from], e)
	}

	pg := pathsgraph.New(source, target, pathLength)
	frontier := []string{source}
	for level := 0; level < pathLength; level++ {
		next := make(map[string]struct{})
		for _, name := range frontier {
			for _, e := range out[name] {
				if level == pathLength-1 && e.to != target {
					continue
				}
				pg.AddEdge(rn(level, name), rn(level+1, e.to), e.weight)
				next[e.to] = struct{}{}
			}
		}
		frontier = frontier[:0]
		for name := range next {
			frontier = append(frontier, name)
		}
		slices.Sort(frontier)
	}

	pruned := reach.Prune(pg.Graph, nil, pg.SourceNode(), pg.TargetNode())
	pg.Graph = pruned
	return pg
}

// randomEdges draws a plain graph over n vertices named v0..v{n-1}.
func randomEdges(rng *rand.Rand, n int, density float64) []plainEdge {
	var edges []plainEdge
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if rng.Float64() < density {
				edges = append(edges, plainEdge{
					from:   fmt.Sprintf("v%d", i),
					to:     fmt.Sprintf("v%d", j),
					weight: float64(1 + rng.IntN(5)),
				})
			}
		}
	}
	return edges
}

// cycleFreeWalkNames returns the name sequences of the cycle-free raw walks.
func cycleFreeWalkNames(t *testing.T, pg *pathsgraph.PathsGraph) []string {
	t.Helper()
	walks, err := pg.Walks(context.Background(), 0)
	require.NoError(t, err)

	var out []string
	for _, w := range walks {
		if pathsgraph.IsCycleFree(w) {
			out = append(out, strings.Join(pathsgraph.Names(w), ","))
		}
	}
	return out
}

// cfpgPathNames returns the name sequences of the CFPG paths.
func cfpgPathNames(t *testing.T, c *Cfpg) []string {
	t.Helper()
	paths, err := c.NamePaths(context.Background(), 0)
	require.NoError(t, err)

	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, strings.Join(p, ","))
	}
	return out
}

// countPaths returns the path count of c as an int64.
func countPaths(t *testing.T, c *Cfpg) int64 {
	t.Helper()
	n, err := c.CountPaths(context.Background())
	require.NoError(t, err)
	return n.Int64()
}

func build(t *testing.T, pg *pathsgraph.PathsGraph, opts ...BuildOption) *Cfpg {
	t.Helper()
	c, err := NewBuilder(opts...).Build(context.Background(), pg)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}
