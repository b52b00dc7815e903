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
	"math/big"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/pathsgraph/services/paths/graph"
	"github.com/AleutianAI/pathsgraph/services/paths/telemetry"
)

type edge = graph.Edge[Node]

// Paths enumerates every source-to-target path of the graph.
//
// Description:
//
//	Depth-first walk from Source following successor edges, visiting
//	successors in CompareNodes order. The count can be exponential in the
//	path length; use CountPaths first on large graphs.
//
// Inputs:
//   - ctx: Checked between expansions.
//   - limit: Maximum number of paths; 0 means unlimited.
//
// Outputs:
//   - [][]Node: The paths. Nil for an empty graph.
//   - error: ctx.Err() on cancellation, ErrPathLimitExceeded past the limit.
func (c *Cfpg) Paths(ctx context.Context, limit int) ([][]Node, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if c.IsEmpty() {
		return nil, nil
	}

	ctx, span := startQuerySpan(ctx, "Cfpg.Paths", c)
	defer span.End()
	span.SetAttributes(attribute.Int("cfpg.limit", limit))

	paths, err := c.paths(ctx, limit)
	if err != nil {
		recordPathsMetrics(ctx, 0, false)
		telemetry.RecordError(span, err)
		return nil, err
	}

	recordPathsMetrics(ctx, len(paths), true)
	span.SetAttributes(attribute.Int("cfpg.path_count", len(paths)))
	telemetry.SetSpanOK(span)
	return paths, nil
}

// paths is the depth-first enumeration behind Paths.
func (c *Cfpg) paths(ctx context.Context, limit int) ([][]Node, error) {
	var paths [][]Node
	var path []Node

	var visit func(n Node) error
	visit = func(n Node) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		path = append(path, n)
		defer func() { path = path[:len(path)-1] }()

		if n == c.Target {
			if limit > 0 && len(paths) >= limit {
				return ErrPathLimitExceeded
			}
			paths = append(paths, slices.Clone(path))
			return nil
		}

		succ := c.Graph.Successors(n)
		slices.SortFunc(succ, CompareNodes)
		for _, s := range succ {
			if err := visit(s); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(c.Source); err != nil {
		return nil, err
	}
	return paths, nil
}

// NamePaths enumerates the paths projected to node names.
func (c *Cfpg) NamePaths(ctx context.Context, limit int) ([][]string, error) {
	paths, err := c.Paths(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(paths))
	for i, p := range paths {
		names := make([]string, len(p))
		for j, n := range p {
			names[j] = n.Name
		}
		out[i] = names
	}
	return out, nil
}

// CountPaths returns the number of source-to-target paths without
// enumerating them. It fails only with ErrNilContext.
//
// Counts are accumulated backward level by level, so the cost is linear in
// the number of edges.
func (c *Cfpg) CountPaths(ctx context.Context) (*big.Int, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if c.IsEmpty() {
		return new(big.Int), nil
	}

	_, span := startQuerySpan(ctx, "Cfpg.CountPaths", c)
	defer span.End()

	total := c.countPaths()
	span.SetAttributes(attribute.String("cfpg.path_count", total.String()))
	telemetry.SetSpanOK(span)
	return total, nil
}

// countPaths runs the backward count over a non-empty graph.
func (c *Cfpg) countPaths() *big.Int {

	nodes := c.Graph.Nodes()
	slices.SortFunc(nodes, func(a, b Node) int { return CompareNodes(b, a) })

	counts := make(map[Node]*big.Int, len(nodes))
	for _, n := range nodes {
		count := new(big.Int)
		if n == c.Target {
			count.SetInt64(1)
		}
		for _, s := range c.Graph.Successors(n) {
			if sc, ok := counts[s]; ok {
				count.Add(count, sc)
			}
		}
		counts[n] = count
	}

	if total, ok := counts[c.Source]; ok {
		return total
	}
	return new(big.Int)
}
