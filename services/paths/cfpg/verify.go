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
	"slices"

	"github.com/AleutianAI/pathsgraph/services/paths/telemetry"
)

// Verify checks the structural invariants of the graph.
//
// Description:
//
//	Checks, in deterministic order:
//	  - source and target are present with the expected levels
//	  - every edge goes from level l to level l+1
//	  - tag monotonicity: u.Tags ⊆ v.Tags for every edge (u, v)
//	  - every node's tag-set contains its own raw node
//	  - every node other than the source has a predecessor and every node
//	    other than the target has a successor
//
//	Cycle-freedom of the paths is not checked; it needs path enumeration.
//
// Outputs:
//   - error: Nil for an empty graph or a valid one, otherwise wraps
//     ErrInvariantViolation. ErrNilContext for a nil ctx.
func (c *Cfpg) Verify(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	if c.IsEmpty() {
		return nil
	}

	ctx, span := startQuerySpan(ctx, "Cfpg.Verify", c)
	defer span.End()

	if err := c.verify(); err != nil {
		recordVerifyMetrics(ctx, false)
		telemetry.RecordError(span, err)
		return err
	}
	recordVerifyMetrics(ctx, true)
	telemetry.SetSpanOK(span)
	return nil
}

func (c *Cfpg) verify() error {
	if !c.Graph.HasNode(c.Source) || c.Source.Level != 0 {
		return fmt.Errorf("%w: source %s missing", ErrInvariantViolation, c.Source)
	}
	if !c.Graph.HasNode(c.Target) || c.Target.Level != c.PathLength {
		return fmt.Errorf("%w: target %s missing", ErrInvariantViolation, c.Target)
	}

	edges := c.Graph.Edges()
	slices.SortFunc(edges, func(a, b edge) int {
		if d := CompareNodes(a.From, b.From); d != 0 {
			return d
		}
		return CompareNodes(a.To, b.To)
	})
	for _, e := range edges {
		if e.To.Level != e.From.Level+1 {
			return fmt.Errorf("%w: edge %s -> %s skips levels", ErrInvariantViolation, e.From, e.To)
		}
		if !e.From.Tags.IsSubset(e.To.Tags) {
			return fmt.Errorf("%w: tags of %s not contained in tags of %s", ErrInvariantViolation, e.From, e.To)
		}
	}

	nodes := c.Graph.Nodes()
	slices.SortFunc(nodes, CompareNodes)
	for _, n := range nodes {
		if c.Index != nil && !c.Index.Contains(n.Tags, n.Raw()) {
			return fmt.Errorf("%w: node %s is not in its own tag-set", ErrInvariantViolation, n)
		}
		if n != c.Source && c.Graph.InDegree(n) == 0 {
			return fmt.Errorf("%w: node %s has no predecessor", ErrInvariantViolation, n)
		}
		if n != c.Target && c.Graph.OutDegree(n) == 0 {
			return fmt.Errorf("%w: node %s has no successor", ErrInvariantViolation, n)
		}
	}
	return nil
}
