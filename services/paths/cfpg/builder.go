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
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/pathsgraph/services/paths/graph"
	"github.com/AleutianAI/pathsgraph/services/paths/pathsgraph"
	"github.com/AleutianAI/pathsgraph/services/paths/reach"
	"github.com/AleutianAI/pathsgraph/services/paths/tags"
	"github.com/AleutianAI/pathsgraph/services/paths/telemetry"
)

// Builder constructs cycle-free paths graphs from raw paths graphs.
//
// Thread Safety:
//
//	Builder holds only immutable options and is safe for concurrent use.
//	Each Build call owns all of its intermediate state.
type Builder struct {
	opts BuildOptions
}

// NewBuilder creates a Builder with the given options applied over
// DefaultBuildOptions.
func NewBuilder(opts ...BuildOption) *Builder {
	options := DefaultBuildOptions()
	for _, opt := range opts {
		opt(&options)
	}
	options.Validate()
	return &Builder{opts: options}
}

// Options returns a copy of the builder's options.
func (b *Builder) Options() BuildOptions {
	return b.opts
}

// Build constructs the CFPG of pg.
//
// Description:
//
//	Removes raw nodes named like the source or target, computes ancestor
//	closures, then builds levels from the target back to the source. Each
//	raw node of a level is split into one copy per distinct tag signature
//	of its successors. The levels are flattened into one graph and pruned
//	of dead ends.
//
// Inputs:
//   - ctx: Context for cancellation, checked between levels. Must not be nil.
//   - pg: Raw paths graph. May be nil or empty.
//
// Outputs:
//   - *Cfpg: The cycle-free paths graph. Empty (not an error) when pg is
//     empty or no cycle-free path of pg.PathLength exists.
//   - error: Wraps ErrMalformedPathsGraph for invalid input,
//     ErrInvariantViolation for internal inconsistencies and
//     ErrBuildCancelled on cancellation. No partial result on error.
//
// Thread Safety: Safe for concurrent use.
func (b *Builder) Build(ctx context.Context, pg *pathsgraph.PathsGraph) (*Cfpg, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	buildID := uuid.NewString()
	start := time.Now()

	var source, target string
	var pathLength int
	if pg != nil {
		source, target, pathLength = pg.SourceName, pg.TargetName, pg.PathLength
	}

	ctx, span := startBuildSpan(ctx, buildID, source, target, pathLength)
	defer span.End()

	logger := telemetry.LoggerWithTrace(ctx, b.opts.Logger).With(slog.String("build_id", buildID))

	result, err := b.build(ctx, pg, buildID, logger)
	if err != nil {
		recordBuildMetrics(ctx, time.Since(start), 0, 0, false, false)
		telemetry.RecordError(span, err)
		logger.Warn("cfpg build failed",
			slog.String("source", source),
			slog.String("target", target),
			slog.Int("path_length", pathLength),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	recordBuildMetrics(ctx, time.Since(start), result.NodeCount(), result.EdgeCount(), result.IsEmpty(), true)
	setBuildSpanResult(span, result.NodeCount(), result.EdgeCount(), result.IsEmpty())
	telemetry.SetSpanOK(span)

	logger.Info("cfpg build completed",
		slog.String("source", source),
		slog.String("target", target),
		slog.Int("path_length", pathLength),
		slog.Int("node_count", result.NodeCount()),
		slog.Int("edge_count", result.EdgeCount()),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// splitter carries the per-build state shared by every split. It is
// read-only once the backward pass starts.
type splitter struct {
	g0     *graph.Digraph[pathsgraph.Node]
	idx    *tags.Index[pathsgraph.Node]
	past   reach.Past
	source pathsgraph.Node
	equal  reach.NameEqualFunc
}

func (b *Builder) build(ctx context.Context, pg *pathsgraph.PathsGraph, buildID string, logger *slog.Logger) (*Cfpg, error) {
	if pg.IsEmpty() {
		logger.Debug("empty paths graph")
		return emptyCfpg(pg, buildID), nil
	}
	if err := pg.Validate(); err != nil {
		return nil, fmt.Errorf("validate paths graph: %w", err)
	}

	equal := b.opts.NameEqual
	source, target := pg.SourceNode(), pg.TargetNode()
	if equal(source.Name, target.Name) {
		logger.Debug("source and target share a name, no cycle-free path exists")
		return emptyCfpg(pg, buildID), nil
	}

	// Nodes named like an endpoint can only lie on paths that revisit it.
	var taint []pathsgraph.Node
	for _, n := range pg.Graph.Nodes() {
		if n == source || n == target {
			continue
		}
		if equal(n.Name, source.Name) || equal(n.Name, target.Name) {
			taint = append(taint, n)
		}
	}
	g0 := reach.Prune(pg.Graph, taint, source, target)
	if g0.IsEmpty() {
		logger.Debug("no path survives endpoint pruning", slog.Int("tainted", len(taint)))
		return emptyCfpg(pg, buildID), nil
	}

	var universe []pathsgraph.Node
	for _, level := range reach.ByLevel(g0) {
		universe = append(universe, level...)
	}
	idx := tags.NewIndex(universe)

	s := &splitter{
		g0:     g0,
		idx:    idx,
		past:   reach.AncestorClosure(g0, idx, source, pg.PathLength),
		source: source,
		equal:  equal,
	}

	levels := make([]levelResult, pg.PathLength+1)

	targetNode := Node{Level: target.Level, Name: target.Name, Tags: s.past[target]}
	targetPreds := g0.Predecessors(target)
	slices.SortFunc(targetPreds, pathsgraph.Compare)
	levels[pg.PathLength] = levelResult{
		level: pg.PathLength,
		nodes: []levelNode{{node: targetNode, raw: target, preds: targetPreds}},
	}

	for i := pg.PathLength - 1; i >= 1; i-- {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBuildCancelled, err)
		}
		lr, err := b.buildLevel(ctx, s, i, levels[i+1])
		if err != nil {
			return nil, err
		}
		levels[i] = lr
		logger.Debug("built cfpg level",
			slog.Int("level", i),
			slog.Int("copies", len(lr.nodes)),
		)
	}

	sourceNode := Node{Level: 0, Name: source.Name, Tags: idx.SetOf(source)}
	first := make([]Node, 0, len(levels[1].nodes))
	for _, ln := range levels[1].nodes {
		first = append(first, ln.node)
	}
	levels[0] = levelResult{
		level: 0,
		nodes: []levelNode{{node: sourceNode, raw: source, succs: first}},
	}

	flat, err := flatten(g0, levels)
	if err != nil {
		return nil, err
	}

	pruned := reach.Prune(flat, nil, sourceNode, targetNode)
	if pruned.IsEmpty() {
		logger.Debug("no cycle-free path of the requested length")
		return emptyCfpg(pg, buildID), nil
	}

	c := &Cfpg{
		SourceName: pg.SourceName,
		TargetName: pg.TargetName,
		PathLength: pg.PathLength,
		Source:     sourceNode,
		Target:     targetNode,
		Graph:      pruned,
		Index:      idx,
		BuildID:    buildID,
	}

	if b.opts.Verify {
		if err := c.Verify(ctx); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// buildLevel splits every raw node at level i that feeds a copy at level
// i+1.
//
// Splits are independent of each other: they only read the finalized
// level above. Wide levels fan out to an errgroup; every split writes its
// own slot and the slots are merged in order, so the output does not
// depend on scheduling.
func (b *Builder) buildLevel(ctx context.Context, s *splitter, i int, next levelResult) (levelResult, error) {
	candidates := make(map[pathsgraph.Node][]Node)
	for _, ln := range next.nodes {
		for _, p := range ln.preds {
			candidates[p] = append(candidates[p], ln.node)
		}
	}
	current := make([]pathsgraph.Node, 0, len(candidates))
	for x := range candidates {
		current = append(current, x)
	}
	slices.SortFunc(current, pathsgraph.Compare)

	ctx, span := startLevelSpan(ctx, i, len(current))
	defer span.End()

	slots := make([][]levelNode, len(current))
	split := func(k int) error {
		x := current[k]
		if x.Level != i {
			return fmt.Errorf("%w: predecessor %s of level %d is not at level %d", ErrInvariantViolation, x, i+1, i)
		}
		copies, err := s.split(x, candidates[x])
		if err != nil {
			return err
		}
		slots[k] = copies
		return nil
	}

	if b.opts.MaxWorkers > 1 && len(current) > b.opts.ParallelThreshold {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(b.opts.MaxWorkers)
		for k := range current {
			g.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return fmt.Errorf("%w: %w", ErrBuildCancelled, err)
				}
				return split(k)
			})
		}
		if err := g.Wait(); err != nil {
			telemetry.RecordError(span, err)
			return levelResult{}, err
		}
	} else {
		for k := range current {
			if err := split(k); err != nil {
				telemetry.RecordError(span, err)
				return levelResult{}, err
			}
		}
	}

	lr := levelResult{level: i}
	for _, copies := range slots {
		lr.nodes = append(lr.nodes, copies...)
	}
	recordSplitMetrics(ctx, i, len(lr.nodes))
	return lr, nil
}

// split produces the copies of raw node x.
//
// Description:
//
//	For every candidate successor w, the nodes that may lie on a
//	cycle-free path through x -> w are x's own tags intersected with w's
//	tags, pruned relative to (source, x). Candidates with the same
//	surviving node set share one copy of x whose tag-set is that set.
//	Each copy keeps only the raw predecessors of x that are members of its
//	tag-set.
//
// Inputs:
//   - x: Raw node to split.
//   - succs: Copies at the next level that list x as a raw predecessor.
//
// Outputs:
//   - []levelNode: Zero or more copies in first-seen signature order.
//   - error: ErrInvariantViolation when succs is empty.
func (s *splitter) split(x pathsgraph.Node, succs []Node) ([]levelNode, error) {
	if len(succs) == 0 {
		return nil, fmt.Errorf("%w: node %s has no successor copies", ErrInvariantViolation, x)
	}

	tagsX := reach.LocalTags(s.g0, s.idx, s.past, s.source, x, s.equal)
	if tagsX.IsEmpty() {
		return nil, nil
	}

	type group struct {
		signature tags.Set
		succs     []Node
	}
	var groups []*group
	bySignature := make(map[tags.Set]*group)

	for _, w := range succs {
		shared := tagsX.Intersect(w.Tags)
		if !s.idx.Contains(shared, x) || !s.idx.Contains(shared, s.source) {
			continue
		}
		h := reach.Prune(s.g0.Induced(s.idx.Members(shared)), nil, s.source, x)
		if !h.HasNode(s.source) || !h.HasNode(x) {
			continue
		}

		signature := s.idx.SetOf(h.Nodes()...)
		grp, ok := bySignature[signature]
		if !ok {
			grp = &group{signature: signature}
			bySignature[signature] = grp
			groups = append(groups, grp)
		}
		grp.succs = append(grp.succs, w)
	}

	rawPreds := s.g0.Predecessors(x)
	slices.SortFunc(rawPreds, pathsgraph.Compare)

	copies := make([]levelNode, 0, len(groups))
	for _, grp := range groups {
		var preds []pathsgraph.Node
		for _, p := range rawPreds {
			if s.idx.Contains(grp.signature, p) {
				preds = append(preds, p)
			}
		}
		copies = append(copies, levelNode{
			node:  Node{Level: x.Level, Name: x.Name, Tags: grp.signature},
			raw:   x,
			succs: grp.succs,
			preds: preds,
		})
	}
	return copies, nil
}

// flatten joins the per-level results into one graph, weighting each edge
// with the weight of the raw edge it was split from.
func flatten(g0 *graph.Digraph[pathsgraph.Node], levels []levelResult) (*graph.Digraph[Node], error) {
	out := graph.New[Node]()
	for _, lr := range levels {
		for _, ln := range lr.nodes {
			for _, w := range ln.succs {
				weight, ok := g0.Weight(ln.raw, w.Raw())
				if !ok {
					return nil, fmt.Errorf("%w: no raw edge %s -> %s", ErrInvariantViolation, ln.raw, w.Raw())
				}
				out.AddEdge(ln.node, w, weight)
			}
		}
	}
	return out, nil
}
