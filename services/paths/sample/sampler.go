// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sample draws random cycle-free paths from one or more cycle-free
// paths graphs of different lengths.
//
// The graphs are merged under a shared source. A path is drawn by a random
// walk from the source: at each step the successors are grouped by name,
// a name is chosen with probability proportional to the edge weight into
// it, and then one copy carrying that name is chosen uniformly. Grouping by
// name keeps the walk oblivious to how nodes were split, and tag
// monotonicity guarantees that every walk reaches the target without
// revisiting a name.
package sample

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/pathsgraph/services/paths/cfpg"
	"github.com/AleutianAI/pathsgraph/services/paths/graph"
	"github.com/AleutianAI/pathsgraph/services/paths/telemetry"
)

// Sentinel errors for sampling.
var (
	// ErrMismatchedEndpoints is returned when combined graphs disagree on
	// their source or target names.
	ErrMismatchedEndpoints = errors.New("cfpgs have different endpoints")

	// ErrNoPaths is returned when sampling from a combination without paths.
	ErrNoPaths = errors.New("no paths to sample")

	// ErrDeadEnd is returned when a walk reaches a node with no successors
	// before the target. Pruned graphs never do this.
	ErrDeadEnd = errors.New("walk reached a dead end")

	// ErrInvalidCount is returned when a negative number of paths is requested.
	ErrInvalidCount = errors.New("invalid sample count")

	// ErrNilContext is returned when a nil context is passed.
	ErrNilContext = errors.New("sample: nil context")
)

// node is a CFPG node tagged with the length of the graph it came from.
// The shared source is the zero value.
type node struct {
	length int
	node   cfpg.Node
}

func compare(a, b node) int {
	if c := cmp.Compare(a.length, b.length); c != 0 {
		return c
	}
	return cfpg.CompareNodes(a.node, b.node)
}

// Combined is the union of several cycle-free paths graphs sharing source
// and target names.
type Combined struct {
	SourceName string
	TargetName string

	// Lengths lists the path lengths of the non-empty graphs, ascending.
	Lengths []int

	graph *graph.Digraph[node]
}

// Combine merges the edge sets of cfpgs.
//
// Description:
//
//	Every source node maps to one shared source; every other node stays
//	distinct per graph, so copies from different lengths never merge.
//	Empty graphs are skipped.
//
// Outputs:
//   - *Combined: The merged graph. Has no paths when every input is empty.
//   - error: ErrMismatchedEndpoints when inputs disagree on endpoint names,
//     ErrNilContext for a nil ctx.
func Combine(ctx context.Context, cfpgs ...*cfpg.Cfpg) (*Combined, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	_, span := startSpan(ctx, "sample.Combine", attribute.Int("sample.inputs", len(cfpgs)))
	defer span.End()

	c, err := combine(cfpgs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.IntSlice("sample.lengths", c.Lengths),
		attribute.Int("sample.node_count", c.graph.NodeCount()),
	)
	telemetry.SetSpanOK(span)
	return c, nil
}

func combine(cfpgs []*cfpg.Cfpg) (*Combined, error) {
	c := &Combined{graph: graph.New[node]()}

	first := true
	for _, g := range cfpgs {
		if g == nil {
			continue
		}
		if first {
			c.SourceName, c.TargetName = g.SourceName, g.TargetName
			first = false
		} else if g.SourceName != c.SourceName || g.TargetName != c.TargetName {
			return nil, fmt.Errorf("%w: %s->%s and %s->%s", ErrMismatchedEndpoints,
				c.SourceName, c.TargetName, g.SourceName, g.TargetName)
		}
		if g.IsEmpty() {
			continue
		}

		key := func(n cfpg.Node) node {
			if n == g.Source {
				return node{}
			}
			return node{length: g.PathLength, node: n}
		}
		for _, e := range g.Graph.Edges() {
			c.graph.AddEdge(key(e.From), key(e.To), e.Weight)
		}
		c.Lengths = append(c.Lengths, g.PathLength)
	}

	slices.Sort(c.Lengths)
	c.Lengths = slices.Compact(c.Lengths)
	return c, nil
}

// IsEmpty reports whether the combination holds no paths.
func (c *Combined) IsEmpty() bool {
	return c.graph.IsEmpty()
}

// SamplerOptions configures a Sampler.
type SamplerOptions struct {
	// Seed drives the pseudo-random walk. Equal seeds give equal samples.
	Seed uint64

	// Weighted chooses names proportionally to edge weights. When false,
	// names are chosen uniformly. Default: true
	Weighted bool

	// Logger receives sampling logs. Default: slog.Default()
	Logger *slog.Logger
}

// SamplerOption is a functional option for configuring Sampler.
type SamplerOption func(*SamplerOptions)

// WithSeed sets the random seed.
func WithSeed(seed uint64) SamplerOption {
	return func(o *SamplerOptions) {
		o.Seed = seed
	}
}

// WithWeighted toggles weight-proportional choices.
func WithWeighted(weighted bool) SamplerOption {
	return func(o *SamplerOptions) {
		o.Weighted = weighted
	}
}

// WithLogger sets the sampler logger.
func WithLogger(logger *slog.Logger) SamplerOption {
	return func(o *SamplerOptions) {
		o.Logger = logger
	}
}

// Sampler draws random paths from a Combined graph.
//
// Thread Safety:
//
//	Sampler is NOT safe for concurrent use; its random source is stateful.
//	Create one Sampler per goroutine.
type Sampler struct {
	combined *Combined
	opts     SamplerOptions
	rng      *rand.Rand
}

// NewSampler creates a sampler over c.
func NewSampler(c *Combined, opts ...SamplerOption) *Sampler {
	options := SamplerOptions{Weighted: true}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Sampler{
		combined: c,
		opts:     options,
		rng:      rand.New(rand.NewPCG(options.Seed, options.Seed^0x9e3779b97f4a7c15)),
	}
}

// SamplePath draws one path and returns its node names, source first.
//
// Outputs:
//   - []string: Names along the path, ending with the target name.
//   - error: ErrNoPaths for an empty combination, ctx.Err() on cancellation,
//     ErrNilContext for a nil ctx.
func (s *Sampler) SamplePath(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	ctx, span := startSpan(ctx, "Sampler.SamplePath")
	defer span.End()

	names, err := s.samplePath(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("sample.path_length", len(names)-1))
	telemetry.SetSpanOK(span)
	return names, nil
}

// samplePath walks once from the source and records the outcome.
func (s *Sampler) samplePath(ctx context.Context) ([]string, error) {
	names, err := s.walk(ctx)
	if err != nil {
		recordFailure(ctx, err)
		return nil, err
	}
	recordSample(ctx, len(names))
	return names, nil
}

func (s *Sampler) walk(ctx context.Context) ([]string, error) {
	if s.combined == nil || s.combined.IsEmpty() {
		return nil, ErrNoPaths
	}

	current := node{}
	names := []string{s.combined.SourceName}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := s.step(current)
		if err != nil {
			return nil, err
		}
		names = append(names, next.node.Name)
		if next.node.Name == s.combined.TargetName {
			return names, nil
		}
		current = next
	}
}

// SamplePaths draws n paths.
//
// Outputs:
//   - [][]string: n name sequences; empty, non-nil for n == 0.
//   - error: ErrInvalidCount for n < 0, otherwise as SamplePath. No paths
//     are returned when any walk fails.
func (s *Sampler) SamplePaths(ctx context.Context, n int) ([][]string, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}

	ctx, span := startSpan(ctx, "Sampler.SamplePaths", attribute.Int("sample.count", n))
	defer span.End()

	paths := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		p, err := s.samplePath(ctx)
		if err != nil {
			telemetry.RecordError(span, err, attribute.Int("sample.drawn", i))
			return nil, err
		}
		paths = append(paths, p)
	}
	telemetry.SetSpanOK(span)

	var lengths []int
	if s.combined != nil {
		lengths = s.combined.Lengths
	}
	telemetry.LoggerWithTrace(ctx, s.opts.Logger).Debug("sampled paths",
		slog.Int("count", n),
		slog.Any("lengths", lengths),
	)
	return paths, nil
}

// step picks the successor of current.
func (s *Sampler) step(current node) (node, error) {
	succ := s.combined.graph.Successors(current)
	if len(succ) == 0 {
		return node{}, fmt.Errorf("%w at %s", ErrDeadEnd, current.node)
	}
	slices.SortFunc(succ, compare)

	// Group copies by name; every copy of a name carries the weight of the
	// same raw edge, so the group weight is the largest of them.
	var names []string
	groups := make(map[string][]node)
	weights := make(map[string]float64)
	for _, n := range succ {
		name := n.node.Name
		if _, ok := groups[name]; !ok {
			names = append(names, name)
		}
		groups[name] = append(groups[name], n)
		w, _ := s.combined.graph.Weight(current, n)
		weights[name] = max(weights[name], w)
	}

	chosen := names[s.pick(names, weights)]
	copies := groups[chosen]
	return copies[s.rng.IntN(len(copies))], nil
}

// pick returns an index into names, weight-proportional when configured.
func (s *Sampler) pick(names []string, weights map[string]float64) int {
	if !s.opts.Weighted {
		return s.rng.IntN(len(names))
	}

	total := 0.0
	for _, name := range names {
		total += weights[name]
	}
	if total <= 0 {
		return s.rng.IntN(len(names))
	}

	r := s.rng.Float64() * total
	for i, name := range names {
		r -= weights[name]
		if r < 0 {
			return i
		}
	}
	return len(names) - 1
}
