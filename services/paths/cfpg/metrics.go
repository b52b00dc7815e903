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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for CFPG operations.
var (
	tracer = otel.Tracer("aleutian.paths.cfpg")
	meter  = otel.Meter("aleutian.paths.cfpg")
)

// Metrics for CFPG builds.
var (
	buildLatency metric.Float64Histogram
	buildTotal   metric.Int64Counter
	nodesCreated metric.Int64Histogram
	edgesCreated metric.Int64Histogram
	splitCopies  metric.Int64Counter

	pathsEnumerated metric.Int64Counter
	verifyTotal     metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"cfpg_build_duration_seconds",
			metric.WithDescription("Duration of CFPG build operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"cfpg_build_total",
			metric.WithDescription("Total number of CFPG build operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesCreated, err = meter.Int64Histogram(
			"cfpg_nodes_created",
			metric.WithDescription("Number of CFPG nodes per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgesCreated, err = meter.Int64Histogram(
			"cfpg_edges_created",
			metric.WithDescription("Number of CFPG edges per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		splitCopies, err = meter.Int64Counter(
			"cfpg_split_copies_total",
			metric.WithDescription("Total node copies produced by splitting"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		pathsEnumerated, err = meter.Int64Counter(
			"cfpg_paths_enumerated_total",
			metric.WithDescription("Total CFPG paths returned by enumeration"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		verifyTotal, err = meter.Int64Counter(
			"cfpg_verify_total",
			metric.WithDescription("Total CFPG invariant checks"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordBuildMetrics records metrics for a build operation.
func recordBuildMetrics(ctx context.Context, duration time.Duration, nodeCount, edgeCount int, empty, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Bool("success", success),
		attribute.Bool("empty", empty),
	)

	buildLatency.Record(ctx, duration.Seconds(), attrs)
	buildTotal.Add(ctx, 1, attrs)

	if success {
		nodesCreated.Record(ctx, int64(nodeCount))
		edgesCreated.Record(ctx, int64(edgeCount))
	}
}

// recordSplitMetrics records the copies produced for one level.
func recordSplitMetrics(ctx context.Context, level, copies int) {
	if err := initMetrics(); err != nil {
		return
	}
	splitCopies.Add(ctx, int64(copies), metric.WithAttributes(attribute.Int("level", level)))
}

// recordPathsMetrics records the number of enumerated paths.
func recordPathsMetrics(ctx context.Context, count int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	pathsEnumerated.Add(ctx, int64(count), metric.WithAttributes(attribute.Bool("success", success)))
}

// recordVerifyMetrics records one invariant check.
func recordVerifyMetrics(ctx context.Context, valid bool) {
	if err := initMetrics(); err != nil {
		return
	}
	verifyTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("valid", valid)))
}

// startBuildSpan creates a span for a build operation.
func startBuildSpan(ctx context.Context, buildID, source, target string, pathLength int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Builder.Build",
		trace.WithAttributes(
			attribute.String("cfpg.build_id", buildID),
			attribute.String("cfpg.source", source),
			attribute.String("cfpg.target", target),
			attribute.Int("cfpg.path_length", pathLength),
		),
	)
}

// setBuildSpanResult sets the result attributes on a build span.
func setBuildSpanResult(span trace.Span, nodeCount, edgeCount int, empty bool) {
	span.SetAttributes(
		attribute.Int("cfpg.node_count", nodeCount),
		attribute.Int("cfpg.edge_count", edgeCount),
		attribute.Bool("cfpg.empty", empty),
	)
}

// startLevelSpan creates a span for splitting one level.
func startLevelSpan(ctx context.Context, level, width int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Builder.buildLevel",
		trace.WithAttributes(
			attribute.Int("cfpg.level", level),
			attribute.Int("cfpg.level_width", width),
		),
	)
}

// startQuerySpan creates a span for a query over a built graph.
func startQuerySpan(ctx context.Context, name string, c *Cfpg) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("cfpg.build_id", c.BuildID),
			attribute.Int("cfpg.path_length", c.PathLength),
			attribute.Int("cfpg.node_count", c.NodeCount()),
		),
	)
}
