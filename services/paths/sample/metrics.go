// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sample

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("aleutian.paths.sample")
	meter  = otel.Meter("aleutian.paths.sample")
)

var (
	pathsSampled   metric.Int64Counter
	walkFailures   metric.Int64Counter
	pathLengthHist metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		pathsSampled, err = meter.Int64Counter(
			"paths_sampled_total",
			metric.WithDescription("Total paths drawn by samplers"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		walkFailures, err = meter.Int64Counter(
			"paths_sample_failures_total",
			metric.WithDescription("Total sampling walks that failed, by reason"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		pathLengthHist, err = meter.Int64Histogram(
			"paths_sampled_length",
			metric.WithDescription("Number of edges in sampled paths"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordSample records one drawn path of the given name sequence length.
func recordSample(ctx context.Context, names int) {
	if err := initMetrics(); err != nil {
		return
	}
	pathsSampled.Add(ctx, 1)
	pathLengthHist.Record(ctx, int64(names-1))
}

// recordFailure records a failed walk, classified by sentinel.
func recordFailure(ctx context.Context, err error) {
	if initMetrics() != nil {
		return
	}
	reason := "other"
	switch {
	case errors.Is(err, ErrDeadEnd):
		reason = "dead_end"
	case errors.Is(err, ErrNoPaths):
		reason = "no_paths"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = "cancelled"
	}
	walkFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// startSpan creates a span for a sampling operation.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
