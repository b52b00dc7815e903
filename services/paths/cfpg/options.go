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
	"log/slog"
	"runtime"

	"github.com/AleutianAI/pathsgraph/services/paths/reach"
)

// Default configuration values.
const (
	// DefaultParallelThreshold is the minimum number of raw nodes in a level
	// before splitting fans out to worker goroutines. Narrow levels split
	// sequentially.
	DefaultParallelThreshold = 32

	// maxDefaultWorkers caps the default worker count regardless of CPU count.
	maxDefaultWorkers = 8
)

// BuildOptions configures Builder behavior.
type BuildOptions struct {
	// MaxWorkers bounds the goroutines splitting one level.
	// Default: min(NumCPU, 8)
	MaxWorkers int

	// ParallelThreshold is the level width above which splitting runs in
	// parallel. Default: 32
	ParallelThreshold int

	// NameEqual decides when two raw node names denote the same vertex.
	// Default: reach.ExactName
	NameEqual reach.NameEqualFunc

	// Verify re-checks the output invariants after building and fails the
	// build if any is broken. Default: false
	Verify bool

	// Logger receives build logs. Default: slog.Default()
	Logger *slog.Logger
}

// DefaultBuildOptions returns sensible defaults.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		MaxWorkers:        min(runtime.NumCPU(), maxDefaultWorkers),
		ParallelThreshold: DefaultParallelThreshold,
		NameEqual:         reach.ExactName,
	}
}

// Validate replaces invalid values with defaults.
func (o *BuildOptions) Validate() {
	if o.MaxWorkers < 1 {
		o.MaxWorkers = 1
	}
	if o.ParallelThreshold < 0 {
		o.ParallelThreshold = DefaultParallelThreshold
	}
	if o.NameEqual == nil {
		o.NameEqual = reach.ExactName
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// BuildOption is a functional option for configuring Builder.
type BuildOption func(*BuildOptions)

// WithMaxWorkers sets the maximum number of splitting goroutines per level.
func WithMaxWorkers(n int) BuildOption {
	return func(o *BuildOptions) {
		o.MaxWorkers = n
	}
}

// WithParallelThreshold sets the level width above which splitting runs in
// parallel. Zero parallelizes every level.
func WithParallelThreshold(n int) BuildOption {
	return func(o *BuildOptions) {
		o.ParallelThreshold = n
	}
}

// WithNameEquality sets the predicate used for taint and cycle detection.
func WithNameEquality(equal reach.NameEqualFunc) BuildOption {
	return func(o *BuildOptions) {
		o.NameEqual = equal
	}
}

// WithVerify enables the post-build invariant check.
func WithVerify(verify bool) BuildOption {
	return func(o *BuildOptions) {
		o.Verify = verify
	}
}

// WithLogger sets the build logger.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(o *BuildOptions) {
		o.Logger = logger
	}
}
