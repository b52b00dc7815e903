// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cfpg builds cycle-free paths graphs.
//
// A cycle-free paths graph (CFPG) represents every cycle-free path of a
// fixed length between a source and a target. It is derived from a raw
// paths graph by splitting each raw node into copies that carry distinct
// tag-sets (the raw ancestors a cycle-free path through that copy may have
// used), and pruning everything that no longer lies on a source-to-target
// path.
//
// # Guarantees
//
// For a graph returned by Builder.Build:
//   - every source-to-target path visits each name at most once
//   - every cycle-free raw path of the given length has exactly one
//     corresponding CFPG path
//   - for every edge (u, v), u.Tags is a subset of v.Tags
//
// # Lifecycle
//
//  1. Create a Builder with NewBuilder(opts...)
//  2. Call Build(ctx, pathsGraph) once per path length
//  3. Query the returned Cfpg (Paths, CountPaths) or hand it to a sampler
//
// # Thread Safety
//
// Builder is safe for concurrent use. A returned Cfpg is read-only and safe
// for concurrent reads.
package cfpg

import (
	"errors"

	"github.com/AleutianAI/pathsgraph/services/paths/pathsgraph"
)

// Sentinel errors for CFPG construction.
var (
	// ErrMalformedPathsGraph is returned when the input paths graph breaks
	// its level structure. Checked before any processing.
	ErrMalformedPathsGraph = pathsgraph.ErrMalformed

	// ErrInvariantViolation is returned when construction reaches a state
	// the algorithm rules out, such as a raw node scheduled for splitting
	// with no successor copies. No partial graph is returned.
	ErrInvariantViolation = errors.New("cfpg invariant violation")

	// ErrBuildCancelled is returned when the build context is cancelled.
	ErrBuildCancelled = errors.New("build cancelled")

	// ErrNilContext is returned when Build is called with a nil context.
	ErrNilContext = errors.New("context must not be nil")

	// ErrPathLimitExceeded is returned when path enumeration exceeds the
	// caller's limit.
	ErrPathLimitExceeded = errors.New("path enumeration limit exceeded")
)
