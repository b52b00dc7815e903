// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pathsgraph

import "errors"

// Sentinel errors for paths graph validation.
var (
	// ErrMalformed is returned when a paths graph violates its level
	// structure. The wrapping error describes the violation.
	ErrMalformed = errors.New("malformed paths graph")

	// ErrWalkLimitExceeded is returned when walk enumeration exceeds the
	// caller's limit.
	ErrWalkLimitExceeded = errors.New("walk enumeration limit exceeded")
)
