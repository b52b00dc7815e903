// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package reach

import "strings"

// NameEqualFunc decides whether two node names denote the same underlying
// vertex for the purpose of cycle detection.
type NameEqualFunc func(a, b string) bool

// ExactName compares names structurally.
func ExactName(a, b string) bool {
	return a == b
}

// IgnorePolarity compares names after dropping a trailing polarity tag
// introduced by sep, so "EGFR:0" and "EGFR:1" are the same vertex with
// sep ":". Names without sep are compared whole.
func IgnorePolarity(sep string) NameEqualFunc {
	base := func(name string) string {
		if sep == "" {
			return name
		}
		if i := strings.LastIndex(name, sep); i >= 0 {
			return name[:i]
		}
		return name
	}
	return func(a, b string) bool {
		return base(a) == base(b)
	}
}
