// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tags implements tag-sets: immutable sets of raw paths graph nodes
// stored as bitsets over an interned node index.
//
// # Representation
//
// A Set packs its bits into a string, lowest index in the lowest bit of the
// first byte. Trailing zero bytes are trimmed, so the encoding is canonical
// and two equal sets compare equal with ==. Sets are values: copying a Set
// shares the underlying bytes, and no operation mutates an existing Set.
//
// # Thread Safety
//
// Set is immutable and safe for concurrent use. Index is read-only after
// NewIndex returns and is safe for concurrent use.
package tags

import (
	"math/bits"
	"strconv"
	"strings"
)

// Set is an immutable bitset of node indices.
//
// The zero value is the empty set.
type Set struct {
	bits string
}

// FromIndices builds a set containing the given indices. Negative indices
// are ignored.
func FromIndices(indices ...int) Set {
	hi := -1
	for _, i := range indices {
		hi = max(hi, i)
	}
	if hi < 0 {
		return Set{}
	}
	buf := make([]byte, hi/8+1)
	for _, i := range indices {
		if i >= 0 {
			buf[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return fromBytes(buf)
}

// fromBytes trims trailing zero bytes and freezes buf into a Set.
func fromBytes(buf []byte) Set {
	n := len(buf)
	for n > 0 && buf[n-1] == 0 {
		n--
	}
	return Set{bits: string(buf[:n])}
}

// Has reports whether index i is in the set.
func (s Set) Has(i int) bool {
	if i < 0 || i/8 >= len(s.bits) {
		return false
	}
	return s.bits[i/8]&(1<<(uint(i)%8)) != 0
}

// Len returns the number of members.
func (s Set) Len() int {
	n := 0
	for i := 0; i < len(s.bits); i++ {
		n += bits.OnesCount8(s.bits[i])
	}
	return n
}

// IsEmpty reports whether the set has no members.
func (s Set) IsEmpty() bool {
	return len(s.bits) == 0
}

// Intersect returns s ∩ other.
func (s Set) Intersect(other Set) Set {
	n := min(len(s.bits), len(other.bits))
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		buf[i] = s.bits[i] & other.bits[i]
	}
	return fromBytes(buf)
}

// Union returns s ∪ other.
func (s Set) Union(other Set) Set {
	long, short := s.bits, other.bits
	if len(short) > len(long) {
		long, short = short, long
	}
	if len(short) == 0 {
		return Set{bits: long}
	}
	buf := []byte(long)
	for i := 0; i < len(short); i++ {
		buf[i] |= short[i]
	}
	return Set{bits: string(buf)}
}

// With returns s with index i added.
func (s Set) With(i int) Set {
	if s.Has(i) || i < 0 {
		return s
	}
	return s.Union(FromIndices(i))
}

// IsSubset reports whether every member of s is also in other.
func (s Set) IsSubset(other Set) bool {
	if len(s.bits) > len(other.bits) {
		return false
	}
	for i := 0; i < len(s.bits); i++ {
		if s.bits[i]&^other.bits[i] != 0 {
			return false
		}
	}
	return true
}

// Indices returns the members in increasing order.
func (s Set) Indices() []int {
	out := make([]int, 0, s.Len())
	for i := 0; i < len(s.bits); i++ {
		b := s.bits[i]
		for b != 0 {
			tz := bits.TrailingZeros8(b)
			out = append(out, i*8+tz)
			b &= b - 1
		}
	}
	return out
}

// Key returns the canonical encoding of the set. Equal sets have equal
// keys, and keys order sets deterministically.
func (s Set) Key() string {
	return s.bits
}

// String renders the member indices, e.g. "{0,3,7}".
func (s Set) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for n, i := range s.Indices() {
		if n > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(i))
	}
	sb.WriteByte('}')
	return sb.String()
}
