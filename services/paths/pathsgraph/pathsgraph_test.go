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

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func n(level int, name string) Node {
	return Node{Level: level, Name: name}
}

// loopGraph has the walks S,A,A,T and S,A,B,T. The name A appears at
// levels 1 and 2.
func loopGraph() *PathsGraph {
	p := New("S", "T", 3)
	p.AddEdge(n(0, "S"), n(1, "A"), DefaultWeight)
	p.AddEdge(n(1, "A"), n(2, "B"), DefaultWeight)
	p.AddEdge(n(1, "A"), n(2, "A"), DefaultWeight)
	p.AddEdge(n(2, "B"), n(3, "T"), DefaultWeight)
	p.AddEdge(n(2, "A"), n(3, "T"), DefaultWeight)
	return p
}

func TestNode_StringAndCompare(t *testing.T) {
	assert.Equal(t, "A@2", n(2, "A").String())
	assert.Negative(t, Compare(n(1, "Z"), n(2, "A")))
	assert.Negative(t, Compare(n(1, "A"), n(1, "B")))
	assert.Zero(t, Compare(n(1, "A"), n(1, "A")))
}

func TestPathsGraph_Endpoints(t *testing.T) {
	p := New("S", "T", 4)
	assert.Equal(t, n(0, "S"), p.SourceNode())
	assert.Equal(t, n(4, "T"), p.TargetNode())
	assert.True(t, p.IsEmpty())

	var nilGraph *PathsGraph
	assert.True(t, nilGraph.IsEmpty())
}

func TestPathsGraph_Validate(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *PathsGraph
		wantErr bool
	}{
		{
			name:  "empty graph is valid",
			build: func() *PathsGraph { return New("S", "T", 2) },
		},
		{
			name:  "well formed",
			build: loopGraph,
		},
		{
			name: "zero path length",
			build: func() *PathsGraph {
				p := New("S", "T", 0)
				p.Graph.AddNode(n(0, "S"))
				return p
			},
			wantErr: true,
		},
		{
			name: "extra node at level 0",
			build: func() *PathsGraph {
				p := loopGraph()
				p.AddEdge(n(0, "X"), n(1, "A"), 1)
				return p
			},
			wantErr: true,
		},
		{
			name: "wrong target",
			build: func() *PathsGraph {
				p := New("S", "T", 1)
				p.AddEdge(n(0, "S"), n(1, "U"), 1)
				return p
			},
			wantErr: true,
		},
		{
			name: "edge skips a level",
			build: func() *PathsGraph {
				p := loopGraph()
				p.AddEdge(n(1, "A"), n(3, "T"), 1)
				return p
			},
			wantErr: true,
		},
		{
			name: "node beyond target level",
			build: func() *PathsGraph {
				p := loopGraph()
				p.AddEdge(n(3, "T"), n(4, "X"), 1)
				return p
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformed))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPathsGraph_Walks(t *testing.T) {
	walks, err := loopGraph().Walks(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, walks, 2)

	assert.Equal(t, []string{"S", "A", "A", "T"}, Names(walks[0]))
	assert.Equal(t, []string{"S", "A", "B", "T"}, Names(walks[1]))
	assert.False(t, IsCycleFree(walks[0]))
	assert.True(t, IsCycleFree(walks[1]))
}

func TestPathsGraph_WalksLimit(t *testing.T) {
	_, err := loopGraph().Walks(context.Background(), 1)
	assert.ErrorIs(t, err, ErrWalkLimitExceeded)
}

func TestPathsGraph_WalksCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loopGraph().Walks(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPathsGraph_WalksEmpty(t *testing.T) {
	walks, err := New("S", "T", 2).Walks(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, walks)
}
