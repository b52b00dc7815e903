// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/pathsgraph/services/paths/cfpg"
	"github.com/AleutianAI/pathsgraph/services/paths/sample"
)

// clearEnv keeps the telemetry defaults independent of the test host.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv(EnvConfigPath, "")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paths.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	clearEnv(t)

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, NameEquivalenceExact, cfg.Build.NameEquivalence)
	assert.Equal(t, cfpg.DefaultParallelThreshold, cfg.Build.ParallelThreshold)
	assert.True(t, cfg.Sampling.Weighted)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
}

func TestParse(t *testing.T) {
	clearEnv(t)
	ctx := context.Background()

	t.Run("empty input keeps defaults", func(t *testing.T) {
		cfg, err := Parse(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("partial override", func(t *testing.T) {
		cfg, err := Parse(ctx, []byte(`
build:
  max_workers: 4
  verify: true
  name_equivalence: ignore_polarity
sampling:
  seed: 42
telemetry:
  trace_exporter: stdout
  sample_rate: 0.25
`))
		require.NoError(t, err)

		assert.Equal(t, 4, cfg.Build.MaxWorkers)
		assert.True(t, cfg.Build.Verify)
		assert.Equal(t, NameEquivalenceIgnorePolarity, cfg.Build.NameEquivalence)
		assert.Equal(t, ":", cfg.Build.PolaritySeparator)
		assert.Equal(t, uint64(42), cfg.Sampling.Seed)
		assert.True(t, cfg.Sampling.Weighted)
		assert.Equal(t, 100, cfg.Sampling.Count)
		assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
		assert.Equal(t, 0.25, cfg.Telemetry.SampleRate)
		assert.Equal(t, "aleutian-paths", cfg.Telemetry.ServiceName)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Parse(ctx, []byte("build:\n  max_wrokers: 4\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_wrokers")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse(ctx, []byte("build: [unterminated"))
		assert.Error(t, err)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := Parse(ctx, make([]byte, MaxYAMLFileSize+1))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("nil context", func(t *testing.T) {
		//nolint:staticcheck // nil context is the case under test
		_, err := Parse(nil, nil)
		assert.ErrorIs(t, err, ErrNilContext)
	})
}

func TestParse_Invalid(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{name: "negative workers", yaml: "build:\n  max_workers: -1\n", field: "MaxWorkers"},
		{name: "unknown equivalence", yaml: "build:\n  name_equivalence: fuzzy\n", field: "NameEquivalence"},
		{
			name:  "missing separator",
			yaml:  "build:\n  name_equivalence: ignore_polarity\n  polarity_separator: \"\"\n",
			field: "PolaritySeparator",
		},
		{name: "separator with space", yaml: "build:\n  polarity_separator: \" :\"\n", field: "PolaritySeparator"},
		{name: "zero count", yaml: "sampling:\n  count: 0\n", field: "Count"},
		{name: "unknown exporter", yaml: "telemetry:\n  trace_exporter: zipkin\n", field: "TraceExporter"},
		{name: "sample rate above one", yaml: "telemetry:\n  sample_rate: 2\n", field: "SampleRate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tt.yaml))
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		path := writeConfig(t, "sampling:\n  seed: 7\n  weighted: false\n")

		cfg, err := Load(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), cfg.Sampling.Seed)
		assert.False(t, cfg.Sampling.Weighted)
	})

	t.Run("empty path uses defaults", func(t *testing.T) {
		cfg, err := Load(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("empty path uses environment", func(t *testing.T) {
		t.Setenv(EnvConfigPath, writeConfig(t, "build:\n  verify: true\n"))

		cfg, err := Load(ctx, "")
		require.NoError(t, err)
		assert.True(t, cfg.Build.Verify)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(ctx, filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("oversized file", func(t *testing.T) {
		path := writeConfig(t, "# "+strings.Repeat("x", MaxYAMLFileSize)+"\n")
		_, err := Load(ctx, path)
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("invalid file", func(t *testing.T) {
		path := writeConfig(t, "build:\n  name_equivalence: fuzzy\n")
		_, err := Load(ctx, path)
		require.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("nil context", func(t *testing.T) {
		//nolint:staticcheck // nil context is the case under test
		_, err := Load(nil, "")
		assert.ErrorIs(t, err, ErrNilContext)
	})
}

func TestConfig_BuildOptions(t *testing.T) {
	clearEnv(t)

	cfg := Default()
	cfg.Build.MaxWorkers = 3
	cfg.Build.ParallelThreshold = 5
	cfg.Build.Verify = true
	cfg.Build.NameEquivalence = NameEquivalenceIgnorePolarity

	opts := cfpg.NewBuilder(cfg.BuildOptions()...).Options()
	assert.Equal(t, 3, opts.MaxWorkers)
	assert.Equal(t, 5, opts.ParallelThreshold)
	assert.True(t, opts.Verify)
	assert.True(t, opts.NameEqual("EGFR:0", "EGFR:1"))

	cfg.Build.NameEquivalence = NameEquivalenceExact
	cfg.Build.MaxWorkers = 0
	opts = cfpg.NewBuilder(cfg.BuildOptions()...).Options()
	assert.False(t, opts.NameEqual("EGFR:0", "EGFR:1"))
	assert.Equal(t, cfpg.DefaultBuildOptions().MaxWorkers, opts.MaxWorkers)
}

func TestConfig_SamplerOptions(t *testing.T) {
	clearEnv(t)

	cfg := Default()
	cfg.Sampling.Seed = 99
	cfg.Sampling.Weighted = false

	var got sample.SamplerOptions
	for _, opt := range cfg.SamplerOptions() {
		opt(&got)
	}
	assert.Equal(t, uint64(99), got.Seed)
	assert.False(t, got.Weighted)
}
