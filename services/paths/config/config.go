// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads YAML configuration for CFPG building, sampling, and
// telemetry.
//
// A file only needs the keys it changes; everything else keeps the value
// from Default(). Unknown keys are rejected so that typos fail loudly.
//
// Example file:
//
//	build:
//	  max_workers: 4
//	  verify: true
//	  name_equivalence: ignore_polarity
//	  polarity_separator: ":"
//	sampling:
//	  seed: 42
//	  weighted: true
//	logging:
//	  level: debug
//	telemetry:
//	  trace_exporter: stdout
//
// Thread Safety:
//
//	All exported functions are safe for concurrent use. A loaded Config is
//	a plain value and must not be mutated while shared.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/pathsgraph/services/paths/cfpg"
	"github.com/AleutianAI/pathsgraph/services/paths/reach"
	"github.com/AleutianAI/pathsgraph/services/paths/sample"
	"github.com/AleutianAI/pathsgraph/services/paths/telemetry"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxYAMLFileSize is the maximum allowed config file size (1MB).
	MaxYAMLFileSize = 1024 * 1024

	// EnvConfigPath names the environment variable consulted when Load is
	// given an empty path.
	EnvConfigPath = "PATHS_CONFIG"

	// NameEquivalenceExact compares node names byte for byte.
	NameEquivalenceExact = "exact"

	// NameEquivalenceIgnorePolarity treats names differing only in their
	// polarity suffix as the same vertex.
	NameEquivalenceIgnorePolarity = "ignore_polarity"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNilContext is returned when a nil context is passed.
	ErrNilContext = errors.New("config: nil context")

	// ErrFileTooLarge is returned for files above MaxYAMLFileSize.
	ErrFileTooLarge = errors.New("config file too large")

	// ErrInvalidConfig is returned when a config fails validation.
	ErrInvalidConfig = errors.New("invalid config")
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	configLoadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paths_config_load_total",
		Help: "Total config loads by source and result",
	}, []string{"source", "result"})

	configLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "paths_config_load_duration_seconds",
		Help:    "Duration of config loading",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1},
	})
)

var configTracer = otel.Tracer("aleutian.paths.config")

// =============================================================================
// Types
// =============================================================================

// Config is the root configuration.
type Config struct {
	Build     BuildConfig      `yaml:"build"`
	Sampling  SamplingConfig   `yaml:"sampling"`
	Logging   LoggingConfig    `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// BuildConfig configures cfpg.Builder.
type BuildConfig struct {
	// MaxWorkers bounds the splitting goroutines per level. 0 keeps the
	// builder default.
	MaxWorkers int `yaml:"max_workers" validate:"gte=0,lte=1024"`

	// ParallelThreshold is the level width above which splitting runs in
	// parallel.
	ParallelThreshold int `yaml:"parallel_threshold" validate:"gte=0"`

	// Verify re-checks output invariants after every build.
	Verify bool `yaml:"verify"`

	// NameEquivalence is "exact" or "ignore_polarity".
	NameEquivalence string `yaml:"name_equivalence" validate:"oneof=exact ignore_polarity"`

	// PolaritySeparator precedes the polarity suffix of a name. Required
	// for ignore_polarity.
	PolaritySeparator string `yaml:"polarity_separator" validate:"required_if=NameEquivalence ignore_polarity,nowhitespace"`
}

// SamplingConfig configures sample.Sampler.
type SamplingConfig struct {
	Seed     uint64 `yaml:"seed"`
	Weighted bool   `yaml:"weighted"`

	// Count is the default number of paths to draw per request.
	Count int `yaml:"count" validate:"gte=1,lte=1000000"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Build: BuildConfig{
			ParallelThreshold: cfpg.DefaultParallelThreshold,
			NameEquivalence:   NameEquivalenceExact,
			PolaritySeparator: ":",
		},
		Sampling: SamplingConfig{
			Weighted: true,
			Count:    100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// =============================================================================
// Validation
// =============================================================================

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("nowhitespace", validateNoWhitespace)
}

// validateNoWhitespace rejects strings containing whitespace.
func validateNoWhitespace(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// =============================================================================
// Loading
// =============================================================================

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	logWriter io.Writer
}

// WithLogWriter sends Load's own logs to w instead of stderr.
func WithLogWriter(w io.Writer) LoadOption {
	return func(o *loadOptions) {
		o.logWriter = w
	}
}

// Load reads and validates the config file at path.
//
// Description:
//
//	An empty path falls back to $PATHS_CONFIG, and to Default() when that
//	is unset too. Keys absent from the file keep their default values.
//	Load logs through the logging section of the config it returns.
//
// Inputs:
//
//	ctx - Context for tracing. Must not be nil.
//	path - File path, or "".
//	opts - Optional settings, such as WithLogWriter.
//
// Outputs:
//
//	*Config - The validated configuration. Never nil on success.
//	error - ErrFileTooLarge, ErrInvalidConfig, or a read/parse error.
//
// Example:
//
//	cfg, err := config.Load(ctx, "paths.yaml")
//	if err != nil {
//	    return fmt.Errorf("loading config: %w", err)
//	}
//	builder := cfpg.NewBuilder(cfg.BuildOptions()...)
func Load(ctx context.Context, path string, opts ...LoadOption) (*Config, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	var lo loadOptions
	for _, opt := range opts {
		opt(&lo)
	}
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	ctx, span := configTracer.Start(ctx, "config.Load",
		trace.WithAttributes(attribute.String("path", path)),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		configLoadDuration.Observe(time.Since(start).Seconds())
	}()

	if path == "" {
		configLoadTotal.WithLabelValues("default", "ok").Inc()
		cfg := Default()
		cfg.Logging.NewLogger(lo.logWriter).Debug("no config file given, using defaults")
		return cfg, nil
	}

	data, err := readFile(ctx, path)
	if err != nil {
		configLoadTotal.WithLabelValues("file", "error").Inc()
		telemetry.RecordError(span, err)
		return nil, err
	}

	cfg, err := Parse(ctx, data)
	if err != nil {
		configLoadTotal.WithLabelValues("file", "error").Inc()
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	configLoadTotal.WithLabelValues("file", "ok").Inc()
	telemetry.LoggerWithTrace(ctx, cfg.Logging.NewLogger(lo.logWriter)).Info("loaded paths config",
		slog.String("path", path),
		slog.Int("size", len(data)),
	)
	return cfg, nil
}

// readFile reads a config file, enforcing the size limit before reading.
func readFile(ctx context.Context, path string) ([]byte, error) {
	_, span := configTracer.Start(ctx, "config.readFile")
	defer span.End()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > MaxYAMLFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, info.Size(), MaxYAMLFileSize)
	}
	span.SetAttributes(attribute.Int64("file_size", info.Size()))

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return data, nil
}

// Parse decodes YAML over Default() and validates the result.
//
// Empty input yields the defaults. Unknown keys are an error.
func Parse(ctx context.Context, data []byte) (*Config, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	_, span := configTracer.Start(ctx, "config.Parse",
		trace.WithAttributes(attribute.Int("yaml_size", len(data))),
	)
	defer span.End()

	if len(data) > MaxYAMLFileSize {
		err := fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(data), MaxYAMLFileSize)
		telemetry.RecordError(span, err)
		return nil, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("unmarshaling YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// Conversion
// =============================================================================

// NameEqual returns the name predicate selected by NameEquivalence.
func (b BuildConfig) NameEqual() reach.NameEqualFunc {
	if b.NameEquivalence == NameEquivalenceIgnorePolarity {
		return reach.IgnorePolarity(b.PolaritySeparator)
	}
	return reach.ExactName
}

// BuildOptions converts the build and logging sections to cfpg builder
// options. Builder logs go to stderr.
func (c *Config) BuildOptions() []cfpg.BuildOption {
	opts := []cfpg.BuildOption{
		cfpg.WithLogger(c.Logging.NewLogger(nil)),
		cfpg.WithParallelThreshold(c.Build.ParallelThreshold),
		cfpg.WithVerify(c.Build.Verify),
		cfpg.WithNameEquality(c.Build.NameEqual()),
	}
	if c.Build.MaxWorkers > 0 {
		opts = append(opts, cfpg.WithMaxWorkers(c.Build.MaxWorkers))
	}
	return opts
}

// SamplerOptions converts the sampling section to sampler options.
func (c *Config) SamplerOptions() []sample.SamplerOption {
	return []sample.SamplerOption{
		sample.WithLogger(c.Logging.NewLogger(nil)),
		sample.WithSeed(c.Sampling.Seed),
		sample.WithWeighted(c.Sampling.Weighted),
	}
}
