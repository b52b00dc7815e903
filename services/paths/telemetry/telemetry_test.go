// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg := DefaultConfig()

	assert.Equal(t, "aleutian-paths", cfg.ServiceName)
	assert.Equal(t, "none", cfg.TraceExporter)
	assert.Equal(t, "none", cfg.MetricExporter)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestDefaultConfig_Environment(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "stdout")
	t.Setenv("ALEUTIAN_ENV", "production")

	cfg := DefaultConfig()

	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.Equal(t, "production", cfg.Environment)
}

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	_, err := Init(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestInit_NoopExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "none"
	cfg.MetricExporter = "none"

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestInit_StdoutExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "stdout"
	cfg.MetricExporter = "stdout"

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	defer shutdown(context.Background())

	_, span := otel.Tracer("test").Start(context.Background(), "test-span")
	defer span.End()
	assert.True(t, span.SpanContext().IsSampled())
}

func TestInit_UnknownExporter(t *testing.T) {
	tests := []struct {
		name   string
		trace  string
		metric string
	}{
		{name: "trace", trace: "zipkin", metric: "none"},
		{name: "metric", trace: "none", metric: "statsd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.TraceExporter = tt.trace
			cfg.MetricExporter = tt.metric

			_, err := Init(context.Background(), cfg)
			assert.ErrorIs(t, err, ErrUnknownExporter)
		})
	}
}

func TestMetricsHandler_PrometheusExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "none"
	cfg.MetricExporter = "prometheus"

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	defer shutdown(context.Background())

	counter, err := otel.Meter("test_metrics").Int64Counter("telemetry_test_builds_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	handler := MetricsHandler()
	require.NotNil(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := rec.Result()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "# TYPE")
}

func TestMetricsHandler_NilBeforeInit(t *testing.T) {
	prometheusHandlerMu.Lock()
	old := prometheusHandler
	prometheusHandler = nil
	prometheusHandlerMu.Unlock()

	defer func() {
		prometheusHandlerMu.Lock()
		prometheusHandler = old
		prometheusHandlerMu.Unlock()
	}()

	assert.Nil(t, MetricsHandler())
}

func TestGetSampler(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want string
	}{
		{"full sampling", 1.0, "AlwaysOnSampler"},
		{"above 100%", 1.5, "AlwaysOnSampler"},
		{"no sampling", 0.0, "AlwaysOffSampler"},
		{"below 0%", -0.5, "AlwaysOffSampler"},
		{"partial sampling", 0.5, "TraceIDRatioBased"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, getSampler(tt.rate).Description(), tt.want)
		})
	}
}

func TestGetEnvOr(t *testing.T) {
	assert.Equal(t, "fallback", getEnvOr("PATHS_TELEMETRY_TEST_UNSET_12345", "fallback"))

	t.Setenv("PATHS_TELEMETRY_TEST_VAR", "custom")
	assert.Equal(t, "custom", getEnvOr("PATHS_TELEMETRY_TEST_VAR", "fallback"))
}
