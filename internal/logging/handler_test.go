// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/simpleauth/pkg/errutil"
)

func setup(t *testing.T, format, level string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := Setup("simpleauth", "1.0.0", Options{Format: format, Level: level, Writer: &buf})
	require.NoError(t, err)
	return logger, &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "failed to parse JSON: %s", buf.String())
	return entry
}

func TestSetup_JSONFormat(t *testing.T) {
	logger, buf := setup(t, "json", "info")

	logger.Info("session created")

	entry := decode(t, buf)
	assert.Equal(t, "session created", entry["msg"])
	assert.Equal(t, "simpleauth", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "level")
}

func TestSetup_TextFormat(t *testing.T) {
	logger, buf := setup(t, "text", "info")

	logger.Info("session created")

	assert.Contains(t, buf.String(), "session created")
	assert.Contains(t, buf.String(), "service=simpleauth")
}

func TestSetup_DefaultFormatIsJSON(t *testing.T) {
	logger, buf := setup(t, "", "")

	logger.Info("session created")

	decode(t, buf)
}

func TestSetup_Level(t *testing.T) {
	logger, buf := setup(t, "json", "warn")

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Equal(t, "kept", decode(t, buf)["msg"])
}

func TestSetup_InvalidLevel(t *testing.T) {
	_, err := Setup("simpleauth", "1.0.0", Options{Level: "verbose"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "LOG_LEVEL_INVALID")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandler_TraceContext(t *testing.T) {
	logger, buf := setup(t, "json", "debug")

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	logger.InfoContext(ctx, "traced message")

	entry := decode(t, buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestHandler_NoTraceContext(t *testing.T) {
	logger, buf := setup(t, "json", "debug")

	logger.Info("no trace message")

	entry := decode(t, buf)
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
}

func TestHandler_WithAttrsKeepsServiceFields(t *testing.T) {
	logger, buf := setup(t, "json", "debug")

	logger.With("operation", "destroy").WithGroup("session").Info("cleared", "id", "abc")

	entry := decode(t, buf)
	assert.Equal(t, "destroy", entry["operation"])
	assert.Equal(t, "abc", entry["session"].(map[string]any)["id"])
}

func TestSetDefault(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	var buf bytes.Buffer
	logger, err := SetDefault("simpleauth", "2.0.0", Options{Writer: &buf})
	require.NoError(t, err)
	assert.Same(t, logger, slog.Default())
}
