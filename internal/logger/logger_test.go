package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{-1, zapcore.WarnLevel},
		{0, zapcore.WarnLevel},
		{1, zapcore.InfoLevel},
		{2, zapcore.DebugLevel},
		{5, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VerbosityToLevel(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestDefaultLoggerIsNop(t *testing.T) {
	require.NotNil(t, Logger)
	Logger.Infow("dropped", "file", "a.lef")
}

func TestInitializeConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitializeTo(&buf, VerbosityInfo, false))
	t.Cleanup(func() { require.NoError(t, InitializeTo(&bytes.Buffer{}, 0, false)) })

	Logger.Debugw("hidden", "file", "a.lef")
	Logger.Infow("library converted", "library", "sky130_fd_sc_hd", "cells", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "library converted")
	assert.Contains(t, out, "sky130_fd_sc_hd")
	assert.False(t, JSONOutput)
}

func TestInitializeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitializeTo(&buf, VerbosityQuiet, true))
	t.Cleanup(func() { require.NoError(t, InitializeTo(&bytes.Buffer{}, 0, false)) })

	Logger.Infow("hidden at warn level")
	Logger.Warnw("parse failed", "file", "bad.lef")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "parse failed", entry["msg"])
	assert.Equal(t, "bad.lef", entry["file"])
	assert.True(t, JSONOutput)
}
