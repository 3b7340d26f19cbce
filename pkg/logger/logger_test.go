package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSilentUntilInit(t *testing.T) {
	Reset()
	assert.NotPanics(t, func() {
		Debug("dropped")
		Info("dropped")
		Warn("dropped")
		Error("dropped")
		LogPhase("lex")
	})
}

func TestTextOutputRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: LevelWarn, Format: "text", Output: &buf})
	t.Cleanup(Reset)

	LogPhase("parse")
	LogFileProcessing("a.plain", "a.js")
	assert.Empty(t, buf.String(), "debug and info are below the warn threshold")

	LogCompileError("codegen", "a.plain", 3, errors.New("block has no body"))
	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "phase=codegen")
	assert.Contains(t, out, "line=3")
	assert.Contains(t, out, `message="block has no body"`)
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: LevelDebug, Format: "json", Output: &buf})
	t.Cleanup(Reset)

	LogTokens("main.plain", 42)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "Lexing complete", entry["msg"])
	assert.Equal(t, "main.plain", entry["file"])
	assert.Equal(t, float64(42), entry["tokens"])
}

func TestInitReplacesLogger(t *testing.T) {
	var first, second bytes.Buffer
	Init(Config{Level: LevelInfo, Output: &first})
	Init(Config{Level: LevelInfo, Output: &second})
	t.Cleanup(Reset)

	Info("hello")
	assert.Empty(t, first.String())
	assert.True(t, strings.Contains(second.String(), "hello"))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, LevelInfo, cfg.Level)
	assert.Equal(t, "text", cfg.Format)
	assert.NotNil(t, cfg.Output)
}
