package logger

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetVerbose(false)
		SetTimestamps(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t)

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLogging_WhenVerbose(t *testing.T) {
	buf := capture(t)
	SetVerbose(true)

	Debug("page %d", 2)
	Info("connected to %s", "http://localhost:8000")
	Warn("retrying")
	Error("failed: %v", "boom")
	Section("Search")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] page 2\n")
	assert.Contains(t, out, "[INFO] connected to http://localhost:8000\n")
	assert.Contains(t, out, "[WARN] retrying\n")
	assert.Contains(t, out, "[ERROR] failed: boom\n")
	assert.Contains(t, out, "=== Search ===")
}

func TestLogging_WhenNotVerbose(t *testing.T) {
	buf := capture(t)
	SetVerbose(false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("hidden")
	Error("shown")

	assert.Equal(t, "[ERROR] shown\n", buf.String())
}

func TestSetLevel(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelWarn)

	Info("hidden")
	Warn("shown")

	assert.Equal(t, "[WARN] shown\n", buf.String())
	assert.False(t, IsVerbose())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("trace")
	assert.Error(t, err)
}

func TestTimestamps(t *testing.T) {
	buf := capture(t)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })
	SetTimestamps(true)

	Error("x")

	assert.Equal(t, "2025-01-02T03:04:05Z [ERROR] x\n", buf.String())
}
