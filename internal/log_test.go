package internal

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{
		"ERROR":  LogLevelError,
		"warn":   LogLevelWarn,
		" Info ": LogLevelInfo,
		"debug":  LogLevelDebug,
		"TRACE":  LogLevelTrace,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(LogLevelWarn, log.New(&buf, "", 0))

	l.Error("e %d", 1)
	l.Warn("w")
	l.Info("i")
	l.Debug("d")

	out := buf.String()
	assert.Contains(t, out, "[ERROR] e 1")
	assert.Contains(t, out, "[WARN] w")
	assert.NotContains(t, out, "[INFO]")
	assert.NotContains(t, out, "[DEBUG]")
}

func TestNewDefaultLogger_ReadsEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	assert.Equal(t, LogLevelDebug, NewDefaultLogger().GetLevel())

	t.Setenv("LOG_LEVEL", "nonsense")
	assert.Equal(t, LogLevelInfo, NewDefaultLogger().GetLevel())
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
}
