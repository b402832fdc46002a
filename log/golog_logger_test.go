package log

import (
	"bytes"
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedGolog(buf *bytes.Buffer) *GologLogger {
	g := golog.New()
	g.SetOutput(buf)
	g.SetTimeFormat("")
	return NewGologLogger(g)
}

func TestGologLogger_FormatsArguments(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedGolog(&buf)
	logger.SetLevel(LogLevelDebug)

	logger.Info("[Market] collected %d documents", 3)
	assert.Contains(t, buf.String(), "[Market] collected 3 documents")
	assert.NotContains(t, buf.String(), "%d")
}

func TestGologLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedGolog(&buf)
	logger.SetLevel(LogLevelWarn)
	assert.Equal(t, LogLevelWarn, logger.GetLevel())

	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line")
	logger.Error("error line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
	assert.Contains(t, out, "error line")
}

func TestGologLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedGolog(&buf)
	logger.SetLevel(LogLevelNone)
	logger.Error("nothing")
	assert.Empty(t, buf.String())
}

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCustomLogger(&buf, LogLevelInfo)
	logger.Debug("hidden")
	logger.Info("[Stock] %s return %.2f%%", "TSLA", 5.0)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[trendreport] ")
	assert.Contains(t, buf.String(), "[INFO] [Stock] TSLA return 5.00%")
}

func TestPackageLevelLogger(t *testing.T) {
	prev := GetDefaultLogger()
	defer SetDefaultLogger(prev)

	var buf bytes.Buffer
	SetDefaultLogger(NewCustomLogger(&buf, LogLevelDebug))
	Debug("d %d", 1)
	Warn("w %d", 2)
	assert.Contains(t, buf.String(), "d 1")
	assert.Contains(t, buf.String(), "w 2")

	SetDefaultLogger(nil)
	assert.IsType(t, NoOpLogger{}, GetDefaultLogger())
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{
		"debug": LogLevelDebug,
		"INFO":  LogLevelInfo,
		"":      LogLevelInfo,
		"warn":  LogLevelWarn,
		"error": LogLevelError,
		"off":   LogLevelNone,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
