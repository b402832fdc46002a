package log

import (
	"sync/atomic"

	"github.com/kataras/golog"
)

// GologLogger implements Logger interface using kataras/golog
type GologLogger struct {
	logger *golog.Logger
	level  atomic.Int32
}

var _ Logger = (*GologLogger)(nil)

// NewGologLogger creates a new logger using an existing golog.Logger
func NewGologLogger(logger *golog.Logger) *GologLogger {
	l := &GologLogger{logger: logger}
	l.level.Store(int32(LogLevelInfo))
	return l
}

// NewGologLoggerWithLevel creates a golog-backed logger with the given level and prefix.
func NewGologLoggerWithLevel(level LogLevel, prefix string) *GologLogger {
	g := golog.New()
	if prefix != "" {
		g.SetPrefix(prefix + " ")
	}
	l := NewGologLogger(g)
	l.SetLevel(level)
	return l
}

func (l *GologLogger) enabled(level LogLevel) bool {
	return LogLevel(l.level.Load()) <= level
}

// Debug logs debug messages
func (l *GologLogger) Debug(format string, v ...any) {
	if l.enabled(LogLevelDebug) {
		l.logger.Debugf(format, v...)
	}
}

// Info logs informational messages
func (l *GologLogger) Info(format string, v ...any) {
	if l.enabled(LogLevelInfo) {
		l.logger.Infof(format, v...)
	}
}

// Warn logs warning messages
func (l *GologLogger) Warn(format string, v ...any) {
	if l.enabled(LogLevelWarn) {
		l.logger.Warnf(format, v...)
	}
}

// Error logs error messages
func (l *GologLogger) Error(format string, v ...any) {
	if l.enabled(LogLevelError) {
		l.logger.Errorf(format, v...)
	}
}

// SetLevel sets the log level on both this wrapper and the golog logger
func (l *GologLogger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))

	gologLevel := "info"
	switch level {
	case LogLevelDebug:
		gologLevel = "debug"
	case LogLevelWarn:
		gologLevel = "warn"
	case LogLevelError:
		gologLevel = "error"
	case LogLevelNone:
		gologLevel = "disable"
	}
	l.logger.SetLevel(gologLevel)
}

// GetLevel returns the current log level
func (l *GologLogger) GetLevel() LogLevel {
	return LogLevel(l.level.Load())
}
