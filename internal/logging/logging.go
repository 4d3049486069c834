// Package logging provides the logger interface used across pollwatch,
// backed by zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Logger takes a message followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	// Critical records a failure the process survives but an operator must see.
	Critical(msg string, args ...any)
}

// ZeroLogger implements Logger on top of a zerolog.Logger. Loggers derived
// with With share the minimum level of their parent.
type ZeroLogger struct {
	z     zerolog.Logger
	level *atomic.Int32
}

func newLevel(l zerolog.Level) *atomic.Int32 {
	v := &atomic.Int32{}
	v.Store(int32(l))
	return v
}

// New builds a logger writing to out. format is "console" or "json".
func New(level, format string, out io.Writer) *ZeroLogger {
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	z := zerolog.New(out).With().Timestamp().Logger()
	return &ZeroLogger{z: z, level: newLevel(ParseLevel(level))}
}

// Nop discards everything.
func Nop() *ZeroLogger {
	return &ZeroLogger{z: zerolog.Nop(), level: newLevel(zerolog.Disabled)}
}

// ParseLevel falls back to info for unknown or empty levels.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// SetLevel changes the minimum level of l and every logger sharing it.
// Used by the SIGHUP reload.
func (l *ZeroLogger) SetLevel(level string) {
	l.level.Store(int32(ParseLevel(level)))
}

// Level returns the current minimum level.
func (l *ZeroLogger) Level() zerolog.Level {
	return zerolog.Level(l.level.Load())
}

// With returns a child logger carrying the given fields on every record.
func (l *ZeroLogger) With(args ...any) *ZeroLogger {
	return &ZeroLogger{z: l.z.With().Fields(args).Logger(), level: l.level}
}

func (l *ZeroLogger) Debug(msg string, args ...any) { l.emit(zerolog.DebugLevel, msg, args) }
func (l *ZeroLogger) Info(msg string, args ...any)  { l.emit(zerolog.InfoLevel, msg, args) }
func (l *ZeroLogger) Warn(msg string, args ...any)  { l.emit(zerolog.WarnLevel, msg, args) }
func (l *ZeroLogger) Error(msg string, args ...any) { l.emit(zerolog.ErrorLevel, msg, args) }

// Critical logs at zerolog's fatal level without exiting.
func (l *ZeroLogger) Critical(msg string, args ...any) {
	l.emit(zerolog.FatalLevel, msg, args)
}

func (l *ZeroLogger) emit(lvl zerolog.Level, msg string, args []any) {
	if lvl < l.Level() {
		return
	}
	ev := l.z.WithLevel(lvl)
	if ev == nil {
		return
	}
	if len(args) > 0 {
		ev = ev.Fields(args)
	}
	ev.Msg(msg)
}
