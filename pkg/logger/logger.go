// Package logger holds the process-wide slog logger used by the center,
// its daemon and the headless CLI.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Default receives the package-level helpers. Replace it with SetDefault.
var Default = New("info", os.Stdout)

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel maps a level name to a slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	if l, ok := levelNames[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l
	}
	return slog.LevelInfo
}

func options(level string) *slog.HandlerOptions {
	l := ParseLevel(level)
	return &slog.HandlerOptions{Level: l, AddSource: l == slog.LevelDebug}
}

// New returns a JSON logger writing to output.
func New(level string, output io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(output, options(level)))
}

// NewText returns a logfmt-style logger for terminals.
func NewText(level string, output io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(output, options(level)))
}

// SetDefault installs l as Default and as the slog default.
func SetDefault(l *slog.Logger) {
	Default = l
	slog.SetDefault(l)
}

func Debug(msg string, args ...any) { Default.Debug(msg, args...) }
func Info(msg string, args ...any)  { Default.Info(msg, args...) }
func Warn(msg string, args ...any)  { Default.Warn(msg, args...) }
func Error(msg string, args ...any) { Default.Error(msg, args...) }

func With(args ...any) *slog.Logger {
	return Default.With(args...)
}

// ForSession tags entries with a dashboard session ID.
func ForSession(sessionID string) *slog.Logger {
	return Default.With("session_id", sessionID)
}
