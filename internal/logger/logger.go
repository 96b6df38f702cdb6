// Package logger configures the process-wide slog logger: a compact console
// handler for humans plus an optional JSON Lines sink for --log-file.
//
// Every attribute passes through Redact before it is written, so API keys
// never reach the terminal or the log file.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	global     *slog.Logger
	isTerminal = term.IsTerminal
)

func init() {
	Init(LevelInfo, nil)
}

// ParseLevel maps a config or flag value to a slog level. Unknown values
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Init logs to stderr at level, with colour when stderr is a terminal and
// no log file is attached. logFile, when non-nil, receives JSON Lines.
func Init(level slog.Level, logFile io.Writer) {
	color := logFile == nil && isTerminal(int(os.Stderr.Fd()))
	InitWriter(os.Stderr, level, logFile, color)
}

// InitWriter is Init with an explicit console writer. The CLI routes the
// console to the command's stderr so tests can capture it.
func InitWriter(console io.Writer, level slog.Level, logFile io.Writer, color bool) {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: RedactAttr}

	var h slog.Handler = newConsoleHandler(console, opts, color)
	if logFile != nil {
		h = fanout{h, slog.NewJSONHandler(logFile, opts)}
	}
	global = slog.New(h)
	slog.SetDefault(global)
}

func Debug(msg string, args ...any) { global.Debug(msg, args...) }
func Info(msg string, args ...any)  { global.Info(msg, args...) }
func Warn(msg string, args ...any)  { global.Warn(msg, args...) }
func Error(msg string, args ...any) { global.Error(msg, args...) }
