// Package logging provides the structured logger used across the module.
//
// Callers depend on the small Logger interface; the production implementation
// is backed by github.com/baditaflorin/l and writes key/value records to
// stderr, leaving stdout free for the MCP protocol.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/baditaflorin/l"
)

// Logger is a leveled key/value logger.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Close() error
}

// Options controls logger construction.
type Options struct {
	// Output defaults to os.Stderr.
	Output io.Writer
	// Level is "debug", "info", "warn" or "error". Empty means "info".
	Level string
	// JSON selects JSON records instead of text.
	JSON bool
}

// New creates a Logger backed by github.com/baditaflorin/l.
func New(opts Options) (Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	logger, err := l.NewStandardFactory().CreateLogger(l.Config{
		Output:      out,
		JsonFormat:  opts.JSON,
		AsyncWrite:  true,
		BufferSize:  1024 * 1024,      // 1MB buffer
		MaxFileSize: 10 * 1024 * 1024, // 10MB max file size
		MaxBackups:  5,
		AddSource:   true,
		Metrics:     false,
	})
	if err != nil {
		return nil, err
	}

	return &leveled{logger: logger, min: ParseLevel(opts.Level)}, nil
}

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a level name to a Level. Unknown names map to LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// ValidLevel reports whether name is a recognised level (empty counts as info).
func ValidLevel(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// leveled drops records below min before handing them to l.
type leveled struct {
	logger l.Logger
	min    Level
}

func (lg *leveled) Debug(msg string, keysAndValues ...interface{}) {
	if lg.min <= LevelDebug {
		lg.logger.Debug(msg, keysAndValues...)
	}
}

func (lg *leveled) Info(msg string, keysAndValues ...interface{}) {
	if lg.min <= LevelInfo {
		lg.logger.Info(msg, keysAndValues...)
	}
}

func (lg *leveled) Warn(msg string, keysAndValues ...interface{}) {
	if lg.min <= LevelWarn {
		lg.logger.Warn(msg, keysAndValues...)
	}
}

func (lg *leveled) Error(msg string, keysAndValues ...interface{}) {
	lg.logger.Error(msg, keysAndValues...)
}

func (lg *leveled) Close() error {
	return lg.logger.Close()
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nop{}
}

type nop struct{}

func (nop) Debug(string, ...interface{}) {}
func (nop) Info(string, ...interface{})  {}
func (nop) Warn(string, ...interface{})  {}
func (nop) Error(string, ...interface{}) {}
func (nop) Close() error                 { return nil }
