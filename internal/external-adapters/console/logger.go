package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ochairo/javabuild/internal/domain/interfaces"
)

// Logger implements interfaces.Logger with colored, human-readable lines
type Logger struct {
	out     io.Writer
	palette Palette
	debug   bool
	mu      sync.Mutex
}

// LoggerOption configures a Logger
type LoggerOption func(*Logger)

// WithColor enables or disables ANSI colors
func WithColor(enabled bool) LoggerOption {
	return func(l *Logger) {
		l.palette = NewPalette(enabled)
	}
}

// WithDebug enables debug-level messages
func WithDebug(enabled bool) LoggerOption {
	return func(l *Logger) {
		l.debug = enabled
	}
}

// NewLogger creates a logger writing to out. Colors are on by default.
func NewLogger(out io.Writer, opts ...LoggerOption) *Logger {
	l := &Logger{
		palette: NewPalette(true),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.palette.Enabled() {
		out = NewWriter(out)
	}
	l.out = out
	return l
}

// Palette returns the palette used by the logger
func (l *Logger) Palette() Palette {
	return l.palette
}

// Debug logs debug-level messages in gray, only when debug is enabled
func (l *Logger) Debug(msg string, fields ...interfaces.Field) {
	if !l.debug {
		return
	}
	l.log(l.palette.Gray, msg, fields)
}

// Info logs informational messages in cyan
func (l *Logger) Info(msg string, fields ...interfaces.Field) {
	l.log(l.palette.Cyan, msg, fields)
}

// Success logs completed steps in green
func (l *Logger) Success(msg string, fields ...interfaces.Field) {
	l.log(l.palette.Green, msg, fields)
}

// Warn logs warning messages in yellow
func (l *Logger) Warn(msg string, fields ...interfaces.Field) {
	l.log(l.palette.Yellow, msg, fields)
}

// Error logs error messages in red
func (l *Logger) Error(msg string, fields ...interfaces.Field) {
	l.log(l.palette.Red, msg, fields)
}

func (l *Logger) log(paint func(string) string, msg string, fields []interfaces.Field) {
	var b strings.Builder
	b.WriteString(msg)
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, paint(b.String()))
}
