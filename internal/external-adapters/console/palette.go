// Package console renders colored status output for interactive sessions.
package console

import (
	"io"

	"github.com/shiena/ansicolor"
)

// ANSI escape sequences used by the palette
const (
	reset  = "\x1b[0m"
	red    = "\x1b[91m"
	green  = "\x1b[92m"
	yellow = "\x1b[93m"
	cyan   = "\x1b[96m"
	gray   = "\x1b[90m"
)

// Palette wraps text in ANSI colors. The zero value renders plain text.
type Palette struct {
	enabled bool
}

// NewPalette creates a palette; colors are emitted only when enabled
func NewPalette(enabled bool) Palette {
	return Palette{enabled: enabled}
}

// Enabled reports whether colors are emitted
func (p Palette) Enabled() bool { return p.enabled }

func (p Palette) paint(color, s string) string {
	if !p.enabled {
		return s
	}
	return color + s + reset
}

// Red colors s red
func (p Palette) Red(s string) string { return p.paint(red, s) }

// Green colors s green
func (p Palette) Green(s string) string { return p.paint(green, s) }

// Yellow colors s yellow
func (p Palette) Yellow(s string) string { return p.paint(yellow, s) }

// Cyan colors s cyan
func (p Palette) Cyan(s string) string { return p.paint(cyan, s) }

// Gray colors s gray
func (p Palette) Gray(s string) string { return p.paint(gray, s) }

// NewWriter returns a writer that renders ANSI colors on every platform.
// On Windows consoles the escape sequences are translated to console API calls.
func NewWriter(w io.Writer) io.Writer {
	return ansicolor.NewAnsiColorWriter(w)
}
