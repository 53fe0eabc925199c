// Package prompt implements the interactive questions asked before a build:
// which project to build and which toolchain versions to use.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ochairo/javabuild/internal/domain/entities"
	"github.com/ochairo/javabuild/internal/external-adapters/console"
)

// ErrCancelled is returned when the user picks Exit or input ends
var ErrCancelled = errors.New("cancelled by user")

// Prompter reads answers from in and writes menus and messages to out
type Prompter struct {
	in      *bufio.Reader
	out     io.Writer
	palette console.Palette
	homeDir func() (string, error)
}

// NewPrompter creates a prompter
func NewPrompter(in io.Reader, out io.Writer, palette console.Palette) *Prompter {
	return &Prompter{
		in:      bufio.NewReader(in),
		out:     out,
		palette: palette,
		homeDir: os.UserHomeDir,
	}
}

// readLine returns the next trimmed line. End of input with nothing read
// is a cancellation.
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Select shows options as a numbered menu and returns the chosen one.
// A preselected key matching an option is returned without prompting;
// an unknown one falls back to the menu.
func (p *Prompter) Select(title string, options []entities.ToolVersion, preselect string) (entities.ToolVersion, error) {
	if len(options) == 0 {
		return entities.ToolVersion{}, fmt.Errorf("no options for %q", title)
	}

	if preselect != "" {
		if opt, ok := entities.FindVersion(options, preselect); ok {
			p.printf("%s\n", p.palette.Green("✔ "+title+" "+opt.Key))
			return opt, nil
		}
		p.printf("%s\n", p.palette.Yellow(fmt.Sprintf("Unknown version %q, choose from the list.", preselect)))
	}

	for {
		p.printf("%s\n", p.palette.Yellow(title))
		p.printf("  %s Exit\n", p.palette.Red("[0]"))
		for i, opt := range options {
			line := strings.TrimRight(fmt.Sprintf("%-6s %s", opt.Key, opt.Description), " ")
			p.printf("  %s %s\n", p.palette.Cyan(fmt.Sprintf("[%d]", i+1)), line)
		}
		p.printf("%s", p.palette.Green("Number: "))

		answer, err := p.readLine()
		if err != nil {
			return entities.ToolVersion{}, err
		}
		if answer == "0" {
			return entities.ToolVersion{}, ErrCancelled
		}

		if n, ok := parseIndex(answer); ok && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		p.printf("%s\n\n", p.palette.Red("Invalid selection."))
	}
}

// parseIndex accepts plain decimal digits only
func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// LocateProject asks for the project directory until the answer is an
// existing directory holding descriptor. An empty answer means the current
// directory. initial, when set, is tried before prompting.
func (p *Prompter) LocateProject(initial, descriptor string) (string, error) {
	candidate := initial
	asked := false

	for {
		if initial == "" || asked {
			p.printf("%s", p.palette.Green("Project path (or .): "))
			answer, err := p.readLine()
			if err != nil {
				return "", err
			}
			candidate = answer
		}
		asked = true

		dir, err := p.resolveProject(candidate, descriptor)
		if err == nil {
			p.printf("%s\n", p.palette.Green("✔ Project: "+dir))
			return dir, nil
		}
		p.printf("%s\n", p.palette.Red(err.Error()))
	}
}

func (p *Prompter) resolveProject(candidate, descriptor string) (string, error) {
	if candidate == "" {
		candidate = "."
	}

	expanded, err := p.expandHome(candidate)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", candidate, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", resolved)
	}
	if descriptor != "" {
		if _, err := os.Stat(filepath.Join(resolved, descriptor)); err != nil {
			return "", fmt.Errorf("no %s in %s", descriptor, resolved)
		}
	}

	return resolved, nil
}

// expandHome replaces a leading "~" with the user's home directory
func (p *Prompter) expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}

	home, err := p.homeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
