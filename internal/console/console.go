// Package console prints operator-facing status lines for the staticd CLI.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Console writes styled one-line messages. It is safe for concurrent use.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	isQuiet bool // suppresses Info and Success; warnings and errors still print
	Bold    *color.Color
	Green   *color.Color
	Yellow  *color.Color
	Red     *color.Color
}

// New creates a Console writing to stderr.
func New(quiet bool) *Console {
	return NewWriter(os.Stderr, quiet)
}

// NewWriter creates a Console writing to w.
func NewWriter(w io.Writer, quiet bool) *Console {
	return &Console{
		out:     w,
		isQuiet: quiet,
		Bold:    color.New(color.Bold),
		Green:   color.New(color.FgGreen),
		Yellow:  color.New(color.FgYellow),
		Red:     color.New(color.FgRed),
	}
}

// Info prints a plain informational message.
func (c *Console) Info(format string, a ...any) {
	if c.isQuiet {
		return
	}
	c.print(nil, "", format, a...)
}

// Success prints a success message.
func (c *Console) Success(format string, a ...any) {
	if c.isQuiet {
		return
	}
	c.print(c.Green, "✓ ", format, a...)
}

// Warn prints a warning.
func (c *Console) Warn(format string, a ...any) {
	c.print(c.Yellow, "! ", format, a...)
}

// Error prints an error.
func (c *Console) Error(format string, a ...any) {
	c.print(c.Red, "✗ ", format, a...)
}

// Usage prints a bold usage line.
func (c *Console) Usage(line string) {
	c.print(c.Bold, "", "%s", line)
}

func (c *Console) print(style *color.Color, prefix, format string, a ...any) {
	msg := prefix + fmt.Sprintf(format, a...) + "\n"

	c.mu.Lock()
	defer c.mu.Unlock()
	if style == nil {
		_, _ = io.WriteString(c.out, msg)
		return
	}
	_, _ = style.Fprint(c.out, msg)
}
